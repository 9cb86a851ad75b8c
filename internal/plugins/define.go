package plugins

import (
	"encoding/json"
	"strings"

	"github.com/wolfeidau/docsite/internal/buildenv"
)

const undefined = "undefined"

// Definitions returns the expressions injected into client code. Only these
// variables are exposed; process.env itself is replaced with an object holding
// just them so nothing else from the build environment reaches the bundle.
func Definitions(env buildenv.Environment) map[string]string {
	builtAt := rawValue(env.BuiltAt)
	apiKey := jsonValue(env.MapsAPIKey)
	nodeEnv := jsonValue(env.NodeEnv)

	return map[string]string{
		"process.env." + buildenv.VarBuiltAt:    builtAt,
		"process.env." + buildenv.VarMapsAPIKey: apiKey,
		"process.env." + buildenv.VarNodeEnv:    nodeEnv,
		"process.env": object(
			[2]string{buildenv.VarBuiltAt, builtAt},
			[2]string{buildenv.VarMapsAPIKey, apiKey},
			[2]string{buildenv.VarNodeEnv, nodeEnv},
		),
	}
}

// rawValue passes the build timestamp through as an expression. Values that
// are not valid literals are quoted instead.
func rawValue(v buildenv.Optional) string {
	if !v.Set {
		return undefined
	}
	if json.Valid([]byte(v.Value)) {
		return v.Value
	}
	return jsonValue(v)
}

func jsonValue(v buildenv.Optional) string {
	if !v.Set {
		return undefined
	}
	b, _ := json.Marshal(v.Value) // strings always marshal
	return string(b)
}

// object renders the fields in order, skipping undefined values.
func object(fields ...[2]string) string {
	var sb strings.Builder
	sb.WriteByte('{')
	n := 0
	for _, f := range fields {
		if f[1] == undefined {
			continue
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		key, _ := json.Marshal(f[0])
		sb.Write(key)
		sb.WriteByte(':')
		sb.WriteString(f[1])
		n++
	}
	sb.WriteByte('}')
	return sb.String()
}
