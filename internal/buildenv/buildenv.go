// Package buildenv resolves raw process configuration into the immutable
// Environment every other build component branches on.
package buildenv

import (
	"strings"
)

// Process configuration variable names.
const (
	VarNodeEnv          = "NODE_ENV"
	VarTokens           = "BPK_TOKENS"
	VarEnableCSSModules = "ENABLE_CSS_MODULES"
	VarBuiltAt          = "BPK_BUILT_AT"
	VarMapsAPIKey       = "GOOGLE_MAPS_API_KEY"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// Vars is raw process configuration. A missing key is an unset variable.
type Vars map[string]string

// Optional is a string that may be unset, which is distinct from empty.
type Optional struct {
	Value string
	Set   bool
}

func Some(v string) Optional {
	return Optional{Value: v, Set: true}
}

func (o Optional) String() string {
	if !o.Set {
		return "<unset>"
	}
	return o.Value
}

// Environment is created once per run and never mutated afterwards.
type Environment struct {
	Mode              Mode
	NodeEnv           Optional
	TokenSetID        Optional
	CSSModulesEnabled bool
	BuiltAt           Optional
	MapsAPIKey        Optional
}

// Resolve derives the Environment from raw variables. It never fails: missing
// variables resolve to their defaults.
func Resolve(vars Vars) Environment {
	env := Environment{
		Mode:              ModeDevelopment,
		NodeEnv:           lookup(vars, VarNodeEnv),
		BuiltAt:           lookup(vars, VarBuiltAt),
		MapsAPIKey:        lookup(vars, VarMapsAPIKey),
		CSSModulesEnabled: true,
	}

	if env.NodeEnv.Set && env.NodeEnv.Value == string(ModeProduction) {
		env.Mode = ModeProduction
	}

	// only the literal "false" disables css modules, absence keeps them on
	if v, ok := vars[VarEnableCSSModules]; ok && v == "false" {
		env.CSSModulesEnabled = false
	}

	// an empty token set id is treated the same as an unset one
	if v, ok := vars[VarTokens]; ok && v != "" {
		env.TokenSetID = Some(v)
	}

	return env
}

func (e Environment) IsProduction() bool {
	return e.Mode == ModeProduction
}

// FromEnviron converts KEY=VALUE pairs, as returned by os.Environ, into Vars.
func FromEnviron(environ []string) Vars {
	vars := make(Vars, len(environ))
	for _, kv := range environ {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		vars[k] = v
	}
	return vars
}

func lookup(vars Vars, key string) Optional {
	v, ok := vars[key]
	if !ok {
		return Optional{}
	}
	return Some(v)
}
