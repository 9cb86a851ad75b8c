package transform

import (
	"fmt"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/docsite/internal/rules"
)

// MessagesError carries the diagnostics reported by esbuild.
type MessagesError struct {
	Messages []api.Message
}

func (e *MessagesError) Error() string {
	texts := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		if m.Location != nil {
			texts = append(texts, fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column, m.Text))
			continue
		}
		texts = append(texts, m.Text)
	}
	return strings.Join(texts, "; ")
}

var engineNames = map[string]api.EngineName{
	"chrome":  api.EngineChrome,
	"edge":    api.EngineEdge,
	"firefox": api.EngineFirefox,
	"ios":     api.EngineIOS,
	"opera":   api.EngineOpera,
	"safari":  api.EngineSafari,
}

// Engines converts browser targets, unknown browsers are dropped.
func Engines(targets []rules.BrowserTarget) []api.Engine {
	engines := make([]api.Engine, 0, len(targets))
	for _, t := range targets {
		name, ok := engineNames[t.Name]
		if !ok {
			continue
		}
		engines = append(engines, api.Engine{Name: name, Version: t.Version})
	}
	return engines
}

// PostCSS lowers modern syntax and adds vendor prefixes for targets.
func PostCSS(css, path string, targets []rules.BrowserTarget) (string, error) {
	res := api.Transform(css, api.TransformOptions{
		Loader:     api.LoaderCSS,
		Engines:    Engines(targets),
		Sourcefile: path,
		LogLevel:   api.LogLevelSilent,
	})

	if len(res.Errors) > 0 {
		return "", &MessagesError{Messages: res.Errors}
	}

	return string(res.Code), nil
}
