// Package config assembles the complete build configuration from the
// environment, rule, plugin and policy builders.
package config

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/plugins"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/routes"
	"github.com/wolfeidau/docsite/internal/rules"
	"github.com/wolfeidau/docsite/internal/style"
)

var (
	// ErrNoEntries indicates no entry modules were configured
	ErrNoEntries = errors.New("no entry modules configured")
	// ErrUnknownEntry indicates the pre-render plugin names an entry that does not exist
	ErrUnknownEntry = errors.New("pre-render entry is not a configured entry")
	// ErrExtractionPluginMissing indicates a rule uses the extract loader without the extraction plugin
	ErrExtractionPluginMissing = errors.New("style extraction plugin must be registered before rules use its loader")
)

type Options struct {
	// Entries maps bundle name to entry module path.
	Entries       map[string]string
	TokensDir     string
	RoutesFile    string
	RedirectsFile string
	OutputDir     string
	Plugins       plugins.Options
}

// DefaultOptions returns a sensible default configuration
func DefaultOptions() Options {
	return Options{
		Entries:       map[string]string{"docs": "./docs/src/index.js"},
		TokensDir:     style.DefaultTokensDir,
		RoutesFile:    "docs/src/constants/routes.yaml",
		RedirectsFile: "docs/src/constants/redirect-routes.yaml",
		OutputDir:     policy.DefaultOutputDir,
		Plugins:       plugins.DefaultOptions(),
	}
}

// Config is handed read-only to the bundler engine.
type Config struct {
	Environment  buildenv.Environment `yaml:"-"`
	Mode         buildenv.Mode        `yaml:"mode"`
	Entries      map[string]string    `yaml:"entry"`
	Output       policy.Output        `yaml:"output"`
	Rules        []rules.Rule         `yaml:"rules"`
	Plugins      PluginList           `yaml:"plugins"`
	Optimization policy.Optimization  `yaml:"optimization"`
	DevServer    policy.DevServer     `yaml:"devServer"`
	Routes       routes.List          `yaml:"routes,omitempty"`
}

// Assemble resolves the environment from vars and builds every part of the
// configuration exactly once. Any failure aborts assembly, there is no partial
// configuration.
func Assemble(vars buildenv.Vars, opts Options) (*Config, error) {
	env := buildenv.Resolve(vars)

	styleOpts, err := style.Load(env, opts.TokensDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load style options: %w", err)
	}

	ruleSet := rules.Build(env, styleOpts)
	output := policy.NewOutput(env, opts.OutputDir)

	var paths routes.List
	if env.IsProduction() {
		paths, err = loadRoutes(opts.RoutesFile, opts.RedirectsFile)
		if err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Environment:  env,
		Mode:         env.Mode,
		Entries:      maps.Clone(opts.Entries),
		Output:       output,
		Rules:        ruleSet,
		Plugins:      plugins.Build(env, paths, output, opts.Plugins),
		Optimization: policy.NewOptimization(),
		DevServer:    policy.NewDevServer(),
		Routes:       paths,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadRoutes(routesFile, redirectsFile string) (routes.List, error) {
	primary, err := routes.Load(routesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load routes: %w", err)
	}

	redirects, err := routes.Load(redirectsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load redirects: %w", err)
	}

	return routes.NewList(primary, redirects), nil
}

// Validate checks the invariants the engine relies on.
func (c *Config) Validate() error {
	if len(c.Entries) == 0 {
		return ErrNoEntries
	}

	if p, ok := plugins.Find(c.Plugins, plugins.KindStaticPrerender); ok {
		entry := p.(plugins.StaticPrerender).Entry
		if _, ok := c.Entries[entry]; !ok {
			return fmt.Errorf("%w: %s", ErrUnknownEntry, entry)
		}
	}

	_, hasExtraction := plugins.Find(c.Plugins, plugins.KindStyleExtraction)
	for _, r := range c.Rules {
		if r.Uses(rules.LoaderExtract) && !hasExtraction {
			return fmt.Errorf("%w: %s", ErrExtractionPluginMissing, r.Category)
		}
	}

	return nil
}

// EntryNames returns the bundle names in a stable order.
func (c *Config) EntryNames() []string {
	return slices.Sorted(maps.Keys(c.Entries))
}

// Plugin returns the first plugin of kind k.
func (c *Config) Plugin(k plugins.Kind) (plugins.Plugin, bool) {
	return plugins.Find(c.Plugins, k)
}

func (c *Config) MarshalZerologObject(e *zerolog.Event) {
	e.Str("mode", string(c.Mode)).
		Strs("entries", c.EntryNames()).
		Str("output", c.Output.Path).
		Bool("css_modules", c.Environment.CSSModulesEnabled).
		Str("tokens", c.Environment.TokenSetID.String()).
		Int("rules", len(c.Rules)).
		Strs("plugins", kindStrings(c.Plugins)).
		Int("routes", len(c.Routes))
}

func kindStrings(list []plugins.Plugin) []string {
	out := make([]string, 0, len(list))
	for _, k := range plugins.Kinds(list) {
		out = append(out, string(k))
	}
	return out
}

// PluginList keeps the plugin kind visible when the configuration is printed.
type PluginList []plugins.Plugin

func (l PluginList) MarshalYAML() (any, error) {
	out := make([]map[string]any, 0, len(l))
	for _, p := range l {
		out = append(out, map[string]any{
			"kind":   string(p.Kind()),
			"params": p,
		})
	}
	return out, nil
}
