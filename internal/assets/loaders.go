package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/rules"
	"github.com/wolfeidau/docsite/internal/telemetry"
	"github.com/wolfeidau/docsite/internal/transform"
)

const (
	rulesPluginName    = "docsite-rules"
	cssModuleNamespace = "docsite-css-module"
	cssModuleSuffix    = "?css-module"
)

// asset is a file travelling through a loader chain.
type asset struct {
	path     string
	rel      string
	contents string
	loaded   bool
	loader   api.Loader
	exports  map[string]string
}

func (a *asset) load() error {
	if a.loaded {
		return nil
	}
	data, err := os.ReadFile(a.path)
	if err != nil {
		return err
	}
	a.contents = string(data)
	a.loaded = true
	return nil
}

type loaderFunc func(p *Pipeline, state *buildState, step rules.LoaderStep, a *asset) error

var loaderFuncs = map[string]loaderFunc{
	rules.LoaderScript:  scriptLoader,
	rules.LoaderSass:    sassLoader,
	rules.LoaderPostCSS: postCSSLoader,
	rules.LoaderCSS:     cssLoader,
	rules.LoaderExtract: extractLoader,
	rules.LoaderFile:    fileLoader,
	rules.LoaderRaw:     rawLoader,
}

// rulesPlugin routes every loaded file through the first matching rule.
// Files no rule matches fall through to esbuild's defaults.
func (p *Pipeline) rulesPlugin(state *buildState) api.Plugin {
	return api.Plugin{
		Name: rulesPluginName,
		Setup: func(build api.PluginBuild) {
			build.OnStart(func() (api.OnStartResult, error) {
				state.reset()
				return api.OnStartResult{}, nil
			})

			build.OnResolve(api.OnResolveOptions{Filter: `\?css-module$`},
				func(args api.OnResolveArgs) (api.OnResolveResult, error) {
					return api.OnResolveResult{
						Path:      strings.TrimSuffix(args.Path, cssModuleSuffix),
						Namespace: cssModuleNamespace,
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: cssModuleNamespace},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					css, ok := state.module(args.Path)
					if !ok {
						return api.OnLoadResult{}, fmt.Errorf("no compiled stylesheet for %s", args.Path)
					}
					return api.OnLoadResult{
						Contents:   &css,
						Loader:     api.LoaderCSS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				})

			build.OnLoad(api.OnLoadOptions{Filter: `.*`, Namespace: "file"},
				func(args api.OnLoadArgs) (api.OnLoadResult, error) {
					rule, ok := rules.Match(p.config.Rules, p.relPath(args.Path))
					if !ok {
						return api.OnLoadResult{}, nil
					}
					return p.runChain(state, rule, args.Path)
				})

			build.OnEnd(func(result *api.BuildResult) (api.OnEndResult, error) {
				if len(result.Errors) > 0 {
					return api.OnEndResult{}, nil
				}
				if err := p.finishBuild(state, result); err != nil {
					return api.OnEndResult{}, err
				}
				return api.OnEndResult{}, nil
			})
		},
	}
}

// runChain executes the rule's loaders last to first.
func (p *Pipeline) runChain(state *buildState, rule rules.Rule, path string) (api.OnLoadResult, error) {
	a := &asset{path: path, rel: p.relPath(path)}

	for i := len(rule.Use) - 1; i >= 0; i-- {
		step := rule.Use[i]

		fn, ok := loaderFuncs[step.Name]
		if !ok {
			return api.OnLoadResult{}, fmt.Errorf("%w: %s", ErrUnknownLoader, step.Name)
		}

		if err := fn(p, state, step, a); err != nil {
			return api.OnLoadResult{}, fmt.Errorf("%s: %s loader: %w", a.rel, step.Name, err)
		}
	}

	log.Debug().Str("file", a.rel).Str("rule", string(rule.Category)).Msg("Loaded file")

	return api.OnLoadResult{
		Contents:   &a.contents,
		Loader:     a.loader,
		ResolveDir: filepath.Dir(path),
	}, nil
}

func scriptLoader(_ *Pipeline, _ *buildState, _ rules.LoaderStep, a *asset) error {
	if err := a.load(); err != nil {
		return err
	}
	// scripts may contain JSX regardless of extension
	a.loader = api.LoaderJSX
	return nil
}

func sassLoader(p *Pipeline, _ *buildState, step rules.LoaderStep, a *asset) error {
	if p.compiler == nil {
		return ErrNoStyleCompiler
	}
	if err := a.load(); err != nil {
		return err
	}

	started := time.Now()
	css, err := p.compiler.Compile(transform.CompileRequest{
		Path:         a.path,
		Source:       a.contents,
		Options:      step.Style(),
		IncludePaths: p.includePaths(a.path),
	})
	telemetry.GetMetrics().StyleCompileDuration.Record(context.Background(), float64(time.Since(started).Milliseconds()))
	if err != nil {
		return err
	}

	a.contents = css
	a.loader = api.LoaderCSS
	return nil
}

func postCSSLoader(_ *Pipeline, _ *buildState, step rules.LoaderStep, a *asset) error {
	if err := a.load(); err != nil {
		return err
	}

	css, err := transform.PostCSS(a.contents, a.rel, step.Targets())
	if err != nil {
		return err
	}

	a.contents = css
	a.loader = api.LoaderCSS
	return nil
}

func cssLoader(_ *Pipeline, _ *buildState, step rules.LoaderStep, a *asset) error {
	if err := a.load(); err != nil {
		return err
	}
	a.loader = api.LoaderCSS

	modules := step.CSSModules()
	if modules == nil {
		return nil
	}

	css, exports, err := transform.LocalizeClasses(a.contents, a.rel, modules.LocalIdentName)
	if err != nil {
		return err
	}

	a.contents = css
	a.exports = exports
	return nil
}

// extractLoader hands plain stylesheets to esbuild, which writes them to the
// entry's stylesheet bundle. Module stylesheets become a script exporting the
// class names that imports the stylesheet from a virtual module.
func extractLoader(_ *Pipeline, state *buildState, _ rules.LoaderStep, a *asset) error {
	if err := a.load(); err != nil {
		return err
	}

	if a.exports == nil {
		a.loader = api.LoaderCSS
		return nil
	}

	state.storeModule(a.path, a.contents)

	specifier, err := json.Marshal(a.path + cssModuleSuffix)
	if err != nil {
		return err
	}
	classes, err := json.Marshal(a.exports)
	if err != nil {
		return err
	}

	a.contents = fmt.Sprintf("import %s;\nexport default %s;\n", specifier, classes)
	a.loader = api.LoaderJS
	return nil
}

// fileLoader inlines files below the limit and emits the rest. Templates
// without a hash are copied to the output root under their own name.
func fileLoader(p *Pipeline, state *buildState, step rules.LoaderStep, a *asset) error {
	info, err := os.Stat(a.path)
	if err != nil {
		return err
	}

	if limit := step.Int(rules.OptLimit); limit > 0 && info.Size() < int64(limit) {
		if err := a.load(); err != nil {
			return err
		}
		a.loader = api.LoaderDataURL
		return nil
	}

	name := step.String(rules.OptName)
	if name != "" && !strings.Contains(name, policy.PlaceholderHash) {
		filename := expandName(name, a.path)
		state.addEmit(a.path, filepath.Join(p.outputDir(), filename))

		url, err := json.Marshal(urlPath(filename))
		if err != nil {
			return err
		}
		a.contents = fmt.Sprintf("export default %s;\n", url)
		a.loaded = true
		a.loader = api.LoaderJS
		return nil
	}

	if err := a.load(); err != nil {
		return err
	}
	a.loader = api.LoaderFile
	return nil
}

func rawLoader(_ *Pipeline, _ *buildState, _ rules.LoaderStep, a *asset) error {
	if err := a.load(); err != nil {
		return err
	}
	a.loader = api.LoaderText
	return nil
}

// expandName fills [name] and [ext] from path.
func expandName(template, path string) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(filepath.Base(path), ext)
	return strings.NewReplacer(
		policy.PlaceholderName, base,
		policy.PlaceholderExt, strings.TrimPrefix(ext, "."),
	).Replace(template)
}

func (p *Pipeline) relPath(path string) string {
	rel, err := filepath.Rel(p.workingDir(), path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

func (p *Pipeline) includePaths(path string) []string {
	paths := []string{filepath.Dir(path)}
	for _, dir := range p.opts.IncludePaths {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(p.workingDir(), dir)
		}
		paths = append(paths, dir)
	}
	return paths
}

func (p *Pipeline) workingDir() string {
	if p.opts.WorkingDir != "" {
		if abs, err := filepath.Abs(p.opts.WorkingDir); err == nil {
			return abs
		}
		return p.opts.WorkingDir
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}
