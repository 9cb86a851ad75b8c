package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/plugins"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const tracerName = "github.com/wolfeidau/docsite/internal/assets"

// ScriptTarget is the language level scripts are lowered to. Browser targets
// only apply to stylesheets, through the postcss step.
const ScriptTarget = api.ES2017

// Build runs esbuild with the assembled configuration and loads metadata.
// Plugins run their post build steps before Build returns.
func (p *Pipeline) Build(ctx context.Context) (*Result, error) {
	p.buildMu.Lock()
	defer p.buildMu.Unlock()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assets.Build")
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("mode", string(p.config.Mode)))
	metrics := telemetry.GetMetrics()
	metrics.BuildsTotal.Add(ctx, 1, attrs)

	started := time.Now()

	state := newBuildState()
	opts, err := p.buildOptions(state)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	log.Ctx(ctx).Info().Object("config", p.config).Msg("Building assets")

	result := api.Build(opts)

	metrics.BuildDuration.Record(ctx, float64(time.Since(started).Milliseconds()), attrs)

	if len(result.Errors) > 0 {
		for _, msg := range result.Errors {
			log.Ctx(ctx).Error().Str("error", msg.Text).Str("file", messageFile(msg)).Msg("Build error")
		}
		metrics.BuildErrorsTotal.Add(ctx, 1, attrs)

		err := &BuildError{Messages: result.Errors}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	for _, msg := range result.Warnings {
		log.Ctx(ctx).Warn().Str("warning", msg.Text).Str("file", messageFile(msg)).Msg("Build warning")
	}

	res := p.result(state, result)

	if p.opts.Precompress {
		compressed, err := Precompress(p.outputDir(), append(slices.Clone(res.Outputs), res.Pages...))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		res.Outputs = append(res.Outputs, compressed...)
		slices.Sort(res.Outputs)
	}

	for _, file := range res.Outputs {
		log.Ctx(ctx).Debug().Str("file", file).Msg("Built file")
	}

	metrics.BuildOutputsTotal.Add(ctx, int64(len(res.Outputs)+len(res.Pages)), attrs)
	span.SetAttributes(
		attribute.Int("docsite.outputs", len(res.Outputs)),
		attribute.Int("docsite.pages", len(res.Pages)),
	)

	log.Ctx(ctx).Info().
		Int("outputs", len(res.Outputs)).
		Int("pages", len(res.Pages)).
		Dur("duration", time.Since(started)).
		Msg("Build complete")

	return res, nil
}

// buildOptions maps the configuration onto esbuild. Style extraction and define
// injection become options, every other plugin runs after the build in list
// order.
func (p *Pipeline) buildOptions(state *buildState) (api.BuildOptions, error) {
	entryNames, err := entryNamesTemplate(p.config.Output, p.config.Plugins)
	if err != nil {
		return api.BuildOptions{}, err
	}

	entryPoints := make([]api.EntryPoint, 0, len(p.config.Entries))
	for _, name := range p.config.EntryNames() {
		entryPoints = append(entryPoints, api.EntryPoint{
			InputPath:  p.config.Entries[name],
			OutputPath: name,
		})
	}

	esPlugins := []api.Plugin{p.rulesPlugin(state)}
	var define map[string]string

	for _, plugin := range p.config.Plugins {
		switch v := plugin.(type) {
		case plugins.StyleExtraction:
			// folded into the entry name template
		case plugins.DefineInjection:
			define = v.Definitions
		case plugins.StaticPrerender:
			pr, err := p.prerenderPlugin(state, v)
			if err != nil {
				return api.BuildOptions{}, err
			}
			esPlugins = append(esPlugins, pr)
		case plugins.ModuleOrder:
			esPlugins = append(esPlugins, p.moduleOrderPlugin())
		case plugins.CopyFiles:
			esPlugins = append(esPlugins, p.copyPlugin(state, v))
		default:
			return api.BuildOptions{}, fmt.Errorf("%w: %s", ErrUnsupportedPlugin, plugin.Kind())
		}
	}

	optimization := p.config.Optimization
	minify := optimization.Uses(policy.MinimizerScript) || optimization.Uses(policy.MinimizerStyle)

	return api.BuildOptions{
		AbsWorkingDir:       p.workingDir(),
		EntryPointsAdvanced: entryPoints,
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Outdir:              p.outputDir(),
		EntryNames:          entryNames,
		AssetNames:          esbuildTemplate(p.config.Output.AssetFilename),
		Format:              api.FormatIIFE,
		Platform:            api.PlatformBrowser,
		JSX:                 api.JSXAutomatic,
		Target:              ScriptTarget,
		Define:              define,
		MinifyWhitespace:    minify,
		MinifyIdentifiers:   minify,
		MinifySyntax:        minify,
		TreeShaking:         api.TreeShakingTrue,
		Sourcemap:           cond(p.opts.SourceMap, api.SourceMapLinked, api.SourceMapNone),
		LogLevel:            api.LogLevelSilent,
		Plugins:             esPlugins,
	}, nil
}

// entryNamesTemplate converts the script filename into an esbuild entry name
// template. esbuild names a bundle's stylesheet after its script so the
// extracted stylesheet template has to agree with it.
func entryNamesTemplate(output policy.Output, list []plugins.Plugin) (string, error) {
	script := esbuildTemplate(output.ScriptFilename)

	plugin, ok := plugins.Find(list, plugins.KindStyleExtraction)
	if !ok {
		return script, nil
	}

	style := esbuildTemplate(plugin.(plugins.StyleExtraction).Filename)
	if style != script {
		return "", fmt.Errorf("%w: %q and %q", ErrFilenameMismatch, output.ScriptFilename, plugin.(plugins.StyleExtraction).Filename)
	}

	return script, nil
}

// esbuildTemplate rewrites a filename template into esbuild's placeholders,
// which append the extension themselves.
func esbuildTemplate(template string) string {
	t := strings.NewReplacer(
		policy.PlaceholderChunkHash, policy.PlaceholderHash,
		policy.PlaceholderContentHash, policy.PlaceholderHash,
	).Replace(template)

	for _, ext := range []string{".js", ".css", "." + policy.PlaceholderExt} {
		t = strings.TrimSuffix(t, ext)
	}

	return t
}

// finishBuild parses and persists the metafile then writes files loaders
// asked to emit. It runs before any other plugin's post build step.
func (p *Pipeline) finishBuild(state *buildState, result *api.BuildResult) error {
	var metadata BuildMetadata
	if err := json.Unmarshal([]byte(result.Metafile), &metadata); err != nil {
		return fmt.Errorf("failed to parse metafile: %w", err)
	}

	if err := p.writeMetafile([]byte(result.Metafile)); err != nil {
		return err
	}

	for _, e := range state.takeEmits() {
		if err := copyFile(e.src, e.dst); err != nil {
			return err
		}
		state.addWritten(e.dst)
	}

	p.mu.Lock()
	p.metadata = &metadata
	p.mu.Unlock()

	return nil
}

func (p *Pipeline) writeMetafile(data []byte) error {
	if p.opts.MetafilePath == "" {
		return nil
	}

	metafile := filepath.Join(p.outputDir(), p.opts.MetafilePath)
	if err := os.MkdirAll(filepath.Dir(metafile), 0o755); err != nil {
		return err
	}

	return os.WriteFile(metafile, data, 0600)
}

func (p *Pipeline) result(state *buildState, result api.BuildResult) *Result {
	p.mu.RLock()
	var outputs []string
	if p.metadata != nil {
		for key := range p.metadata.Outputs {
			outputs = append(outputs, p.outputRel(key))
		}
	}
	p.mu.RUnlock()

	written, pages := state.files()
	for _, file := range written {
		outputs = append(outputs, p.fileRel(file))
	}

	slices.Sort(outputs)
	outputs = slices.Compact(outputs)

	res := &Result{
		Outputs:  outputs,
		Warnings: result.Warnings,
	}
	for _, page := range pages {
		res.Pages = append(res.Pages, p.fileRel(page))
	}

	return res
}

// LoadScripts returns the ordered list of script URLs needed for the given
// entrypoint and the main entrypoint URL. URLs are rooted at the output
// directory.
func (p *Pipeline) LoadScripts(entryPointPath string) ([]string, string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, "", ErrNotBuilt
	}

	key, info, ok := p.findEntry(entryPointPath)
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrEntryNotFound, entryPointPath)
	}

	entrypoint := urlPath(p.outputRel(key))
	scripts := []string{entrypoint}
	visited := map[string]bool{key: true}
	p.addDependencies(info, &scripts, visited)

	return scripts, entrypoint, nil
}

// LoadStyles returns the stylesheet URLs extracted for the given entrypoint.
func (p *Pipeline) LoadStyles(entryPointPath string) ([]string, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.metadata == nil {
		return nil, ErrNotBuilt
	}

	_, info, ok := p.findEntry(entryPointPath)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryPointPath)
	}

	if info.CSSBundle == "" {
		return []string{}, nil
	}

	return []string{urlPath(p.outputRel(info.CSSBundle))}, nil
}

// findEntry scans outputs in name order so lookups are deterministic.
func (p *Pipeline) findEntry(entryPointPath string) (string, OutputInfo, bool) {
	want := normalizeEntry(entryPointPath)

	keys := make([]string, 0, len(p.metadata.Outputs))
	for key := range p.metadata.Outputs {
		keys = append(keys, key)
	}
	slices.Sort(keys)

	for _, key := range keys {
		info := p.metadata.Outputs[key]
		if info.EntryPoint == want && path.Ext(key) == ".js" {
			return key, info, true
		}
	}

	return "", OutputInfo{}, false
}

func (p *Pipeline) addDependencies(output OutputInfo, scripts *[]string, visited map[string]bool) {
	for _, imp := range output.Imports {
		if visited[imp.Path] || path.Ext(imp.Path) != ".js" {
			continue
		}
		visited[imp.Path] = true
		*scripts = append(*scripts, urlPath(p.outputRel(imp.Path)))

		if chunkInfo, exists := p.metadata.Outputs[imp.Path]; exists {
			p.addDependencies(chunkInfo, scripts, visited)
		}
	}
}

// Handler returns an http.HandlerFunc that renders the page shell for the named
// entry with its scripts and stylesheets.
func (p *Pipeline) Handler(entryName string, contextFn func(ctx context.Context) any) (http.HandlerFunc, error) {
	entryPointPath, ok := p.config.Entries[entryName]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, entryName)
	}

	var locals plugins.Locals
	if v, ok := p.config.Plugin(plugins.KindStaticPrerender); ok {
		locals = v.(plugins.StaticPrerender).Locals
	}

	return func(w http.ResponseWriter, r *http.Request) {
		page, err := p.page(entryPointPath, r.URL.Path, locals)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to load scripts")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		if contextFn != nil {
			page.Context = contextFn(r.Context())
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := p.renderer.Render(w, page); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Failed to render template")
		}
	}, nil
}

func (p *Pipeline) page(entryPointPath, route string, locals plugins.Locals) (Page, error) {
	scripts, _, err := p.LoadScripts(entryPointPath)
	if err != nil {
		return Page{}, err
	}

	styles, err := p.LoadStyles(entryPointPath)
	if err != nil {
		return Page{}, err
	}

	return Page{
		Path:    route,
		Title:   p.opts.Title,
		Scripts: scripts,
		Styles:  styles,
		Locals:  locals,
	}, nil
}

// OutputDir returns the absolute directory builds are written to.
func (p *Pipeline) OutputDir() string {
	return p.outputDir()
}

func (p *Pipeline) outputDir() string {
	if filepath.IsAbs(p.config.Output.Path) {
		return p.config.Output.Path
	}
	return filepath.Join(p.workingDir(), p.config.Output.Path)
}

// outputRel converts a metafile output path, relative to the working
// directory, into a path relative to the output directory.
func (p *Pipeline) outputRel(key string) string {
	return p.fileRel(filepath.Join(p.workingDir(), filepath.FromSlash(key)))
}

func (p *Pipeline) fileRel(file string) string {
	rel, err := filepath.Rel(p.outputDir(), file)
	if err != nil {
		return filepath.ToSlash(file)
	}
	return filepath.ToSlash(rel)
}

// normalizeEntry matches the form esbuild records entry points in.
func normalizeEntry(entryPointPath string) string {
	return path.Clean(filepath.ToSlash(entryPointPath))
}

func messageFile(msg api.Message) string {
	if msg.Location == nil {
		return ""
	}
	return msg.Location.File
}

func cond[T any](condition bool, trueVal, falseVal T) T {
	if condition {
		return trueVal
	}
	return falseVal
}
