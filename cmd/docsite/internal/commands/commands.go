package commands

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/assets"
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/config"
	"github.com/wolfeidau/docsite/internal/logger"
	"github.com/wolfeidau/docsite/internal/telemetry"
	"github.com/wolfeidau/docsite/internal/transform"
)

type Globals struct {
	Debug   bool
	Version string
}

// ConfigFlags locate the inputs the build configuration is assembled from.
type ConfigFlags struct {
	Dir           string            `help:"working directory of the docs project" default:"." env:"DOCSITE_DIR" type:"existingdir"`
	Entry         map[string]string `help:"entry bundles as name=path" default:"docs=./docs/src/index.js" env:"DOCSITE_ENTRY"`
	EnvFile       []string          `help:"env files merged under the process environment" default:".env" env:"DOCSITE_ENV_FILE"`
	TokensDir     string            `help:"directory holding the style token sets" default:"packages/bpk-tokens/tokens" env:"DOCSITE_TOKENS_DIR"`
	RoutesFile    string            `help:"primary route registry" default:"docs/src/constants/routes.yaml" env:"DOCSITE_ROUTES_FILE"`
	RedirectsFile string            `help:"redirect route registry" default:"docs/src/constants/redirect-routes.yaml" env:"DOCSITE_REDIRECTS_FILE"`
	OutputDir     string            `help:"output directory" default:"dist" env:"DOCSITE_OUTPUT_DIR"`
	PrerenderFrom string            `help:"entry bundle pages are pre-rendered from" default:"docs" env:"DOCSITE_PRERENDER_ENTRY"`
}

// options resolves relative paths against Dir.
func (f *ConfigFlags) options() config.Options {
	opts := config.DefaultOptions()
	if len(f.Entry) > 0 {
		opts.Entries = f.Entry
	}
	opts.TokensDir = f.path(f.TokensDir)
	opts.RoutesFile = f.path(f.RoutesFile)
	opts.RedirectsFile = f.path(f.RedirectsFile)
	opts.OutputDir = f.OutputDir
	opts.Plugins.Entry = f.PrerenderFrom
	return opts
}

func (f *ConfigFlags) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(f.Dir, p)
}

func (f *ConfigFlags) assemble() (*config.Config, error) {
	files := make([]string, 0, len(f.EnvFile))
	for _, file := range f.EnvFile {
		files = append(files, f.path(file))
	}

	vars, err := buildenv.FromOS(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	cfg, err := config.Assemble(vars, f.options())
	if err != nil {
		return nil, fmt.Errorf("failed to assemble configuration: %w", err)
	}

	return cfg, nil
}

// PipelineFlags configure how the assembled configuration is executed.
type PipelineFlags struct {
	SassBinary string `help:"path to the dart sass embedded binary, empty to search PATH" default:"" env:"DOCSITE_SASS_BINARY"`
	Template   string `help:"page template used for pre-rendered pages, empty for the built in shell" default:"" env:"DOCSITE_TEMPLATE" type:"path"`
	Title      string `help:"title of rendered pages" default:"Backpack" env:"DOCSITE_TITLE"`
	SourceMap  bool   `help:"write linked source maps" default:"false" env:"DOCSITE_SOURCE_MAP"`
}

// pipeline returns the engine for cfg and a func releasing the style compiler.
func (p *PipelineFlags) pipeline(dir string, cfg *config.Config, precompress bool) (*assets.Pipeline, func(), error) {
	renderer, err := assets.NewTemplateRenderer(p.Template, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load page template: %w", err)
	}

	options := []assets.Option{assets.WithRenderer(renderer)}
	cleanup := func() {}

	compiler, err := transform.NewDartSass(p.SassBinary)
	if err != nil {
		log.Warn().Err(err).Msg("Sass compiler unavailable, stylesheets will fail to build")
	} else {
		options = append(options, assets.WithStyleCompiler(compiler))
		cleanup = func() {
			if err := compiler.Close(); err != nil {
				log.Warn().Err(err).Msg("Failed to stop sass compiler")
			}
		}
	}

	opts := assets.DefaultConfig()
	opts.WorkingDir = dir
	opts.SourceMap = p.SourceMap
	opts.Precompress = precompress
	opts.Title = p.Title

	pipeline, err := assets.New(cfg, opts, options...)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	return pipeline, cleanup, nil
}

// setupLogger configures the global logger and returns a context carrying a
// logger tagged with a fresh build id.
func setupLogger(ctx context.Context, globals *Globals) (context.Context, zerolog.Logger) {
	log.Logger = logger.Setup(globals.Debug)

	l := log.Logger.With().Str("build_id", uuid.NewString()).Logger()
	return l.WithContext(ctx), l
}

// setupTelemetry starts exporters when enabled and returns their shutdown func.
func setupTelemetry(ctx context.Context, l zerolog.Logger, enabled bool, version, command string, cfg *config.Config) func() {
	if !enabled {
		return func() {}
	}

	l.Info().Msg("Tracing is enabled")
	info := telemetry.BuildInfo{Command: command, Mode: string(cfg.Mode)}
	if cfg.Environment.TokenSetID.Set {
		info.TokenSet = cfg.Environment.TokenSetID.Value
	}

	shutdown, err := telemetry.InitTelemetry(ctx, "docsite", version, info)
	if err != nil {
		l.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
		return func() {}
	}

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			l.Error().Err(err).Msg("Failed to shutdown telemetry")
		}
	}
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	// Create HTTP server
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       5 * time.Minute,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}
