package assets

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/wolfeidau/docsite/internal/config"
	"github.com/wolfeidau/docsite/internal/transform"
)

var (
	// ErrNotBuilt indicates metadata was requested before a build completed
	ErrNotBuilt = errors.New("assets not built yet, call Build() first")
	// ErrEntryNotFound indicates the entry point is missing from the build metadata
	ErrEntryNotFound = errors.New("entrypoint not found in metadata")
	// ErrUnknownLoader indicates a rule references a loader the engine does not implement
	ErrUnknownLoader = errors.New("unknown loader")
	// ErrUnsupportedPlugin indicates a plugin kind the engine does not implement
	ErrUnsupportedPlugin = errors.New("unsupported plugin")
	// ErrNoStyleCompiler indicates a sass step ran without a configured compiler
	ErrNoStyleCompiler = errors.New("no style compiler configured")
	// ErrFilenameMismatch indicates script and stylesheet names cannot share one template
	ErrFilenameMismatch = errors.New("script and stylesheet filename templates differ")
)

type BuildMetadata struct {
	Outputs map[string]OutputInfo `json:"outputs"`
}

type OutputInfo struct {
	EntryPoint string       `json:"entryPoint"`
	CSSBundle  string       `json:"cssBundle"`
	Imports    []ImportInfo `json:"imports"`
}

type ImportInfo struct {
	Path string `json:"path"`
}

// BuildError carries the diagnostics of a failed build unmodified.
type BuildError struct {
	Messages []api.Message
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("esbuild failed with %d errors: %s", len(e.Messages),
		(&transform.MessagesError{Messages: e.Messages}).Error())
}

// Result summarises a successful build.
type Result struct {
	Outputs  []string
	Pages    []string
	Warnings []api.Message
}

// Pipeline executes an assembled configuration with esbuild.
type Pipeline struct {
	config   *config.Config
	opts     Config
	compiler transform.StyleCompiler
	renderer Renderer
	metadata *BuildMetadata
	mu       sync.RWMutex
	buildMu  sync.Mutex
}

type Option func(*Pipeline)

// WithStyleCompiler sets the compiler used by sass steps.
func WithStyleCompiler(c transform.StyleCompiler) Option {
	return func(p *Pipeline) {
		p.compiler = c
	}
}

// WithRenderer replaces the default page renderer.
func WithRenderer(r Renderer) Option {
	return func(p *Pipeline) {
		p.renderer = r
	}
}

// New creates a new asset pipeline for the assembled configuration
func New(cfg *config.Config, opts Config, options ...Option) (*Pipeline, error) {
	p := &Pipeline{
		config: cfg,
		opts:   opts,
	}

	for _, o := range options {
		o(p)
	}

	if p.renderer == nil {
		r, err := NewTemplateRenderer("", nil)
		if err != nil {
			return nil, err
		}
		p.renderer = r
	}

	return p, nil
}

// buildState is reset at the start of every build, including watch rebuilds.
type buildState struct {
	mu      sync.Mutex
	modules map[string]string
	emits   []emit
	written []string
	pages   []string
}

type emit struct {
	src string
	dst string
}

func newBuildState() *buildState {
	return &buildState{modules: map[string]string{}}
}

func (s *buildState) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules = map[string]string{}
	s.emits = nil
	s.written = nil
	s.pages = nil
}

func (s *buildState) storeModule(path, css string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.modules[path] = css
}

func (s *buildState) module(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	css, ok := s.modules[path]
	return css, ok
}

func (s *buildState) addEmit(src, dst string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emits = append(s.emits, emit{src: src, dst: dst})
}

func (s *buildState) takeEmits() []emit {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.emits
	s.emits = nil
	return out
}

// addWritten records a file written outside esbuild's own output.
func (s *buildState) addWritten(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, path)
}

func (s *buildState) addPage(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = append(s.pages, path)
}

func (s *buildState) files() (written, pages []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.written), slices.Clone(s.pages)
}

func urlPath(p string) string {
	return "/" + strings.TrimPrefix(p, "/")
}
