// Package plugins composes the ordered list of cross-cutting build plugins.
package plugins

import (
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/routes"
)

type Kind string

const (
	KindStyleExtraction Kind = "style-extraction"
	KindDefineInjection Kind = "define-injection"
	KindStaticPrerender Kind = "static-prerender"
	KindModuleOrder     Kind = "module-order-optimize"
	KindCopyFiles       Kind = "copy-files"
)

type Plugin interface {
	Kind() Kind
}

// StyleExtraction pulls stylesheets out of the script bundle into files named
// by Filename.
type StyleExtraction struct {
	Filename string `yaml:"filename"`
}

func (StyleExtraction) Kind() Kind { return KindStyleExtraction }

// DefineInjection replaces the given expressions in client code.
type DefineInjection struct {
	Definitions map[string]string `yaml:"definitions"`
}

func (DefineInjection) Kind() Kind { return KindDefineInjection }

// Locals is handed to the page renderer alongside every route.
type Locals struct {
	Paths []string `yaml:"paths" json:"paths"`
}

// StaticPrerender renders one HTML page per path from the named entry.
type StaticPrerender struct {
	Entry  string   `yaml:"entry"`
	Paths  []string `yaml:"paths"`
	Locals Locals   `yaml:"locals"`
}

func (StaticPrerender) Kind() Kind { return KindStaticPrerender }

// ModuleOrder makes output ordering stable across identical builds.
type ModuleOrder struct{}

func (ModuleOrder) Kind() Kind { return KindModuleOrder }

type CopyPattern struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// CopyFiles copies files verbatim, To is relative to the output directory.
type CopyFiles struct {
	Patterns []CopyPattern `yaml:"patterns"`
}

func (CopyFiles) Kind() Kind { return KindCopyFiles }

// Default file copied into production output.
const (
	DefaultReadmeFrom = "docs/src/README.md"
	DefaultReadmeTo   = "README.md"
)

type Options struct {
	// Entry is the bundle the pre-render plugin evaluates.
	Entry      string
	ReadmeFrom string
	ReadmeTo   string
}

func DefaultOptions() Options {
	return Options{
		Entry:      "docs",
		ReadmeFrom: DefaultReadmeFrom,
		ReadmeTo:   DefaultReadmeTo,
	}
}

// Build returns a fresh plugin list for env. Production only plugins are
// appended after the base plugins so the prefix is identical in every mode.
func Build(env buildenv.Environment, paths routes.List, output policy.Output, opts Options) []Plugin {
	list := []Plugin{
		StyleExtraction{Filename: output.StyleFilename},
		DefineInjection{Definitions: Definitions(env)},
	}

	if !env.IsProduction() {
		return list
	}

	return append(list,
		StaticPrerender{
			Entry:  opts.Entry,
			Paths:  paths.Strings(),
			Locals: Locals{Paths: paths.Strings()},
		},
		ModuleOrder{},
		CopyFiles{Patterns: []CopyPattern{{From: opts.ReadmeFrom, To: opts.ReadmeTo}}},
	)
}

// Find returns the first plugin of kind k.
func Find(list []Plugin, k Kind) (Plugin, bool) {
	for _, p := range list {
		if p.Kind() == k {
			return p, true
		}
	}
	return nil, false
}

// Kinds lists the plugin kinds in order.
func Kinds(list []Plugin) []Kind {
	kinds := make([]Kind, 0, len(list))
	for _, p := range list {
		kinds = append(kinds, p.Kind())
	}
	return kinds
}
