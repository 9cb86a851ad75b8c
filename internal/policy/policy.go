// Package policy holds the output naming, optimization and dev server policies.
package policy

import (
	"strings"

	"github.com/wolfeidau/docsite/internal/buildenv"
)

// MediaInlineLimit is the size in bytes below which media files are inlined
// as data URIs.
const MediaInlineLimit = 10000

// DefaultOutputDir is the output directory, relative to the project root.
const DefaultOutputDir = "dist"

// Filename placeholders.
const (
	PlaceholderName        = "[name]"
	PlaceholderExt         = "[ext]"
	PlaceholderHash        = "[hash]"
	PlaceholderChunkHash   = "[chunkhash]"
	PlaceholderContentHash = "[contenthash]"
)

type Output struct {
	Path            string `yaml:"path"`
	ScriptFilename  string `yaml:"scriptFilename"`
	StyleFilename   string `yaml:"styleFilename"`
	AssetFilename   string `yaml:"assetFilename"`
	FaviconFilename string `yaml:"faviconFilename"`
	LibraryTarget   string `yaml:"libraryTarget"`
	GlobalObject    string `yaml:"globalObject"`
}

// NewOutput returns the output policy for env. Script and stylesheet names
// carry a hash segment only in production.
func NewOutput(env buildenv.Environment, dir string) Output {
	if dir == "" {
		dir = DefaultOutputDir
	}

	out := Output{
		Path:            dir,
		ScriptFilename:  "[name].js",
		StyleFilename:   "[name].css",
		AssetFilename:   "[name]_[hash].[ext]",
		FaviconFilename: "[name].[ext]",
		LibraryTarget:   "umd",
		GlobalObject:    "this",
	}

	if env.IsProduction() {
		out.ScriptFilename = "[name]_[chunkhash].js"
		out.StyleFilename = "[name]_[contenthash].css"
	}

	return out
}

// HasContentHash reports whether script and stylesheet names are hashed.
func (o Output) HasContentHash() bool {
	return hasHash(o.ScriptFilename) && hasHash(o.StyleFilename)
}

func hasHash(template string) bool {
	return strings.Contains(template, PlaceholderHash) ||
		strings.Contains(template, PlaceholderChunkHash) ||
		strings.Contains(template, PlaceholderContentHash)
}

type Minimizer string

const (
	MinimizerStyle  Minimizer = "style"
	MinimizerScript Minimizer = "script"
)

type Optimization struct {
	Minimize   bool        `yaml:"minimize"`
	Minimizers []Minimizer `yaml:"minimizers"`
}

// NewOptimization is independent of the environment: development builds are
// minified as well, only production output is content hashed.
func NewOptimization() Optimization {
	return Optimization{
		Minimize:   true,
		Minimizers: []Minimizer{MinimizerStyle, MinimizerScript},
	}
}

// Uses reports whether m runs as part of the minimizer chain.
func (o Optimization) Uses(m Minimizer) bool {
	if !o.Minimize {
		return false
	}
	for _, v := range o.Minimizers {
		if v == m {
			return true
		}
	}
	return false
}

type HistoryFallback struct {
	Index string `yaml:"index"`
}

type DevServer struct {
	Host             string          `yaml:"host"`
	Port             int             `yaml:"port"`
	DisableHostCheck bool            `yaml:"disableHostCheck"`
	HistoryFallback  HistoryFallback `yaml:"historyApiFallback"`
}

// NewDevServer binds all interfaces, skips host header verification so any
// local hostname works, and falls back to the root document for client side
// routes.
func NewDevServer() DevServer {
	return DevServer{
		Host:             "0.0.0.0",
		Port:             8080,
		DisableHostCheck: true,
		HistoryFallback:  HistoryFallback{Index: "index.html"},
	}
}
