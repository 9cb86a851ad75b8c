package rules

import (
	"github.com/wolfeidau/docsite/internal/style"
)

// Loader names.
const (
	LoaderScript  = "script"
	LoaderExtract = "extract-css"
	LoaderCSS     = "css"
	LoaderPostCSS = "postcss"
	LoaderSass    = "sass"
	LoaderFile    = "file"
	LoaderRaw     = "raw"
)

// Loader option keys.
const (
	OptJSX           = "jsx"
	OptHMR           = "hmr"
	OptImportLoaders = "importLoaders"
	OptModules       = "modules"
	OptTargets       = "targets"
	OptStyle         = "style"
	OptLimit         = "limit"
	OptName          = "name"
)

// LocalIdentName is the CSS module class name pattern: the local name followed
// by a 5 character hash.
const LocalIdentName = "[local]-[hash:base64:5]"

// LoaderStep is one transformer in a chain. A step belongs to exactly one rule.
type LoaderStep struct {
	Name    string         `yaml:"loader"`
	Options map[string]any `yaml:"options,omitempty"`
}

type CSSModules struct {
	LocalIdentName string `yaml:"localIdentName"`
}

// BrowserTarget is a minimum browser version handed to the postcss step.
type BrowserTarget struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

// DefaultBrowserTargets are the browsers the site supports.
func DefaultBrowserTargets() []BrowserTarget {
	return []BrowserTarget{
		{Name: "chrome", Version: "58"},
		{Name: "edge", Version: "16"},
		{Name: "firefox", Version: "57"},
		{Name: "ios", Version: "11"},
		{Name: "safari", Version: "11"},
	}
}

func (s LoaderStep) Bool(key string) bool {
	v, _ := s.Options[key].(bool)
	return v
}

func (s LoaderStep) Int(key string) int {
	v, _ := s.Options[key].(int)
	return v
}

func (s LoaderStep) String(key string) string {
	v, _ := s.Options[key].(string)
	return v
}

// CSSModules returns the module settings, or nil when class names are left
// untouched.
func (s LoaderStep) CSSModules() *CSSModules {
	v, _ := s.Options[OptModules].(*CSSModules)
	return v
}

// Style returns the compiler options carried by a sass step.
func (s LoaderStep) Style() style.Options {
	v, _ := s.Options[OptStyle].(style.Options)
	return v
}

func (s LoaderStep) Targets() []BrowserTarget {
	v, _ := s.Options[OptTargets].([]BrowserTarget)
	return v
}
