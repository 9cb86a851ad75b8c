// Package rules builds the ordered set of file pattern to loader chain rules.
package rules

import (
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/style"
)

type Category string

const (
	CategoryScript         Category = "script"
	CategoryBaseStylesheet Category = "base-stylesheet"
	CategoryStylesheet     Category = "stylesheet"
	CategoryPlainCSS       Category = "plain-css"
	CategoryMedia          Category = "media"
	CategoryFavicon        Category = "favicon"
	CategoryMarkdown       Category = "markdown"
)

// Rule routes files matching Test, and not matching Exclude, through Use.
// Steps in Use run last to first.
type Rule struct {
	Category Category     `yaml:"category"`
	Test     Pattern      `yaml:"test"`
	Exclude  *Pattern     `yaml:"exclude,omitempty"`
	Use      []LoaderStep `yaml:"use"`
}

func (r Rule) Matches(path string) bool {
	if !r.Test.MatchString(path) {
		return false
	}
	return r.Exclude == nil || !r.Exclude.MatchString(path)
}

// Uses reports whether the chain contains the named loader.
func (r Rule) Uses(loader string) bool {
	for _, s := range r.Use {
		if s.Name == loader {
			return true
		}
	}
	return false
}

var (
	scriptTest    = MustPattern(`\.jsx?$`)
	scriptExclude = MustPattern(`node_modules/(?!bpk-).*`)
	baseTest      = MustPattern(`base\.scss$`)
	scssTest      = MustPattern(`\.scss$`)
	cssTest       = MustPattern(`\.css$`)
	mediaTest     = MustPattern(`\.(jpg|png|svg|mp4)$`)
	mediaExclude  = MustPattern(`node_modules`)
	faviconTest   = MustPattern(`favicon\.ico$`)
	markdownTest  = MustPattern(`\.md$`)
)

// Build returns the rule set for env. The base stylesheet rule comes before
// the general stylesheet rule, which also excludes it, so base styles never
// get module class names.
func Build(env buildenv.Environment, opts style.Options) []Rule {
	return []Rule{
		{
			Category: CategoryScript,
			Test:     scriptTest,
			Exclude:  &scriptExclude,
			Use: []LoaderStep{
				{Name: LoaderScript, Options: map[string]any{OptJSX: "automatic"}},
			},
		},
		{
			Category: CategoryBaseStylesheet,
			Test:     baseTest,
			Use: []LoaderStep{
				extractStep(env),
				{Name: LoaderCSS, Options: map[string]any{}},
				postCSSStep(),
				sassStep(opts),
			},
		},
		{
			Category: CategoryStylesheet,
			Test:     scssTest,
			Exclude:  &baseTest,
			Use: []LoaderStep{
				extractStep(env),
				moduleCSSStep(env),
				postCSSStep(),
				sassStep(opts),
			},
		},
		{
			Category: CategoryPlainCSS,
			Test:     cssTest,
			Use: []LoaderStep{
				extractStep(env),
				{Name: LoaderCSS, Options: map[string]any{OptImportLoaders: 1}},
				postCSSStep(),
			},
		},
		{
			Category: CategoryMedia,
			Test:     mediaTest,
			Exclude:  &mediaExclude,
			Use: []LoaderStep{
				{Name: LoaderFile, Options: map[string]any{
					OptLimit: policy.MediaInlineLimit,
					OptName:  "[name]_[hash].[ext]",
				}},
			},
		},
		{
			Category: CategoryFavicon,
			Test:     faviconTest,
			Use: []LoaderStep{
				{Name: LoaderFile, Options: map[string]any{OptName: "[name].[ext]"}},
			},
		},
		{
			Category: CategoryMarkdown,
			Test:     markdownTest,
			Use:      []LoaderStep{{Name: LoaderRaw}},
		},
	}
}

// Match returns the first rule, in declaration order, matching path. An
// unmatched path is left to the bundler's defaults.
func Match(rules []Rule, path string) (Rule, bool) {
	for _, r := range rules {
		if r.Matches(path) {
			return r, true
		}
	}
	return Rule{}, false
}

func extractStep(env buildenv.Environment) LoaderStep {
	return LoaderStep{Name: LoaderExtract, Options: map[string]any{OptHMR: !env.IsProduction()}}
}

func moduleCSSStep(env buildenv.Environment) LoaderStep {
	var modules *CSSModules
	if env.CSSModulesEnabled {
		modules = &CSSModules{LocalIdentName: LocalIdentName}
	}
	return LoaderStep{Name: LoaderCSS, Options: map[string]any{
		OptImportLoaders: 1,
		OptModules:       modules,
	}}
}

func postCSSStep() LoaderStep {
	return LoaderStep{Name: LoaderPostCSS, Options: map[string]any{OptTargets: DefaultBrowserTargets()}}
}

// sassStep gets its own copy of the compiler options.
func sassStep(opts style.Options) LoaderStep {
	return LoaderStep{Name: LoaderSass, Options: map[string]any{OptStyle: opts.Clone()}}
}
