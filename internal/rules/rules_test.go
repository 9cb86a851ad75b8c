package rules

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/policy"
	"github.com/wolfeidau/docsite/internal/style"
)

func buildRules(t *testing.T, vars buildenv.Vars) []Rule {
	t.Helper()
	return Build(buildenv.Resolve(vars), style.Options{Prelude: "$x: 1;", Functions: style.DefaultFunctions()})
}

func TestBuild_order(t *testing.T) {
	rules := buildRules(t, nil)

	var categories []Category
	for _, r := range rules {
		categories = append(categories, r.Category)
	}

	require.Equal(t, []Category{
		CategoryScript,
		CategoryBaseStylesheet,
		CategoryStylesheet,
		CategoryPlainCSS,
		CategoryMedia,
		CategoryFavicon,
		CategoryMarkdown,
	}, categories)
}

func TestMatch(t *testing.T) {
	rules := buildRules(t, nil)

	tests := []struct {
		name     string
		path     string
		expected Category
		matched  bool
	}{
		{name: "js", path: "docs/src/index.js", expected: CategoryScript, matched: true},
		{name: "jsx", path: "docs/src/components/Page.jsx", expected: CategoryScript, matched: true},
		{name: "bpk package script", path: "node_modules/bpk-component-button/index.js", expected: CategoryScript, matched: true},
		{name: "third party script", path: "node_modules/react/index.js", matched: false},
		{name: "base stylesheet", path: "docs/src/base.scss", expected: CategoryBaseStylesheet, matched: true},
		{name: "stylesheet", path: "docs/src/Page.module.scss", expected: CategoryStylesheet, matched: true},
		{name: "database stylesheet is base", path: "docs/src/database.scss", expected: CategoryBaseStylesheet, matched: true},
		{name: "plain css", path: "node_modules/normalize.css/normalize.css", expected: CategoryPlainCSS, matched: true},
		{name: "png", path: "docs/src/static/logo.png", expected: CategoryMedia, matched: true},
		{name: "svg", path: "docs/src/static/icon.svg", expected: CategoryMedia, matched: true},
		{name: "mp4", path: "docs/src/static/intro.mp4", expected: CategoryMedia, matched: true},
		{name: "media in node_modules", path: "node_modules/bpk-svgs/icon.svg", matched: false},
		{name: "favicon", path: "docs/src/static/favicon.ico", expected: CategoryFavicon, matched: true},
		{name: "markdown", path: "packages/bpk-component-button/README.md", expected: CategoryMarkdown, matched: true},
		{name: "windows separators", path: `docs\src\index.js`, expected: CategoryScript, matched: true},
		{name: "unknown extension", path: "docs/src/data.json", matched: false},
		{name: "gif is not media", path: "docs/src/static/anim.gif", matched: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, ok := Match(rules, tt.path)
			require.Equal(t, tt.matched, ok)
			if tt.matched {
				require.Equal(t, tt.expected, rule.Category)
			}
		})
	}
}

func TestBuild_stylesheetChains(t *testing.T) {
	rules := buildRules(t, nil)

	expected := map[Category][]string{
		CategoryBaseStylesheet: {LoaderExtract, LoaderCSS, LoaderPostCSS, LoaderSass},
		CategoryStylesheet:     {LoaderExtract, LoaderCSS, LoaderPostCSS, LoaderSass},
		CategoryPlainCSS:       {LoaderExtract, LoaderCSS, LoaderPostCSS},
	}

	for _, r := range rules {
		chain, ok := expected[r.Category]
		if !ok {
			continue
		}

		var names []string
		for _, s := range r.Use {
			names = append(names, s.Name)
		}
		require.Equal(t, chain, names, string(r.Category))
	}
}

func TestBuild_cssModules(t *testing.T) {
	tests := []struct {
		name    string
		vars    buildenv.Vars
		enabled bool
	}{
		{name: "unset", vars: nil, enabled: true},
		{name: "disabled", vars: buildenv.Vars{buildenv.VarEnableCSSModules: "false"}, enabled: false},
		{name: "anything else", vars: buildenv.Vars{buildenv.VarEnableCSSModules: "off"}, enabled: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := buildRules(t, tt.vars)

			for _, r := range rules {
				for _, s := range r.Use {
					if s.Name != LoaderCSS {
						continue
					}

					modules := s.CSSModules()
					switch r.Category {
					case CategoryStylesheet:
						if tt.enabled {
							require.NotNil(t, modules)
							require.Equal(t, LocalIdentName, modules.LocalIdentName)
						} else {
							require.Nil(t, modules)
						}
						require.Equal(t, 1, s.Int(OptImportLoaders))
					default:
						// base stylesheets and plain css never get module class names
						require.Nil(t, modules, string(r.Category))
					}
				}
			}
		})
	}
}

func TestBuild_extractHMR(t *testing.T) {
	prod := buildRules(t, buildenv.Vars{buildenv.VarNodeEnv: "production"})
	dev := buildRules(t, buildenv.Vars{buildenv.VarNodeEnv: "development"})

	for i := range prod {
		if !prod[i].Uses(LoaderExtract) {
			continue
		}
		require.False(t, prod[i].Use[0].Bool(OptHMR))
		require.True(t, dev[i].Use[0].Bool(OptHMR))
	}
}

func TestBuild_sassOptionsNotShared(t *testing.T) {
	rules := buildRules(t, nil)

	var sassSteps []LoaderStep
	for _, r := range rules {
		for _, s := range r.Use {
			if s.Name == LoaderSass {
				sassSteps = append(sassSteps, s)
			}
		}
	}
	require.Len(t, sassSteps, 2)

	first := sassSteps[0].Style()
	first.Functions["injected($x)"] = nil

	second := sassSteps[1].Style()
	require.Equal(t, "$x: 1;", second.Prelude)
	require.NotContains(t, second.Functions, "injected($x)")
}

func TestBuild_media(t *testing.T) {
	rules := buildRules(t, nil)

	media, ok := Match(rules, "docs/src/logo.png")
	require.True(t, ok)
	require.Equal(t, policy.MediaInlineLimit, media.Use[0].Int(OptLimit))
	require.Equal(t, "[name]_[hash].[ext]", media.Use[0].String(OptName))

	favicon, ok := Match(rules, "docs/src/favicon.ico")
	require.True(t, ok)
	require.Equal(t, 0, favicon.Use[0].Int(OptLimit), "favicon is never inlined")
	require.Equal(t, "[name].[ext]", favicon.Use[0].String(OptName))
}

func TestPattern_zeroValue(t *testing.T) {
	var p Pattern
	require.False(t, p.MatchString("anything"))
	require.Equal(t, "", p.String())
}
