package transform

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/rules"
	"github.com/wolfeidau/docsite/internal/style"
)

func TestPrepend(t *testing.T) {
	require.Equal(t, ".a{}", Prepend("", ".a{}"))
	require.Equal(t, "$x: 1;\n.a{}", Prepend("$x: 1;", ".a{}"))
}

func TestApplyFunctions(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
	}{
		{
			name:     "double quoted",
			source:   `.a { background: url("data:image/svg+xml;base64,#{encodebase64("<svg/>")}"); }`,
			expected: `.a { background: url("data:image/svg+xml;base64,#{"PHN2Zy8+"}"); }`,
		},
		{
			name:     "single quoted with spaces",
			source:   `$icon: encodebase64( '<svg/>' );`,
			expected: `$icon: "PHN2Zy8+";`,
		},
		{
			name:     "variable argument is left alone",
			source:   `$icon: encodebase64($svg);`,
			expected: `$icon: encodebase64($svg);`,
		},
		{
			name:     "prefixed name is not a call",
			source:   `$icon: my-encodebase64("x");`,
			expected: `$icon: my-encodebase64("x");`,
		},
		{
			name:     "no calls",
			source:   `.a { color: red; }`,
			expected: `.a { color: red; }`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := ApplyFunctions(tt.source, style.DefaultFunctions())
			require.NoError(t, err)
			require.Equal(t, tt.expected, out)
		})
	}
}

func TestApplyFunctions_error(t *testing.T) {
	fns := style.Functions{
		"fail($x)": func(args []string) (string, error) {
			return "", os.ErrInvalid
		},
	}

	_, err := ApplyFunctions(`$a: fail("x");`, fns)
	require.ErrorIs(t, err, os.ErrInvalid)
}

func TestLocalizeClasses(t *testing.T) {
	src := `.button { color: red; }
.button.button--primary:hover, a.link:not(.button) { padding: .5em; }
@media (min-width: 10px) {
  .button { margin: 0; }
}
@font-face { font-family: "x"; src: url(font.woff2); }
#id .nested > .child { width: 1.5px; }
`
	out, exports, err := LocalizeClasses(src, "docs/src/Button.scss", rules.LocalIdentName)
	require.NoError(t, err)

	require.Len(t, exports, 5)
	for _, local := range []string{"button", "button--primary", "link", "nested", "child"} {
		name := exports[local]
		require.True(t, strings.HasPrefix(name, local+"-"), name)
		require.Len(t, name, len(local)+6)
		require.Contains(t, out, "."+name)
	}

	require.Contains(t, out, "padding: .5em;")
	require.Contains(t, out, "width: 1.5px;")
	require.Contains(t, out, "@media (min-width: 10px)")
	require.Contains(t, out, "url(font.woff2)")
	require.Contains(t, out, "#id ")
	require.NotContains(t, out, ".button ")
}

func TestLocalizeClasses_declarationAtRules(t *testing.T) {
	src := `@font-face { font-family: Brand.sans; src: url(brand.woff2); }
@FONT-FACE { font-family: Upper.case; }
@page :first { margin: 1in; @top-left { content: Doc.title; } }
@counter-style dots { symbols: Dot.one; }
@media print { .a { color: red; } }
@supports (display: grid) { .b { display: grid; } }
@keyframes spin { from { opacity: 0; } to { opacity: 1; } }
`
	out, exports, err := LocalizeClasses(src, "a.scss", rules.LocalIdentName)
	require.NoError(t, err)

	require.Len(t, exports, 2)
	require.Contains(t, exports, "a")
	require.Contains(t, exports, "b")

	for _, kept := range []string{"Brand.sans", "Upper.case", "Doc.title", "Dot.one", "@keyframes spin"} {
		require.Contains(t, out, kept)
	}
	require.Contains(t, out, "."+exports["a"]+" {")
	require.Contains(t, out, "."+exports["b"]+" {")
}

func TestLocalizeClasses_stableAcrossRuns(t *testing.T) {
	_, first, err := LocalizeClasses(".a{}", "a.scss", rules.LocalIdentName)
	require.NoError(t, err)
	_, second, err := LocalizeClasses(".a{}", "a.scss", rules.LocalIdentName)
	require.NoError(t, err)
	require.Equal(t, first, second)

	_, other, err := LocalizeClasses(".a{}", "b.scss", rules.LocalIdentName)
	require.NoError(t, err)
	require.NotEqual(t, first["a"], other["a"], "same class in different files must not collide")
}

func TestIdentName(t *testing.T) {
	require.Equal(t, "Button__primary", IdentName("[name]__[local]", "src/Button.scss", "primary"))
	require.Len(t, IdentName("[hash:base64:8]", "src/Button.scss", "primary"), 8)
	require.Equal(t, "x-"+Hash("a.scss\x00x", 5), IdentName("[local]-[hash:base64:5]", "a.scss", "x"))
}

func TestHash(t *testing.T) {
	require.Len(t, Hash("abc", 5), 5)
	require.Len(t, Hash("abc", 0), 11)
	require.Equal(t, Hash("abc", 5), Hash("abc", 5))
}

func TestEngines(t *testing.T) {
	engines := Engines([]rules.BrowserTarget{{Name: "chrome", Version: "58"}, {Name: "netscape", Version: "4"}})
	require.Len(t, engines, 1)
	require.Equal(t, "58", engines[0].Version)
}

func TestPostCSS_lowersNesting(t *testing.T) {
	out, err := PostCSS(".a { .b { color: red } }", "a.css", rules.DefaultBrowserTargets())
	require.NoError(t, err)
	require.Contains(t, out, ".a .b")
}

func TestDartSass(t *testing.T) {
	binary, err := exec.LookPath("sass")
	if err != nil {
		t.Skip("dart-sass not installed")
	}

	compiler, err := NewDartSass(binary)
	require.NoError(t, err)
	defer compiler.Close()

	path := filepath.Join(t.TempDir(), "a.scss")
	out, err := compiler.Compile(CompileRequest{
		Path:    path,
		Source:  ".a { color: $brand; }",
		Options: style.Options{Prelude: "$brand: #0770e3;", Functions: style.DefaultFunctions()},
	})
	require.NoError(t, err)
	require.Contains(t, out, "#0770e3")
}

func TestDartSass_closed(t *testing.T) {
	var d *DartSass
	_, err := d.Compile(CompileRequest{})
	require.ErrorIs(t, err, ErrCompilerClosed)
	require.NoError(t, d.Close())
}
