package style

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/buildenv"
)

func TestLoad_withoutTokens(t *testing.T) {
	opts, err := Load(buildenv.Resolve(buildenv.Vars{}), t.TempDir())
	require.NoError(t, err)
	require.Equal(t, "", opts.Prelude)
	require.Equal(t, []string{"encodebase64"}, opts.Functions.Names())
}

func TestLoad_withTokens(t *testing.T) {
	dir := t.TempDir()
	content := "$bpk-color-sky-blue: #0770e3;\r\n// trailing \x00 byte\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "foo.scss"), []byte(content), 0600))

	opts, err := Load(buildenv.Resolve(buildenv.Vars{buildenv.VarTokens: "foo"}), dir)
	require.NoError(t, err)
	require.Equal(t, content, opts.Prelude)
}

func TestLoad_missingTokens(t *testing.T) {
	_, err := Load(buildenv.Resolve(buildenv.Vars{buildenv.VarTokens: "missing"}), t.TempDir())
	require.ErrorIs(t, err, ErrTokensNotFound)
	require.ErrorIs(t, err, fs.ErrNotExist)
	require.Contains(t, err.Error(), "missing")
}

func TestTokenPath(t *testing.T) {
	require.Equal(t, filepath.Join("packages", "bpk-tokens", "tokens", "base.default.scss"),
		TokenPath(DefaultTokensDir, "base.default"))
}

func TestOptions_Clone(t *testing.T) {
	opts := Options{Prelude: "$a: 1;", Functions: DefaultFunctions()}
	clone := opts.Clone()

	clone.Functions["extra($x)"] = encodeBase64
	require.Len(t, opts.Functions, 1)
	require.Equal(t, opts.Prelude, clone.Prelude)
}

func TestFunctions_encodeBase64(t *testing.T) {
	fn, ok := DefaultFunctions().Lookup("encodebase64")
	require.True(t, ok)

	out, err := fn([]string{"<svg/>"})
	require.NoError(t, err)
	require.Equal(t, "PHN2Zy8+", out)

	_, err = fn(nil)
	require.Error(t, err)

	_, ok = DefaultFunctions().Lookup("nope")
	require.False(t, ok)
}
