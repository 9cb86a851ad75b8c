package commands

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/docsite/internal/buildenv"
	"github.com/wolfeidau/docsite/internal/config"
)

func TestConfigFlags_options(t *testing.T) {
	dir := t.TempDir()

	flags := ConfigFlags{
		Dir:           dir,
		TokensDir:     "packages/bpk-tokens/tokens",
		RoutesFile:    "docs/src/constants/routes.yaml",
		RedirectsFile: filepath.Join(dir, "redirects.yaml"),
		OutputDir:     "dist",
		PrerenderFrom: "site",
		Entry:         map[string]string{"site": "./site/index.js"},
	}

	opts := flags.options()
	require.Equal(t, map[string]string{"site": "./site/index.js"}, opts.Entries)
	require.Equal(t, filepath.Join(dir, "packages/bpk-tokens/tokens"), opts.TokensDir)
	require.Equal(t, filepath.Join(dir, "docs/src/constants/routes.yaml"), opts.RoutesFile)
	require.Equal(t, filepath.Join(dir, "redirects.yaml"), opts.RedirectsFile)
	require.Equal(t, "dist", opts.OutputDir)
	require.Equal(t, "site", opts.Plugins.Entry)
}

func TestConfigFlags_defaultEntries(t *testing.T) {
	flags := ConfigFlags{Dir: t.TempDir(), PrerenderFrom: "docs"}
	require.Equal(t, config.DefaultOptions().Entries, flags.options().Entries)
}

func TestWriteYAML(t *testing.T) {
	cfg, err := config.Assemble(buildenv.Vars{}, config.DefaultOptions())
	require.NoError(t, err)

	buf := new(bytes.Buffer)
	require.NoError(t, writeYAML(buf, cfg))

	out := buf.String()
	require.Contains(t, out, "mode: development")
	require.Contains(t, out, "kind: style-extraction")
	require.Contains(t, out, "kind: define-injection")
	require.NotContains(t, out, "static-prerender")
	require.Contains(t, out, "port: 8080")
}
