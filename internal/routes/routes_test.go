package routes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const routesYAML = `
HOME: /
COMPONENTS: /components
BUTTONS: /components/buttons
TOKENS: /tokens
`

const redirectsYAML = `
/components/button: /components/buttons
/tokens: /tokens/colors
/old-home: /
`

func TestParse_keepsDeclarationOrder(t *testing.T) {
	reg, err := Parse("routes.yaml", []byte(routesYAML))
	require.NoError(t, err)

	require.Equal(t, []Entry{
		{Key: "HOME", Value: "/"},
		{Key: "COMPONENTS", Value: "/components"},
		{Key: "BUTTONS", Value: "/components/buttons"},
		{Key: "TOKENS", Value: "/tokens"},
	}, reg.Entries)
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "sequence", doc: "- /\n- /about\n"},
		{name: "scalar", doc: "just a string"},
		{name: "nested value", doc: "HOME:\n  path: /\n"},
		{name: "duplicate key", doc: "HOME: /\nHOME: /home\n"},
		{name: "malformed", doc: "HOME: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse("bad.yaml", []byte(tt.doc))
			require.ErrorIs(t, err, ErrInvalidRegistry)
		})
	}
}

func TestParse_empty(t *testing.T) {
	reg, err := Parse("empty.yaml", []byte("\n  \n"))
	require.NoError(t, err)
	require.Empty(t, reg.Entries)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte(routesYAML), 0600))

	reg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, path, reg.Name)
	require.Len(t, reg.Entries, 4)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, ErrRegistryNotFound)
}

func TestNewList(t *testing.T) {
	primary, err := Parse("routes.yaml", []byte(routesYAML))
	require.NoError(t, err)
	redirects, err := Parse("redirects.yaml", []byte(redirectsYAML))
	require.NoError(t, err)

	list := NewList(primary, redirects)

	require.Equal(t, List{
		"/",
		"/components",
		"/components/buttons",
		"/tokens",
		"/components/button",
		"/old-home",
	}, list)
}

func TestNewList_idempotent(t *testing.T) {
	primary, err := Parse("routes.yaml", []byte(routesYAML))
	require.NoError(t, err)
	redirects, err := Parse("redirects.yaml", []byte(redirectsYAML))
	require.NoError(t, err)

	first := NewList(primary, redirects)
	second := NewList(primary, redirects)
	require.Equal(t, first, second)

	seen := map[string]bool{}
	for _, p := range first {
		require.False(t, seen[p], "duplicate path %s", p)
		seen[p] = true
	}
}

func TestNewList_duplicateWithinRegistry(t *testing.T) {
	primary := Registry{Entries: []Entry{{Key: "A", Value: "/a"}, {Key: "B", Value: "/a"}}}
	require.Equal(t, List{"/a"}, NewList(primary, Registry{}))
}

func TestList_Strings(t *testing.T) {
	list := List{"/a", "/b"}
	out := list.Strings()
	out[0] = "/changed"
	require.Equal(t, "/a", list[0])
}
