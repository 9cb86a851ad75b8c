package buildenv

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve_mode(t *testing.T) {
	tests := []struct {
		name     string
		vars     Vars
		expected Mode
	}{
		{
			name:     "unset",
			vars:     Vars{},
			expected: ModeDevelopment,
		},
		{
			name:     "production",
			vars:     Vars{VarNodeEnv: "production"},
			expected: ModeProduction,
		},
		{
			name:     "development",
			vars:     Vars{VarNodeEnv: "development"},
			expected: ModeDevelopment,
		},
		{
			name:     "uppercase is not production",
			vars:     Vars{VarNodeEnv: "PRODUCTION"},
			expected: ModeDevelopment,
		},
		{
			name:     "padded is not production",
			vars:     Vars{VarNodeEnv: " production"},
			expected: ModeDevelopment,
		},
		{
			name:     "empty",
			vars:     Vars{VarNodeEnv: ""},
			expected: ModeDevelopment,
		},
		{
			name:     "test",
			vars:     Vars{VarNodeEnv: "test"},
			expected: ModeDevelopment,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Resolve(tt.vars)
			require.Equal(t, tt.expected, env.Mode)
			require.Equal(t, tt.expected == ModeProduction, env.IsProduction())
		})
	}
}

func TestResolve_cssModules(t *testing.T) {
	tests := []struct {
		name     string
		vars     Vars
		expected bool
	}{
		{name: "unset", vars: Vars{}, expected: true},
		{name: "literal false", vars: Vars{VarEnableCSSModules: "false"}, expected: false},
		{name: "true", vars: Vars{VarEnableCSSModules: "true"}, expected: true},
		{name: "uppercase false", vars: Vars{VarEnableCSSModules: "FALSE"}, expected: true},
		{name: "zero", vars: Vars{VarEnableCSSModules: "0"}, expected: true},
		{name: "empty", vars: Vars{VarEnableCSSModules: ""}, expected: true},
		{name: "no", vars: Vars{VarEnableCSSModules: "no"}, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, Resolve(tt.vars).CSSModulesEnabled)
		})
	}
}

func TestResolve_optionalValues(t *testing.T) {
	env := Resolve(Vars{
		VarTokens:     "foo",
		VarBuiltAt:    "1592311541",
		VarMapsAPIKey: "",
	})

	require.Equal(t, Some("foo"), env.TokenSetID)
	require.Equal(t, Some("1592311541"), env.BuiltAt)
	require.Equal(t, Some(""), env.MapsAPIKey)
	require.False(t, env.NodeEnv.Set)
	require.Equal(t, "<unset>", env.NodeEnv.String())
}

func TestResolve_emptyTokenSetIsUnset(t *testing.T) {
	env := Resolve(Vars{VarTokens: ""})
	require.False(t, env.TokenSetID.Set)
}

func TestFromEnviron(t *testing.T) {
	vars := FromEnviron([]string{
		"NODE_ENV=production",
		"EMPTY=",
		"WITH_EQUALS=a=b",
		"=ignored",
		"MALFORMED",
	})

	require.Equal(t, Vars{
		"NODE_ENV":    "production",
		"EMPTY":       "",
		"WITH_EQUALS": "a=b",
	}, vars)
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.env")
	second := filepath.Join(dir, "second.env")
	require.NoError(t, os.WriteFile(first, []byte("NODE_ENV=production\nBPK_TOKENS=base\n"), 0600))
	require.NoError(t, os.WriteFile(second, []byte("BPK_TOKENS=other\nBPK_BUILT_AT=123\n"), 0600))

	vars, err := LoadEnvFiles(Vars{VarNodeEnv: "development"}, first, second)
	require.NoError(t, err)

	require.Equal(t, "development", vars[VarNodeEnv], "process values win over files")
	require.Equal(t, "base", vars[VarTokens], "earlier files win over later ones")
	require.Equal(t, "123", vars[VarBuiltAt])
}

func TestLoadEnvFiles_missing(t *testing.T) {
	_, err := LoadEnvFiles(Vars{}, filepath.Join(t.TempDir(), "missing.env"))
	require.ErrorIs(t, err, ErrEnvFileNotFound)
}

func TestLoadEnvFiles_defaultIsOptional(t *testing.T) {
	t.Chdir(t.TempDir())

	vars, err := LoadEnvFiles(nil, DefaultEnvFile)
	require.NoError(t, err)
	require.Empty(t, vars)
}

func TestLoadEnvFiles_defaultIsOptionalInAnyDir(t *testing.T) {
	vars, err := LoadEnvFiles(Vars{VarNodeEnv: "production"}, filepath.Join(t.TempDir(), DefaultEnvFile))
	require.NoError(t, err)
	require.Equal(t, Vars{VarNodeEnv: "production"}, vars)
}
