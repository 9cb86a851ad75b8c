// Package style derives the parameters handed to the Sass compiler on every
// invocation: the design token prelude and the custom function table.
package style

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"github.com/wolfeidau/docsite/internal/buildenv"
)

// DefaultTokensDir is where token sets live, relative to the project root.
const DefaultTokensDir = "packages/bpk-tokens/tokens"

// ErrTokensNotFound indicates a token set was requested but its file is missing.
var ErrTokensNotFound = errors.New("token set not found")

type Options struct {
	// Prelude is prepended to every compiled stylesheet.
	Prelude   string
	Functions Functions
}

// Load builds the compiler options for env. A token set id that does not map to
// a file aborts the build rather than silently producing untokenized output.
func Load(env buildenv.Environment, tokensDir string) (Options, error) {
	opts := Options{Functions: DefaultFunctions()}

	if !env.TokenSetID.Set {
		return opts, nil
	}

	path := TokenPath(tokensDir, env.TokenSetID.Value)

	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %s: %w", ErrTokensNotFound, env.TokenSetID.Value, err)
	}

	opts.Prelude = string(data)
	return opts, nil
}

// TokenPath returns the file holding the token set id.
func TokenPath(tokensDir, id string) string {
	return filepath.Join(tokensDir, id+".scss")
}

// Clone returns a copy that shares no mutable state with o.
func (o Options) Clone() Options {
	return Options{
		Prelude:   o.Prelude,
		Functions: maps.Clone(o.Functions),
	}
}

// MarshalYAML prints function names since implementations cannot be encoded.
func (o Options) MarshalYAML() (any, error) {
	return struct {
		Prelude   string   `yaml:"prependData"`
		Functions []string `yaml:"functions"`
	}{
		Prelude:   o.Prelude,
		Functions: o.Functions.Names(),
	}, nil
}
