// Package routes loads the route and redirect registries and derives the list
// of paths that get pre-rendered.
package routes

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

var (
	// ErrRegistryNotFound indicates a registry file is missing
	ErrRegistryNotFound = errors.New("route registry not found")
	// ErrInvalidRegistry indicates a registry is not a flat mapping of strings
	ErrInvalidRegistry = errors.New("invalid route registry")
)

// Entry is one key/value pair of a registry. For the route registry the value
// is the path; for the redirect registry the key is the path being redirected.
type Entry struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Registry preserves declaration order, which the pre-render step depends on.
type Registry struct {
	Name    string
	Entries []Entry
}

// Load reads a YAML mapping from path.
func Load(path string) (Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Registry{}, fmt.Errorf("%w: %s", ErrRegistryNotFound, path)
		}
		return Registry{}, err
	}

	reg, err := Parse(path, data)
	if err != nil {
		return Registry{}, err
	}

	return reg, nil
}

// Parse decodes a registry document. yaml.Node is used rather than a map so the
// key order in the file is kept.
func Parse(name string, data []byte) (Registry, error) {
	reg := Registry{Name: name}

	if len(bytes.TrimSpace(data)) == 0 {
		return reg, nil
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Registry{}, fmt.Errorf("%w: %s: %w", ErrInvalidRegistry, name, err)
	}

	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return Registry{}, fmt.Errorf("%w: %s: expected a single document", ErrInvalidRegistry, name)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return Registry{}, fmt.Errorf("%w: %s: expected a mapping at line %d", ErrInvalidRegistry, name, root.Line)
	}

	seen := make(map[string]bool, len(root.Content)/2)

	for i := 0; i+1 < len(root.Content); i += 2 {
		k, v := root.Content[i], root.Content[i+1]

		if k.Kind != yaml.ScalarNode || v.Kind != yaml.ScalarNode {
			return Registry{}, fmt.Errorf("%w: %s: entry at line %d is not a string pair", ErrInvalidRegistry, name, k.Line)
		}

		if seen[k.Value] {
			return Registry{}, fmt.Errorf("%w: %s: duplicate key %q at line %d", ErrInvalidRegistry, name, k.Value, k.Line)
		}
		seen[k.Value] = true

		reg.Entries = append(reg.Entries, Entry{Key: k.Value, Value: v.Value})
	}

	return reg, nil
}

// List is the ordered, duplicate free set of paths to pre-render.
type List []string

// NewList returns the values of the route registry followed by the keys of the
// redirect registry. The first occurrence of a path wins.
func NewList(primary, redirects Registry) List {
	list := make(List, 0, len(primary.Entries)+len(redirects.Entries))
	seen := make(map[string]bool, cap(list))

	add := func(path string) {
		if seen[path] {
			return
		}
		seen[path] = true
		list = append(list, path)
	}

	for _, e := range primary.Entries {
		add(e.Value)
	}
	for _, e := range redirects.Entries {
		add(e.Key)
	}

	return list
}

// Strings returns a copy of the paths.
func (l List) Strings() []string {
	return append([]string(nil), l...)
}
