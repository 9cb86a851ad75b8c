package style

import (
	"encoding/base64"
	"fmt"
	"slices"
	"strings"
)

// Function implements a custom Sass function. Arguments arrive unquoted.
type Function func(args []string) (string, error)

// Functions maps a Sass signature, e.g. "encodebase64($string)", to its
// implementation.
type Functions map[string]Function

// DefaultFunctions is the extension table registered with the compiler. It does
// not depend on the environment.
func DefaultFunctions() Functions {
	return Functions{
		"encodebase64($string)": encodeBase64,
	}
}

// Name returns the function name part of a signature.
func Name(signature string) string {
	name, _, _ := strings.Cut(signature, "(")
	return strings.TrimSpace(name)
}

// Names lists the function names in a stable order.
func (f Functions) Names() []string {
	names := make([]string, 0, len(f))
	for sig := range f {
		names = append(names, Name(sig))
	}
	slices.Sort(names)
	return names
}

// Lookup finds a function by name rather than full signature.
func (f Functions) Lookup(name string) (Function, bool) {
	for sig, fn := range f {
		if Name(sig) == name {
			return fn, true
		}
	}
	return nil, false
}

func encodeBase64(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("encodebase64 expects 1 argument, got %d", len(args))
	}
	return base64.StdEncoding.EncodeToString([]byte(args[0])), nil
}
