package rules

import (
	"path/filepath"

	"github.com/dlclark/regexp2"
)

// Pattern is a file path predicate. regexp2 is used because rule exclusions
// rely on lookahead, which RE2 does not support.
type Pattern struct {
	re *regexp2.Regexp
}

// MustPattern compiles expr and panics if it is invalid. Rule patterns are
// constants so an invalid one is a programming error.
func MustPattern(expr string) Pattern {
	return Pattern{re: regexp2.MustCompile(expr, regexp2.None)}
}

// MatchString matches path using forward slashes regardless of platform.
func (p Pattern) MatchString(path string) bool {
	if p.re == nil {
		return false
	}
	ok, err := p.re.MatchString(filepath.ToSlash(path))
	return err == nil && ok
}

func (p Pattern) String() string {
	if p.re == nil {
		return ""
	}
	return p.re.String()
}

func (p Pattern) MarshalYAML() (any, error) {
	return p.String(), nil
}
