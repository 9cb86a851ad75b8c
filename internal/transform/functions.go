package transform

import (
	"fmt"
	"strconv"

	"github.com/dlclark/regexp2"
	"github.com/wolfeidau/docsite/internal/style"
)

// ApplyFunctions evaluates calls to the custom functions whose single argument
// is a string literal, replacing each call with its quoted result. Calls with
// non literal arguments are left for the compiler to report.
func ApplyFunctions(source string, fns style.Functions) (string, error) {
	for _, name := range fns.Names() {
		fn, _ := fns.Lookup(name)

		re, err := regexp2.Compile(`(?<![\w-])`+regexp2.Escape(name)+`\(\s*(?:"([^"]*)"|'([^']*)')\s*\)`, regexp2.None)
		if err != nil {
			return "", err
		}

		var callErr error
		source, err = re.ReplaceFunc(source, func(m regexp2.Match) string {
			arg := m.GroupByNumber(1).String()
			if g := m.GroupByNumber(2); len(g.Captures) > 0 {
				arg = g.String()
			}

			out, err := fn([]string{arg})
			if err != nil && callErr == nil {
				callErr = fmt.Errorf("%s: %w", name, err)
			}
			return strconv.Quote(out)
		}, -1, -1)
		if err != nil {
			return "", err
		}
		if callErr != nil {
			return "", callErr
		}
	}

	return source, nil
}
