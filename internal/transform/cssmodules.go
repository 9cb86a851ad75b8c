package transform

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
)

const hashPrefix = "[hash:base64:"

// declarationAtRules hold declarations directly rather than nested rules.
var declarationAtRules = map[string]bool{
	"font-face":           true,
	"font-palette-values": true,
	"counter-style":       true,
	"property":            true,
	"page":                true,
	"viewport":            true,
	"top-left-corner":     true,
	"top-left":            true,
	"top-center":          true,
	"top-right":           true,
	"top-right-corner":    true,
	"bottom-left-corner":  true,
	"bottom-left":         true,
	"bottom-center":       true,
	"bottom-right":        true,
	"bottom-right-corner": true,
	"left-top":            true,
	"left-middle":         true,
	"left-bottom":         true,
	"right-top":           true,
	"right-middle":        true,
	"right-bottom":        true,
}

// LocalizeClasses renames every class selector in src according to identName
// and returns the rewritten stylesheet with a map of local to generated names.
// relPath keeps names from different files apart.
func LocalizeClasses(src, relPath, identName string) (string, map[string]string, error) {
	l := css.NewLexer(parse.NewInputString(src))

	var (
		sb      strings.Builder
		blocks  []bool // true for blocks holding declarations
		prelude bool   // inside an at-rule prelude
		atRule  string // name of the at-rule owning the prelude
		dot     bool
	)
	exports := map[string]string{}

	sb.Grow(len(src))

	for {
		tt, data := l.Next()

		switch tt {
		case css.ErrorToken:
			if errors.Is(l.Err(), io.EOF) {
				return sb.String(), exports, nil
			}
			return "", nil, l.Err()
		case css.AtKeywordToken:
			prelude = true
			atRule = strings.ToLower(strings.TrimPrefix(string(data), "@"))
		case css.LeftBraceToken:
			blocks = append(blocks, !prelude || declarationAtRules[atRule])
			prelude = false
			atRule = ""
		case css.RightBraceToken:
			if len(blocks) > 0 {
				blocks = blocks[:len(blocks)-1]
			}
		case css.SemicolonToken:
			prelude = false
			atRule = ""
		case css.IdentToken:
			inDeclarations := len(blocks) > 0 && blocks[len(blocks)-1]
			if dot && !prelude && !inDeclarations {
				local := string(data)
				name, ok := exports[local]
				if !ok {
					name = IdentName(identName, relPath, local)
					exports[local] = name
				}
				data = []byte(name)
			}
		}

		sb.Write(data)
		dot = tt == css.DelimToken && len(data) == 1 && data[0] == '.'
	}
}

// IdentName expands [local], [name] and [hash:base64:N] in pattern.
func IdentName(pattern, relPath, local string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))

	out := strings.NewReplacer("[local]", local, "[name]", base).Replace(pattern)

	for {
		start := strings.Index(out, hashPrefix)
		if start < 0 {
			return out
		}
		end := strings.IndexByte(out[start:], ']')
		if end < 0 {
			return out
		}
		n, err := strconv.Atoi(out[start+len(hashPrefix) : start+end])
		if err != nil {
			n = 0
		}
		out = out[:start] + Hash(filepath.ToSlash(relPath)+"\x00"+local, n) + out[start+end+1:]
	}
}

// Hash returns the first n base64url characters of the xxhash of s.
func Hash(s string, n int) string {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], xxhash.Sum64String(s))
	h := base64.RawURLEncoding.EncodeToString(b[:])
	if n <= 0 || n > len(h) {
		return h
	}
	return h[:n]
}
