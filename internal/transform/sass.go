// Package transform holds the content transformers loader chains delegate to.
package transform

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/bep/godartsass/v2"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/docsite/internal/style"
)

var ErrCompilerClosed = errors.New("style compiler is closed")

type CompileRequest struct {
	Path         string
	Source       string
	Options      style.Options
	IncludePaths []string
}

// StyleCompiler turns a Sass source into CSS.
type StyleCompiler interface {
	Compile(req CompileRequest) (string, error)
}

// DartSass compiles through the Dart Sass embedded protocol. It is safe for
// concurrent use.
type DartSass struct {
	transpiler *godartsass.Transpiler
}

// NewDartSass starts the dart-sass binary. An empty binary path searches PATH.
func NewDartSass(binary string) (*DartSass, error) {
	t, err := godartsass.Start(godartsass.Options{
		DartSassEmbeddedFilename: binary,
		Timeout:                  time.Minute,
		LogEventHandler: func(e godartsass.LogEvent) {
			log.Warn().Str("message", e.Message).Msg("Sass compiler")
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start dart-sass: %w", err)
	}

	return &DartSass{transpiler: t}, nil
}

func (d *DartSass) Compile(req CompileRequest) (string, error) {
	if d == nil || d.transpiler == nil {
		return "", ErrCompilerClosed
	}

	source, err := ApplyFunctions(req.Source, req.Options.Functions)
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Path, err)
	}

	abs, err := filepath.Abs(req.Path)
	if err != nil {
		return "", err
	}

	res, err := d.transpiler.Execute(godartsass.Args{
		Source:       Prepend(req.Options.Prelude, source),
		URL:          "file://" + filepath.ToSlash(abs),
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: req.IncludePaths,
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", req.Path, err)
	}

	return res.CSS, nil
}

func (d *DartSass) Close() error {
	if d == nil || d.transpiler == nil {
		return nil
	}
	return d.transpiler.Close()
}

// Prepend places the prelude ahead of source on its own line.
func Prepend(prelude, source string) string {
	if prelude == "" {
		return source
	}
	return prelude + "\n" + source
}
