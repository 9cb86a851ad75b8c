package assets

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"maps"
	"path"
	"path/filepath"
	"strings"

	"github.com/wolfeidau/docsite/internal/plugins"
)

//go:embed templates/page.html
var defaultPageTemplate string

// Page is the data handed to a Renderer for one route.
type Page struct {
	Path    string
	Title   string
	Scripts []string
	Styles  []string
	Locals  plugins.Locals
	Context any
}

// Renderer produces the HTML document for a page.
type Renderer interface {
	Render(w io.Writer, page Page) error
}

type TemplateRenderer struct {
	tmpl *template.Template
}

// NewTemplateRenderer loads the page template at templatePath, or the built in
// page shell when templatePath is empty, with optional custom functions.
func NewTemplateRenderer(templatePath string, customFuncs template.FuncMap) (*TemplateRenderer, error) {
	funcs := template.FuncMap{
		"marshal": marshal,
		"safe": func(s string) template.HTML {
			return template.HTML(s) //nolint:gosec
		},
	}

	// Merge custom functions
	maps.Copy(funcs, customFuncs)

	var (
		tmpl *template.Template
		err  error
	)
	if templatePath == "" {
		tmpl, err = template.New("page.html").Funcs(funcs).Parse(defaultPageTemplate)
	} else {
		tmpl, err = template.New(filepath.Base(templatePath)).Funcs(funcs).ParseFiles(templatePath)
	}
	if err != nil {
		return nil, err
	}

	return &TemplateRenderer{tmpl: tmpl}, nil
}

func (r *TemplateRenderer) Render(w io.Writer, page Page) error {
	return r.tmpl.Execute(w, page)
}

// PageFile maps a route to the file it is written to, relative to the output
// directory. Routes can not escape the output directory.
func PageFile(route string) string {
	clean := strings.TrimPrefix(path.Clean("/"+route), "/")
	if strings.HasSuffix(clean, ".html") {
		return filepath.FromSlash(clean)
	}
	return filepath.FromSlash(path.Join(clean, "index.html"))
}

func marshal(value any) string {
	buf := new(bytes.Buffer)

	if err := json.NewEncoder(buf).Encode(value); err != nil {
		panic(errors.New("context can only be json serializable"))
	}

	return buf.String()
}
