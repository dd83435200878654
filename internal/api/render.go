package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"unicode"
)

//go:embed templates/*.html
var templatesFS embed.FS

type Renderer interface {
	Render(w io.Writer, name string, data map[string]any) error
}

type TemplateRenderer struct {
	templates *template.Template
}

func NewTemplateRenderer() (*TemplateRenderer, error) {
	tmpl, err := template.New("pages").Funcs(template.FuncMap{
		"pathescape": url.PathEscape,
	}).ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("error parsing templates: %w", err)
	}
	return &TemplateRenderer{templates: tmpl}, nil
}

func (t *TemplateRenderer) Render(w io.Writer, name string, data map[string]any) error {
	return t.templates.ExecuteTemplate(w, name, data)
}

// render executes the page into a buffer first so that a failing template
// does not leave a half written page behind a 200 status.
func render(w http.ResponseWriter, renderer Renderer, name string, data map[string]any) {
	var buf bytes.Buffer
	if err := renderer.Render(&buf, name, data); err != nil {
		slog.Error("error rendering page", "page", name, "error", err)
		http.Error(w, "error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		slog.Error("error writing page", "page", name, "error", err)
	}
}

// titleCase upper cases the first letter of every word and lower cases the
// rest, so "tv series" becomes "Tv Series".
func titleCase(s string) string {
	var b strings.Builder
	prevLetter := false
	for _, r := range s {
		if prevLetter {
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(unicode.ToUpper(r))
		}
		prevLetter = unicode.IsLetter(r)
	}
	return b.String()
}
