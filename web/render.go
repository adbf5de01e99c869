// Package web renders the server side HTML pages.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"yanote/pkg/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = []string{
	"home.html",
	"list.html",
	"form.html",
	"detail.html",
	"delete.html",
	"success.html",
	"login.html",
	"signup.html",
	"logout.html",
	"notfound.html",
}

// Page is the data handed to every template. Templates read only the
// fields relevant to them.
type Page struct {
	UserID int64
	Form   any
	Note   any
	Notes  any
	Next   string
}

type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, name := range pages {
		t, err := template.New(name).ParseFS(templateFS,
			"templates/base.html", "templates/errors.html", "templates/"+name)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.templates[name] = t
	}
	return r, nil
}

// MustRenderer is NewRenderer for callers that cannot continue without templates.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Render executes the named page into a buffer first so a template error
// still produces a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data Page) {
	t, ok := r.templates[name]
	if !ok {
		logger.Sugar.Errorf("Unknown template %s", name)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "base", data); err != nil {
		logger.Sugar.Errorf("Error executing %s template: %v", name, err)
		http.Error(w, "Error rendering page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

func (r *Renderer) NotFound(w http.ResponseWriter, data Page) {
	r.Render(w, http.StatusNotFound, "notfound.html", data)
}
