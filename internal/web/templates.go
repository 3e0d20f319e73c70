// Package web renders the server-side screens: feed, search, articles,
// profile and sign-in.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Templates is the parsed screen set.
type Templates struct {
	screens *template.Template
}

// NewTemplates parses the embedded screens.
func NewTemplates() (*Templates, error) {
	screens, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse screens: %w", err)
	}
	return &Templates{screens: screens}, nil
}

// Render executes the named screen into a buffer and writes it with status.
// Nothing is written when execution fails.
func (t *Templates) Render(w http.ResponseWriter, status int, name string, data any) error {
	screen := t.screens.Lookup(name)
	if screen == nil {
		return fmt.Errorf("screen %q not found", name)
	}

	var buf bytes.Buffer
	if err := screen.Execute(&buf, data); err != nil {
		return fmt.Errorf("render screen %q: %w", name, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
