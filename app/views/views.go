package views

import (
	"embed"
	"encoding/gob"
	"fmt"
	"html/template"
	"io"
	"net/http"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Flash is a transient status message shown once on the next rendered page.
type Flash struct {
	Category string // success, error or info
	Message  string
}

func init() {
	// Flashes travel inside the gorilla session cookie, which gob-encodes
	// its values.
	gob.Register(Flash{})
}

// AlertClass maps a flash category onto its Bootstrap alert class.
func (f Flash) AlertClass() string {
	switch f.Category {
	case "success":
		return "alert-success"
	case "error":
		return "alert-danger"
	case "info":
		return "alert-info"
	}
	return "alert-secondary"
}

// Renderer renders the embedded HTML templates.
type Renderer struct {
	tmpl *template.Template
}

// New parses the embedded templates with the sprig function map available
// to them.
func New() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(sprig.HtmlFuncMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named page template.
func (r *Renderer) Render(w io.Writer, name string, data any) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

// StaticHandler serves the embedded static assets. The embedded paths
// already start with static/, so the handler mounts without a prefix strip.
func StaticHandler() http.Handler {
	return http.FileServer(http.FS(staticFS))
}
