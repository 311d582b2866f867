// Package views renders the HTML pages from embedded templates.
package views

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/go-chi/render"
	"github.com/pkg/errors"
)

//go:embed templates
var templateFS embed.FS

// Context is the data handed to a page template.
type Context map[string]any

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every page together with the shared layout.
func New() (*Renderer, error) {
	names, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil, errors.Wrap(err, "views.read_dir")
	}

	v := &Renderer{pages: map[string]*template.Template{}}
	for _, entry := range names {
		name := entry.Name()
		if name == "layout.html" {
			continue
		}
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, errors.Wrapf(err, "views.parse.%s", name)
		}
		v.pages[name] = t
	}
	return v, nil
}

// Render executes the page into a buffer first, so a template error never
// leaves a half-written response.
func (v *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, name string, data Context) error {
	t, ok := v.pages[name]
	if !ok {
		return errors.Errorf("views.render: no page %q", name)
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return errors.Wrapf(err, "views.render.%s", name)
	}

	render.Status(r, status)
	render.HTML(w, r, buf.String())
	return nil
}
