// Package render implements echo.Renderer over the embedded HTML views.
package render

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/madjik/clinic/pkg/visitdate"
)

//go:embed views/*.html
var viewFS embed.FS

// Renderer executes one parsed template per view name.
type Renderer struct {
	templates *template.Template
}

// New parses every embedded view.
func New() (*Renderer, error) {
	tmpl, err := template.New("views").Funcs(Funcs()).ParseFS(viewFS, "views/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse views: %w", err)
	}
	return &Renderer{templates: tmpl}, nil
}

// Funcs returns the template helpers shared by all views.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"format_date": FormatDate,
	}
}

// FormatDate renders a visit date as MM-DD-YYYY. Nil pointers render empty;
// unrecognised values pass through.
func FormatDate(v interface{}) string {
	switch d := v.(type) {
	case nil:
		return ""
	case string:
		return visitdate.Display(d)
	case *string:
		if out := visitdate.DisplayOptional(d); out != nil {
			return *out
		}
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// Render implements echo.Renderer.
func (r *Renderer) Render(w io.Writer, name string, data interface{}, c echo.Context) error {
	if r.templates.Lookup(name) == nil {
		return fmt.Errorf("render: unknown view %q", name)
	}
	return r.templates.ExecuteTemplate(w, name, data)
}
