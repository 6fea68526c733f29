// Package views renders the server-side HTML pages.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/meetup-planner/app/internal/api/types"
	"github.com/meetup-planner/app/internal/models"
)

//go:embed templates/*.html
var files embed.FS

const layoutFile = "templates/layout.html"

var funcMap = template.FuncMap{
	"FormatDateTime": FormatDateTime,
	"DateInput":      DateInput,
	"Nl2br":          Nl2br,
	"TitleCase":      TitleCase,
	"RSVPStatuses":   func() []models.RSVPStatus { return models.RSVPStatuses },
}

// FormatDateTime renders a stored UTC time in server local time.
func FormatDateTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Local().Format("Monday, January 2, 2006 at 3:04 PM")
}

// DateInput renders t for a datetime-local input.
func DateInput(t time.Time) string {
	return t.Local().Format("2006-01-02T15:04")
}

// Nl2br escapes s and turns newlines into <br> tags.
func Nl2br(s string) template.HTML {
	return template.HTML(strings.ReplaceAll(template.HTMLEscapeString(s), "\n", "<br>"))
}

// TitleCase upper-cases the first letter of each underscore or space separated word.
func TitleCase(s string) string {
	words := strings.Fields(strings.ReplaceAll(s, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// Renderer holds one parsed template set per page, each combined with the layout.
type Renderer struct {
	pages map[string]*template.Template
}

func New() (*Renderer, error) {
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: map[string]*template.Template{}}
	for _, file := range names {
		if file == layoutFile {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		tmpl, err := template.New(name).Funcs(funcMap).ParseFS(files, layoutFile, file)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		r.pages[name] = tmpl
	}
	return r, nil
}

// Render executes page name into a buffer first so a template error never
// leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, page types.Page) error {
	tmpl, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	if page.CurrentYear == 0 {
		page.CurrentYear = time.Now().Year()
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		return fmt.Errorf("execute template %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}
