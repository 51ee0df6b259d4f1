package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"time"

	"github.com/ariebrainware/patient-console/model"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageTemplate is the name of the full console template.
const PageTemplate = "page.html"

// Renderer turns patients and page state into HTML fragments.
type Renderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*Renderer, error) {
	tmpl, err := template.New("").Funcs(template.FuncMap{
		"confirmDeleteMessage": func() string { return ConfirmDeleteMessage },
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// MustRenderer is NewRenderer that panics on error. The templates are
// embedded, so a failure is a build defect.
func MustRenderer() *Renderer {
	r, err := NewRenderer()
	if err != nil {
		panic(err)
	}
	return r
}

// Templates exposes the parsed set for gin's HTML renderer.
func (r *Renderer) Templates() *template.Template {
	return r.tmpl
}

// StaticFS returns the stylesheet and script served under /static.
func StaticFS() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

type card struct {
	model.Patient
	Actions bool
}

// RenderList renders one card per patient, each with edit and delete
// controls keyed by the patient id. An empty or nil list renders the
// empty-state placeholder.
func (r *Renderer) RenderList(patients []model.Patient) (template.HTML, error) {
	cards := make([]card, 0, len(patients))
	for _, p := range patients {
		cards = append(cards, card{Patient: p, Actions: true})
	}
	return r.execute("patient-list", cards)
}

// RenderSingle renders p as a card without actions, or the not-found
// message when p is nil.
func (r *Renderer) RenderSingle(p *model.Patient) (template.HTML, error) {
	var c *card
	if p != nil {
		c = &card{Patient: *p}
	}
	return r.execute("patient-single", c)
}

// RenderNotification renders n as a dismissible banner that removes itself
// once n expires.
func (r *Renderer) RenderNotification(n Notification, now time.Time) (template.HTML, error) {
	return r.execute("notification", newNotificationView(n, now))
}

// ErrorPage is the model of the standalone error page.
type ErrorPage struct {
	Status  int
	Title   string
	Message string
}

// RenderError renders a full page describing a failed request.
func (r *Renderer) RenderError(page ErrorPage) (template.HTML, error) {
	return r.execute("error", page)
}

func (r *Renderer) execute(name string, data interface{}) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
