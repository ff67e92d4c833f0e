// Package render turns page data into HTML through the embedded templates.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/eventsignup/server/internal/auth"
	"github.com/eventsignup/server/internal/sanitize"
	"github.com/eventsignup/server/internal/validation"
	"github.com/gorilla/csrf"
	"github.com/rs/zerolog"
	"github.com/yuin/goldmark"
	goldmarkHTML "github.com/yuin/goldmark/renderer/html"
)

// Raw HTML in descriptions is escaped by goldmark (WithUnsafe is not set);
// the output is still passed through the UGC policy before it is trusted.
var markdownRenderer = goldmark.New(
	goldmark.WithRendererOptions(
		goldmarkHTML.WithHardWraps(),
	),
)

// Page is the data every template receives. Identity and CSRFField are
// filled in by Render from the request.
type Page struct {
	Title     string
	Identity  *auth.Identity
	CSRFField template.HTML
	Notice    string
	Errors    validation.Errors
	Data      any
}

// Field describes one input of an event form.
type Field struct {
	Name      string
	Label     string
	Multiline bool
	MaxLength int
}

// FieldValuer is implemented by form DTOs so templates can refill inputs.
type FieldValuer interface {
	Value(field string) string
}

// FieldSet is the argument of the shared event_fields template.
type FieldSet struct {
	Form   FieldValuer
	Errors validation.Errors
	Fields []Field
}

type Renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

var funcs = template.FuncMap{
	"markdown": Markdown,
	"fieldSet": func(form FieldValuer, errs validation.Errors, fields []Field) FieldSet {
		return FieldSet{Form: form, Errors: errs, Fields: fields}
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
}

// New parses layout.html and partials.html once, then every pages/*.html on
// top of its own copy of them. Pages are looked up by file name without the
// extension.
func New(files fs.FS, logger zerolog.Logger) (*Renderer, error) {
	base, err := template.New("base").Funcs(funcs).ParseFS(files, "layout.html", "partials.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(files, "pages/*.html")
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("clone layout for %s: %w", name, err)
		}
		page, err := clone.ParseFS(files, name)
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		pages[strings.TrimSuffix(path.Base(name), ".html")] = page
	}

	return &Renderer{
		pages:  pages,
		logger: logger.With().Str("component", "render").Logger(),
	}, nil
}

// Has reports whether a page template exists.
func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Render executes the page into a buffer and only then writes the status, so
// a template failure can still become a clean 500.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, page Page) {
	tmpl, ok := r.pages[name]
	if !ok {
		r.fail(w, req, fmt.Errorf("unknown page %q", name))
		return
	}

	if page.Identity == nil {
		page.Identity = auth.IdentityFromContext(req.Context())
	}
	page.CSRFField = csrf.TemplateField(req)

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", page); err != nil {
		r.fail(w, req, fmt.Errorf("execute %s: %w", name, err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *Renderer) fail(w http.ResponseWriter, req *http.Request, err error) {
	logger := zerolog.Ctx(req.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &r.logger
	}
	logger.Error().Err(err).Msg("template error")
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}

// Markdown renders an event description. Output is sanitized again with the
// UGC policy before it is marked safe.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(sanitize.HTML(buf.String()))
}
