package web

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"reflect"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/octobees/anycrm/internal/entity"
)

// PageData contains common fields used across all page templates.
type PageData struct {
	Title string
	Nav   string // active nav item: "accounts", "contacts", "settings"
	Error string
}

// AccountsPageData is the template data for the account list.
type AccountsPageData struct {
	PageData
	Accounts []entity.Account
	Page     int
	HasNext  bool
}

// AccountDetailPageData is the template data for one account.
type AccountDetailPageData struct {
	PageData
	Account  *entity.Account
	Contacts []entity.Contact
}

// AccountFormPageData is the template data for the create and edit forms.
type AccountFormPageData struct {
	PageData
	Account    *entity.Account
	Action     string
	Industries []string
}

// ContactsPageData is the template data for the contact list.
type ContactsPageData struct {
	PageData
	Contacts []entity.Contact
	Page     int
	HasNext  bool
}

// ContactFormPageData is the template data for the contact forms.
type ContactFormPageData struct {
	PageData
	Contact  *entity.Contact
	Accounts []entity.AccountOption
	Action   string
}

// SettingsPageData is the template data for the settings page.
type SettingsPageData struct {
	PageData
	APIKey      string
	BaseURL     string
	AgentAPIKey string
	AgentAPIURL string
	Saved       bool
}

// ErrorPageData is the template data for the error page.
type ErrorPageData struct {
	PageData
	StatusCode int
	Message    string
}

var pages = map[string]string{
	"accounts":       "accounts.html",
	"account_detail": "account_detail.html",
	"account_form":   "account_form.html",
	"contacts":       "contacts.html",
	"contact_form":   "contact_form.html",
	"settings":       "settings.html",
	"error":          "error.html",
}

// Renderer executes one layout-wrapped template per page. It implements
// echo.Renderer.
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the layout and every page from templateFS.
func NewRenderer(templateFS fs.FS) (*Renderer, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	funcMap := template.FuncMap{
		"add":        func(a, b int) int { return a + b },
		"sub":        func(a, b int) int { return a - b },
		"deref":      deref,
		"formatTime": formatTime,
		"markdown":   func(s *string) template.HTML { return renderMarkdown(md, s) },
		"selected":   selected,
	}

	layout, err := template.New("layout").Funcs(funcMap).ParseFS(templateFS, "layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		t, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := t.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		templates[name] = t
	}
	return &Renderer{templates: templates}, nil
}

// Render writes the named page wrapped in the layout. The page is executed
// into a buffer first so a template error never leaves a half-written body.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	t, ok := r.templates[name]
	if !ok {
		return fmt.Errorf("template %q not found", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// renderMarkdown converts markdown to HTML. Raw HTML in the source is
// omitted, so the result is safe to embed.
func renderMarkdown(md goldmark.Markdown, src *string) template.HTML {
	if src == nil || *src == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := md.Convert([]byte(*src), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(*src))
	}
	return template.HTML(buf.String())
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// deref dereferences a pointer, returning the zero value if nil.
func deref(v any) any {
	if v == nil {
		return ""
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return reflect.Zero(rv.Type().Elem()).Interface()
		}
		return rv.Elem().Interface()
	}
	return v
}

// selected reports whether an optional account id equals id.
func selected(current *int64, id int64) bool {
	return current != nil && *current == id
}
