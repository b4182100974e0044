// Package web renders the Chef AI page: upload panel, photo preview,
// ingredient chips, recipe cards and grounding sources.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"strings"

	"chefai/internal/session"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// PageData is everything the page template needs.
type PageData struct {
	View        session.View
	Notice      string
	MaxUploadMB int64
}

// Loading reports whether the page should show the spinner and poll.
func (p PageData) Loading() bool { return p.View.State == session.StateLoading }

// Success reports whether the result panel should be shown.
func (p PageData) Success() bool {
	return p.View.State == session.StateSuccess && p.View.Result != nil
}

var funcs = template.FuncMap{
	"imageSrc": imageSrc,
}

// imageSrc marks data URLs of images as safe for an <img src>. Anything else
// is dropped.
func imageSrc(s string) template.URL {
	if !strings.HasPrefix(s, "data:image/") {
		return ""
	}
	return template.URL(s)
}

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// Static returns the embedded stylesheet directory.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

