// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

var (
	//go:embed static
	staticFiles embed.FS

	//go:embed templates
	templateFiles embed.FS
)

// StaticFS serves /static/; the "static/" prefix is stripped.
var StaticFS = mustSub(staticFiles, "static")

// Templates holds login.html, preferences.html and admin_settings.html
// along with the "head" and "nav" partials they share.
var Templates = template.Must(template.New("").ParseFS(templateFiles,
	"templates/*.html",
	"templates/partials/*.html",
))

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic("web: " + err.Error())
	}
	return sub
}
