// Package web embeds the operator console (dist/) and serves it at the root
// of the relay server.
package web

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
)

//go:embed all:dist
var distFS embed.FS

var consolePage = template.Must(template.ParseFS(distFS, "dist/index.html"))

// Console describes the relay shown on the console page.
type Console struct {
	TargetURL   string
	ProfileName string
}

// Handler renders the console at "/" and serves any other embedded asset.
// Unknown paths are 404: the console has no client-side routes.
func (c Console) Handler() http.Handler {
	subFS, err := fs.Sub(distFS, "dist")
	if err != nil {
		panic("web: failed to create sub filesystem: " + err.Error())
	}
	assets := http.FileServer(http.FS(subFS))

	// Settings are fixed at startup, so the page is rendered once.
	var page bytes.Buffer
	if err := consolePage.Execute(&page, c); err != nil {
		panic("web: failed to render console: " + err.Error())
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" && r.URL.Path != "/index.html" {
			assets.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		if _, err := w.Write(page.Bytes()); err != nil {
			slog.Debug("web: failed to write console", "error", err)
		}
	})
}
