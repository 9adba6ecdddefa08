package web

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Render writes an HTML page composed of the shared layout and one page
// template. Template failures produce a generic 500 without leaking
// internals.
func Render(w http.ResponseWriter, status int, page string, data any) {
	tpl, err := template.New("layout.html").ParseFS(templatesFS,
		"templates/layout.html", "templates/"+page)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tpl.ExecuteTemplate(&buf, "layout.html", data); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
