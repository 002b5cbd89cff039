package handler

import (
	_ "embed"
	"html/template"
	"net/http"
)

//go:embed fallback.html
var fallbackHTML string

// fallbackTmpl uses html/template so the slug is escaped for the HTML
// context it lands in. Whatever bytes arrive in the path render as inert
// text.
var fallbackTmpl = template.Must(template.New("fallback").Parse(fallbackHTML))

type fallbackData struct {
	Path string
}

// renderFallback writes the friendly not-found page. It always answers 200:
// to the person holding the phone this is a terminal page, not an error
// they can act on.
func renderFallback(w http.ResponseWriter, slug string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("X-Frame-Options", "DENY")
	w.WriteHeader(http.StatusOK)

	if err := fallbackTmpl.Execute(w, fallbackData{Path: "/r/" + slug}); err != nil {
		_ = err
	}
}
