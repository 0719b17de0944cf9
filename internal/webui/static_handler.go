package webui

import (
	"embed"
	"net/http"
	"path"
	"strings"
)

//go:embed static
var staticFS embed.FS

var allowedExtensions = map[string]bool{
	".html": true, ".css": true, ".js": true,
	".png": true, ".svg": true, ".ico": true,
}

func (webUI *WebUI) indexHandler(w http.ResponseWriter, r *http.Request) {
	serveStatic(w, r, "index.html")
}

func (webUI *WebUI) staticHandler(w http.ResponseWriter, r *http.Request) {
	serveStatic(w, r, r.PathValue("file"))
}

// serveStatic serves one file from the embedded static directory. Names
// with path separators or unknown extensions are rejected.
func serveStatic(w http.ResponseWriter, r *http.Request, name string) {
	if name == "" || strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") ||
		!allowedExtensions[strings.ToLower(path.Ext(name))] {
		http.NotFound(w, r)
		return
	}
	http.ServeFileFS(w, r, staticFS, "static/"+name)
}
