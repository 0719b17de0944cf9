// Package webui serves the browser strip viewer and the development debug
// dump.
package webui

import (
	"net/http"

	"github.com/cbmason/trainspotting/internal/app"
)

type WebUI struct {
	*app.Application
}

// SetWebUIRoutes registers the viewer, its assets and /debug on mux.
func (webUI *WebUI) SetWebUIRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", webUI.indexHandler)
	mux.HandleFunc("GET /static/{file}", webUI.staticHandler)
	mux.HandleFunc("GET /debug", webUI.debugIndexHandler)
}
