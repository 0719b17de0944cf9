package restapi

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetRoutes registers every endpoint on mux.
func (api *RestAPI) SetRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", api.healthHandler)
	if api.Metrics != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(api.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	mux.Handle("GET /api/lines", api.protect(0, api.linesHandler))
	mux.Handle("GET /api/lines/{name}/frame.json", api.protect(0, api.frameHandler))
	mux.Handle("GET /api/lines/{name}/layout.json", api.protect(300, api.layoutHandler))
}

// protect applies rate limiting, the API key check and cache headers.
func (api *RestAPI) protect(cacheSeconds int, h http.HandlerFunc) http.Handler {
	return api.rateLimiter.Handler()(api.requireAPIKey(CacheControlMiddleware(cacheSeconds, h)))
}

func (api *RestAPI) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.sendUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
