package restapi

import (
	"net/http"
	"strconv"
)

const noStoreCacheControl = "no-cache, no-store, must-revalidate"

// CacheControlMiddleware sets Cache-Control on successful responses to
// public with the given max age, or to no-store when maxAgeSeconds is 0.
// Error responses are never cached.
func CacheControlMiddleware(maxAgeSeconds int, next http.Handler) http.Handler {
	onSuccess := noStoreCacheControl
	if maxAgeSeconds > 0 {
		onSuccess = "public, max-age=" + strconv.Itoa(maxAgeSeconds)
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(&cacheControlWriter{ResponseWriter: w, onSuccess: onSuccess}, r)
	})
}

type cacheControlWriter struct {
	http.ResponseWriter
	onSuccess     string
	headerWritten bool
}

func (w *cacheControlWriter) WriteHeader(code int) {
	if !w.headerWritten {
		w.headerWritten = true
		value := noStoreCacheControl
		if code >= 200 && code < 300 {
			value = w.onSuccess
		}
		w.Header().Set("Cache-Control", value)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *cacheControlWriter) Write(b []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
