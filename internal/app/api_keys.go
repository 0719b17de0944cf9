package app

import (
	"crypto/subtle"
	"net/http"
)

// APIKeysRequired reports whether the local HTTP API is protected. With no
// keys configured every request is allowed.
func (app *Application) APIKeysRequired() bool {
	return len(app.Config.ApiKeys) > 0
}

func (app *Application) RequestHasInvalidAPIKey(r *http.Request) bool {
	key := r.URL.Query().Get("key")
	return app.IsInvalidAPIKey(key)
}

func (app *Application) IsInvalidAPIKey(key string) bool {
	if !app.APIKeysRequired() {
		return false
	}
	if key == "" {
		return true
	}

	for _, validKey := range app.Config.ApiKeys {
		// Use constant-time comparison to prevent timing attacks
		if subtle.ConstantTimeCompare([]byte(key), []byte(validKey)) == 1 {
			return false
		}
	}

	return true
}
