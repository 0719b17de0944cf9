// Package restapi serves the local HTTP API: line state, frames, health
// and Prometheus metrics.
package restapi

import (
	"time"

	"github.com/cbmason/trainspotting/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, nil, app.Clock),
	}
}

// Shutdown stops the rate limiter's cleanup goroutine.
func (api *RestAPI) Shutdown() {
	if api.rateLimiter != nil {
		api.rateLimiter.Stop()
	}
}
