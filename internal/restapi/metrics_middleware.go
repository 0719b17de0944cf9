package restapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/cbmason/trainspotting/internal/metrics"
)

// MetricsHandler returns middleware that records HTTP metrics. It must wrap
// the ServeMux directly so the matched pattern is visible after the call.
// If m is nil, returns a pass-through middleware.
func MetricsHandler(m *metrics.Metrics) func(http.Handler) http.Handler {
	if m == nil {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := newStatusRecorder(w)

			next.ServeHTTP(rec, r)

			// The pattern, not the raw path, keeps line names out of the label set.
			path := r.Pattern
			if path == "" {
				path = "unmatched"
			}
			m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.statusCode)).Inc()
			m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
		})
	}
}
