package restapi

import (
	"log/slog"
	"net/http"

	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/logging"
)

// NewRequestLoggingMiddleware logs one line per request and stores a
// request scoped logger in the context for handlers.
func NewRequestLoggingMiddleware(logger *slog.Logger, c clock.Clock) func(http.Handler) http.Handler {
	if c == nil {
		c = clock.RealClock{}
	}
	logger = logger.With(slog.String("component", "http_server"))

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := c.Now()
			reqLogger := logger.With(slog.String("request_id", GetRequestID(r.Context())))
			r = r.WithContext(logging.WithLogger(r.Context(), reqLogger))

			rec := newStatusRecorder(w)
			next.ServeHTTP(rec, r)

			logging.LogHTTPRequest(reqLogger,
				r.Method,
				r.URL.Path,
				rec.statusCode,
				float64(clock.Since(c, start).Microseconds())/1e3,
				slog.String("user_agent", r.Header.Get("User-Agent")))
		})
	}
}
