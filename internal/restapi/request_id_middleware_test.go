package restapi

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cbmason/trainspotting/internal/logging"
)

const uuidPattern = `^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`

// frameTarget is the frame endpoint of the line built by createTestApi.
const frameTarget = "/api/lines/test%20line/frame.json"

// serveWithRequestID runs one request through the request id middleware in
// front of the API routes.
func serveWithRequestID(t *testing.T, api *RestAPI, target, requestID string) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)

	req := httptest.NewRequest(http.MethodGet, target, nil)
	if requestID != "" {
		req.Header.Set(RequestIDHeader, requestID)
	}
	rec := httptest.NewRecorder()
	RequestIDMiddleware(mux).ServeHTTP(rec, req)
	return rec
}

func TestRequestIDMiddleware_FrameRequest(t *testing.T) {
	api := createTestApi(t)
	require.NoError(t, api.Runner.UpdateOnce(context.Background()))

	t.Run("assigns an id when none is sent", func(t *testing.T) {
		rec := serveWithRequestID(t, api, frameTarget, "")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Regexp(t, uuidPattern, rec.Header().Get(RequestIDHeader))
	})

	t.Run("echoes the caller's id", func(t *testing.T) {
		rec := serveWithRequestID(t, api, frameTarget, "strip-poller:42")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "strip-poller:42", rec.Header().Get(RequestIDHeader))
	})

	t.Run("error responses carry the id too", func(t *testing.T) {
		rec := serveWithRequestID(t, api, "/api/lines/no-such-line/frame.json", "lookup-7")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "lookup-7", rec.Header().Get(RequestIDHeader))
	})
}

func TestRequestIDMiddleware_Validation(t *testing.T) {
	api := createTestApi(t)

	tests := []struct {
		name string
		sent string
		kept bool
	}{
		{"dotted id", "viewer.v1_frame-3", true},
		{"128 characters", strings.Repeat("r", 128), true},
		{"129 characters", strings.Repeat("r", 129), false},
		{"markup", "line<script>", false},
		{"spaces", "test line", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := serveWithRequestID(t, api, "/api/lines", tt.sent).Header().Get(RequestIDHeader)
			if tt.kept {
				assert.Equal(t, tt.sent, got)
			} else {
				assert.NotEqual(t, tt.sent, got)
				assert.Regexp(t, uuidPattern, got)
			}
		})
	}
}

func TestGetRequestID(t *testing.T) {
	assert.Empty(t, GetRequestID(context.Background()))

	var seen string
	handler := RequestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "health-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "health-1", seen)
}

func TestRequestLoggingMiddleware_LogsFrameRequestWithID(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	api := createTestApi(t)
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	handler := RequestIDMiddleware(NewRequestLoggingMiddleware(logger, api.Clock)(mux))

	req := httptest.NewRequest(http.MethodGet, frameTarget, nil)
	req.Header.Set(RequestIDHeader, "frame-log-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := logBuf.String()
	assert.Contains(t, out, `"request_id":"frame-log-1"`)
	assert.Contains(t, out, "frame.json")
	assert.Contains(t, out, "http_server")
}

func TestRequestLoggingMiddleware_ContextLoggerCarriesRequestID(t *testing.T) {
	var logBuf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logBuf, nil))

	finalHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	handler := RequestIDMiddleware(NewRequestLoggingMiddleware(logger, nil)(finalHandler))
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "ctx-logger-1")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	lines := strings.Split(strings.TrimSpace(logBuf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "inside handler")
	assert.Contains(t, lines[0], "ctx-logger-1")
	assert.Contains(t, lines[1], "503")
	assert.Contains(t, lines[1], "http_server")
}
