// Package logging holds the slog helpers shared by every component: a
// constructor that picks the handler for the environment, context
// propagation, and a handful of structured shorthands.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
)

type loggerKey struct{}

// NewLogger returns a JSON logger for production and a text logger
// otherwise. Verbose lowers the level to debug.
func NewLogger(w io.Writer, production bool, verbose bool) *slog.Logger {
	if w == nil {
		w = os.Stdout
	}
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if production {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored by WithLogger, or slog.Default().
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// LogError logs msg at error level with the error attached.
func LogError(logger *slog.Logger, msg string, err error, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := make([]any, 0, len(attrs)+1)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger.Error(msg, args...)
}

// LogOperation records that a named operation started or finished.
func LogOperation(logger *slog.Logger, operation string, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := make([]any, 0, len(attrs)+1)
	args = append(args, slog.String("operation", operation))
	for _, attr := range attrs {
		args = append(args, attr)
	}
	logger.Info("operation", args...)
}

// LogHTTPRequest logs one served request.
func LogHTTPRequest(logger *slog.Logger, method, path string, status int, durationMs float64, attrs ...slog.Attr) {
	if logger == nil {
		logger = slog.Default()
	}
	args := []any{
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", status),
		slog.Float64("duration_ms", durationMs),
	}
	for _, attr := range attrs {
		args = append(args, attr)
	}

	switch {
	case status >= 500:
		logger.Error("http_request", args...)
	case status >= 400:
		logger.Warn("http_request", args...)
	default:
		logger.Info("http_request", args...)
	}
}

// SafeCloseWithLogging closes c and logs a failure instead of returning it.
// Meant for defer.
func SafeCloseWithLogging(c io.Closer, logger *slog.Logger, name string) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		LogError(logger, "failed to close resource", err, slog.String("resource", name))
	}
}
