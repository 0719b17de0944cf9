package app

import (
	"errors"
	"io"
	"log/slog"

	"github.com/cbmason/trainspotting/internal/appconf"
	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/metrics"
	"github.com/cbmason/trainspotting/internal/spotter"
)

// Application holds the dependencies shared by the poll runner and the
// HTTP handlers and middleware.
type Application struct {
	Config  appconf.Config
	Logger  *slog.Logger
	Clock   clock.Clock
	Metrics *metrics.Metrics
	Runner  *spotter.Runner
	// Closers are released by Close, in order. Device sinks end up here.
	Closers []io.Closer
}

// Close releases every closer and joins their errors.
func (a *Application) Close() error {
	var errs []error
	for _, c := range a.Closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Closers = nil
	return errors.Join(errs...)
}
