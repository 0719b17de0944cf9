// Package spotter polls the feed for every configured line and drives each
// line's orchestrator and sink.
package spotter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/feed"
	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/metrics"
	"github.com/cbmason/trainspotting/internal/models"
	"github.com/cbmason/trainspotting/internal/positioning"
	"github.com/cbmason/trainspotting/internal/strip"
)

// Fetcher is the part of feed.Client the runner needs.
type Fetcher interface {
	FetchTripsForRoute(ctx context.Context, routeID string) (*models.TripsForRouteResponse, error)
}

// Line is one strip: the route it shows, its orchestrator and where its
// frames go.
type Line struct {
	Name         string
	RouteID      string
	Orchestrator *positioning.Orchestrator
	Sink         strip.Receiver
}

type Config struct {
	Lines   []*Line
	Fetcher Fetcher
	Metrics *metrics.Metrics
	Clock   clock.Clock
	Period  time.Duration
	// UpdateTimeout bounds one UpdateOnce. Defaults to the period.
	UpdateTimeout time.Duration
	Logger        *slog.Logger
}

// Runner owns the poll loop.
type Runner struct {
	lines         []*Line
	byName        map[string]*Line
	fetcher       Fetcher
	metrics       *metrics.Metrics
	clock         clock.Clock
	period        time.Duration
	updateTimeout time.Duration
	logger        *slog.Logger

	commitMu   sync.RWMutex
	lastCommit map[string]time.Time

	started      atomic.Bool
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	wg           sync.WaitGroup
}

func NewRunner(cfg Config) (*Runner, error) {
	if len(cfg.Lines) == 0 {
		return nil, errors.New("spotter: at least one line is required")
	}
	if cfg.Fetcher == nil {
		return nil, errors.New("spotter: fetcher is required")
	}
	if cfg.Period <= 0 {
		return nil, fmt.Errorf("spotter: invalid period %s", cfg.Period)
	}

	byName := make(map[string]*Line, len(cfg.Lines))
	for _, line := range cfg.Lines {
		if line == nil || line.Orchestrator == nil {
			return nil, errors.New("spotter: line without orchestrator")
		}
		if _, dup := byName[line.Name]; dup {
			return nil, fmt.Errorf("spotter: duplicate line %q", line.Name)
		}
		byName[line.Name] = line
	}

	r := &Runner{
		lines:         cfg.Lines,
		byName:        byName,
		fetcher:       cfg.Fetcher,
		metrics:       cfg.Metrics,
		clock:         cfg.Clock,
		period:        cfg.Period,
		updateTimeout: cfg.UpdateTimeout,
		logger:        cfg.Logger,
		lastCommit:    make(map[string]time.Time, len(cfg.Lines)),
		shutdownChan:  make(chan struct{}),
	}
	if r.metrics == nil {
		r.metrics = metrics.New()
	}
	if r.clock == nil {
		r.clock = clock.RealClock{}
	}
	if r.updateTimeout <= 0 {
		r.updateTimeout = r.period
	}
	if r.logger == nil {
		r.logger = slog.Default()
	}
	r.logger = r.logger.With(slog.String("component", "spotter"))
	return r, nil
}

// Lines returns the configured lines in order.
func (r *Runner) Lines() []*Line {
	return r.lines
}

func (r *Runner) Line(name string) (*Line, bool) {
	line, ok := r.byName[name]
	return line, ok
}

// LastCommits returns the wall time of each line's last committed frame.
func (r *Runner) LastCommits() map[string]time.Time {
	r.commitMu.RLock()
	defer r.commitMu.RUnlock()
	out := make(map[string]time.Time, len(r.lastCommit))
	for k, v := range r.lastCommit {
		out[k] = v
	}
	return out
}

// Ready reports whether every line has committed at least one frame.
func (r *Runner) Ready() bool {
	for _, line := range r.lines {
		if _, ok := line.Orchestrator.LastCommitted(); !ok {
			return false
		}
	}
	return true
}

// UpdateOnce fetches and processes every line concurrently. A line whose
// fetch fails keeps its previous frame; the errors are returned joined.
func (r *Runner) UpdateOnce(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make([]error, len(r.lines))
	for i, line := range r.lines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = r.updateLine(ctx, line)
		}()
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (r *Runner) updateLine(ctx context.Context, line *Line) error {
	logger := r.logger.With(slog.String("line", line.Name))
	start := r.clock.Now()

	resp, err := r.fetcher.FetchTripsForRoute(ctx, line.RouteID)
	if err != nil {
		r.metrics.FeedRequestsTotal.WithLabelValues(line.RouteID, feedStatus(err)).Inc()
		logging.LogError(logger, "Failed to fetch trips for route, keeping previous frame", err,
			slog.String("route_id", line.RouteID))
		return fmt.Errorf("line %s: %w", line.Name, err)
	}
	r.metrics.FeedRequestsTotal.WithLabelValues(line.RouteID, "ok").Inc()

	result := line.Orchestrator.Process(feed.ToSnapshot(resp))
	r.record(line.Name, result)
	r.metrics.CycleDuration.WithLabelValues(line.Name).Observe(clock.Since(r.clock, start).Seconds())

	if result.Outcome != positioning.Committed {
		return nil
	}

	r.commitMu.Lock()
	r.lastCommit[line.Name] = r.clock.Now()
	r.commitMu.Unlock()

	if line.Sink == nil {
		return nil
	}
	if err := line.Sink.Receive(ctx, result.Frame); err != nil {
		logging.LogError(logger, "Failed to push frame to sink", err)
		return fmt.Errorf("line %s: sink: %w", line.Name, err)
	}
	return nil
}

func (r *Runner) record(name string, result positioning.Result) {
	r.metrics.CyclesTotal.WithLabelValues(name, result.Outcome.String()).Inc()
	if result.Outcome != positioning.Committed {
		return
	}
	r.metrics.RenderedVehicles.WithLabelValues(name).Set(float64(result.Rendered))
	r.metrics.Collisions.WithLabelValues(name).Set(float64(result.Collisions))
	for _, skipped := range result.Skipped {
		r.metrics.SkippedVehiclesTotal.WithLabelValues(name, string(skipped.Reason)).Inc()
	}
}

func feedStatus(err error) string {
	var statusErr *feed.StatusError
	switch {
	case errors.As(err, &statusErr):
		return strconv.Itoa(statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	default:
		return "error"
	}
}

// Start runs an update immediately and then once per period until
// Shutdown. It also starts the staleness collector. Calling Start more
// than once has no effect.
func (r *Runner) Start() {
	if !r.started.CompareAndSwap(false, true) {
		return
	}
	r.metrics.StartStalenessCollector(r, r.clock, r.period)

	r.wg.Add(1)
	go r.updatePeriodically()
}

func (r *Runner) updatePeriodically() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.period)
	defer ticker.Stop()

	r.runUpdate()
	for {
		select {
		case <-ticker.C:
			r.runUpdate()
		case <-r.shutdownChan:
			logging.LogOperation(r.logger, "shutting_down_spotter")
			return
		}
	}
}

func (r *Runner) runUpdate() {
	ctx, cancel := context.WithTimeout(context.Background(), r.updateTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, r.logger)

	go func() {
		select {
		case <-r.shutdownChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	if err := r.UpdateOnce(ctx); err != nil {
		r.logger.Debug("update finished with errors", slog.String("error", err.Error()))
	}
}

// Shutdown stops the poll loop and the collector and waits for both.
// Safe to call multiple times.
func (r *Runner) Shutdown() {
	r.shutdownOnce.Do(func() {
		close(r.shutdownChan)
	})
	r.wg.Wait()
	r.metrics.Shutdown()
}
