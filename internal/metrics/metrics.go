// Package metrics provides Prometheus metrics for trainspotting.
package metrics

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/cbmason/trainspotting/internal/clock"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Registry is the Prometheus registry for this metrics instance
	Registry *prometheus.Registry

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Positioning cycle metrics
	CyclesTotal          *prometheus.CounterVec
	SkippedVehiclesTotal *prometheus.CounterVec
	RenderedVehicles     *prometheus.GaugeVec
	Collisions           *prometheus.GaugeVec
	CycleDuration        *prometheus.HistogramVec

	// Feed metrics
	FeedRequestsTotal  *prometheus.CounterVec
	SecondsSinceCommit *prometheus.GaugeVec

	logger *slog.Logger

	// collectorStarted prevents spawning multiple collector goroutines
	collectorStarted atomic.Bool

	// cancel stops the staleness collector goroutine
	cancel context.CancelFunc

	// wg tracks the collector goroutine for graceful shutdown
	wg sync.WaitGroup
}

// CommitSource reports when each line last committed a frame. Lines that
// have never committed are absent.
type CommitSource interface {
	LastCommits() map[string]time.Time
}

// New creates and registers all application metrics with a new registry.
func New() *Metrics {
	return NewWithLogger(nil)
}

// NewWithLogger creates metrics with a logger for error reporting.
func NewWithLogger(logger *slog.Logger) *Metrics {
	registry := prometheus.NewRegistry()

	httpRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainspotting_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trainspotting_http_request_duration_seconds",
			Help:    "HTTP request latency distribution",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	cyclesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainspotting_cycles_total",
			Help: "Positioning cycles by outcome",
		},
		[]string{"line", "outcome"},
	)

	skippedVehiclesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainspotting_skipped_vehicles_total",
			Help: "Vehicles left off the strip, by reason",
		},
		[]string{"line", "reason"},
	)

	renderedVehicles := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trainspotting_rendered_vehicles",
		Help: "Vehicles drawn in the last committed frame",
	}, []string{"line"})

	collisions := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trainspotting_collision_pixels",
		Help: "Pixels claimed by more than one vehicle in the last committed frame",
	}, []string{"line"})

	cycleDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trainspotting_cycle_duration_seconds",
			Help:    "Time spent fetching and processing one snapshot",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"line"},
	)

	feedRequestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trainspotting_feed_requests_total",
			Help: "trips-for-route fetches by result",
		},
		[]string{"route", "status"},
	)

	secondsSinceCommit := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "trainspotting_seconds_since_commit",
		Help: "Seconds since the line last committed a frame",
	}, []string{"line"})

	// Register all metrics with the custom registry
	registry.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
		cyclesTotal,
		skippedVehiclesTotal,
		renderedVehicles,
		collisions,
		cycleDuration,
		feedRequestsTotal,
		secondsSinceCommit,
	)

	return &Metrics{
		Registry:             registry,
		HTTPRequestsTotal:    httpRequestsTotal,
		HTTPRequestDuration:  httpRequestDuration,
		CyclesTotal:          cyclesTotal,
		SkippedVehiclesTotal: skippedVehiclesTotal,
		RenderedVehicles:     renderedVehicles,
		Collisions:           collisions,
		CycleDuration:        cycleDuration,
		FeedRequestsTotal:    feedRequestsTotal,
		SecondsSinceCommit:   secondsSinceCommit,
		logger:               logger,
	}
}

// StartStalenessCollector starts a goroutine that periodically sets
// SecondsSinceCommit for every line the source knows about.
// This method is idempotent - calling it multiple times has no effect after the first call.
// Call Shutdown() to stop the collector.
func (m *Metrics) StartStalenessCollector(source CommitSource, c clock.Clock, interval time.Duration) {
	if source == nil {
		return
	}

	if !m.collectorStarted.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())

	// Add to WaitGroup BEFORE exposing cancel to avoid race with Shutdown
	m.wg.Add(1)
	m.cancel = cancel

	go func() {
		defer m.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				if m.logger != nil {
					m.logger.Error("panic in staleness collector", "error", r)
				}
			}
		}()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.CollectStaleness(source, c)
			case <-ctx.Done():
				return
			}
		}
	}()
}

// CollectStaleness updates SecondsSinceCommit once.
func (m *Metrics) CollectStaleness(source CommitSource, c clock.Clock) {
	now := c.Now()
	for line, at := range source.LastCommits() {
		m.SecondsSinceCommit.WithLabelValues(line).Set(now.Sub(at).Seconds())
	}
}

// Shutdown stops the collector goroutine and waits for it to exit.
// This method is safe to call multiple times.
func (m *Metrics) Shutdown() {
	if m.cancel != nil {
		m.cancel()
	}
	m.wg.Wait()
}
