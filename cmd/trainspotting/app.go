package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"

	"github.com/cbmason/trainspotting/internal/app"
	"github.com/cbmason/trainspotting/internal/appconf"
	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/feed"
	"github.com/cbmason/trainspotting/internal/gtfs"
	"github.com/cbmason/trainspotting/internal/logging"
	"github.com/cbmason/trainspotting/internal/metrics"
	"github.com/cbmason/trainspotting/internal/positioning"
	"github.com/cbmason/trainspotting/internal/restapi"
	"github.com/cbmason/trainspotting/internal/sink"
	"github.com/cbmason/trainspotting/internal/spotter"
	"github.com/cbmason/trainspotting/internal/strip"
	"github.com/cbmason/trainspotting/internal/webui"
)

// ParseAPIKeys splits a comma separated key list and trims each key.
func ParseAPIKeys(apiKeysFlag string) []string {
	if apiKeysFlag == "" {
		return []string{}
	}
	keys := strings.Split(apiKeysFlag, ",")
	for i, key := range keys {
		keys[i] = strings.TrimSpace(key)
	}
	return keys
}

// BuildApplication wires the feed client, one orchestrator and sink per
// configured line, and the runner. Frames of console sinks go to out.
func BuildApplication(cfg appconf.Config, out io.Writer) (*app.Application, error) {
	logger := logging.NewLogger(os.Stderr, cfg.Env == appconf.Production, cfg.Verbose)
	slog.SetDefault(logger)

	lines, err := appconf.LoadLines(cfg.LinesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load lines: %w", err)
	}

	client, err := feed.NewClient(cfg.BaseURL, cfg.OBAKey, feed.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create feed client: %w", err)
	}

	coreApp := &app.Application{
		Config:  cfg,
		Logger:  logger,
		Clock:   clock.RealClock{},
		Metrics: metrics.NewWithLogger(logger),
	}

	spotterLines := make([]*spotter.Line, 0, len(lines.Lines))
	for _, lc := range lines.Lines {
		line, err := buildLine(coreApp, lc, out)
		if err != nil {
			_ = coreApp.Close()
			return nil, fmt.Errorf("line %q: %w", lc.Name, err)
		}
		spotterLines = append(spotterLines, line)
	}

	if cfg.GTFSStatic != "" {
		verifyLines(logger, cfg.GTFSStatic, spotterLines)
	}

	coreApp.Runner, err = spotter.NewRunner(spotter.Config{
		Lines:   spotterLines,
		Fetcher: client,
		Metrics: coreApp.Metrics,
		Clock:   coreApp.Clock,
		Period:  cfg.Period,
		Logger:  logger,
	})
	if err != nil {
		_ = coreApp.Close()
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}
	return coreApp, nil
}

func buildLine(coreApp *app.Application, lc appconf.LineConfig, out io.Writer) (*spotter.Line, error) {
	layout, err := lc.Layout()
	if err != nil {
		return nil, err
	}
	palette, err := lc.BuildPalette()
	if err != nil {
		return nil, err
	}
	orch, err := positioning.NewOrchestrator(positioning.Config{
		Name:             lc.Name,
		Layout:           layout,
		Palette:          palette,
		DuplicateMarkers: lc.DuplicateMarkers,
		Logger:           coreApp.Logger,
	})
	if err != nil {
		return nil, err
	}

	var receiver strip.Receiver
	switch lc.Sink {
	case appconf.SinkDevice:
		dev, err := sink.OpenDevice(lc.DevicePath, lc.DeviceBrightness())
		if err != nil {
			return nil, err
		}
		coreApp.Closers = append(coreApp.Closers, dev)
		receiver = dev
	case appconf.SinkMemory:
		receiver = sink.NewMemory()
	default:
		receiver = sink.NewConsole(out, palette.Off)
	}

	return &spotter.Line{
		Name:         lc.Name,
		RouteID:      lc.RouteID,
		Orchestrator: orch,
		Sink:         receiver,
	}, nil
}

// verifyLines checks every layout against a static GTFS feed. Problems are
// logged and never stop startup.
func verifyLines(logger *slog.Logger, source string, lines []*spotter.Line) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	static, err := gtfs.LoadStatic(ctx, gtfs.Config{Source: source})
	if err != nil {
		logging.LogError(logger, "failed to load static GTFS, skipping layout verification", err,
			slog.String("source", source))
		return
	}
	for _, line := range lines {
		gtfs.LogReport(logger, gtfs.VerifyLayout(static, line.Name, line.RouteID, line.Orchestrator.Layout()))
	}
}

// CreateServer builds the HTTP server and its middleware chain.
func CreateServer(coreApp *app.Application, cfg appconf.Config) (*http.Server, *restapi.RestAPI) {
	api := restapi.NewRestAPI(coreApp)
	webUI := &webui.WebUI{Application: coreApp}

	mux := http.NewServeMux()
	api.SetRoutes(mux)
	webUI.SetWebUIRoutes(mux)

	var handler http.Handler = mux
	if coreApp.Metrics != nil {
		handler = restapi.MetricsHandler(coreApp.Metrics)(handler)
	}
	handler = restapi.NewRequestLoggingMiddleware(coreApp.Logger, coreApp.Clock)(handler)
	handler = restapi.RequestIDMiddleware(handler)
	handler = gzhttp.GzipHandler(handler)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		ErrorLog:     slog.NewLogLogger(coreApp.Logger.Handler(), slog.LevelError),
	}
	return srv, api
}

// Run starts the runner and the server and blocks until ctx is done or
// SIGINT/SIGTERM arrives, then shuts everything down.
func Run(ctx context.Context, srv *http.Server, coreApp *app.Application, api *restapi.RestAPI) error {
	logger := coreApp.Logger
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	coreApp.Runner.Start()

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", coreApp.Config.Env.String()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logging.LogOperation(logger, "shutting_down_server")
	case err, ok := <-serverErr:
		if ok {
			runErr = fmt.Errorf("server failed: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "server shutdown failed", err)
	}
	api.Shutdown()
	coreApp.Runner.Shutdown()
	if err := coreApp.Close(); err != nil {
		logging.LogError(logger, "failed to close sinks", err)
	}
	logging.LogOperation(logger, "server_stopped")
	return runErr
}
