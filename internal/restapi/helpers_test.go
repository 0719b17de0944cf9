package restapi

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cbmason/trainspotting/internal/app"
	"github.com/cbmason/trainspotting/internal/appconf"
	"github.com/cbmason/trainspotting/internal/clock"
	"github.com/cbmason/trainspotting/internal/metrics"
	"github.com/cbmason/trainspotting/internal/models"
	"github.com/cbmason/trainspotting/internal/positioning"
	"github.com/cbmason/trainspotting/internal/sink"
	"github.com/cbmason/trainspotting/internal/spotter"
	"github.com/cbmason/trainspotting/internal/strip"
)

type staticFetcher struct {
	resp *models.TripsForRouteResponse
}

func (f staticFetcher) FetchTripsForRoute(context.Context, string) (*models.TripsForRouteResponse, error) {
	return f.resp, nil
}

// testTrips has one northbound train 40 seconds short of B.
func testTrips() *models.TripsForRouteResponse {
	return &models.TripsForRouteResponse{
		Code:        200,
		CurrentTime: 5000,
		Data: &models.TripsForRouteData{
			List: []models.TripDetails{{
				TripID: "T1",
				Status: &models.TripStatusForTripDetails{NextStop: "stop-b", NextStopTimeOffset: 40, LastUpdateTime: 4000},
				Schedule: &models.Schedule{StopTimes: []models.StopTime{
					{StopID: "stop-a", ArrivalTime: 0, DepartureTime: 20},
					{StopID: "stop-b", ArrivalTime: 100, DepartureTime: 120},
				}},
			}},
			References: &models.ReferencesModel{
				Stops: []models.Stop{{ID: "stop-a", Name: "A"}, {ID: "stop-b", Name: "B"}},
				Trips: []models.Trip{{ID: "T1", DirectionID: "1"}},
			},
		},
	}
}

// createTestApi builds an API over one six pixel line named "test line".
// The line has not polled yet.
func createTestApi(t *testing.T, apiKeys ...string) *RestAPI {
	t.Helper()
	layout, err := strip.NewLayout(6,
		strip.DirectionIndexTable{"A": 0, "B": 3},
		strip.DirectionIndexTable{"A": 5, "B": 2})
	require.NoError(t, err)

	orch, err := positioning.NewOrchestrator(positioning.Config{
		Name:    "test line",
		Layout:  layout,
		Palette: strip.DefaultPalette(),
	})
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mockClock := clock.NewMockClock(time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC))
	m := metrics.New()

	runner, err := spotter.NewRunner(spotter.Config{
		Lines:   []*spotter.Line{{Name: "test line", RouteID: "40_100479", Orchestrator: orch, Sink: sink.NewMemory()}},
		Fetcher: staticFetcher{resp: testTrips()},
		Metrics: m,
		Clock:   mockClock,
		Period:  time.Minute,
		Logger:  logger,
	})
	require.NoError(t, err)

	api := NewRestAPI(&app.Application{
		Config:  appconf.Config{Env: appconf.Test, ApiKeys: apiKeys, RateLimit: 100},
		Logger:  logger,
		Clock:   mockClock,
		Metrics: m,
		Runner:  runner,
	})
	t.Cleanup(api.Shutdown)
	return api
}

func newTestServer(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	api.SetRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}
