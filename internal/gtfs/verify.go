package gtfs

import (
	"log/slog"
	"strings"

	"github.com/OneBusAway/go-gtfs"

	"github.com/cbmason/trainspotting/internal/strip"
)

// Report lists the differences between a layout and a static feed.
type Report struct {
	Line         string
	RouteID      string
	RouteFound   bool
	MissingStops []string
}

// OK reports whether the layout matches the feed.
func (r Report) OK() bool {
	return r.RouteFound && len(r.MissingStops) == 0
}

// VerifyLayout checks that every stop name on the layout exists in the
// feed's stops.txt and that the route is present. routeID may carry the
// OneBusAway agency prefix ("40_100479").
func VerifyLayout(static *gtfs.Static, line, routeID string, layout *strip.Layout) Report {
	report := Report{Line: line, RouteID: routeID}

	names := make(map[string]bool, len(static.Stops))
	for _, stop := range static.Stops {
		names[stop.Name] = true
	}
	for _, name := range layout.StopNames() {
		if !names[name] {
			report.MissingStops = append(report.MissingStops, name)
		}
	}

	bare := routeID
	if _, after, found := strings.Cut(routeID, "_"); found {
		bare = after
	}
	for _, route := range static.Routes {
		if route.Id == routeID || route.Id == bare {
			report.RouteFound = true
			break
		}
	}
	return report
}

// LogReport writes a warning for every mismatch. Mismatches never stop the
// process; the layout stays in use.
func LogReport(logger *slog.Logger, r Report) {
	if r.OK() {
		logger.Info("layout matches static GTFS", slog.String("line", r.Line))
		return
	}
	if !r.RouteFound {
		logger.Warn("route not found in static GTFS",
			slog.String("line", r.Line), slog.String("route_id", r.RouteID))
	}
	for _, name := range r.MissingStops {
		logger.Warn("layout stop not found in static GTFS",
			slog.String("line", r.Line), slog.String("stop", name))
	}
}
