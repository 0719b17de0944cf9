package restapi

import (
	"net/http"

	"github.com/cbmason/trainspotting/internal/models"
	"github.com/cbmason/trainspotting/internal/spotter"
)

func (api *RestAPI) linesHandler(w http.ResponseWriter, r *http.Request) {
	lines := api.Runner.Lines()
	list := make([]models.LineSummary, 0, len(lines))
	for _, line := range lines {
		ts, committed := line.Orchestrator.LastCommitted()
		list = append(list, models.LineSummary{
			Name:          line.Name,
			RouteID:       line.RouteID,
			Length:        line.Orchestrator.Layout().Length,
			State:         line.Orchestrator.State().String(),
			Committed:     committed,
			LastTimestamp: ts,
		})
	}

	api.sendResponse(w, r, models.NewOKResponse(models.ListData[models.LineSummary]{List: list}, api.Clock))
}

func (api *RestAPI) frameHandler(w http.ResponseWriter, r *http.Request) {
	line, ok := api.lookupLine(w, r)
	if !ok {
		return
	}

	orch := line.Orchestrator
	published := orch.Published()
	frame := published.Frame
	off := orch.Palette().Off

	entry := models.FrameEntry{
		Line:      line.Name,
		Length:    frame.Len(),
		Timestamp: published.Timestamp,
		Committed: published.Committed,
		OffColor:  off.Hex(),
		Pixels:    []models.PixelModel{},
		Furthest:  published.Furthest,
	}
	for i, c := range frame.Pixels {
		if c == off {
			continue
		}
		trips := frame.Trips[i]
		if trips == nil {
			trips = []string{}
		}
		entry.Pixels = append(entry.Pixels, models.PixelModel{Index: i, Color: c.Hex(), Trips: trips})
	}

	api.sendResponse(w, r, models.NewOKResponse(entry, api.Clock))
}

func (api *RestAPI) layoutHandler(w http.ResponseWriter, r *http.Request) {
	line, ok := api.lookupLine(w, r)
	if !ok {
		return
	}

	layout := line.Orchestrator.Layout()
	api.sendResponse(w, r, models.NewOKResponse(models.LayoutEntry{
		Line:   line.Name,
		Length: layout.Length,
		North:  layout.North,
		South:  layout.South,
	}, api.Clock))
}

func (api *RestAPI) lookupLine(w http.ResponseWriter, r *http.Request) (*spotter.Line, bool) {
	line, ok := api.Runner.Line(r.PathValue("name"))
	if !ok {
		api.sendNotFound(w, r)
		return nil, false
	}
	return line, true
}
