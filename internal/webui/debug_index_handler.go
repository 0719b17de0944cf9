package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"sort"

	"github.com/davecgh/go-spew/spew"

	"github.com/cbmason/trainspotting/internal/appconf"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dumper = spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}

type debugData struct {
	Title string
	Lines []string
	Line  string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, data debugData, value any) {
	data.Pre = dumper.Sdump(value)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := debugTemplate.Execute(w, data); err != nil {
		slog.Error("failed to execute debug template", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// debugIndexHandler dumps a line's internal state. It is not available in
// production.
func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	if webUI.Application == nil || webUI.Config.Env == appconf.Production || webUI.Runner == nil {
		http.NotFound(w, r)
		return
	}

	var names []string
	for _, line := range webUI.Runner.Lines() {
		names = append(names, line.Name)
	}
	sort.Strings(names)

	data := debugData{Lines: names, Line: r.URL.Query().Get("line")}
	line, ok := webUI.Runner.Line(data.Line)
	if !ok {
		data.Title = "Choose a line"
		writeDebugData(w, data, map[string]any{"lines": names})
		return
	}

	orch := line.Orchestrator
	var value any
	switch r.URL.Query().Get("dataType") {
	case "frame":
		data.Title = line.Name + " - Frame"
		value = orch.Frame()
	case "furthest":
		data.Title = line.Name + " - Furthest pixel per trip"
		value = orch.Furthest()
	case "layout":
		data.Title = line.Name + " - Layout"
		value = orch.Layout()
	case "palette":
		data.Title = line.Name + " - Palette"
		value = orch.Palette()
	default:
		data.Title = line.Name + " - Choose a data type"
		value = map[string]string{
			"error": "Please use one of the following: frame, furthest, layout, palette.",
		}
	}
	writeDebugData(w, data, value)
}
