package webui

import (
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/davecgh/go-spew/spew"
	"marguerite.stanford.edu/internal/logging"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

var dataTypes = []string{"agencies", "routes", "stops", "shuttles", "state", "tables"}

type debugData struct {
	Title     string
	Pre       string
	DataTypes []string
}

type controllerState struct {
	State       string
	Viewing     bool
	LastError   error
	LastUpdated string
}

func (webUI *WebUI) writeDebugData(w http.ResponseWriter, r *http.Request, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title:     title,
		Pre:       spew.Sdump(data),
		DataTypes: dataTypes,
	})
	if err != nil {
		logging.LogError(webUI.Logger, "debug_page_render_failed", err,
			slog.String("path", r.URL.Path))
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	dataType := r.URL.Query().Get("dataType")
	manager := webUI.GtfsManager

	var data interface{}
	var title string

	switch dataType {
	case "agencies":
		data = manager.Agencies()
		title = "GTFS Static - Agencies"
	case "routes":
		data = manager.Routes()
		title = "GTFS Static - Routes"
	case "stops":
		data = manager.Stops()
		title = "GTFS Static - Stops"
	case "tables":
		counts, err := manager.GtfsDB.TableCounts(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		data = counts
		title = "GTFS Static - Table Counts"
	case "shuttles", "state":
		controller := manager.Shuttles()
		if controller == nil {
			data = map[string]string{"error": "Realtime shuttle data is not configured."}
			title = "Live Shuttles"
			break
		}
		if dataType == "shuttles" {
			data = controller.CurrentShuttles()
			title = "Live Shuttles"
			break
		}
		state := controllerState{
			State:     controller.State().String(),
			Viewing:   controller.Viewing(),
			LastError: controller.LastError(),
		}
		if updated := controller.LastUpdated(); !updated.IsZero() {
			state.LastUpdated = updated.In(manager.Location()).Format("2006-01-02 15:04:05 MST")
		}
		data = state
		title = "Live Shuttles - Controller State"
	default:
		data = map[string]string{
			"error": "Please use one of the following: agencies, routes, stops, shuttles, state, tables.",
		}
		title = "Choose a data type"
	}

	webUI.writeDebugData(w, r, title, data)
}
