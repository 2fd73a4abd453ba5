package restapi

import (
	"errors"
	"net/http"
	"time"

	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/utils"
)

// stopsHandler lists every stop, or the stops whose name or code matches ?query.
func (api *RestAPI) stopsHandler(w http.ResponseWriter, r *http.Request) {
	query, err := utils.ValidateAndSanitizeQuery(r.URL.Query().Get("query"))
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"query": {err.Error()}})
		return
	}

	stops := api.GtfsManager.SearchStops(query)
	api.sendResponse(w, r, models.NewListResponse(stops, api.routeReferences(stops)))
}

// stopHandler returns one stop with its upcoming departures. The optional
// ?time parameter (epoch milliseconds) replaces the current time.
func (api *RestAPI) stopHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	millis, fieldErrors := utils.ParseIntParam(r.URL.Query(), "time", 0, nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}
	now := time.Now()
	if millis > 0 {
		now = time.UnixMilli(int64(millis))
	}

	stop, ok := api.GtfsManager.StopByID(id)
	if !ok {
		api.sendNotFound(w, r)
		return
	}

	departures, err := api.GtfsManager.DeparturesForStop(r.Context(), id, now)
	if errors.Is(err, gtfs.ErrStopNotFound) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	entry := models.StopEntry{Stop: stop, Departures: departures}
	api.sendResponse(w, r, models.NewEntryResponse(entry, api.routeReferences([]models.Stop{stop})))
}

// routeReferences collects the agencies and the routes serving stops.
func (api *RestAPI) routeReferences(stops []models.Stop) models.ReferencesModel {
	references := models.NewEmptyReferences()
	references.Agencies = append(references.Agencies, api.GtfsManager.Agencies()...)
	for _, s := range stops {
		for _, route := range s.Routes {
			references.AddRoute(route)
		}
	}
	return references
}
