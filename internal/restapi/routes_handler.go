package restapi

import (
	"errors"
	"net/http"

	"marguerite.stanford.edu/internal/gtfs"
	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/utils"
)

func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	references := models.NewEmptyReferences()
	references.Agencies = append(references.Agencies, api.GtfsManager.Agencies()...)

	api.sendResponse(w, r, models.NewListResponse(api.GtfsManager.Routes(), references))
}

func (api *RestAPI) routeHandler(w http.ResponseWriter, r *http.Request) {
	id := utils.ExtractIDFromParams(r, "id")
	if err := utils.ValidateID(id); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	entry, err := api.GtfsManager.RouteEntry(r.Context(), id)
	if errors.Is(err, gtfs.ErrRouteNotFound) {
		api.sendNotFound(w, r)
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	references.Agencies = append(references.Agencies, api.GtfsManager.Agencies()...)

	api.sendResponse(w, r, models.NewEntryResponse(entry, references))
}
