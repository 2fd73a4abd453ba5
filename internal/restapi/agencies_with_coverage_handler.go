package restapi

import (
	"net/http"

	"marguerite.stanford.edu/internal/models"
)

func (api *RestAPI) agenciesWithCoverageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.Context().Err(); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	references := models.NewEmptyReferences()
	references.Agencies = append(references.Agencies, api.GtfsManager.Agencies()...)

	api.sendResponse(w, r, models.NewListResponse(api.GtfsManager.Coverage(), references))
}
