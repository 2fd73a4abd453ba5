package restapi

import (
	"encoding/json"
	"net/http"

	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/models"
)

func (api *RestAPI) sendResponse(w http.ResponseWriter, r *http.Request, response models.ResponseModel) {
	b, err := json.Marshal(response)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	setJSONResponseType(w)
	if _, err := w.Write(append(b, '\n')); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "response_write_failed", err)
	}
}

func setJSONResponseType(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
}
