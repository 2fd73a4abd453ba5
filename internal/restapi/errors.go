package restapi

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/models"
)

type errorResponse struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *RestAPI) sendError(w http.ResponseWriter, status int, text string) {
	response := errorResponse{
		Code:        status,
		CurrentTime: models.ResponseCurrentTime(),
		Text:        text,
		Version:     2,
	}

	setJSONResponseType(w)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "error_response_encode_failed", err,
			slog.Int("status", status))
	}
}

// invalidAPIKeyResponse sends a 401 Unauthorized response
func (api *RestAPI) invalidAPIKeyResponse(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, http.StatusUnauthorized, "permission denied")
}

func (api *RestAPI) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(logging.FromContext(r.Context()), "request_failed", err,
		slog.String("path", r.URL.Path))
	api.sendError(w, http.StatusInternalServerError, "internal server error")
}

func (api *RestAPI) sendNotFound(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, http.StatusNotFound, "resource not found")
}

// realtimeUnavailableResponse is sent by shuttle endpoints when no vendor
// endpoints are configured.
func (api *RestAPI) realtimeUnavailableResponse(w http.ResponseWriter, r *http.Request) {
	api.sendError(w, http.StatusServiceUnavailable, "realtime shuttle data is not configured")
}

// validationErrorResponse sends a 400 Bad Request response with field-specific validation errors
func (api *RestAPI) validationErrorResponse(w http.ResponseWriter, r *http.Request, fieldErrors map[string][]string) {
	response := struct {
		FieldErrors map[string][]string `json:"fieldErrors"`
	}{
		FieldErrors: fieldErrors,
	}

	setJSONResponseType(w)
	w.WriteHeader(http.StatusBadRequest)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.Logger, "validation_response_encode_failed", err)
	}
}
