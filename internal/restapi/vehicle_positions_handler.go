package restapi

import (
	"net/http"

	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/realtime"
)

// vehiclePositionsHandler exports the active shuttles as GTFS-realtime.
// ?format=text returns the protobuf text format for debugging.
func (api *RestAPI) vehiclePositionsHandler(w http.ResponseWriter, r *http.Request) {
	controller := api.GtfsManager.Shuttles()
	if controller == nil {
		api.realtimeUnavailableResponse(w, r)
		return
	}

	feed := realtime.VehiclePositionsFeed(controller.CurrentShuttles(), controller.LastUpdated())

	var (
		data        []byte
		err         error
		contentType string
	)
	if r.URL.Query().Get("format") == "text" {
		data, err = prototext.MarshalOptions{Multiline: true}.Marshal(feed)
		contentType = "text/plain; charset=utf-8"
	} else {
		data, err = proto.Marshal(feed)
		contentType = "application/x-protobuf"
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(data); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "response_write_failed", err)
	}
}
