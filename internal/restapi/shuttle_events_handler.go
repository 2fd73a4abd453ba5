package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/realtime"
)

const eventStreamKeepAlive = 30 * time.Second

// shuttleEventsHandler streams controller events as server-sent events until
// the client goes away or the controller shuts down.
func (api *RestAPI) shuttleEventsHandler(w http.ResponseWriter, r *http.Request) {
	controller := api.GtfsManager.Shuttles()
	if controller == nil {
		api.realtimeUnavailableResponse(w, r)
		return
	}

	rc := http.NewResponseController(w)
	events, unsubscribe := controller.Subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Clients learn the current state before the first event arrives.
	if _, err := fmt.Fprintf(w, "event: state\ndata: {\"state\":%q,\"viewing\":%t}\n\n",
		controller.State().String(), controller.Viewing()); err != nil {
		return
	}
	if err := rc.Flush(); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "event_stream_flush_failed", err)
		return
	}

	keepAlive := time.NewTicker(eventStreamKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return
			}
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, ev); err != nil {
				logging.LogError(logging.FromContext(r.Context()), "event_stream_write_failed", err)
				return
			}
		}
		if err := rc.Flush(); err != nil {
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, ev realtime.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", ev.CycleID, ev.Type, data)
	return err
}
