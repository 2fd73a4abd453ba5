package restapi

import (
	"net/http"

	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/realtime"
	"marguerite.stanford.edu/internal/utils"
)

// ControllerStatus is the entry returned by the shuttle control endpoints.
type ControllerStatus struct {
	State    string `json:"state"`
	Viewing  bool   `json:"viewing"`
	Accepted *bool  `json:"accepted,omitempty"`
}

func controllerStatus(c *realtime.Controller) ControllerStatus {
	return ControllerStatus{State: c.State().String(), Viewing: c.Viewing()}
}

func (api *RestAPI) shuttlesHandler(w http.ResponseWriter, r *http.Request) {
	controller := api.GtfsManager.Shuttles()
	if controller == nil {
		api.realtimeUnavailableResponse(w, r)
		return
	}

	shuttles := controller.CurrentShuttles()
	references := models.NewEmptyReferences()
	data := models.ShuttleListData{
		List:    make([]models.ShuttleStatus, 0, len(shuttles)),
		State:   controller.State().String(),
		Viewing: controller.Viewing(),
	}
	for _, s := range shuttles {
		data.List = append(data.List, s.Status())
		references.AddRoute(s.Route)
	}
	data.References = references

	if err := controller.LastError(); err != nil {
		data.LastError = string(realtime.Classify(err))
	}
	if updated := controller.LastUpdated(); !updated.IsZero() {
		data.LastUpdated = updated.UnixMilli()
	}

	api.sendResponse(w, r, models.NewOKResponse(data))
}

// refreshShuttlesHandler starts a cycle immediately. It is a no-op while a
// cycle is in flight or nobody is viewing the map.
func (api *RestAPI) refreshShuttlesHandler(w http.ResponseWriter, r *http.Request) {
	controller := api.GtfsManager.Shuttles()
	if controller == nil {
		api.realtimeUnavailableResponse(w, r)
		return
	}

	accepted := controller.ForceRefresh()
	status := controllerStatus(controller)
	status.Accepted = &accepted
	api.sendResponse(w, r, models.NewEntryResponse(status, models.NewEmptyReferences()))
}

// liveMapHandler starts polling with ?viewing=true and stops it with false.
func (api *RestAPI) liveMapHandler(w http.ResponseWriter, r *http.Request) {
	controller := api.GtfsManager.Shuttles()
	if controller == nil {
		api.realtimeUnavailableResponse(w, r)
		return
	}

	viewing, fieldErrors := utils.ParseBoolParam(r.URL.Query(), "viewing", nil)
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	controller.SetViewingLiveMap(viewing)
	api.sendResponse(w, r, models.NewEntryResponse(controllerStatus(controller), models.NewEmptyReferences()))
}
