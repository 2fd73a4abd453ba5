package restapi

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

type handlerFunc func(w http.ResponseWriter, r *http.Request)

// withAPIKey rate limits per key, then rejects requests without a valid key.
func withAPIKey(api *RestAPI, finalHandler handlerFunc) http.Handler {
	return api.rateLimiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if api.RequestHasInvalidAPIKey(r) {
			api.invalidAPIKeyResponse(w, r)
			return
		}
		finalHandler(w, r)
	}))
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	router.Handler(http.MethodGet, "/api/where/current-time.json", withAPIKey(api, api.currentTimeHandler))
	router.Handler(http.MethodGet, "/api/where/agencies-with-coverage.json", withAPIKey(api, api.agenciesWithCoverageHandler))

	router.Handler(http.MethodGet, "/api/where/routes.json", withAPIKey(api, api.routesHandler))
	router.Handler(http.MethodGet, "/api/where/route/:id", withAPIKey(api, api.routeHandler))

	router.Handler(http.MethodGet, "/api/where/stops.json", withAPIKey(api, api.stopsHandler))
	router.Handler(http.MethodGet, "/api/where/stop/:id", withAPIKey(api, api.stopHandler))
	router.Handler(http.MethodGet, "/api/where/stops-for-location.json", withAPIKey(api, api.stopsForLocationHandler))

	router.Handler(http.MethodGet, "/api/where/shuttles.json", withAPIKey(api, api.shuttlesHandler))
	router.Handler(http.MethodPost, "/api/where/shuttles/refresh", withAPIKey(api, api.refreshShuttlesHandler))
	router.Handler(http.MethodPost, "/api/where/live-map.json", withAPIKey(api, api.liveMapHandler))
	router.Handler(http.MethodGet, "/api/where/shuttle-events", withAPIKey(api, api.shuttleEventsHandler))

	router.HandlerFunc(http.MethodGet, "/gtfs-rt/vehicle-positions.pb", api.vehiclePositionsHandler)

	if api.Metrics != nil {
		router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())
	}
}
