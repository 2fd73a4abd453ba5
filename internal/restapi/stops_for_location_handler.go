package restapi

import (
	"net/http"

	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/utils"
)

const defaultMaxCount = 10

// stopsForLocationHandler returns the closest stops to lat/lon, nearest first.
// A radius in meters, when given, drops stops farther away.
func (api *RestAPI) stopsForLocationHandler(w http.ResponseWriter, r *http.Request) {
	queryParams := r.URL.Query()

	lat, fieldErrors := utils.ParseFloatParam(queryParams, "lat", nil)
	lon, _ := utils.ParseFloatParam(queryParams, "lon", fieldErrors)
	radius, _ := utils.ParseFloatParam(queryParams, "radius", fieldErrors)
	maxCount, _ := utils.ParseIntParam(queryParams, "maxCount", defaultMaxCount, fieldErrors)

	for _, key := range []string{"lat", "lon"} {
		if queryParams.Get(key) == "" {
			fieldErrors[key] = append(fieldErrors[key], "Missing required field "+key+".")
		}
	}
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	if locationErrors := utils.ValidateLocationParams(lat, lon, radius, maxCount); len(locationErrors) > 0 {
		api.validationErrorResponse(w, r, locationErrors)
		return
	}

	if err := r.Context().Err(); err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	stops := api.GtfsManager.ClosestStops(lat, lon, maxCount)
	if radius > 0 {
		within := make([]models.Stop, 0, len(stops))
		for _, s := range stops {
			if *s.Distance <= radius {
				within = append(within, s)
			}
		}
		stops = within
	}

	limitExceeded := len(stops) == maxCount && maxCount < len(api.GtfsManager.Stops())
	api.sendResponse(w, r, models.NewListResponseWithRange(stops, api.routeReferences(stops), limitExceeded))
}
