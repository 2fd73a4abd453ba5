package models

import "sort"

// Stop is a Marguerite stop with the routes that serve it.
type Stop struct {
	ID       string   `json:"id"`
	Code     string   `json:"code,omitempty"`
	Name     string   `json:"name"`
	Lat      float64  `json:"lat"`
	Lon      float64  `json:"lon"`
	RouteIDs []string `json:"routeIds"`
	// Distance in meters from the query point; only set by proximity queries.
	Distance *float64 `json:"distance,omitempty"`

	Routes []Route `json:"-"`
}

// SortRoutes orders routes alphabetically by short name, then by short-name
// length, so single letter lines come before longer codes.
func SortRoutes(routes []Route) {
	sort.SliceStable(routes, func(i, j int) bool {
		return routes[i].ShortName < routes[j].ShortName
	})
	sort.SliceStable(routes, func(i, j int) bool {
		return len(routes[i].ShortName) < len(routes[j].ShortName)
	})
}

// NewStop builds a stop whose serving routes are sorted with SortRoutes.
func NewStop(id, code, name string, lat, lon float64, routes []Route) Stop {
	sorted := append([]Route(nil), routes...)
	SortRoutes(sorted)

	routeIDs := make([]string, len(sorted))
	for i, r := range sorted {
		routeIDs[i] = r.ID
	}

	return Stop{
		ID:       id,
		Code:     code,
		Name:     name,
		Lat:      lat,
		Lon:      lon,
		RouteIDs: routeIDs,
		Routes:   sorted,
	}
}

// WithDistance returns a copy of s annotated with a distance in meters.
func (s Stop) WithDistance(meters float64) Stop {
	s.Distance = &meters
	return s
}
