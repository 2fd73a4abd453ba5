package models

// ShapeEntry is a route shape encoded as a Google polyline.
type ShapeEntry struct {
	Points string `json:"points"`
	Length int    `json:"length"`
}

// RouteEntry is a route with its display name and encoded shape.
type RouteEntry struct {
	Route
	DisplayName string      `json:"displayName"`
	Shape       *ShapeEntry `json:"shape,omitempty"`
}
