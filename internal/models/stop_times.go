package models

// Departure is one scheduled departure from a stop.
type Departure struct {
	RouteID        string `json:"routeId"`
	RouteShortName string `json:"routeShortName"`
	TripID         string `json:"tripId"`
	Headsign       string `json:"headsign,omitempty"`
	// DepartureTime is the display time HH:MM with GTFS hour 24 shown as 00.
	DepartureTime string `json:"departureTime"`
	// SecondsSinceMidnight is the raw schedule offset for the service day.
	SecondsSinceMidnight int64 `json:"secondsSinceMidnight"`
}

// StopEntry is a stop with its upcoming departures.
type StopEntry struct {
	Stop
	Departures []Departure `json:"departures"`
}
