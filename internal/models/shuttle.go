package models

// ShuttleStatus is the API view of one live shuttle.
type ShuttleStatus struct {
	Title          string   `json:"title"`
	VehicleID      string   `json:"vehicleId"`
	RouteID        string   `json:"routeId"`
	RouteShortName string   `json:"routeShortName"`
	RouteColor     string   `json:"routeColor,omitempty"`
	TripID         string   `json:"tripId,omitempty"`
	Location       Location `json:"location"`
	Heading        *float64 `json:"heading,omitempty"`
	Direction      string   `json:"direction,omitempty"`
	Speed          *float64 `json:"speed,omitempty"`
	LastUpdateTime int64    `json:"lastUpdateTime,omitempty"`
}

// ShuttleListData is the payload of the shuttles endpoint.
type ShuttleListData struct {
	List        []ShuttleStatus `json:"list"`
	State       string          `json:"state"`
	Viewing     bool            `json:"viewing"`
	LastError   string          `json:"lastError,omitempty"`
	LastUpdated int64           `json:"lastUpdated,omitempty"`
	References  ReferencesModel `json:"references"`
}
