package gtfsdb

import "database/sql"

type Agency struct {
	ID       string
	Name     string
	Url      string
	Timezone string
	Lang     sql.NullString
	Phone    sql.NullString
}

type Route struct {
	ID          string
	AgencyID    string
	ShortName   sql.NullString
	LongName    sql.NullString
	Description sql.NullString
	Type        int64
	Url         sql.NullString
	Color       sql.NullString
	TextColor   sql.NullString
}

type Stop struct {
	ID            string
	Code          sql.NullString
	Name          sql.NullString
	Description   sql.NullString
	Lat           float64
	Lon           float64
	LocationType  sql.NullInt64
	ParentStation sql.NullString
}

type ImportMetadatum struct {
	FileHash   string
	ImportTime int64
	FileSource string
}

// StopRoute pairs a stop with a route that serves it.
type StopRoute struct {
	StopID  string
	RouteID string
}

// Departure is one scheduled departure from a stop on a service day.
type Departure struct {
	DepartureTime  int64
	TripID         string
	RouteID        string
	RouteShortName sql.NullString
	RouteLongName  sql.NullString
	RouteColor     sql.NullString
	RouteTextColor sql.NullString
	TripHeadsign   sql.NullString
}

type ShapePoint struct {
	Lat float64
	Lon float64
}
