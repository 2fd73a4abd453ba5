package realtime

import (
	"encoding/json"
	"sort"
	"time"

	"marguerite.stanford.edu/internal/models"
	"marguerite.stanford.edu/internal/utils"
)

// DefaultMoveDuration is the animation hint attached to position updates.
const DefaultMoveDuration = 800 * time.Millisecond

// RouteLookup resolves published route ids against the loaded catalog.
type RouteLookup interface {
	RouteByID(id string) (models.Route, bool)
}

// Shuttle is a live vehicle on a known route.
type Shuttle struct {
	VehicleID  string
	Route      models.Route
	Location   models.Location
	TripID     string
	Heading    *float64
	Speed      *float64
	ReportedAt time.Time
}

// Title identifies a shuttle across poll cycles.
func (s Shuttle) Title() string {
	return s.Route.ShortName + ": " + s.VehicleID
}

func (s Shuttle) Status() models.ShuttleStatus {
	status := models.ShuttleStatus{
		Title:          s.Title(),
		VehicleID:      s.VehicleID,
		RouteID:        s.Route.ID,
		RouteShortName: s.Route.ShortName,
		RouteColor:     s.Route.Color,
		TripID:         s.TripID,
		Location:       s.Location,
		Heading:        compassHeading(s.Heading),
		Speed:          finite(s.Speed),
	}
	if status.Heading != nil {
		status.Direction = utils.CompassPoint(*status.Heading)
	}
	if !s.ReportedAt.IsZero() {
		status.LastUpdateTime = s.ReportedAt.UnixMilli()
	}
	return status
}

func (s Shuttle) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Status())
}

// finite drops NaN and infinite values, which JSON cannot carry.
func finite(f *float64) *float64 {
	if f == nil || !utils.IsFinite(*f) {
		return nil
	}
	return f
}

func compassHeading(f *float64) *float64 {
	if f = finite(f); f == nil {
		return nil
	}
	h := utils.NormalizeHeading(*f)
	return &h
}

// ShuttleMove is a position change of a continuing shuttle.
type ShuttleMove struct {
	Title    string          `json:"title"`
	From     models.Location `json:"from"`
	To       models.Location `json:"to"`
	Duration time.Duration   `json:"durationNanos"`
}

// Changes describes how the active set changed in one cycle.
type Changes struct {
	Added   []Shuttle     `json:"added"`
	Updated []ShuttleMove `json:"updated"`
	Removed []string      `json:"removed"`
	// Unresolved counts records dropped for lack of a published route.
	Unresolved int `json:"unresolved"`
}

func (c Changes) Empty() bool {
	return len(c.Added) == 0 && len(c.Updated) == 0 && len(c.Removed) == 0
}

// Reconcile builds the next active set from a fetched and resolved cycle.
// Records without a mapping or whose route is not in the catalog are
// dropped. When two records share a title the later one wins. The result
// is sorted by title. Reconcile does not modify previous.
func Reconcile(previous []Shuttle, records []VehicleRecord, mapping Mapping, routes RouteLookup) ([]Shuttle, Changes) {
	var changes Changes

	prevByTitle := make(map[string]Shuttle, len(previous))
	for _, s := range previous {
		prevByTitle[s.Title()] = s
	}

	byTitle := make(map[string]Shuttle, len(records))
	for _, record := range records {
		routeID, ok := mapping.RouteFor(record)
		if !ok {
			changes.Unresolved++
			continue
		}
		route, ok := routes.RouteByID(routeID)
		if !ok {
			changes.Unresolved++
			continue
		}

		shuttle := Shuttle{
			VehicleID:  record.VehicleID,
			Route:      route,
			Location:   record.Location,
			TripID:     record.TripID,
			Heading:    record.Heading,
			Speed:      record.Speed,
			ReportedAt: record.ReportedAt,
		}
		if shuttle.Heading == nil {
			shuttle.Heading = derivedHeading(prevByTitle[shuttle.Title()], shuttle)
		}
		byTitle[shuttle.Title()] = shuttle
	}

	next := make([]Shuttle, 0, len(byTitle))
	for _, s := range byTitle {
		next = append(next, s)
	}
	sortShuttles(next)

	for _, s := range next {
		old, existed := prevByTitle[s.Title()]
		switch {
		case !existed:
			changes.Added = append(changes.Added, s)
		case old.Location != s.Location:
			changes.Updated = append(changes.Updated, ShuttleMove{
				Title:    s.Title(),
				From:     old.Location,
				To:       s.Location,
				Duration: DefaultMoveDuration,
			})
		}
	}

	for _, s := range previous {
		if _, ok := byTitle[s.Title()]; !ok {
			changes.Removed = append(changes.Removed, s.Title())
		}
	}
	sort.Strings(changes.Removed)

	return next, changes
}

// derivedHeading is the bearing travelled since the previous cycle, or the
// previous heading when the shuttle has not moved.
func derivedHeading(previous, current Shuttle) *float64 {
	if previous.VehicleID == "" {
		return nil
	}
	if previous.Location == current.Location {
		return previous.Heading
	}
	bearing := utils.InitialBearing(previous.Location.Lat, previous.Location.Lon, current.Location.Lat, current.Location.Lon)
	return &bearing
}

func sortShuttles(shuttles []Shuttle) {
	sort.Slice(shuttles, func(i, j int) bool {
		return shuttles[i].Title() < shuttles[j].Title()
	})
}
