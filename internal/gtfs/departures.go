package gtfs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marguerite.stanford.edu/gtfsdb"
	"marguerite.stanford.edu/internal/models"
)

var (
	ErrStopNotFound  = errors.New("stop not found")
	ErrRouteNotFound = errors.New("route not found")
)

// DeparturesForStop lists the departures after now on today's service day in
// the agency timezone. Trips that belong to yesterday's service day are not
// included even when they run after midnight.
func (manager *Manager) DeparturesForStop(ctx context.Context, stopID string, now time.Time) ([]models.Departure, error) {
	c := manager.currentCatalog()
	if _, ok := c.stopsByID[stopID]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStopNotFound, stopID)
	}

	local := now.In(c.location)
	key := stopID + "@" + local.Format("200601021504")
	if cached, err := manager.departureCache.Get(key); err == nil {
		if departures, ok := cached.([]models.Departure); ok {
			return append([]models.Departure(nil), departures...), nil
		}
	}

	rows, err := manager.GtfsDB.Queries.GetDeparturesForStop(ctx, gtfsdb.GetDeparturesForStopParams{
		StopID:       stopID,
		ServiceDate:  local.Format("20060102"),
		Weekday:      local.Weekday(),
		AfterSeconds: int64(local.Hour()*3600 + local.Minute()*60 + local.Second()),
		Limit:        int64(manager.config.MaxDepartures),
	})
	if err != nil {
		return nil, fmt.Errorf("querying departures for stop %s: %w", stopID, err)
	}

	departures := make([]models.Departure, 0, len(rows))
	for _, row := range rows {
		shortName := row.RouteShortName.String
		if route, ok := c.routesByID[row.RouteID]; ok {
			shortName = route.ShortName
		}
		departures = append(departures, models.Departure{
			RouteID:              row.RouteID,
			RouteShortName:       shortName,
			TripID:               row.TripID,
			Headsign:             row.TripHeadsign.String,
			DepartureTime:        formatDepartureTime(row.DepartureTime),
			SecondsSinceMidnight: row.DepartureTime,
		})
	}

	_ = manager.departureCache.Set(key, departures)
	return append([]models.Departure(nil), departures...), nil
}

// formatDepartureTime renders a schedule offset as HH:MM. GTFS hours past 23
// wrap, so 24:05 is shown as 00:05.
func formatDepartureTime(seconds int64) string {
	hours := (seconds / 3600) % 24
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%02d:%02d", hours, minutes)
}
