package gtfs

import (
	"context"
	"fmt"
	"time"
	_ "time/tzdata" // agency timezones on hosts without zoneinfo

	"marguerite.stanford.edu/gtfsdb"
	"marguerite.stanford.edu/internal/models"
)

// catalog is the in-memory route and stop snapshot built from the database.
// It is replaced wholesale on refresh and never mutated afterwards.
type catalog struct {
	routes     []models.Route
	routesByID map[string]models.Route
	stops      []models.Stop
	stopsByID  map[string]models.Stop
	agencies   []models.AgencyReference
	location   *time.Location
	loadedAt   time.Time
}

func loadCatalog(ctx context.Context, queries *gtfsdb.Queries) (*catalog, error) {
	dbRoutes, err := queries.ListRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing routes: %w", err)
	}

	c := &catalog{
		routesByID: make(map[string]models.Route, len(dbRoutes)),
		location:   time.UTC,
		loadedAt:   time.Now(),
	}

	for _, r := range dbRoutes {
		route := models.NewRoute(r.ID, r.ShortName.String, r.LongName.String,
			r.Color.String, r.TextColor.String, r.Url.String)
		c.routes = append(c.routes, route)
		c.routesByID[route.ID] = route
	}
	models.SortRoutes(c.routes)

	pairs, err := queries.ListStopRoutes(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stop routes: %w", err)
	}
	servedBy := make(map[string][]models.Route)
	for _, p := range pairs {
		if route, ok := c.routesByID[p.RouteID]; ok {
			servedBy[p.StopID] = append(servedBy[p.StopID], route)
		}
	}

	dbStops, err := queries.ListStops(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing stops: %w", err)
	}
	c.stopsByID = make(map[string]models.Stop, len(dbStops))
	for _, s := range dbStops {
		stop := models.NewStop(s.ID, s.Code.String, s.Name.String, s.Lat, s.Lon, servedBy[s.ID])
		c.stops = append(c.stops, stop)
		c.stopsByID[stop.ID] = stop
	}

	agencies, err := queries.ListAgencies(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing agencies: %w", err)
	}
	for _, a := range agencies {
		c.agencies = append(c.agencies, models.AgencyReference{
			ID:       a.ID,
			Name:     a.Name,
			URL:      a.Url,
			Timezone: a.Timezone,
			Lang:     a.Lang.String,
			Phone:    a.Phone.String,
		})
	}
	if len(c.agencies) > 0 && c.agencies[0].Timezone != "" {
		loc, err := time.LoadLocation(c.agencies[0].Timezone)
		if err != nil {
			return nil, fmt.Errorf("loading agency timezone %q: %w", c.agencies[0].Timezone, err)
		}
		c.location = loc
	}

	return c, nil
}
