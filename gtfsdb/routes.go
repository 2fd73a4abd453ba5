package gtfsdb

import (
	"context"
	"database/sql"
)

type CreateRouteParams struct {
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

const createRoute = `
INSERT OR REPLACE INTO routes (
    id, agency_id, short_name, long_name, description, type, url, color, text_color
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateRoute(ctx context.Context, arg CreateRouteParams) error {
	_, err := q.db.ExecContext(ctx, createRoute,
		arg.ID, arg.AgencyID, arg.ShortName, arg.LongName, arg.Description,
		arg.Type, arg.Url, arg.Color, arg.TextColor)
	return err
}

const routeColumns = `r.id, r.agency_id, r.short_name, r.long_name, r.description, r.type, r.url, r.color, r.text_color`

func scanRoute(row interface{ Scan(...any) error }) (Route, error) {
	var i Route
	err := row.Scan(&i.ID, &i.AgencyID, &i.ShortName, &i.LongName, &i.Description,
		&i.Type, &i.Url, &i.Color, &i.TextColor)
	return i, err
}

const listRoutes = `SELECT ` + routeColumns + ` FROM routes r ORDER BY r.id`

func (q *Queries) ListRoutes(ctx context.Context) ([]Route, error) {
	return q.queryRoutes(ctx, listRoutes)
}

const listStopRoutes = `
SELECT DISTINCT st.stop_id, t.route_id
FROM stop_times st
JOIN trips t ON t.id = st.trip_id
ORDER BY st.stop_id, t.route_id`

// ListStopRoutes returns every (stop, route) pair linked by a scheduled trip.
func (q *Queries) ListStopRoutes(ctx context.Context) ([]StopRoute, error) {
	rows, err := q.db.QueryContext(ctx, listStopRoutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []StopRoute
	for rows.Next() {
		var i StopRoute
		if err := rows.Scan(&i.StopID, &i.RouteID); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}

func (q *Queries) queryRoutes(ctx context.Context, query string, args ...interface{}) ([]Route, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []Route
	for rows.Next() {
		i, err := scanRoute(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
