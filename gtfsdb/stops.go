package gtfsdb

import (
	"context"
	"database/sql"
)

type CreateStopParams struct {
	ID            string
	Code          sql.NullString
	Name          sql.NullString
	Description   sql.NullString
	Lat           float64
	Lon           float64
	LocationType  sql.NullInt64
	ParentStation sql.NullString
}

const createStop = `
INSERT OR REPLACE INTO stops (
    id, code, name, description, lat, lon, location_type, parent_station
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateStop(ctx context.Context, arg CreateStopParams) error {
	_, err := q.db.ExecContext(ctx, createStop,
		arg.ID, arg.Code, arg.Name, arg.Description, arg.Lat, arg.Lon,
		arg.LocationType, arg.ParentStation)
	return err
}

const stopColumns = `id, code, name, description, lat, lon, location_type, parent_station`

func scanStop(row interface{ Scan(...any) error }) (Stop, error) {
	var i Stop
	err := row.Scan(&i.ID, &i.Code, &i.Name, &i.Description, &i.Lat, &i.Lon,
		&i.LocationType, &i.ParentStation)
	return i, err
}

const listStops = `SELECT ` + stopColumns + ` FROM stops ORDER BY id`

func (q *Queries) ListStops(ctx context.Context) ([]Stop, error) {
	return q.queryStops(ctx, listStops)
}

func (q *Queries) queryStops(ctx context.Context, query string, args ...interface{}) ([]Stop, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []Stop
	for rows.Next() {
		i, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
