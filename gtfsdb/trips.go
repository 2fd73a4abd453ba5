package gtfsdb

import (
	"context"
	"database/sql"
)

type CreateTripParams struct {
	ID          string
	RouteID     string
	ServiceID   string
	Headsign    sql.NullString
	ShortName   sql.NullString
	DirectionID sql.NullInt64
	BlockID     sql.NullString
	ShapeID     sql.NullString
}

const createTrip = `
INSERT OR REPLACE INTO trips (
    id, route_id, service_id, headsign, short_name, direction_id, block_id, shape_id
) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateTrip(ctx context.Context, arg CreateTripParams) error {
	_, err := q.db.ExecContext(ctx, createTrip,
		arg.ID, arg.RouteID, arg.ServiceID, arg.Headsign, arg.ShortName,
		arg.DirectionID, arg.BlockID, arg.ShapeID)
	return err
}
