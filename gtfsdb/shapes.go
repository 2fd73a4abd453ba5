package gtfsdb

import "context"

type CreateShapeParams struct {
	ShapeID         string
	Lat             float64
	Lon             float64
	ShapePtSequence int64
}

const createShape = `
INSERT OR REPLACE INTO shapes (shape_id, lat, lon, shape_pt_sequence) VALUES (?, ?, ?, ?)`

func (q *Queries) CreateShape(ctx context.Context, arg CreateShapeParams) error {
	_, err := q.db.ExecContext(ctx, createShape, arg.ShapeID, arg.Lat, arg.Lon, arg.ShapePtSequence)
	return err
}

// The representative shape of a route is the one used by most of its trips.
const getShapePointsForRoute = `
SELECT s.lat, s.lon
FROM shapes s
WHERE s.shape_id = (
    SELECT t.shape_id FROM trips t
    WHERE t.route_id = ? AND t.shape_id IS NOT NULL
    GROUP BY t.shape_id
    ORDER BY COUNT(*) DESC, t.shape_id
    LIMIT 1
)
ORDER BY s.shape_pt_sequence`

func (q *Queries) GetShapePointsForRoute(ctx context.Context, routeID string) ([]ShapePoint, error) {
	rows, err := q.db.QueryContext(ctx, getShapePointsForRoute, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []ShapePoint
	for rows.Next() {
		var i ShapePoint
		if err := rows.Scan(&i.Lat, &i.Lon); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
