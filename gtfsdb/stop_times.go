package gtfsdb

import (
	"context"
	"database/sql"
	"time"
)

type CreateStopTimeParams struct {
	TripID        string
	ArrivalTime   int64
	DepartureTime int64
	StopID        string
	StopSequence  int64
	StopHeadsign  sql.NullString
}

const createStopTime = `
INSERT OR REPLACE INTO stop_times (
    trip_id, arrival_time, departure_time, stop_id, stop_sequence, stop_headsign
) VALUES (?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateStopTime(ctx context.Context, arg CreateStopTimeParams) error {
	_, err := q.db.ExecContext(ctx, createStopTime,
		arg.TripID, arg.ArrivalTime, arg.DepartureTime, arg.StopID, arg.StopSequence, arg.StopHeadsign)
	return err
}

type GetDeparturesForStopParams struct {
	StopID       string
	ServiceDate  string // YYYYMMDD
	Weekday      time.Weekday
	AfterSeconds int64 // seconds since midnight; only later departures are returned
	Limit        int64
}

// A trip runs on ServiceDate when calendar_dates adds it, or when its calendar
// covers the date on that weekday and calendar_dates does not remove it.
const getDeparturesForStop = `
SELECT st.departure_time, st.trip_id, r.id, r.short_name, r.long_name, r.color, r.text_color, t.headsign
FROM stop_times st
JOIN trips t ON t.id = st.trip_id
JOIN routes r ON r.id = t.route_id
WHERE st.stop_id = ?
  AND st.departure_time > ?
  AND (
    EXISTS (
      SELECT 1 FROM calendar_dates cd
      WHERE cd.service_id = t.service_id AND cd.date = ? AND cd.exception_type = 1
    )
    OR (
      EXISTS (
        SELECT 1 FROM calendar c
        WHERE c.id = t.service_id
          AND c.start_date <= ? AND c.end_date >= ?
          AND (CASE ?
                WHEN 0 THEN c.sunday
                WHEN 1 THEN c.monday
                WHEN 2 THEN c.tuesday
                WHEN 3 THEN c.wednesday
                WHEN 4 THEN c.thursday
                WHEN 5 THEN c.friday
                ELSE c.saturday
              END) = 1
      )
      AND NOT EXISTS (
        SELECT 1 FROM calendar_dates cd
        WHERE cd.service_id = t.service_id AND cd.date = ? AND cd.exception_type = 2
      )
    )
  )
GROUP BY st.departure_time, r.id
ORDER BY st.departure_time, r.id
LIMIT ?`

func (q *Queries) GetDeparturesForStop(ctx context.Context, arg GetDeparturesForStopParams) ([]Departure, error) {
	rows, err := q.db.QueryContext(ctx, getDeparturesForStop,
		arg.StopID,
		arg.AfterSeconds,
		arg.ServiceDate,
		arg.ServiceDate, arg.ServiceDate,
		int64(arg.Weekday),
		arg.ServiceDate,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close() // nolint:errcheck

	var items []Departure
	for rows.Next() {
		var i Departure
		if err := rows.Scan(&i.DepartureTime, &i.TripID, &i.RouteID, &i.RouteShortName,
			&i.RouteLongName, &i.RouteColor, &i.RouteTextColor, &i.TripHeadsign); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	return items, rows.Err()
}
