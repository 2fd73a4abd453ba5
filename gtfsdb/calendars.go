package gtfsdb

import "context"

type CreateCalendarParams struct {
	ID        string
	Monday    int64
	Tuesday   int64
	Wednesday int64
	Thursday  int64
	Friday    int64
	Saturday  int64
	Sunday    int64
	StartDate string
	EndDate   string
}

const createCalendar = `
INSERT OR REPLACE INTO calendar (
    id, monday, tuesday, wednesday, thursday, friday, saturday, sunday, start_date, end_date
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func (q *Queries) CreateCalendar(ctx context.Context, arg CreateCalendarParams) error {
	_, err := q.db.ExecContext(ctx, createCalendar,
		arg.ID, arg.Monday, arg.Tuesday, arg.Wednesday, arg.Thursday,
		arg.Friday, arg.Saturday, arg.Sunday, arg.StartDate, arg.EndDate)
	return err
}

type CreateCalendarDateParams struct {
	ServiceID     string
	Date          string
	ExceptionType int64
}

// Exception types of calendar_dates.txt
const (
	ServiceAdded   int64 = 1
	ServiceRemoved int64 = 2
)

const createCalendarDate = `
INSERT OR REPLACE INTO calendar_dates (service_id, date, exception_type) VALUES (?, ?, ?)`

func (q *Queries) CreateCalendarDate(ctx context.Context, arg CreateCalendarDateParams) error {
	_, err := q.db.ExecContext(ctx, createCalendarDate, arg.ServiceID, arg.Date, arg.ExceptionType)
	return err
}
