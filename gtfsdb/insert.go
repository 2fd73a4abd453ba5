package gtfsdb

import (
	"context"
	"fmt"
	"time"

	"github.com/jamespfennell/gtfs"
)

const gtfsDateLayout = "20060102"

// insertStaticData writes a parsed feed through q, which is expected to be
// bound to a transaction. It returns the number of rows written per table.
func insertStaticData(ctx context.Context, q *Queries, staticData *gtfs.Static) (map[string]int, error) {
	counts := make(map[string]int)

	for _, a := range staticData.Agencies {
		err := q.CreateAgency(ctx, CreateAgencyParams{
			ID:       a.Id,
			Name:     a.Name,
			Url:      a.Url,
			Timezone: a.Timezone,
			Lang:     toNullString(a.Language),
			Phone:    toNullString(a.Phone),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create agency %s: %w", a.Id, err)
		}
		counts["agencies"]++
	}

	singleAgencyID := ""
	if len(staticData.Agencies) == 1 {
		singleAgencyID = staticData.Agencies[0].Id
	}

	for _, r := range staticData.Routes {
		agencyID := ""
		if r.Agency != nil {
			agencyID = r.Agency.Id
		}
		err := q.CreateRoute(ctx, CreateRouteParams{
			ID:          r.Id,
			AgencyID:    pickFirstAvailable(agencyID, singleAgencyID),
			ShortName:   toNullString(r.ShortName),
			LongName:    toNullString(r.LongName),
			Description: toNullString(r.Description),
			Type:        int64(r.Type),
			Url:         toNullString(r.Url),
			Color:       toNullString(r.Color),
			TextColor:   toNullString(r.TextColor),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create route %s: %w", r.Id, err)
		}
		counts["routes"]++
	}

	for _, s := range staticData.Stops {
		// Stations and entrances without coordinates are not useful on a map.
		if s.Latitude == nil || s.Longitude == nil {
			continue
		}
		parent := ""
		if s.Parent != nil {
			parent = s.Parent.Id
		}
		err := q.CreateStop(ctx, CreateStopParams{
			ID:            s.Id,
			Code:          toNullString(s.Code),
			Name:          toNullString(s.Name),
			Description:   toNullString(s.Description),
			Lat:           *s.Latitude,
			Lon:           *s.Longitude,
			LocationType:  toNullInt64(int64(s.Type)),
			ParentStation: toNullString(parent),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create stop %s: %w", s.Id, err)
		}
		counts["stops"]++
	}

	for _, s := range staticData.Services {
		err := q.CreateCalendar(ctx, CreateCalendarParams{
			ID:        s.Id,
			Monday:    boolToInt(s.Monday),
			Tuesday:   boolToInt(s.Tuesday),
			Wednesday: boolToInt(s.Wednesday),
			Thursday:  boolToInt(s.Thursday),
			Friday:    boolToInt(s.Friday),
			Saturday:  boolToInt(s.Saturday),
			Sunday:    boolToInt(s.Sunday),
			StartDate: s.StartDate.Format(gtfsDateLayout),
			EndDate:   s.EndDate.Format(gtfsDateLayout),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create calendar %s: %w", s.Id, err)
		}
		counts["calendar"]++

		if err := insertCalendarDates(ctx, q, s.Id, s.AddedDates, ServiceAdded); err != nil {
			return nil, err
		}
		if err := insertCalendarDates(ctx, q, s.Id, s.RemovedDates, ServiceRemoved); err != nil {
			return nil, err
		}
		counts["calendar_dates"] += len(s.AddedDates) + len(s.RemovedDates)
	}

	for _, t := range staticData.Trips {
		if t.Route == nil || t.Service == nil {
			continue
		}
		shapeID := ""
		if t.Shape != nil {
			shapeID = t.Shape.ID
		}
		err := q.CreateTrip(ctx, CreateTripParams{
			ID:          t.ID,
			RouteID:     t.Route.Id,
			ServiceID:   t.Service.Id,
			Headsign:    toNullString(t.Headsign),
			ShortName:   toNullString(t.ShortName),
			DirectionID: toNullInt64(int64(t.DirectionId)),
			BlockID:     toNullString(t.BlockID),
			ShapeID:     toNullString(shapeID),
		})
		if err != nil {
			return nil, fmt.Errorf("unable to create trip %s: %w", t.ID, err)
		}
		counts["trips"]++

		for _, st := range t.StopTimes {
			if st.Stop == nil {
				continue
			}
			err := q.CreateStopTime(ctx, CreateStopTimeParams{
				TripID:        t.ID,
				ArrivalTime:   int64(st.ArrivalTime / time.Second),
				DepartureTime: int64(st.DepartureTime / time.Second),
				StopID:        st.Stop.Id,
				StopSequence:  int64(st.StopSequence),
				StopHeadsign:  toNullString(st.Headsign),
			})
			if err != nil {
				return nil, fmt.Errorf("unable to create stop time %s/%d: %w", t.ID, st.StopSequence, err)
			}
			counts["stop_times"]++
		}
	}

	for _, s := range staticData.Shapes {
		for idx, pt := range s.Points {
			err := q.CreateShape(ctx, CreateShapeParams{
				ShapeID:         s.ID,
				Lat:             pt.Latitude,
				Lon:             pt.Longitude,
				ShapePtSequence: int64(idx),
			})
			if err != nil {
				return nil, fmt.Errorf("unable to create shape %s: %w", s.ID, err)
			}
			counts["shapes"]++
		}
	}

	return counts, nil
}

func insertCalendarDates(ctx context.Context, q *Queries, serviceID string, dates []time.Time, exceptionType int64) error {
	for _, d := range dates {
		err := q.CreateCalendarDate(ctx, CreateCalendarDateParams{
			ServiceID:     serviceID,
			Date:          d.Format(gtfsDateLayout),
			ExceptionType: exceptionType,
		})
		if err != nil {
			return fmt.Errorf("unable to create calendar date %s/%s: %w", serviceID, d.Format(gtfsDateLayout), err)
		}
	}
	return nil
}
