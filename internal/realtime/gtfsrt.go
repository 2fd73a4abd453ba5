package realtime

import (
	"time"

	gtfsrt "github.com/jamespfennell/gtfs/proto"
	"google.golang.org/protobuf/proto"
)

// VehiclePositionsFeed renders the active set as a full-dataset GTFS-realtime
// VehiclePositions feed. Entity ids are shuttle titles, so they stay stable
// across cycles.
func VehiclePositionsFeed(shuttles []Shuttle, updated time.Time) *gtfsrt.FeedMessage {
	entities := make([]*gtfsrt.FeedEntity, 0, len(shuttles))
	for _, s := range shuttles {
		position := &gtfsrt.Position{
			Latitude:  proto.Float32(float32(s.Location.Lat)),
			Longitude: proto.Float32(float32(s.Location.Lon)),
		}
		if s.Heading != nil {
			position.Bearing = proto.Float32(float32(*s.Heading))
		}
		if s.Speed != nil {
			position.Speed = proto.Float32(float32(*s.Speed))
		}

		trip := &gtfsrt.TripDescriptor{RouteId: proto.String(s.Route.ID)}
		if s.TripID != "" {
			trip.TripId = proto.String(s.TripID)
		}

		vehicle := &gtfsrt.VehiclePosition{
			Trip: trip,
			Vehicle: &gtfsrt.VehicleDescriptor{
				Id:    proto.String(s.VehicleID),
				Label: proto.String(s.Title()),
			},
			Position: position,
		}
		if !s.ReportedAt.IsZero() {
			vehicle.Timestamp = proto.Uint64(uint64(s.ReportedAt.Unix()))
		}

		entities = append(entities, &gtfsrt.FeedEntity{
			Id:      proto.String(s.Title()),
			Vehicle: vehicle,
		})
	}

	header := &gtfsrt.FeedHeader{
		GtfsRealtimeVersion: proto.String("2.0"),
		Incrementality:      gtfsrt.FeedHeader_FULL_DATASET.Enum(),
	}
	if !updated.IsZero() {
		header.Timestamp = proto.Uint64(uint64(updated.Unix()))
	}

	return &gtfsrt.FeedMessage{Header: header, Entity: entities}
}
