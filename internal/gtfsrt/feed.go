// Package gtfsrt renders tracked buses as a GTFS-realtime VehiclePositions feed.
package gtfsrt

import (
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"

	"bus-tracker/internal/sim"
)

const mphToMps = 0.44704

// VehiclePositions builds a full-dataset feed with one entity per active
// session that has reported a position.
func VehiclePositions(views []sim.View, now time.Time) *gtfs.FeedMessage {
	incrementality := gtfs.FeedHeader_FULL_DATASET
	feed := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: proto.String("2.0"),
			Incrementality:      &incrementality,
			Timestamp:           proto.Uint64(uint64(now.Unix())),
		},
	}

	for _, v := range views {
		if v.State != sim.StateActive || v.Position == nil || v.Route == nil {
			continue
		}
		vp := &gtfs.VehiclePosition{
			Trip: &gtfs.TripDescriptor{
				RouteId: proto.String(v.Route.ID),
			},
			Vehicle: &gtfs.VehicleDescriptor{
				Id:    proto.String(v.BusID),
				Label: proto.String(v.Route.BusNumber),
			},
			Position: &gtfs.Position{
				Latitude:  proto.Float32(float32(v.Position.Lat)),
				Longitude: proto.Float32(float32(v.Position.Lng)),
				Bearing:   proto.Float32(float32(v.Position.Heading)),
			},
			Timestamp: proto.Uint64(uint64(now.Unix())),
		}
		if v.Status != nil {
			vp.Position.Speed = proto.Float32(float32(float64(v.Status.Speed) * mphToMps))
			vp.Timestamp = proto.Uint64(uint64(v.Status.LastUpdated.Unix()))
		}
		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:      proto.String(v.BusID),
			Vehicle: vp,
		})
	}
	return feed
}

func Marshal(feed *gtfs.FeedMessage) ([]byte, error) {
	return proto.Marshal(feed)
}

// MarshalJSON renders the feed with protojson for debugging.
func MarshalJSON(feed *gtfs.FeedMessage) ([]byte, error) {
	return protojson.MarshalOptions{Multiline: true}.Marshal(feed)
}
