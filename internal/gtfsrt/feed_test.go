package gtfsrt

import (
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"bus-tracker/internal/sim"
	"bus-tracker/internal/transit"
)

func TestVehiclePositions(t *testing.T) {
	routes := transit.DefaultRoutes()
	now := time.Unix(1_760_000_000, 0)
	updated := now.Add(-2 * time.Second)

	views := []sim.View{
		{
			BusID:    "BUS001",
			State:    sim.StateActive,
			Route:    &routes[0],
			Position: &sim.Position{Lat: 40.7589, Lng: -73.9851, Heading: 90},
			Status:   &sim.TrackingStatus{Speed: 25, LastUpdated: updated},
		},
		// No observed position yet.
		{BusID: "BUS002", State: sim.StateActive, Route: &routes[1]},
		{BusID: "BUS003", State: sim.StateStopped, Route: &routes[2], Position: &sim.Position{}},
		{BusID: "BUS999", State: sim.StateNotFound},
	}

	b, err := Marshal(VehiclePositions(views, now))
	require.NoError(t, err)

	var feed gtfs.FeedMessage
	require.NoError(t, proto.Unmarshal(b, &feed))
	assert.Equal(t, "2.0", feed.GetHeader().GetGtfsRealtimeVersion())
	assert.Equal(t, gtfs.FeedHeader_FULL_DATASET, feed.GetHeader().GetIncrementality())
	assert.Equal(t, uint64(now.Unix()), feed.GetHeader().GetTimestamp())

	require.Len(t, feed.GetEntity(), 1)
	vp := feed.GetEntity()[0].GetVehicle()
	assert.Equal(t, "BUS001", vp.GetVehicle().GetId())
	assert.Equal(t, "101", vp.GetVehicle().GetLabel())
	assert.Equal(t, "BUS001", vp.GetTrip().GetRouteId())
	assert.InDelta(t, 40.7589, vp.GetPosition().GetLatitude(), 1e-4)
	assert.InDelta(t, -73.9851, vp.GetPosition().GetLongitude(), 1e-4)
	assert.InDelta(t, 90, vp.GetPosition().GetBearing(), 1e-6)
	assert.InDelta(t, 25*mphToMps, vp.GetPosition().GetSpeed(), 1e-4)
	assert.Equal(t, uint64(updated.Unix()), vp.GetTimestamp())

	js, err := MarshalJSON(VehiclePositions(views, now))
	require.NoError(t, err)
	assert.Contains(t, string(js), "BUS001")
}
