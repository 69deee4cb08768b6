package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"

	"bus-tracker/internal/driver"
	"bus-tracker/internal/favorites"
	"bus-tracker/internal/notify"
	"bus-tracker/internal/sim"
	"bus-tracker/internal/store"
	"bus-tracker/internal/transit"
)

type testEnv struct {
	server  *Server
	handler http.Handler
	manager *sim.Manager

	mu     sync.Mutex
	titles []string
}

func (e *testEnv) notified() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.titles...)
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{}
	n := notify.Func(func(title, _ string) {
		env.mu.Lock()
		env.titles = append(env.titles, title)
		env.mu.Unlock()
	})

	reg := transit.DefaultRegistry()
	kv := store.NewMemory()
	env.manager = sim.NewManager(reg, sim.Options{
		PositionInterval: 2 * time.Millisecond,
		StatusInterval:   3 * time.Millisecond,
		Seed:             7,
	}, nil, nil)
	env.server = NewServer(reg, env.manager, favorites.New(kv, reg, n), driver.NewSessions(kv), n, time.Hour)
	env.handler = env.server.Router()

	t.Cleanup(func() {
		env.server.Close()
		env.manager.Stop()
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var env struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &env), rr.Body.String())
	return env.Data
}

func routeIDs(routes []transit.BusRoute) []string {
	ids := make([]string, len(routes))
	for i, r := range routes {
		ids[i] = r.ID
	}
	return ids
}

func TestIndexEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))

	var response Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	for _, link := range []string{"routes", "stops", "cities", "favorites", "vehicle_positions"} {
		assert.Contains(t, response.Links, link)
	}

	rr = env.do(t, "OPTIONS", "/routes", "")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRoutesEndpoint(t *testing.T) {
	env := newTestEnv(t)

	t.Run("all", func(t *testing.T) {
		rr := env.do(t, "GET", "/routes", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"BUS001", "BUS002", "BUS003", "BUS004", "BUS005"}, routeIDs(decode[[]transit.BusRoute](t, rr)))
	})

	t.Run("search from", func(t *testing.T) {
		rr := env.do(t, "GET", "/routes?from=central", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"BUS001"}, routeIDs(decode[[]transit.BusRoute](t, rr)))
	})

	t.Run("no match", func(t *testing.T) {
		rr := env.do(t, "GET", "/routes?from=nowhere", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Empty(t, decode[[]transit.BusRoute](t, rr))
	})

	t.Run("fare filter sorted by fare", func(t *testing.T) {
		rr := env.do(t, "GET", "/routes?maxFare=10&sort=fare", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"BUS003", "BUS002", "BUS005"}, routeIDs(decode[[]transit.BusRoute](t, rr)))
	})

	t.Run("afternoon", func(t *testing.T) {
		rr := env.do(t, "GET", "/routes?departure=afternoon", "")
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []string{"BUS005"}, routeIDs(decode[[]transit.BusRoute](t, rr)))
	})

	t.Run("invalid filters", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/routes?maxFare=cheap", "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/routes?sort=color", "").Code)
		assert.Equal(t, http.StatusBadRequest, env.do(t, "GET", "/routes?departure=noon", "").Code)
	})
}

func TestRouteEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/routes/BUS004", "")
	require.Equal(t, http.StatusOK, rr.Code)
	route := decode[transit.BusRoute](t, rr)
	assert.Equal(t, "Medical Center", route.From)
	assert.Equal(t, transit.StatusEarly, route.Status)

	rr = env.do(t, "GET", "/routes/BUS999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	var errResp ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &errResp))
	require.Len(t, errResp.Errors, 1)
	assert.Equal(t, "404", errResp.Errors[0].Status)
}

func TestReferenceLists(t *testing.T) {
	env := newTestEnv(t)

	stops := decode[[]string](t, env.do(t, "GET", "/stops", ""))
	assert.Equal(t, transit.Stops, stops)

	cities := decode[[]string](t, env.do(t, "GET", "/cities", ""))
	assert.Len(t, cities, len(transit.Cities))
}

type viewBody struct {
	BusID    string              `json:"busId"`
	State    string              `json:"state"`
	Route    *transit.BusRoute   `json:"route"`
	Position *sim.Position       `json:"position"`
	Status   *sim.TrackingStatus `json:"status"`
}

func TestTrackLifecycle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/track/BUS999", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/track/BUS001", "").Code)

	rr = env.do(t, "POST", "/track/BUS001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decode[viewBody](t, rr)
	assert.Equal(t, "BUS001", v.BusID)
	assert.Equal(t, "active", v.State)
	require.NotNil(t, v.Route)
	assert.Equal(t, "Express Metro", v.Route.BusName)
	require.NotNil(t, v.Status)

	require.Eventually(t, func() bool {
		v := decode[viewBody](t, env.do(t, "GET", "/track/BUS001", ""))
		return v.Position != nil
	}, 2*time.Second, 2*time.Millisecond)

	rr = env.do(t, "POST", "/track/BUS001/refresh", "")
	require.Equal(t, http.StatusOK, rr.Code)
	st := decode[sim.TrackingStatus](t, rr)
	assert.True(t, strings.HasSuffix(st.EstimatedArrival, " min"))

	// Padded IDs resolve to the same session on every endpoint.
	rr = env.do(t, "POST", "/track/%20BUS001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "BUS001", decode[viewBody](t, rr).BusID)
	assert.Equal(t, http.StatusOK, env.do(t, "GET", "/track/%20BUS001", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, "POST", "/track/%20BUS001/refresh", "").Code)
	assert.Len(t, env.manager.Views(), 1)

	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/track/BUS001", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "DELETE", "/track/BUS001", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/track/BUS001/refresh", "").Code)
}

func TestFavoritesEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Empty(t, decode[[]transit.BusRoute](t, env.do(t, "GET", "/favorites", "")))

	rr := env.do(t, "PUT", "/favorites/BUS003", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"BUS003"}, decode[[]string](t, rr))

	rr = env.do(t, "PUT", "/favorites/BUS001", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"BUS003", "BUS001"}, decode[[]string](t, rr))

	assert.Equal(t, http.StatusNotFound, env.do(t, "PUT", "/favorites/BUS999", "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/favorites/BUS999/toggle", "").Code)

	// Listed in registry order.
	assert.Equal(t, []string{"BUS001", "BUS003"}, routeIDs(decode[[]transit.BusRoute](t, env.do(t, "GET", "/favorites", ""))))

	toggled := decode[map[string]any](t, env.do(t, "POST", "/favorites/BUS001/toggle", ""))
	assert.Equal(t, false, toggled["favorite"])
	toggled = decode[map[string]any](t, env.do(t, "POST", "/favorites/BUS005/toggle", ""))
	assert.Equal(t, true, toggled["favorite"])

	rr = env.do(t, "DELETE", "/favorites/BUS003", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"BUS005"}, decode[[]string](t, rr))

	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/favorites", "").Code)
	assert.Empty(t, decode[[]transit.BusRoute](t, env.do(t, "GET", "/favorites", "")))

	assert.Equal(t, []string{
		"Removed from favorites", // toggle BUS001
		"Added to favorites",     // toggle BUS005
		"Removed from favorites", // DELETE BUS003
		"All favorites cleared",
	}, env.notified())
}

func TestDriverEndpoints(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/driver/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, "POST", "/driver/login", `{"username":"john_driver","password":"wrong"}`).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/driver/login", `{"user":`).Code)

	rr := env.do(t, "POST", "/driver/login", `{"username":"sarah_bus","password":"driver123"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	snap := decode[driver.Snapshot](t, rr)
	assert.Equal(t, "Sarah Johnson", snap.Driver.Name)
	assert.Equal(t, "BUS002", snap.Driver.Route.ID)
	assert.Empty(t, snap.Location)
	assert.Equal(t, transit.StatusOnTime, snap.Status)

	rr = env.do(t, "POST", "/driver/status", `{"status":"delayed"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, transit.StatusDelayed, decode[driver.Snapshot](t, rr).Status)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/driver/status", `{"status":"late"}`).Code)

	rr = env.do(t, "POST", "/driver/location", `{"location":"Depot Gate 4"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Depot Gate 4", decode[driver.Snapshot](t, rr).Location)

	rr = env.do(t, "POST", "/driver/location", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, driver.Locations, decode[driver.Snapshot](t, rr).Location)

	// A restarted server picks the driver up from the store.
	env.server.Close()
	rr = env.do(t, "GET", "/driver/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "sarah_bus", decode[driver.Snapshot](t, rr).Driver.Username)

	assert.Equal(t, http.StatusNoContent, env.do(t, "POST", "/driver/logout", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/driver/me", "").Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "POST", "/driver/status", `{"status":"early"}`).Code)

	titles := env.notified()
	assert.Contains(t, titles, "Status updated")
	assert.Contains(t, titles, "Location updated")
	assert.Equal(t, "Logged out", titles[len(titles)-1])
}

func TestVehiclePositionsFeed(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "GET", "/gtfs-rt/vehicle-positions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/x-protobuf", rr.Header().Get("Content-Type"))
	var feed gtfs.FeedMessage
	require.NoError(t, proto.Unmarshal(rr.Body.Bytes(), &feed))
	assert.Empty(t, feed.GetEntity())

	require.Equal(t, http.StatusOK, env.do(t, "POST", "/track/BUS002", "").Code)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/track/BUS004", "").Code)

	require.Eventually(t, func() bool {
		for _, v := range env.manager.Views() {
			if v.Position == nil {
				return false
			}
		}
		return true
	}, 2*time.Second, 2*time.Millisecond)

	rr = env.do(t, "GET", "/gtfs-rt/vehicle-positions", "")
	require.Equal(t, http.StatusOK, rr.Code)
	feed.Reset()
	require.NoError(t, proto.Unmarshal(rr.Body.Bytes(), &feed))
	require.Len(t, feed.GetEntity(), 2)
	assert.Equal(t, "BUS002", feed.GetEntity()[0].GetVehicle().GetVehicle().GetId())
	assert.Equal(t, "BUS004", feed.GetEntity()[1].GetVehicle().GetTrip().GetRouteId())

	rr = env.do(t, "GET", "/gtfs-rt/vehicle-positions?format=json", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Body.String(), "BUS004")
}

func TestDriverLoginAndRestoreAreSilent(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, "POST", "/driver/login", `{"username":"john_driver","password":"driver123"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Empty(t, env.notified())

	// Restoring the dashboard from the persisted session sends nothing either.
	env.server.Close()
	rr = env.do(t, "GET", "/driver/me", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "john_driver", decode[driver.Snapshot](t, rr).Driver.Username)
	assert.Empty(t, env.notified())

	rr = env.do(t, "POST", "/driver/location", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"Location updated"}, env.notified())
}
