package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"bus-tracker/internal/driver"
	"bus-tracker/internal/favorites"
	"bus-tracker/internal/notify"
	"bus-tracker/internal/sim"
	"bus-tracker/internal/transit"
)

// Server exposes the tracker over HTTP.
type Server struct {
	registry  *transit.Registry
	manager   *sim.Manager
	favorites *favorites.Favorites
	drivers   *driver.Sessions
	notifier  notify.Notifier

	locationInterval time.Duration
	now              func() time.Time

	mu        sync.Mutex
	dashboard *driver.Dashboard
}

// NewServer creates a new API server
func NewServer(registry *transit.Registry, manager *sim.Manager, favs *favorites.Favorites, drivers *driver.Sessions, notifier notify.Notifier, locationInterval time.Duration) *Server {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Server{
		registry:         registry,
		manager:          manager,
		favorites:        favs,
		drivers:          drivers,
		notifier:         notifier,
		locationInterval: locationInterval,
		now:              time.Now,
	}
}

// Router creates and returns the HTTP router
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/", s.handleIndex).Methods("GET")
	r.HandleFunc("/routes", s.handleRoutes).Methods("GET")
	r.HandleFunc("/routes/{id}", s.handleRoute).Methods("GET")
	r.HandleFunc("/stops", s.handleStops).Methods("GET")
	r.HandleFunc("/cities", s.handleCities).Methods("GET")

	r.HandleFunc("/track/{busId}", s.handleTrack).Methods("POST")
	r.HandleFunc("/track/{busId}", s.handleTrackView).Methods("GET")
	r.HandleFunc("/track/{busId}", s.handleRelease).Methods("DELETE")
	r.HandleFunc("/track/{busId}/refresh", s.handleRefresh).Methods("POST")

	r.HandleFunc("/favorites", s.handleFavorites).Methods("GET")
	r.HandleFunc("/favorites", s.handleClearFavorites).Methods("DELETE")
	r.HandleFunc("/favorites/{id}", s.handleAddFavorite).Methods("PUT")
	r.HandleFunc("/favorites/{id}", s.handleRemoveFavorite).Methods("DELETE")
	r.HandleFunc("/favorites/{id}/toggle", s.handleToggleFavorite).Methods("POST")

	r.HandleFunc("/driver/login", s.handleDriverLogin).Methods("POST")
	r.HandleFunc("/driver/logout", s.handleDriverLogout).Methods("POST")
	r.HandleFunc("/driver/me", s.handleDriverMe).Methods("GET")
	r.HandleFunc("/driver/location", s.handleDriverLocation).Methods("POST")
	r.HandleFunc("/driver/status", s.handleDriverStatus).Methods("POST")

	r.HandleFunc("/gtfs-rt/vehicle-positions", s.handleVehiclePositions).Methods("GET")

	return s.corsMiddleware(r)
}

// Close stops the driver dashboard timer, if one is running.
func (s *Server) Close() {
	s.mu.Lock()
	d := s.dashboard
	s.dashboard = nil
	s.mu.Unlock()
	if d != nil {
		d.Stop()
	}
}

// corsMiddleware adds CORS headers to all responses
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
