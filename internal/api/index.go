package api

import (
	"net/http"
	"time"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	response := Response{
		Data: map[string]any{
			"name":    "Bus Tracker",
			"version": "1.0.0",
			"time":    s.now().Format(time.RFC3339),
			"routes":  s.registry.Len(),
		},
		Links: map[string]string{
			"routes":            "/routes",
			"stops":             "/stops",
			"cities":            "/cities",
			"favorites":         "/favorites",
			"driver":            "/driver/me",
			"vehicle_positions": "/gtfs-rt/vehicle-positions",
		},
	}

	s.sendResponse(w, response)
}
