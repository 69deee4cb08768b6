package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"bus-tracker/internal/sim"
	"bus-tracker/internal/transit"
)

func trackLinks(busID string) map[string]string {
	return map[string]string{
		"self":    "/track/" + busID,
		"refresh": "/track/" + busID + "/refresh",
		"route":   "/routes/" + busID,
	}
}

// handleTrack starts (or joins) the live session for a bus.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	busID := mux.Vars(r)["busId"]

	session, err := s.manager.Track(busID)
	switch {
	case errors.Is(err, transit.ErrRouteNotFound):
		s.sendErrorResponse(w, http.StatusNotFound, "Bus not found")
		return
	case err != nil:
		s.sendErrorResponse(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	s.sendResponse(w, Response{Data: session.View(), Links: trackLinks(session.BusID())})
}

func (s *Server) handleTrackView(w http.ResponseWriter, r *http.Request) {
	busID := mux.Vars(r)["busId"]

	session, ok := s.manager.Get(busID)
	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "Bus is not being tracked")
		return
	}

	s.sendResponse(w, Response{Data: session.View(), Links: trackLinks(busID)})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	busID := mux.Vars(r)["busId"]

	st, err := s.manager.Refresh(busID)
	if errors.Is(err, sim.ErrSessionInactive) {
		s.sendErrorResponse(w, http.StatusNotFound, "Bus is not being tracked")
		return
	} else if err != nil {
		s.sendErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	s.sendResponse(w, Response{Data: st, Links: trackLinks(busID)})
}

func (s *Server) handleRelease(w http.ResponseWriter, r *http.Request) {
	busID := mux.Vars(r)["busId"]

	if !s.manager.Release(busID) {
		s.sendErrorResponse(w, http.StatusNotFound, "Bus is not being tracked")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
