package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"bus-tracker/internal/driver"
	"bus-tracker/internal/transit"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type locationRequest struct {
	// Empty re-rolls the simulated GPS location.
	Location string `json:"location"`
}

type statusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleDriverLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	d, err := s.drivers.Login(r.Context(), req.Username, req.Password)
	if errors.Is(err, driver.ErrInvalidCredentials) {
		s.sendErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	} else if err != nil {
		s.storeError(w, err)
		return
	}

	dash := s.startDashboard(d)
	s.sendResponse(w, Response{
		Data:  dash.Snapshot(),
		Links: map[string]string{"self": "/driver/me"},
	})
}

func (s *Server) handleDriverLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.drivers.Logout(r.Context()); err != nil {
		s.storeError(w, err)
		return
	}
	s.Close()
	s.notifier.Notify("Logged out", "You have been successfully logged out.")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDriverMe(w http.ResponseWriter, r *http.Request) {
	dash, ok := s.currentDashboard(w, r)
	if !ok {
		return
	}
	s.sendResponse(w, Response{Data: dash.Snapshot()})
}

func (s *Server) handleDriverLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	dash, ok := s.currentDashboard(w, r)
	if !ok {
		return
	}

	if req.Location == "" {
		dash.UpdateLocation()
	} else if err := dash.SetLocation(req.Location); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sendResponse(w, Response{Data: dash.Snapshot()})
}

func (s *Server) handleDriverStatus(w http.ResponseWriter, r *http.Request) {
	var req statusRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	status, err := transit.ParseRouteStatus(req.Status)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	dash, ok := s.currentDashboard(w, r)
	if !ok {
		return
	}

	if err := dash.UpdateStatus(status); err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	s.sendResponse(w, Response{Data: dash.Snapshot()})
}

// currentDashboard returns the dashboard of the logged-in driver, restoring
// it from the persisted session after a restart. It writes a 401 when nobody
// is logged in.
func (s *Server) currentDashboard(w http.ResponseWriter, r *http.Request) (*driver.Dashboard, bool) {
	d, err := s.drivers.Current(r.Context())
	if err != nil {
		s.storeError(w, err)
		return nil, false
	}
	if d == nil {
		s.Close()
		s.sendErrorResponse(w, http.StatusUnauthorized, "Not logged in")
		return nil, false
	}

	s.mu.Lock()
	dash := s.dashboard
	s.mu.Unlock()
	if dash != nil && dash.Snapshot().Driver.ID == d.ID {
		return dash, true
	}
	return s.startDashboard(*d), true
}

// startDashboard replaces any running dashboard with one for d.
func (s *Server) startDashboard(d driver.Driver) *driver.Dashboard {
	// The location stays empty until the first timer tick or a manual update.
	dash := driver.NewDashboard(d, s.notifier, 0)
	// The location timer outlives the login request.
	dash.Start(context.Background(), s.locationInterval)

	s.mu.Lock()
	old := s.dashboard
	s.dashboard = dash
	s.mu.Unlock()
	if old != nil {
		old.Stop()
	}
	log.Debug().Str("driver", d.ID).Dur("every", s.locationInterval).Msg("driver dashboard started")
	return dash
}
