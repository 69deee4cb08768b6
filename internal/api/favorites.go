package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"bus-tracker/internal/transit"
)

func (s *Server) handleFavorites(w http.ResponseWriter, r *http.Request) {
	routes, err := s.favorites.Routes(r.Context())
	if err != nil {
		s.storeError(w, err)
		return
	}
	ids := make([]string, len(routes))
	for i, route := range routes {
		ids[i] = route.ID
	}

	s.sendResponse(w, Response{
		Data:  routes,
		Links: map[string]string{"self": "/favorites"},
		Meta:  map[string]any{"ids": ids},
	})
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	ids, err := s.favorites.Add(r.Context(), id)
	if errors.Is(err, transit.ErrRouteNotFound) {
		s.sendErrorResponse(w, http.StatusNotFound, "Route not found")
		return
	} else if err != nil {
		s.storeError(w, err)
		return
	}

	s.sendResponse(w, Response{Data: ids})
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	ids, err := s.favorites.Remove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.storeError(w, err)
		return
	}

	s.sendResponse(w, Response{Data: ids})
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	fav, err := s.favorites.Toggle(r.Context(), id)
	if errors.Is(err, transit.ErrRouteNotFound) {
		s.sendErrorResponse(w, http.StatusNotFound, "Route not found")
		return
	} else if err != nil {
		s.storeError(w, err)
		return
	}

	s.sendResponse(w, Response{Data: map[string]any{"id": id, "favorite": fav}})
}

func (s *Server) handleClearFavorites(w http.ResponseWriter, r *http.Request) {
	if err := s.favorites.Clear(r.Context()); err != nil {
		s.storeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	log.Error().Err(err).Msg("store request failed")
	s.sendErrorResponse(w, http.StatusInternalServerError, "Storage unavailable")
}
