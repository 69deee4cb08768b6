package api

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gorilla/mux"

	"bus-tracker/internal/transit"
)

// handleRoutes searches the route table. Filters and sorting only apply when
// at least one of maxFare, maxDuration, departure or sort is given.
func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	routes := s.registry.Search(transit.Query{From: q.Get("from"), To: q.Get("to")})

	opts, filtered, err := parseFilters(q)
	if err != nil {
		s.sendErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if filtered {
		routes = transit.ApplyFilters(routes, opts)
	}
	if routes == nil {
		routes = []transit.BusRoute{}
	}

	s.sendResponse(w, Response{
		Data:  routes,
		Links: map[string]string{"self": "/routes"},
		Meta:  map[string]any{"count": len(routes)},
	})
}

func parseFilters(q url.Values) (transit.FilterOptions, bool, error) {
	opts := transit.DefaultFilterOptions()
	filtered := false

	if v := q.Get("maxFare"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return opts, false, fmt.Errorf("invalid maxFare: %q", v)
		}
		opts.MaxFare = f
		filtered = true
	}
	if v := q.Get("maxDuration"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, false, fmt.Errorf("invalid maxDuration: %q", v)
		}
		opts.MaxDuration = n
		filtered = true
	}
	if v := q.Get("departure"); v != "" {
		opts.Departure = transit.DepartureWindow(v)
		filtered = true
	}
	if v := q.Get("sort"); v != "" {
		opts.SortBy = transit.SortKey(v)
		filtered = true
	}
	if err := opts.Validate(); err != nil {
		return opts, false, err
	}
	return opts, filtered, nil
}

func (s *Server) handleRoute(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	route, ok := s.registry.Lookup(id)
	if !ok {
		s.sendErrorResponse(w, http.StatusNotFound, "Route not found")
		return
	}

	s.sendResponse(w, Response{
		Data: route,
		Links: map[string]string{
			"self":  "/routes/" + id,
			"track": "/track/" + id,
		},
	})
}

func (s *Server) handleStops(w http.ResponseWriter, r *http.Request) {
	s.sendResponse(w, Response{Data: transit.Stops})
}

func (s *Server) handleCities(w http.ResponseWriter, r *http.Request) {
	s.sendResponse(w, Response{Data: transit.Cities})
}
