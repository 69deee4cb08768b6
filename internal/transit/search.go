package transit

import (
	"cmp"
	"slices"
	"strings"
)

type Query struct {
	From string
	To   string
}

// Search returns routes whose origin contains From or whose destination
// contains To, case-insensitively. Empty criteria are ignored; an empty
// query returns every route.
func (r *Registry) Search(q Query) []BusRoute {
	from := strings.ToLower(strings.TrimSpace(q.From))
	to := strings.ToLower(strings.TrimSpace(q.To))
	if from == "" && to == "" {
		return r.All()
	}
	var out []BusRoute
	for _, route := range r.routes {
		if from != "" && strings.Contains(strings.ToLower(route.From), from) {
			out = append(out, route)
			continue
		}
		if to != "" && strings.Contains(strings.ToLower(route.To), to) {
			out = append(out, route)
		}
	}
	return out
}

type DepartureWindow string

const (
	DepartAny       DepartureWindow = "any"
	DepartMorning   DepartureWindow = "morning"
	DepartAfternoon DepartureWindow = "afternoon"
	DepartEvening   DepartureWindow = "evening"
)

type SortKey string

const (
	SortDeparture SortKey = "departure"
	SortFare      SortKey = "fare"
	SortDuration  SortKey = "duration"
	SortStatus    SortKey = "status"
)

type FilterOptions struct {
	MaxFare     float64         `validate:"gte=0"`
	MaxDuration int             `validate:"gte=0"`
	Departure   DepartureWindow `validate:"omitempty,oneof=any morning afternoon evening"`
	SortBy      SortKey         `validate:"omitempty,oneof=departure fare duration status"`
}

func DefaultFilterOptions() FilterOptions {
	return FilterOptions{
		MaxFare:     50,
		MaxDuration: 120,
		Departure:   DepartAny,
		SortBy:      SortDeparture,
	}
}

func (o FilterOptions) Validate() error {
	return validate.Struct(o)
}

// ApplyFilters keeps routes within the fare, duration and departure window
// limits and sorts them by o.SortBy. The input slice is not modified.
func ApplyFilters(routes []BusRoute, o FilterOptions) []BusRoute {
	out := make([]BusRoute, 0, len(routes))
	for _, route := range routes {
		if route.Fare > o.MaxFare {
			continue
		}
		if route.DurationMinutes() > o.MaxDuration {
			continue
		}
		if !inWindow(route.DepartureMinute(), o.Departure) {
			continue
		}
		out = append(out, route)
	}

	slices.SortStableFunc(out, func(a, b BusRoute) int {
		switch o.SortBy {
		case SortFare:
			return cmp.Compare(a.Fare, b.Fare)
		case SortDuration:
			return cmp.Compare(a.DurationMinutes(), b.DurationMinutes())
		case SortStatus:
			return cmp.Compare(a.Status.rank(), b.Status.rank())
		default:
			return cmp.Compare(a.DepartureMinute(), b.DepartureMinute())
		}
	})
	return out
}

func inWindow(minute int, w DepartureWindow) bool {
	if w == "" || w == DepartAny {
		return true
	}
	if minute < 0 {
		return false
	}
	hour := minute / 60
	switch w {
	case DepartMorning:
		return hour >= 6 && hour < 12
	case DepartAfternoon:
		return hour >= 12 && hour < 18
	case DepartEvening:
		return hour >= 18 || hour < 6
	}
	return true
}
