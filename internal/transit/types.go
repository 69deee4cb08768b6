package transit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	ErrRouteNotFound = errors.New("route not found")
	ErrInvalidStatus = errors.New("invalid route status")
)

// RouteStatus is the punctuality of a scheduled route.
type RouteStatus string

const (
	StatusOnTime  RouteStatus = "on-time"
	StatusDelayed RouteStatus = "delayed"
	StatusEarly   RouteStatus = "early"
)

func ParseRouteStatus(s string) (RouteStatus, error) {
	switch RouteStatus(strings.ToLower(strings.TrimSpace(s))) {
	case StatusOnTime:
		return StatusOnTime, nil
	case StatusDelayed:
		return StatusDelayed, nil
	case StatusEarly:
		return StatusEarly, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (s RouteStatus) Valid() bool {
	switch s {
	case StatusOnTime, StatusDelayed, StatusEarly:
		return true
	}
	return false
}

// rank orders statuses for sorting: on-time, early, delayed.
func (s RouteStatus) rank() int {
	switch s {
	case StatusOnTime:
		return 0
	case StatusEarly:
		return 1
	case StatusDelayed:
		return 2
	}
	return 3
}

type Waypoint struct {
	Lat float64 `json:"lat" yaml:"lat" validate:"gte=-90,lte=90"`
	Lng float64 `json:"lng" yaml:"lng" validate:"gte=-180,lte=180"`
}

// BusRoute is an immutable scheduled route record.
type BusRoute struct {
	ID            string      `json:"id" yaml:"id" validate:"required"`
	BusName       string      `json:"busName" yaml:"busName" validate:"required"`
	BusNumber     string      `json:"busNumber" yaml:"busNumber" validate:"required"`
	From          string      `json:"from" yaml:"from" validate:"required"`
	To            string      `json:"to" yaml:"to" validate:"required"`
	DepartureTime string      `json:"departureTime" yaml:"departureTime" validate:"required"`
	ArrivalTime   string      `json:"arrivalTime" yaml:"arrivalTime" validate:"required"`
	Fare          float64     `json:"fare" yaml:"fare" validate:"gte=0"`
	Duration      string      `json:"duration" yaml:"duration" validate:"required,endswith= min"`
	Status        RouteStatus `json:"status" yaml:"status" validate:"oneof=on-time delayed early"`
	Waypoints     []Waypoint  `json:"waypoints,omitempty" yaml:"waypoints,omitempty" validate:"dive"`
}

// DurationMinutes parses the leading integer of Duration ("45 min" -> 45).
func (r BusRoute) DurationMinutes() int {
	f := strings.Fields(r.Duration)
	if len(f) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(f[0])
	return n
}

// DepartureMinute returns minutes since midnight of DepartureTime ("02:45 PM" -> 885),
// or -1 when the value does not parse.
func (r BusRoute) DepartureMinute() int {
	t, err := time.Parse("03:04 PM", strings.TrimSpace(r.DepartureTime))
	if err != nil {
		return -1
	}
	return t.Hour()*60 + t.Minute()
}
