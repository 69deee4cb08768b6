package sim

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"time"
)

// Ranges are half-open: [min, max).
const (
	MinETAMinutes = 2
	MaxETAMinutes = 15
	MinSpeedMPH   = 15
	MaxSpeedMPH   = 35
	MinDistanceKM = 0.5
	MaxDistanceKM = 5.0
)

// StatusStops is the stop set the next-stop value is drawn from.
var StatusStops = []string{
	"Central Station",
	"Downtown Terminal",
	"Business District",
	"University Campus",
	"Shopping Mall",
	"Airport Hub",
}

type StatusOption func(*StatusSimulator)

func WithClock(now func() time.Time) StatusOption {
	return func(s *StatusSimulator) { s.now = now }
}

func WithSeed(seed uint64) StatusOption {
	return func(s *StatusSimulator) { s.rng = newRand(seed) }
}

// StatusSimulator produces next stop, ETA, speed and distance values.
type StatusSimulator struct {
	mu      sync.Mutex
	current TrackingStatus
	rng     *rand.Rand
	now     func() time.Time

	listeners listeners[TrackingStatus]
}

func NewStatusSimulator(opts ...StatusOption) *StatusSimulator {
	s := &StatusSimulator{now: time.Now}
	for _, o := range opts {
		o(s)
	}
	if s.rng == nil {
		s.rng = newRand(0)
	}
	s.current = TrackingStatus{
		NextStop:         "Downtown Terminal",
		EstimatedArrival: "5 min",
		Speed:            25,
		Distance:         "2.3 km",
		LastUpdated:      s.now(),
	}
	return s
}

// Tick replaces all fields at once and emits the new status.
func (s *StatusSimulator) Tick() TrackingStatus {
	s.mu.Lock()
	st := TrackingStatus{
		NextStop:         StatusStops[s.rng.IntN(len(StatusStops))],
		EstimatedArrival: s.eta(),
		Speed:            MinSpeedMPH + s.rng.IntN(MaxSpeedMPH-MinSpeedMPH),
		Distance:         s.distance(),
		LastUpdated:      s.stamp(),
	}
	s.current = st
	s.mu.Unlock()

	s.listeners.emit(st)
	return st
}

// Refresh re-rolls only the ETA and the update time.
func (s *StatusSimulator) Refresh() TrackingStatus {
	s.mu.Lock()
	st := s.current
	st.EstimatedArrival = s.eta()
	st.LastUpdated = s.stamp()
	s.current = st
	s.mu.Unlock()

	s.listeners.emit(st)
	return st
}

func (s *StatusSimulator) Current() TrackingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *StatusSimulator) Subscribe(fn func(TrackingStatus)) func() {
	return s.listeners.add(fn)
}

func (s *StatusSimulator) eta() string {
	return fmt.Sprintf("%d min", MinETAMinutes+s.rng.IntN(MaxETAMinutes-MinETAMinutes))
}

// distance draws whole tenths so the one-decimal rendering never rounds up to MaxDistanceKM.
func (s *StatusSimulator) distance() string {
	lo, hi := int(MinDistanceKM*10), int(MaxDistanceKM*10)
	tenths := lo + s.rng.IntN(hi-lo)
	return fmt.Sprintf("%.1f km", float64(tenths)/10)
}

// stamp never goes backwards, even if the clock does.
func (s *StatusSimulator) stamp() time.Time {
	now := s.now()
	if now.Before(s.current.LastUpdated) {
		return s.current.LastUpdated
	}
	return now
}
