package sim

import (
	"math/rand/v2"
	"sync"

	"bus-tracker/internal/transit"
)

// MaxJitter bounds the per-axis offset added to a waypoint, in degrees.
const MaxJitter = 0.0005

// DefaultWaypoints is used for routes that carry no path of their own.
var DefaultWaypoints = []transit.Waypoint{
	{Lat: 40.7128, Lng: -74.006},
	{Lat: 40.7589, Lng: -73.9851},
	{Lat: 40.7831, Lng: -73.9712},
	{Lat: 40.7614, Lng: -73.9776},
	{Lat: 40.7505, Lng: -73.9934},
}

// PositionSimulator walks a fixed waypoint loop, one waypoint per tick.
type PositionSimulator struct {
	mu        sync.Mutex
	waypoints []transit.Waypoint
	cursor    int
	current   Position
	rng       *rand.Rand

	listeners listeners[Position]
}

func NewPositionSimulator(waypoints []transit.Waypoint, seed uint64) *PositionSimulator {
	if len(waypoints) == 0 {
		waypoints = DefaultWaypoints
	}
	wps := append([]transit.Waypoint(nil), waypoints...)
	return &PositionSimulator{
		waypoints: wps,
		current:   Position{Lat: wps[0].Lat, Lng: wps[0].Lng},
		rng:       newRand(seed),
	}
}

// Tick advances the cursor, wrapping at the end of the route, and emits the
// new position to every listener.
func (p *PositionSimulator) Tick() Position {
	p.mu.Lock()
	p.cursor = (p.cursor + 1) % len(p.waypoints)
	w := p.waypoints[p.cursor]
	pos := Position{
		Lat:     w.Lat + p.jitter(),
		Lng:     w.Lng + p.jitter(),
		Heading: p.rng.Float64() * 360,
	}
	p.current = pos
	p.mu.Unlock()

	p.listeners.emit(pos)
	return pos
}

func (p *PositionSimulator) jitter() float64 {
	return (p.rng.Float64() - 0.5) * 2 * MaxJitter
}

func (p *PositionSimulator) Current() Position {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *PositionSimulator) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

func (p *PositionSimulator) Waypoints() []transit.Waypoint {
	return append([]transit.Waypoint(nil), p.waypoints...)
}

func (p *PositionSimulator) Subscribe(fn func(Position)) func() {
	return p.listeners.add(fn)
}

func newRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}
