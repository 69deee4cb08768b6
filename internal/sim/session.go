package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"

	"bus-tracker/internal/transit"
)

var ErrSessionInactive = errors.New("tracking session is not active")

const (
	DefaultPositionInterval = 3 * time.Second
	DefaultStatusInterval   = 5 * time.Second
)

const (
	KindPosition = "position"
	KindStatus   = "status"
)

type State int32

const (
	StateResolving State = iota
	StateNotFound
	StateActive
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateResolving:
		return "resolving"
	case StateNotFound:
		return "not_found"
	case StateActive:
		return "active"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

type Options struct {
	PositionInterval time.Duration
	StatusInterval   time.Duration
	// Seed fixes both random sources; 0 picks a random seed.
	Seed  uint64
	Clock func() time.Time
	// OnTick is called after every scheduled tick with its kind and duration.
	OnTick func(kind string, took time.Duration)
}

func (o Options) withDefaults() Options {
	if o.PositionInterval <= 0 {
		o.PositionInterval = DefaultPositionInterval
	}
	if o.StatusInterval <= 0 {
		o.StatusInterval = DefaultStatusInterval
	}
	if o.Clock == nil {
		o.Clock = time.Now
	}
	return o
}

// View is a point-in-time snapshot of a session for presentation.
type View struct {
	BusID    string            `json:"busId"`
	State    State             `json:"state"`
	Route    *transit.BusRoute `json:"route,omitempty"`
	Position *Position         `json:"position,omitempty"`
	Status   *TrackingStatus   `json:"status,omitempty"`
}

// Session tracks one bus: it resolves the route, then runs the position and
// status simulators on independent tickers until Stop.
type Session struct {
	busID    string
	route    transit.BusRoute
	position *PositionSimulator
	status   *StatusSimulator
	opts     Options

	state atomic.Int32
	// gate is held shared by ticks and refreshes and exclusively by Stop.
	gate     sync.RWMutex
	cancel   context.CancelFunc
	wg       conc.WaitGroup
	stopOnce sync.Once

	seenMu      sync.Mutex
	seen        *Position
	unsubscribe func()
}

// Open resolves busID against the registry. Unknown IDs yield a session in
// StateNotFound with nothing running. Otherwise both simulators start and run
// until Stop is called or ctx is cancelled.
func Open(ctx context.Context, reg *transit.Registry, busID string, opts Options) *Session {
	s := &Session{busID: busID, opts: opts.withDefaults()}
	s.state.Store(int32(StateResolving))

	route, ok := reg.Lookup(busID)
	if !ok {
		s.state.Store(int32(StateNotFound))
		return s
	}
	s.route = route

	statusSeed := s.opts.Seed
	if statusSeed != 0 {
		statusSeed++
	}
	s.position = NewPositionSimulator(route.Waypoints, s.opts.Seed)
	s.status = NewStatusSimulator(WithSeed(statusSeed), WithClock(s.opts.Clock))
	s.unsubscribe = s.position.Subscribe(s.observe)

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.state.Store(int32(StateActive))

	s.wg.Go(func() {
		s.run(runCtx, KindPosition, s.opts.PositionInterval, func() { s.position.Tick() })
	})
	s.wg.Go(func() {
		s.run(runCtx, KindStatus, s.opts.StatusInterval, func() { s.status.Tick() })
	})
	s.wg.Go(func() {
		<-runCtx.Done()
		s.gate.Lock()
		s.state.CompareAndSwap(int32(StateActive), int32(StateStopped))
		s.gate.Unlock()
	})
	return s
}

func (s *Session) run(ctx context.Context, kind string, every time.Duration, tick func()) {
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			start := time.Now()
			if !s.whileActive(tick) {
				return
			}
			if s.opts.OnTick != nil {
				s.opts.OnTick(kind, time.Since(start))
			}
		}
	}
}

func (s *Session) whileActive(fn func()) bool {
	s.gate.RLock()
	defer s.gate.RUnlock()
	if s.State() != StateActive {
		return false
	}
	fn()
	return true
}

func (s *Session) observe(p Position) {
	s.seenMu.Lock()
	s.seen = &p
	s.seenMu.Unlock()
}

func (s *Session) BusID() string { return s.busID }

func (s *Session) State() State { return State(s.state.Load()) }

// Route returns the resolved route; ok is false for unknown bus IDs.
func (s *Session) Route() (transit.BusRoute, bool) {
	return s.route, s.position != nil
}

// Refresh re-rolls the ETA immediately without touching the tickers.
func (s *Session) Refresh() (TrackingStatus, error) {
	var st TrackingStatus
	if !s.whileActive(func() { st = s.status.Refresh() }) {
		return TrackingStatus{}, ErrSessionInactive
	}
	return st, nil
}

// SubscribePosition registers fn for every position emission. Listeners run
// on the tick goroutine and must not call Stop.
func (s *Session) SubscribePosition(fn func(Position)) func() {
	if s.position == nil {
		return func() {}
	}
	return s.position.Subscribe(fn)
}

func (s *Session) SubscribeStatus(fn func(TrackingStatus)) func() {
	if s.status == nil {
		return func() {}
	}
	return s.status.Subscribe(fn)
}

func (s *Session) View() View {
	v := View{BusID: s.busID, State: s.State()}
	if s.position == nil {
		return v
	}
	route := s.route
	v.Route = &route

	s.seenMu.Lock()
	if s.seen != nil {
		p := *s.seen
		v.Position = &p
	}
	s.seenMu.Unlock()

	st := s.status.Current()
	v.Status = &st
	return v
}

// Stop cancels both tickers and returns once they have exited. No listener is
// invoked after Stop returns. Safe to call more than once.
func (s *Session) Stop() {
	if s.position == nil {
		return
	}
	s.stopOnce.Do(func() {
		s.gate.Lock()
		s.state.Store(int32(StateStopped))
		s.gate.Unlock()

		s.cancel()
		s.wg.Wait()
		s.unsubscribe()
	})
}
