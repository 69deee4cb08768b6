package sim

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	mmetrics "bus-tracker/internal/metrics"
	"bus-tracker/internal/transit"
)

// Sink receives every emission of every managed session.
type Sink interface {
	PublishPosition(busID string, p Position) error
	PublishStatus(busID string, st TrackingStatus) error
}

// Manager owns at most one active session per bus.
type Manager struct {
	registry *transit.Registry
	opts     Options
	sink     Sink
	metrics  *mmetrics.Collector

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running map[string]*Session // busID -> session
}

func NewManager(registry *transit.Registry, opts Options, sink Sink, metrics *mmetrics.Collector) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		registry: registry,
		opts:     opts,
		sink:     sink,
		metrics:  metrics,
		ctx:      ctx,
		cancel:   cancel,
		running:  make(map[string]*Session),
	}
}

// Track returns the active session for busID, starting one if needed.
// Unknown bus IDs return transit.ErrRouteNotFound.
func (m *Manager) Track(busID string) (*Session, error) {
	busID = normalizeID(busID)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.running[busID]; ok && s.State() == StateActive {
		return s, nil
	}
	if m.ctx.Err() != nil {
		return nil, fmt.Errorf("manager stopped: %w", ErrSessionInactive)
	}

	opts := m.opts
	opts.OnTick = m.metrics.Tick
	s := Open(m.ctx, m.registry, busID, opts)
	if s.State() == StateNotFound {
		m.metrics.LookupMiss()
		log.Debug().Str("bus", busID).Msg("tracking requested for unknown bus")
		return nil, fmt.Errorf("%w: %q", transit.ErrRouteNotFound, busID)
	}

	if m.sink != nil {
		s.SubscribePosition(func(p Position) {
			if err := m.sink.PublishPosition(busID, p); err != nil {
				log.Warn().Err(err).Str("bus", busID).Msg("publish position")
			}
		})
		s.SubscribeStatus(func(st TrackingStatus) {
			if err := m.sink.PublishStatus(busID, st); err != nil {
				log.Warn().Err(err).Str("bus", busID).Msg("publish status")
			}
		})
	}

	m.running[busID] = s
	m.metrics.SessionStarted(len(m.running))
	log.Info().Str("bus", busID).Dur("position_every", s.opts.PositionInterval).Dur("status_every", s.opts.StatusInterval).Msg("tracking started")
	return s, nil
}

func (m *Manager) Get(busID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.running[normalizeID(busID)]
	return s, ok
}

// Refresh re-rolls the ETA of an active session.
func (m *Manager) Refresh(busID string) (TrackingStatus, error) {
	s, ok := m.Get(busID)
	if !ok {
		return TrackingStatus{}, ErrSessionInactive
	}
	st, err := s.Refresh()
	if err != nil {
		return TrackingStatus{}, err
	}
	m.metrics.Refreshed()
	return st, nil
}

// Release stops and forgets the session for busID. It reports whether one existed.
func (m *Manager) Release(busID string) bool {
	busID = normalizeID(busID)
	m.mu.Lock()
	s, ok := m.running[busID]
	delete(m.running, busID)
	n := len(m.running)
	m.mu.Unlock()
	if !ok {
		return false
	}
	s.Stop()
	m.metrics.SessionStopped(n)
	log.Info().Str("bus", busID).Msg("tracking stopped")
	return true
}

// normalizeID is applied to every bus ID the manager receives.
func normalizeID(busID string) string {
	return strings.TrimSpace(busID)
}

// Views returns snapshots of all sessions ordered by bus ID.
func (m *Manager) Views() []View {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.running))
	for _, s := range m.running {
		sessions = append(sessions, s)
	}
	m.mu.Unlock()

	views := make([]View, 0, len(sessions))
	for _, s := range sessions {
		views = append(views, s.View())
	}
	slices.SortFunc(views, func(a, b View) int { return strings.Compare(a.BusID, b.BusID) })
	return views
}

// Stop tears down every session and waits for their tickers to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.cancel()
	sessions := m.running
	m.running = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
		m.metrics.SessionStopped(0)
	}
	log.Info().Int("sessions", len(sessions)).Msg("tracking manager stopped")
}
