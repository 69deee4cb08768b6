package sim

import (
	"sync"
	"time"
)

// Position is a simulated GPS fix.
type Position struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Heading float64 `json:"heading"` // degrees, [0,360)
}

// TrackingStatus is the live sidebar data for a tracked bus.
type TrackingStatus struct {
	NextStop         string    `json:"nextStop"`
	EstimatedArrival string    `json:"estimatedArrival"` // "N min"
	Speed            int       `json:"speed"`            // mph
	Distance         string    `json:"distance"`         // "D km"
	LastUpdated      time.Time `json:"lastUpdated"`
}

// PositionFeed is implemented by anything that produces positions for one bus,
// simulated or real.
type PositionFeed interface {
	Subscribe(fn func(Position)) (unsubscribe func())
}

type StatusFeed interface {
	Subscribe(fn func(TrackingStatus)) (unsubscribe func())
}

// listeners is a set of callbacks invoked in registration order.
type listeners[T any] struct {
	mu   sync.Mutex
	next int
	ids  []int
	fns  map[int]func(T)
}

func (l *listeners[T]) add(fn func(T)) func() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.fns == nil {
		l.fns = make(map[int]func(T))
	}
	id := l.next
	l.next++
	l.ids = append(l.ids, id)
	l.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.fns, id)
			for i, v := range l.ids {
				if v == id {
					l.ids = append(l.ids[:i], l.ids[i+1:]...)
					break
				}
			}
		})
	}
}

func (l *listeners[T]) emit(v T) {
	l.mu.Lock()
	fns := make([]func(T), 0, len(l.ids))
	for _, id := range l.ids {
		fns = append(fns, l.fns[id])
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}
