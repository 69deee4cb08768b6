package driver

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"bus-tracker/internal/notify"
	"bus-tracker/internal/transit"
)

const DefaultLocationInterval = 10 * time.Second

// Locations the simulated driver GPS reports.
var Locations = []string{
	"Central Station - Platform 3",
	"Main Street & 5th Avenue",
	"Downtown Terminal - Bay 2",
	"University Campus - North Gate",
	"Shopping Mall - East Entrance",
}

type Snapshot struct {
	Driver     Driver              `json:"driver"`
	Location   string              `json:"location"`
	Status     transit.RouteStatus `json:"status"`
	LastUpdate time.Time           `json:"lastUpdate"`
}

// Dashboard is the driver's live panel: a simulated location that changes
// on a timer plus a manually set punctuality status.
type Dashboard struct {
	driver   Driver
	notifier notify.Notifier
	now      func() time.Time

	mu         sync.Mutex
	rng        *rand.Rand
	location   string
	status     transit.RouteStatus
	lastUpdate time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func NewDashboard(d Driver, notifier notify.Notifier, seed uint64) *Dashboard {
	if notifier == nil {
		notifier = notify.Discard
	}
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Dashboard{
		driver:     d,
		notifier:   notifier,
		now:        time.Now,
		rng:        rand.New(rand.NewPCG(seed, seed>>1)),
		status:     transit.StatusOnTime,
		lastUpdate: time.Now(),
	}
}

// Start re-rolls the location every interval until Stop or ctx is done.
func (d *Dashboard) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultLocationInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		cancel()
		return
	}
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	go func() {
		defer close(d.done)
		tick := time.NewTicker(interval)
		defer tick.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tick.C:
				d.roll()
			}
		}
	}()
}

func (d *Dashboard) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (d *Dashboard) roll() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.location = Locations[d.rng.IntN(len(Locations))]
	d.lastUpdate = d.now()
	return d.location
}

// UpdateLocation refreshes the simulated GPS location on demand.
func (d *Dashboard) UpdateLocation() string {
	loc := d.roll()
	d.notifier.Notify("Location updated", "GPS location has been refreshed")
	return loc
}

// SetLocation records a location typed in by the driver.
func (d *Dashboard) SetLocation(location string) error {
	location = strings.TrimSpace(location)
	if location == "" {
		return fmt.Errorf("location is required")
	}
	d.mu.Lock()
	d.location = location
	d.lastUpdate = d.now()
	d.mu.Unlock()
	d.notifier.Notify("Location updated", fmt.Sprintf("Current location set to %s", location))
	return nil
}

func (d *Dashboard) UpdateStatus(status transit.RouteStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %q", transit.ErrInvalidStatus, status)
	}
	d.mu.Lock()
	d.status = status
	d.lastUpdate = d.now()
	d.mu.Unlock()
	d.notifier.Notify("Status updated", fmt.Sprintf("Bus status updated to %s", status))
	return nil
}

func (d *Dashboard) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()
	return Snapshot{
		Driver:     d.driver,
		Location:   d.location,
		Status:     d.status,
		LastUpdate: d.lastUpdate,
	}
}
