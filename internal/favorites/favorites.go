package favorites

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"bus-tracker/internal/notify"
	"bus-tracker/internal/store"
	"bus-tracker/internal/transit"
)

// Key is the storage key holding the JSON array of favorite route IDs.
const Key = "bus-favorites"

// Favorites is an insertion-ordered set of route IDs persisted in a Store.
type Favorites struct {
	store    store.Store
	registry *transit.Registry
	notifier notify.Notifier

	mu sync.Mutex
}

func New(s store.Store, registry *transit.Registry, notifier notify.Notifier) *Favorites {
	if notifier == nil {
		notifier = notify.Discard
	}
	return &Favorites{store: s, registry: registry, notifier: notifier}
}

// List returns the stored IDs. Corrupt stored data reads as an empty list.
func (f *Favorites) List(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.load(ctx)
}

func (f *Favorites) load(ctx context.Context) ([]string, error) {
	raw, ok, err := f.store.Get(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("load favorites: %w", err)
	}
	if !ok {
		return []string{}, nil
	}
	var ids []string
	if err := json.Unmarshal([]byte(raw), &ids); err != nil {
		log.Warn().Err(err).Str("key", Key).Msg("ignoring malformed favorites")
		return []string{}, nil
	}
	// Enforce set semantics on data written by older or foreign clients.
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out, nil
}

func (f *Favorites) save(ctx context.Context, ids []string) error {
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}
	if err := f.store.Set(ctx, Key, string(b)); err != nil {
		return fmt.Errorf("save favorites: %w", err)
	}
	return nil
}

// Add appends routeID if it is not already a favorite.
func (f *Favorites) Add(ctx context.Context, routeID string) ([]string, error) {
	if _, ok := f.registry.Lookup(routeID); !ok {
		return nil, fmt.Errorf("%w: %q", transit.ErrRouteNotFound, routeID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	ids, err := f.load(ctx)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ids, routeID) {
		return ids, nil
	}
	ids = append(ids, routeID)
	return ids, f.save(ctx, ids)
}

// Remove drops routeID and notifies the user when it was a favorite.
func (f *Favorites) Remove(ctx context.Context, routeID string) ([]string, error) {
	f.mu.Lock()
	ids, err := f.load(ctx)
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	i := slices.Index(ids, routeID)
	if i < 0 {
		f.mu.Unlock()
		return ids, nil
	}
	ids = slices.Delete(ids, i, i+1)
	err = f.save(ctx, ids)
	f.mu.Unlock()
	if err != nil {
		return nil, err
	}

	f.notifier.Notify("Removed from favorites", "The route has been removed from your favorites.")
	return ids, nil
}

// Toggle flips membership of routeID and notifies the user. It reports
// whether the route is a favorite afterwards.
func (f *Favorites) Toggle(ctx context.Context, routeID string) (bool, error) {
	f.mu.Lock()
	ids, err := f.load(ctx)
	if err != nil {
		f.mu.Unlock()
		return false, err
	}
	i := slices.Index(ids, routeID)
	now := i < 0
	if now {
		if _, ok := f.registry.Lookup(routeID); !ok {
			f.mu.Unlock()
			return false, fmt.Errorf("%w: %q", transit.ErrRouteNotFound, routeID)
		}
		ids = append(ids, routeID)
	} else {
		ids = slices.Delete(ids, i, i+1)
	}
	err = f.save(ctx, ids)
	f.mu.Unlock()
	if err != nil {
		return !now, err
	}

	if now {
		f.notifier.Notify("Added to favorites", "The route has been added to your favorites.")
	} else {
		f.notifier.Notify("Removed from favorites", "The route has been removed from your favorites.")
	}
	return now, nil
}

func (f *Favorites) IsFavorite(ctx context.Context, routeID string) (bool, error) {
	ids, err := f.List(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, routeID), nil
}

// Routes resolves the favorites against the registry, in registry order.
// IDs no longer in the registry are skipped.
func (f *Favorites) Routes(ctx context.Context) ([]transit.BusRoute, error) {
	ids, err := f.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []transit.BusRoute
	for _, r := range f.registry.All() {
		if slices.Contains(ids, r.ID) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Clear drops every favorite.
func (f *Favorites) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.store.Remove(ctx, Key); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	f.notifier.Notify("All favorites cleared", "All favorite routes have been removed.")
	return nil
}
