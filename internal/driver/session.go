package driver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"bus-tracker/internal/store"
)

// SessionKey is the storage key of the logged-in driver record.
const SessionKey = "current-driver"

// Sessions persists the logged-in driver so a restart keeps the login.
type Sessions struct {
	store store.Store
}

func NewSessions(s store.Store) *Sessions {
	return &Sessions{store: s}
}

func (s *Sessions) Login(ctx context.Context, username, password string) (Driver, error) {
	d, err := Authenticate(username, password)
	if err != nil {
		return Driver{}, err
	}
	b, err := json.Marshal(d)
	if err != nil {
		return Driver{}, err
	}
	if err := s.store.Set(ctx, SessionKey, string(b)); err != nil {
		return Driver{}, fmt.Errorf("save driver session: %w", err)
	}
	log.Info().Str("driver", d.ID).Str("bus", d.BusNumber).Msg("driver logged in")
	return d, nil
}

// Current returns the logged-in driver, or nil. A corrupt record reads as
// logged out.
func (s *Sessions) Current(ctx context.Context) (*Driver, error) {
	raw, ok, err := s.store.Get(ctx, SessionKey)
	if err != nil {
		return nil, fmt.Errorf("load driver session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var d Driver
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		log.Warn().Err(err).Str("key", SessionKey).Msg("ignoring malformed driver session")
		return nil, nil
	}
	return &d, nil
}

func (s *Sessions) Logout(ctx context.Context) error {
	if err := s.store.Remove(ctx, SessionKey); err != nil {
		return fmt.Errorf("clear driver session: %w", err)
	}
	return nil
}
