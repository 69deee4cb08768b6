// Package notify delivers short user-facing messages. Delivery is
// fire-and-forget: implementations report failures through the log only.
package notify

import (
	"github.com/rs/zerolog"
)

type Notifier interface {
	Notify(title, description string)
}

// Func adapts a plain function to Notifier.
type Func func(title, description string)

func (f Func) Notify(title, description string) { f(title, description) }

// Log writes notifications to a zerolog logger.
type Log struct {
	Logger zerolog.Logger
}

func (l Log) Notify(title, description string) {
	l.Logger.Info().Str("title", title).Str("description", description).Msg("notification")
}

// Multi fans a notification out to every non-nil notifier.
type Multi []Notifier

func (m Multi) Notify(title, description string) {
	for _, n := range m {
		if n != nil {
			n.Notify(title, description)
		}
	}
}

// Discard drops every notification.
var Discard Notifier = Func(func(string, string) {})
