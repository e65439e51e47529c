package session

import (
	"context"
	"time"

	"github.com/nerrad567/session-audit/internal/audit"
)

// EventType names a session lifecycle change.
type EventType string

// Session lifecycle events.
const (
	EventOpened EventType = "session.opened"
	EventClosed EventType = "session.closed"
)

// Event is published after a session entry is opened or closed.
type Event struct {
	Type    EventType             `json:"type"`
	Session audit.SessionLogEntry `json:"session"`
	At      time.Time             `json:"at"`
}

// Notifier delivers session events to one destination (live audit
// stream, message broker, metrics store).
type Notifier interface {
	Notify(ctx context.Context, e Event) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, e Event) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, e Event) error {
	return f(ctx, e)
}
