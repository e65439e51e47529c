package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher defaults.
const (
	// eventChanSize is the buffer size for pending events. Events beyond
	// this are dropped so a slow notifier never back-pressures a request.
	eventChanSize = 256

	// notifyTimeout bounds a single notifier call.
	notifyTimeout = 5 * time.Second
)

// Dispatcher fans session events out to notifiers on a single goroutine.
//
// Publish never blocks. Run drains the queue until its context is
// cancelled, then delivers whatever is still queued before returning.
type Dispatcher struct {
	ch     chan Event
	logger *slog.Logger

	mu        sync.RWMutex
	notifiers []Notifier
}

// NewDispatcher creates a dispatcher delivering to notifiers.
func NewDispatcher(logger *slog.Logger, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		ch:        make(chan Event, eventChanSize),
		logger:    logger,
		notifiers: notifiers,
	}
}

// Subscribe adds a notifier. Safe to call while Run is active.
func (d *Dispatcher) Subscribe(n Notifier) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notifiers = append(d.notifiers, n)
}

// Publish enqueues e for delivery. If the queue is full the event is
// dropped and a warning is logged.
func (d *Dispatcher) Publish(e Event) {
	select {
	case d.ch <- e:
	default:
		d.logger.Warn("session event queue full, dropping event",
			"event", string(e.Type),
			"session_id", e.Session.ID,
		)
	}
}

// Run delivers queued events until ctx is cancelled, then drains the
// remaining events and returns.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case e := <-d.ch:
			d.deliver(e)
		case <-ctx.Done():
			for {
				select {
				case e := <-d.ch:
					d.deliver(e)
				default:
					return
				}
			}
		}
	}
}

func (d *Dispatcher) deliver(e Event) {
	d.mu.RLock()
	notifiers := d.notifiers
	d.mu.RUnlock()

	for _, n := range notifiers {
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		if err := n.Notify(ctx, e); err != nil {
			d.logger.Error("session event delivery failed",
				"event", string(e.Type),
				"session_id", e.Session.ID,
				"error", err,
			)
		}
		cancel()
	}
}
