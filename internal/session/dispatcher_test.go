package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/session-audit/internal/audit"
)

type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (r *recordingNotifier) Notify(_ context.Context, e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func openedEvent(id string) Event {
	return Event{Type: EventOpened, Session: audit.SessionLogEntry{ID: id, UserID: "usr-1"}, At: time.Now()}
}

func TestDispatcher_DeliversToAllNotifiers(t *testing.T) {
	a, b := &recordingNotifier{}, &recordingNotifier{}
	d := NewDispatcher(discardLogger(), a)
	d.Subscribe(b)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx)
		close(done)
	}()

	d.Publish(openedEvent("ses-1"))
	d.Publish(openedEvent("ses-2"))

	require.Eventually(t, func() bool { return a.count() == 2 && b.count() == 2 },
		time.Second, 10*time.Millisecond)

	cancel()
	<-done
	assert.Equal(t, "ses-1", a.events[0].Session.ID)
}

func TestDispatcher_DrainsOnShutdown(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(discardLogger(), n)

	for i := range 5 {
		d.Publish(openedEvent("ses-" + string(rune('a'+i))))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Equal(t, 5, n.count())
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(discardLogger(), n)

	for range eventChanSize + 10 {
		d.Publish(openedEvent("ses-x"))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Equal(t, eventChanSize, n.count())
}

func TestDispatcher_NotifierErrorDoesNotStopOthers(t *testing.T) {
	failing := &recordingNotifier{err: errors.New("broker down")}
	ok := &recordingNotifier{}
	d := NewDispatcher(discardLogger(), failing, ok)

	d.Publish(openedEvent("ses-1"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Run(ctx)

	assert.Equal(t, 1, failing.count())
	assert.Equal(t, 1, ok.count())
}

func TestNotifierFunc(t *testing.T) {
	var got EventType
	n := NotifierFunc(func(_ context.Context, e Event) error {
		got = e.Type
		return nil
	})

	require.NoError(t, n.Notify(context.Background(), Event{Type: EventClosed}))
	assert.Equal(t, EventClosed, got)
}
