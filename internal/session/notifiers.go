package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// MessagePublisher is the broker client the MQTT notifier writes through.
type MessagePublisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// Topics names the broker topics for each event type.
type Topics struct {
	Opened string
	Closed string
}

// MQTTNotifier publishes session events as JSON to a message broker.
type MQTTNotifier struct {
	pub    MessagePublisher
	topics Topics
	qos    byte
}

// NewMQTTNotifier creates a notifier publishing through pub.
func NewMQTTNotifier(pub MessagePublisher, topics Topics, qos byte) *MQTTNotifier {
	return &MQTTNotifier{pub: pub, topics: topics, qos: qos}
}

// Notify publishes e to the topic for its type. Events are not retained.
func (n *MQTTNotifier) Notify(_ context.Context, e Event) error {
	var topic string
	switch e.Type {
	case EventOpened:
		topic = n.topics.Opened
	case EventClosed:
		topic = n.topics.Closed
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	payload, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshalling session event: %w", err)
	}
	if err := n.pub.Publish(topic, payload, n.qos, false); err != nil {
		return fmt.Errorf("publishing %s: %w", e.Type, err)
	}
	return nil
}

// MetricsWriter records session events in a time-series store.
type MetricsWriter interface {
	WriteSessionEvent(event, userID string, duration time.Duration, at time.Time)
}

// MetricsNotifier turns session events into time-series points.
type MetricsNotifier struct {
	w MetricsWriter
}

// NewMetricsNotifier creates a notifier writing through w.
func NewMetricsNotifier(w MetricsWriter) *MetricsNotifier {
	return &MetricsNotifier{w: w}
}

// Notify writes one point per event. Closed events carry the session duration.
func (n *MetricsNotifier) Notify(_ context.Context, e Event) error {
	var event string
	switch e.Type {
	case EventOpened:
		event = "opened"
	case EventClosed:
		event = "closed"
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}

	at := e.Session.LoginTime
	if e.Session.LogoutTime != nil {
		at = *e.Session.LogoutTime
	}
	n.w.WriteSessionEvent(event, e.Session.UserID, e.Session.Duration(), at)
	return nil
}
