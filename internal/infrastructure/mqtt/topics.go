package mqtt

import "strings"

// DefaultTopicPrefix is used when no prefix is configured.
const DefaultTopicPrefix = "sessionaudit"

// Topics builds the topic names this service publishes to.
//
//	topics := mqtt.NewTopics("acme/audit")
//	topics.SessionClosed() // "acme/audit/session/closed"
type Topics struct {
	prefix string
}

// NewTopics returns a builder rooted at prefix. Surrounding slashes are
// trimmed and an empty prefix falls back to DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the topic root.
func (t Topics) Prefix() string {
	if t.prefix == "" {
		return DefaultTopicPrefix
	}
	return t.prefix
}

// SessionOpened is published after a successful login.
func (t Topics) SessionOpened() string {
	return t.Prefix() + "/session/opened"
}

// SessionClosed is published after a logout closes a session.
func (t Topics) SessionClosed() string {
	return t.Prefix() + "/session/closed"
}

// SystemStatus carries the retained online/offline status and the Last Will.
func (t Topics) SystemStatus() string {
	return t.Prefix() + "/system/status"
}

// AllSessionEvents is a subscription filter for every session event.
func (t Topics) AllSessionEvents() string {
	return t.Prefix() + "/session/+"
}
