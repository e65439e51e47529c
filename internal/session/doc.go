// Package session correlates logins and logouts with session log entries.
//
// A successful Authenticate is followed by OpenSession, which appends an
// open entry. CloseMostRecentOpenSession closes the user's newest open
// entry exactly once, retrying when a concurrent logout wins the race.
//
// Lifecycle changes are published as Events through a Dispatcher, which
// fans them out to Notifiers: the live audit stream, an MQTT broker and
// InfluxDB. Delivery is best-effort and never blocks a request.
package session
