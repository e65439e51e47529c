// Package influxdb writes session metrics to InfluxDB.
//
// It wraps the official influxdb-client-go v2 library with connection
// management, health checks and batched non-blocking writes.
//
// Every session open and close becomes a point in the session_events
// measurement, tagged by event and user_id, so login rates and session
// lengths can be charted without touching the SQLite store.
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics off
//	}
//	defer client.Close()
//
//	client.WriteSessionEvent("closed", "usr-1a2b3c4d", 45*time.Minute, time.Now())
//
// Write errors arrive asynchronously through SetOnError. Connection and
// health check errors are returned directly.
package influxdb
