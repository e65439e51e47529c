package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// sessionMeasurement is the measurement session lifecycle points go to.
const sessionMeasurement = "session_events"

// WriteSessionEvent records one session lifecycle event.
//
// Tags are event ("opened" or "closed") and user_id. Fields are count
// (always 1, for rate queries) and duration_s, the session length in
// seconds for closed sessions.
//
// The write is non-blocking; points are batched and sent asynchronously.
func (c *Client) WriteSessionEvent(event, userID string, duration time.Duration, at time.Time) {
	fields := map[string]interface{}{
		"count": 1,
	}
	if event == "closed" {
		fields["duration_s"] = duration.Seconds()
	}

	c.WritePointWithTime(sessionMeasurement,
		map[string]string{
			"event":   event,
			"user_id": userID,
		},
		fields,
		at,
	)
}

// WritePointWithTime writes a point with an explicit timestamp.
// Dropped silently when the client is not connected.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, timestamp)
	c.writeAPI.WritePoint(point)
}
