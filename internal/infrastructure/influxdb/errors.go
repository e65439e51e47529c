package influxdb

import "errors"

// Sentinel errors for InfluxDB operations. Write failures are not
// returned; they arrive through the SetOnError callback.
var (
	// ErrNotConnected indicates the client was closed or never connected.
	ErrNotConnected = errors.New("influxdb: not connected")

	// ErrConnectionFailed indicates the startup ping failed.
	ErrConnectionFailed = errors.New("influxdb: connection failed")

	// ErrDisabled indicates session metrics are turned off in config.
	ErrDisabled = errors.New("influxdb: disabled in configuration")
)
