// Package mqtt publishes session lifecycle events to an MQTT broker.
//
// The client connects with auto-reconnect, keeps a retained status message
// on {prefix}/system/status (backed by a Last Will so a crash reads as
// offline) and publishes session events under {prefix}/session/.
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Publish(client.Topics().SessionOpened(), payload, 1, false)
//
// Use TLS (cfg.Broker.TLS) whenever the broker is not on localhost.
package mqtt
