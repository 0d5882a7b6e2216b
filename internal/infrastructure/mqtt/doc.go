// Package mqtt publishes Inkwell domain events to an MQTT broker.
//
// Every successful write (blog created, comment deleted, user registered)
// is announced on inkwell/events/{entity}/{action} so other services can
// react without polling the API. The connection is optional: when MQTT is
// disabled or the broker is down, publishing fails fast with ErrNotConnected
// and the API carries on.
//
// # Connection
//
//   - Auto-reconnect with exponential backoff between the configured delays
//   - Last Will on inkwell/system/status so subscribers notice a crash
//   - TLS 1.2+ when cfg.Broker.TLS is set
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	topic := mqtt.Topics{}.Event("blog", "create")
//	err = client.PublishJSON(topic, event)
package mqtt
