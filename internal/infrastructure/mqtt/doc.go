// Package mqtt provides the single-shot MQTT connection session used to
// publish temperature readings.
//
// A Session owns one broker connection at a time and walks it through a
// fixed lifecycle:
//
//	Idle → Connecting → Connected → Publishing → Disconnected
//
// Each attempt connects, publishes exactly one message at QoS 1 and
// disconnects again. Reset returns the session to Idle from any state,
// forcing a disconnect when needed, and is the exit path of every attempt.
//
// # Concurrency
//
// paho delivers connect and publish outcomes asynchronously. A watcher
// goroutine per in-flight token records the outcome under the session
// mutex and pushes it onto a single-slot channel; AwaitConnected and
// AwaitPublished block on that channel with a timeout. Nothing polls.
//
// A Session serves one caller at a time. Accessors (State, Connected,
// Published) are safe to call from any goroutine.
//
// # Usage
//
//	session, err := mqtt.NewSession(cfg.MQTT, cfg.Channel.Topic)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Reset()
//
//	if err := session.Connect(); err != nil { ... }
//	if err := session.AwaitConnected(ctx, 5*time.Second); err != nil { ... }
//	if err := session.Publish(body); err != nil { ... }
//	err = session.AwaitPublished(ctx, 5*time.Second)
//
// # Security Considerations
//
//   - TLS is negotiated by paho when the broker protocol is ssl/tls/mqtts/wss
//   - Credentials come from config and are never logged
package mqtt
