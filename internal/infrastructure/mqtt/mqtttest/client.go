// Package mqtttest provides an in-memory paho client for tests that
// exercise the MQTT session without a broker.
//
// A Broker scripts the outcome of each connect and publish call and
// records what the session did:
//
//	broker := &mqtttest.Broker{
//	    OnConnect: func(n int) mqtttest.Outcome { return mqtttest.Fail },
//	}
//	session.SetClientFactory(broker.NewClient)
package mqtttest

import (
	"errors"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Outcome is the scripted result of one connect or publish call.
type Outcome int

const (
	// Succeed completes the token without error.
	Succeed Outcome = iota
	// Fail completes the token with an error.
	Fail
	// Hang never completes the token.
	Hang
)

// Errors carried by failed tokens.
var (
	ErrConnectRefused  = errors.New("mqtttest: connection refused")
	ErrPublishRejected = errors.New("mqtttest: publish rejected")
)

// Message is one publish the broker received.
type Message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

// Broker hands out fake clients and counts calls across all of them.
// Hooks receive the 1-indexed call number; a nil hook means Succeed.
type Broker struct {
	OnConnect func(n int) Outcome
	OnPublish func(n int) Outcome

	mu          sync.Mutex
	connects    int
	disconnects int
	publishes   int
	messages    []Message
	options     []*pahomqtt.ClientOptions
}

// NewClient matches pahomqtt.NewClient and can be passed to
// Session.SetClientFactory.
func (b *Broker) NewClient(opts *pahomqtt.ClientOptions) pahomqtt.Client {
	b.mu.Lock()
	b.options = append(b.options, opts)
	b.mu.Unlock()
	return &client{broker: b, opts: opts}
}

// Connects returns the number of Connect calls.
func (b *Broker) Connects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.connects
}

// Disconnects returns the number of Disconnect calls.
func (b *Broker) Disconnects() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.disconnects
}

// Publishes returns the number of Publish calls, acknowledged or not.
func (b *Broker) Publishes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.publishes
}

// Messages returns the acknowledged messages in arrival order.
func (b *Broker) Messages() []Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Options returns the client options of every client created so far.
func (b *Broker) Options() []*pahomqtt.ClientOptions {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*pahomqtt.ClientOptions, len(b.options))
	copy(out, b.options)
	return out
}

type client struct {
	broker *Broker
	opts   *pahomqtt.ClientOptions

	mu        sync.Mutex
	connected bool
}

func (c *client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *client) IsConnectionOpen() bool { return c.IsConnected() }

func (c *client) Connect() pahomqtt.Token {
	b := c.broker
	b.mu.Lock()
	b.connects++
	n := b.connects
	hook := b.OnConnect
	b.mu.Unlock()

	outcome := Succeed
	if hook != nil {
		outcome = hook(n)
	}

	switch outcome {
	case Fail:
		return completed(fmt.Errorf("%w (connect %d)", ErrConnectRefused, n))
	case Hang:
		return pending()
	}

	c.mu.Lock()
	c.connected = true
	c.mu.Unlock()
	if c.opts != nil && c.opts.OnConnect != nil {
		c.opts.OnConnect(c)
	}
	return completed(nil)
}

func (c *client) Disconnect(uint) {
	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.broker.mu.Lock()
	c.broker.disconnects++
	c.broker.mu.Unlock()
}

func (c *client) Publish(topic string, qos byte, retained bool, payload interface{}) pahomqtt.Token {
	b := c.broker
	b.mu.Lock()
	b.publishes++
	n := b.publishes
	hook := b.OnPublish
	b.mu.Unlock()

	if !c.IsConnected() {
		return completed(pahomqtt.ErrNotConnected)
	}

	outcome := Succeed
	if hook != nil {
		outcome = hook(n)
	}

	switch outcome {
	case Fail:
		return completed(fmt.Errorf("%w (publish %d)", ErrPublishRejected, n))
	case Hang:
		return pending()
	}

	msg := Message{Topic: topic, QoS: qos, Retained: retained, Payload: toBytes(payload)}
	b.mu.Lock()
	b.messages = append(b.messages, msg)
	b.mu.Unlock()
	return completed(nil)
}

func (c *client) Subscribe(string, byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return completed(errors.New("mqtttest: subscribe not supported"))
}

func (c *client) SubscribeMultiple(map[string]byte, pahomqtt.MessageHandler) pahomqtt.Token {
	return completed(errors.New("mqtttest: subscribe not supported"))
}

func (c *client) Unsubscribe(...string) pahomqtt.Token {
	return completed(nil)
}

func (c *client) AddRoute(string, pahomqtt.MessageHandler) {}

func (c *client) OptionsReader() pahomqtt.ClientOptionsReader {
	return pahomqtt.ClientOptionsReader{}
}

func toBytes(payload interface{}) []byte {
	switch p := payload.(type) {
	case []byte:
		return append([]byte(nil), p...)
	case string:
		return []byte(p)
	default:
		return []byte(fmt.Sprint(p))
	}
}

// token is a paho Token whose completion is decided up front.
type token struct {
	done chan struct{}
	err  error
}

func completed(err error) *token {
	t := &token{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func pending() *token {
	return &token{done: make(chan struct{})}
}

func (t *token) Wait() bool {
	<-t.done
	return true
}

func (t *token) WaitTimeout(d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-t.done:
		return true
	case <-timer.C:
		return false
	}
}

func (t *token) Done() <-chan struct{} { return t.done }

func (t *token) Error() error { return t.err }
