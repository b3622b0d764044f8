package mqtt

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
)

// ClientFactory builds the paho client for one connection.
// Tests replace it with an in-memory client (see package mqtttest).
type ClientFactory func(opts *pahomqtt.ClientOptions) pahomqtt.Client

// Session manages one broker connection at a time for a single topic.
//
// Host, port and topic are fixed at construction. The connected and
// published flags belong to the current attempt and are cleared by Reset.
//
// Thread Safety:
//   - Lifecycle methods (Connect, Publish, Await*, Reset) expect one caller.
//   - State, Connected and Published are safe from any goroutine.
type Session struct {
	cfg       config.MQTTConfig
	topic     string
	clientID  string
	newClient ClientFactory

	mu        sync.Mutex
	state     State
	connected bool
	published bool
	client    pahomqtt.Client

	// stop is closed by Reset to release watcher goroutines of the attempt.
	stop      chan struct{}
	connectCh chan error
	publishCh chan error
	wg        sync.WaitGroup

	logger   Logger
	loggerMu sync.RWMutex
}

// NewSession validates the broker settings and topic and returns an idle
// session. No network activity happens until Connect.
//
// Parameters:
//   - cfg: MQTT configuration (broker, auth, keepalive)
//   - topic: The topic every publish goes to
//
// Returns:
//   - *Session: Idle session ready for Connect
//   - error: Wrapping ErrInvalidConfig or ErrInvalidTopic
func NewSession(cfg config.MQTTConfig, topic string) (*Session, error) {
	if strings.TrimSpace(cfg.Broker.Host) == "" {
		return nil, fmt.Errorf("%w: broker host is required", ErrInvalidConfig)
	}
	if cfg.Broker.Port < 1 || cfg.Broker.Port > 65535 {
		return nil, fmt.Errorf("%w: broker port %d out of range", ErrInvalidConfig, cfg.Broker.Port)
	}
	if err := ValidateTopic(topic); err != nil {
		return nil, err
	}

	return &Session{
		cfg:       cfg,
		topic:     topic,
		clientID:  newClientID(cfg),
		newClient: pahomqtt.NewClient,
		state:     StateIdle,
		stop:      make(chan struct{}),
		connectCh: make(chan error, 1),
		publishCh: make(chan error, 1),
		logger:    discardLogger,
	}, nil
}

// SetClientFactory replaces the function that builds paho clients.
// It must be called while the session is idle.
func (s *Session) SetClientFactory(factory ClientFactory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.newClient = factory
}

// SetLogger sets the logger for transport events.
func (s *Session) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	defer s.loggerMu.Unlock()
	if logger == nil {
		logger = discardLogger
	}
	s.logger = logger
}

func (s *Session) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// Topic returns the topic readings are published to.
func (s *Session) Topic() string {
	return s.topic
}

// BrokerURL returns the broker address the session connects to.
func (s *Session) BrokerURL() string {
	return s.cfg.BrokerURL()
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Connected reports whether the current attempt holds a confirmed connection.
func (s *Session) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

// Published reports whether the current attempt's message was acknowledged.
func (s *Session) Published() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.published
}

// Connect starts connecting to the broker (Idle → Connecting).
//
// It returns as soon as paho has started; the outcome arrives through
// AwaitConnected. A failed connect moves the session to Disconnected and
// disconnects the client.
func (s *Session) Connect() error {
	s.mu.Lock()
	if s.state != StateIdle {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: connect requested while %s", ErrInvalidState, state)
	}

	opts := buildClientOptions(s.cfg, s.clientID)
	opts.SetOnConnectHandler(s.handleConnect)
	opts.SetConnectionLostHandler(s.handleConnectionLost)

	client := s.newClient(opts)
	s.client = client
	s.state = StateConnecting
	stop, out := s.stop, s.connectCh
	s.mu.Unlock()

	s.getLogger().Debug("MQTT connecting",
		"broker", s.cfg.BrokerURL(),
		"client_id", s.clientID,
	)

	s.watch(client.Connect(), stop, out, s.settleConnect)
	return nil
}

// AwaitConnected blocks until the connect outcome arrives, the timeout
// elapses, or ctx is cancelled.
//
// Returns:
//   - nil once connected
//   - ErrConnectionFailed (wrapping paho's error) if the broker refused
//   - ErrTimeout if no outcome arrived in time
//   - ctx.Err() on cancellation
func (s *Session) AwaitConnected(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	state, connected, out := s.state, s.connected, s.connectCh
	s.mu.Unlock()

	if connected {
		return nil
	}
	if state == StateIdle {
		return fmt.Errorf("%w: no connect in progress", ErrInvalidState)
	}

	err, ok := await(ctx, out, timeout)
	switch {
	case !ok && err == nil:
		return fmt.Errorf("%w: no connection after %v", ErrTimeout, timeout)
	case !ok:
		return err
	case err != nil:
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return nil
}

// Publish sends payload to the session topic at QoS 1 (Connected → Publishing).
//
// It returns once paho has queued the message; the acknowledgement
// arrives through AwaitPublished. Whatever the outcome, the session
// disconnects afterwards: one publish per connection.
func (s *Session) Publish(payload []byte) error {
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}

	s.mu.Lock()
	if s.state != StateConnected || !s.connected {
		state := s.state
		s.mu.Unlock()
		return fmt.Errorf("%w: publish requested while %s", ErrNotConnected, state)
	}
	s.state = StatePublishing
	client, stop, out := s.client, s.stop, s.publishCh
	s.mu.Unlock()

	s.getLogger().Debug("MQTT publishing",
		"topic", s.topic,
		"qos", qosAtLeastOnce,
		"bytes", len(payload),
	)

	s.watch(client.Publish(s.topic, qosAtLeastOnce, false, payload), stop, out, s.settlePublish)
	return nil
}

// AwaitPublished blocks until the publish acknowledgement arrives, the
// timeout elapses, or ctx is cancelled.
//
// Returns:
//   - nil once the broker acknowledged the message
//   - ErrPublishFailed (wrapping paho's error) if the publish failed
//   - ErrTimeout if no acknowledgement arrived in time
//   - ctx.Err() on cancellation
func (s *Session) AwaitPublished(ctx context.Context, timeout time.Duration) error {
	s.mu.Lock()
	state, published, out := s.state, s.published, s.publishCh
	s.mu.Unlock()

	if published {
		return nil
	}
	if state != StatePublishing && state != StateDisconnected {
		return fmt.Errorf("%w: no publish in progress (%s)", ErrInvalidState, state)
	}

	err, ok := await(ctx, out, timeout)
	switch {
	case !ok && err == nil:
		return fmt.Errorf("%w: no acknowledgement after %v", ErrTimeout, timeout)
	case !ok:
		return err
	case err != nil:
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Reset returns the session to Idle from any state.
//
// It releases the watcher goroutines of the current attempt, disconnects
// the client if it is connected or still connecting, and clears both
// flags. Reset is idempotent and is the exit path of every attempt.
func (s *Session) Reset() {
	s.mu.Lock()
	stop := s.stop
	s.stop = make(chan struct{})
	s.mu.Unlock()

	close(stop)
	s.wg.Wait()

	s.mu.Lock()
	client := s.client
	live := s.connected || s.state == StateConnecting || s.state == StatePublishing
	prev := s.state
	s.client = nil
	s.connected = false
	s.published = false
	s.state = StateIdle
	s.connectCh = make(chan error, 1)
	s.publishCh = make(chan error, 1)
	s.mu.Unlock()

	if client != nil && live {
		client.Disconnect(disconnectQuiesce)
		s.getLogger().Debug("MQTT session reset with forced disconnect", "from_state", prev.String())
	}
}

// watch waits in the background for token to complete, records the
// outcome through settle and hands it to out. It gives up silently when
// the attempt is reset first.
func (s *Session) watch(token pahomqtt.Token, stop <-chan struct{}, out chan<- error, settle func(error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		select {
		case <-token.Done():
		case <-stop:
			return
		}

		err := token.Error()
		settle(err)
		out <- err
	}()
}

// settleConnect applies a connect outcome to the session state.
func (s *Session) settleConnect(err error) {
	s.mu.Lock()
	if err == nil {
		s.connected = true
		s.state = StateConnected
		s.mu.Unlock()
		return
	}

	client := s.client
	s.state = StateDisconnected
	s.mu.Unlock()

	s.getLogger().Warn("MQTT connect failed",
		"broker", s.cfg.BrokerURL(),
		"error", err,
	)
	if client != nil {
		client.Disconnect(disconnectQuiesce)
	}
}

// settlePublish applies a publish outcome and disconnects unconditionally.
func (s *Session) settlePublish(err error) {
	s.mu.Lock()
	if err == nil && s.connected {
		s.published = true
	}
	published := s.published
	client := s.client
	s.connected = false
	s.state = StateDisconnected
	s.mu.Unlock()

	logger := s.getLogger()
	if published {
		logger.Debug("MQTT publish acknowledged", "topic", s.topic)
	} else {
		logger.Warn("MQTT publish failed", "topic", s.topic, "error", err)
	}

	if client != nil {
		client.Disconnect(disconnectQuiesce)
	}
	logger.Debug("MQTT disconnected", "broker", s.cfg.BrokerURL())
}

// handleConnect is paho's OnConnect callback.
func (s *Session) handleConnect(_ pahomqtt.Client) {
	s.getLogger().Info("MQTT connected",
		"broker", s.cfg.BrokerURL(),
		"client_id", s.clientID,
	)
}

// handleConnectionLost is paho's ConnectionLost callback.
func (s *Session) handleConnectionLost(_ pahomqtt.Client, err error) {
	s.mu.Lock()
	s.connected = false
	if s.state == StateConnected || s.state == StatePublishing {
		s.state = StateDisconnected
	}
	s.mu.Unlock()

	s.getLogger().Warn("MQTT connection lost", "error", err)
}

// await waits for one outcome on out. ok is false when the timeout
// elapsed (err nil) or ctx was cancelled (err is ctx.Err()).
func await(ctx context.Context, out <-chan error, timeout time.Duration) (err error, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-out:
		return err, true
	case <-timer.C:
		return nil, false
	case <-ctx.Done():
		return ctx.Err(), false
	}
}
