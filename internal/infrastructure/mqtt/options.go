package mqtt

import (
	"crypto/tls"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/nerrad567/temppub/internal/infrastructure/config"
)

// Connection constants.
const (
	// defaultConnectTimeout bounds the network dial when config leaves it unset.
	defaultConnectTimeout = 10 * time.Second

	// defaultKeepAlive is the keepalive interval for the connection.
	defaultKeepAlive = 60 * time.Second

	// disconnectQuiesce is the time paho may spend flushing work on disconnect.
	disconnectQuiesce = 250 // milliseconds

	// qosAtLeastOnce is the delivery guarantee for every reading.
	qosAtLeastOnce byte = 1

	// maxPayloadSize caps a single message (1MB).
	maxPayloadSize = 1 << 20

	// tlsMinVersion is the minimum TLS version for secure connections.
	tlsMinVersion = tls.VersionTLS12

	clientIDPrefix = "temppub-"
)

// buildClientOptions creates paho MQTT options for one session connection.
//
// This configures:
//   - Broker URL (scheme resolved from the configured protocol)
//   - Client ID for identification
//   - Authentication credentials (if provided)
//   - Clean session, no auto-reconnect, no connect retry
//   - Keepalive and dial timeout
//   - TLS configuration for secure schemes
func buildClientOptions(cfg config.MQTTConfig, clientID string) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()

	brokerURL := cfg.BrokerURL()
	opts.AddBroker(brokerURL)
	opts.SetClientID(clientID)

	if cfg.Auth.Username != "" {
		opts.SetUsername(cfg.Auth.Username)
		opts.SetPassword(cfg.Auth.Password)
	}

	opts.SetCleanSession(true)

	// One publish per connection: retries belong to the caller, not paho.
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)

	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	opts.SetConnectTimeout(connectTimeout)

	keepAlive := cfg.KeepAlive
	if keepAlive <= 0 {
		keepAlive = defaultKeepAlive
	}
	opts.SetKeepAlive(keepAlive)

	if strings.HasPrefix(brokerURL, "ssl://") || strings.HasPrefix(brokerURL, "wss://") {
		opts.SetTLSConfig(&tls.Config{
			MinVersion: tlsMinVersion,
		})
	}

	return opts
}

// newClientID returns the configured client ID or a random one.
func newClientID(cfg config.MQTTConfig) string {
	if cfg.Broker.ClientID != "" {
		return cfg.Broker.ClientID
	}
	return clientIDPrefix + uuid.NewString()[:8]
}
