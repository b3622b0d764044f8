package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation failure so callers can
// tell configuration problems apart from I/O errors.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Default values shared with the rest of the program.
const (
	DefaultBrokerHost      = "test.mosquitto.org"
	DefaultBrokerPort      = 1883
	DefaultBrokerProtocol  = "tcp"
	DefaultTopic           = "temperature/changed"
	DefaultIDPattern       = `^temp-[a-zA-Z0-9]{5}$`
	DefaultMaxAttempts     = 3
	DefaultKeepAlive       = 60 * time.Second
	DefaultConnectTimeout  = 5 * time.Second
	DefaultAckTimeout      = 5 * time.Second
	DefaultRetryDelay      = 500 * time.Millisecond
	DefaultSimInterval     = 5 * time.Second
	DefaultSimMinValue     = 18.0
	DefaultSimMaxValue     = 28.0
	DefaultFieldID         = "temperatureId"
	DefaultFieldValue      = "value"
	defaultDatabasePath    = "./data/temppub.db"
	defaultDatabaseTimeout = 5
)

// validProtocols lists the broker URL schemes understood by the transport.
var validProtocols = map[string]struct{}{
	"tcp":   {},
	"mqtt":  {},
	"ssl":   {},
	"tls":   {},
	"mqtts": {},
	"ws":    {},
	"wss":   {},
}

// Config is the root configuration structure for temppub.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	MQTT       MQTTConfig       `yaml:"mqtt"`
	Channel    ChannelConfig    `yaml:"channel"`
	Schema     SchemaConfig     `yaml:"schema"`
	Publish    PublishConfig    `yaml:"publish"`
	Simulation SimulationConfig `yaml:"simulation"`
	Database   DatabaseConfig   `yaml:"database"`
	InfluxDB   InfluxDBConfig   `yaml:"influxdb"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker         MQTTBrokerConfig `yaml:"broker"`
	Auth           MQTTAuthConfig   `yaml:"auth"`
	KeepAlive      time.Duration    `yaml:"keep_alive"`
	ConnectTimeout time.Duration    `yaml:"connect_timeout"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Protocol string `yaml:"protocol"`
	// ClientID is generated per session when empty.
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// ChannelConfig names the single channel readings are published to.
type ChannelConfig struct {
	Topic string `yaml:"topic"`
}

// SchemaConfig carries the payload constraints taken from the message schema.
type SchemaConfig struct {
	IDPattern string   `yaml:"id_pattern"`
	Required  []string `yaml:"required"`
}

// PublishConfig controls the bounded retry around a single publish.
type PublishConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
	AckTimeout     time.Duration `yaml:"ack_timeout"`
	RetryDelay     time.Duration `yaml:"retry_delay"`
}

// SimulationConfig controls the synthetic reading loop.
type SimulationConfig struct {
	Interval time.Duration `yaml:"interval"`
	MinValue float64       `yaml:"min_value"`
	MaxValue float64       `yaml:"max_value"`
}

// DatabaseConfig contains SQLite settings for the publish journal.
type DatabaseConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Logging to a file is enabled when Path is non-empty.
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (skipped when path is empty)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: TEMPPUB_SECTION_KEY
// For example: TEMPPUB_MQTT_HOST, TEMPPUB_DATABASE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file, or "" for defaults only
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     DefaultBrokerHost,
				Port:     DefaultBrokerPort,
				Protocol: DefaultBrokerProtocol,
			},
			KeepAlive:      DefaultKeepAlive,
			ConnectTimeout: DefaultConnectTimeout,
		},
		Channel: ChannelConfig{
			Topic: DefaultTopic,
		},
		Schema: SchemaConfig{
			IDPattern: DefaultIDPattern,
			Required:  []string{DefaultFieldID, DefaultFieldValue},
		},
		Publish: PublishConfig{
			MaxAttempts:    DefaultMaxAttempts,
			ConnectTimeout: DefaultConnectTimeout,
			AckTimeout:     DefaultAckTimeout,
			RetryDelay:     DefaultRetryDelay,
		},
		Simulation: SimulationConfig{
			Interval: DefaultSimInterval,
			MinValue: DefaultSimMinValue,
			MaxValue: DefaultSimMaxValue,
		},
		Database: DatabaseConfig{
			Path:        defaultDatabasePath,
			WALMode:     true,
			BusyTimeout: defaultDatabaseTimeout,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
			File: FileLoggingConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: TEMPPUB_SECTION_KEY
func applyEnvOverrides(cfg *Config) error {
	// MQTT
	if v := os.Getenv("TEMPPUB_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("TEMPPUB_MQTT_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: TEMPPUB_MQTT_PORT=%q is not a number", ErrInvalidConfig, v)
		}
		cfg.MQTT.Broker.Port = port
	}
	if v := os.Getenv("TEMPPUB_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("TEMPPUB_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// Journal
	if v := os.Getenv("TEMPPUB_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// InfluxDB
	if v := os.Getenv("TEMPPUB_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	return nil
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Wraps ErrInvalidConfig and lists every problem found, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	// Broker
	if strings.TrimSpace(c.MQTT.Broker.Host) == "" {
		errs = append(errs, "mqtt.broker.host is required")
	}
	if c.MQTT.Broker.Port < 1 || c.MQTT.Broker.Port > 65535 {
		errs = append(errs, "mqtt.broker.port must be between 1 and 65535")
	}
	if _, ok := validProtocols[strings.ToLower(c.MQTT.Broker.Protocol)]; !ok {
		errs = append(errs, fmt.Sprintf("mqtt.broker.protocol %q is not supported", c.MQTT.Broker.Protocol))
	}
	if c.MQTT.KeepAlive <= 0 {
		errs = append(errs, "mqtt.keep_alive must be positive")
	}
	if c.MQTT.ConnectTimeout <= 0 {
		errs = append(errs, "mqtt.connect_timeout must be positive")
	}

	// Channel
	switch {
	case c.Channel.Topic == "":
		errs = append(errs, "channel.topic is required")
	case strings.ContainsAny(c.Channel.Topic, "+#"):
		errs = append(errs, "channel.topic must not contain wildcards")
	}

	// Schema
	if c.Schema.IDPattern == "" {
		errs = append(errs, "schema.id_pattern is required")
	} else if _, err := regexp.Compile(c.Schema.IDPattern); err != nil {
		errs = append(errs, fmt.Sprintf("schema.id_pattern does not compile: %v", err))
	}
	for _, field := range c.Schema.Required {
		if strings.TrimSpace(field) == "" {
			errs = append(errs, "schema.required must not contain empty field names")
			break
		}
	}

	// Publish
	if c.Publish.MaxAttempts < 1 {
		errs = append(errs, "publish.max_attempts must be at least 1")
	}
	if c.Publish.ConnectTimeout <= 0 {
		errs = append(errs, "publish.connect_timeout must be positive")
	}
	if c.Publish.AckTimeout <= 0 {
		errs = append(errs, "publish.ack_timeout must be positive")
	}
	if c.Publish.RetryDelay < 0 {
		errs = append(errs, "publish.retry_delay must not be negative")
	}

	// Simulation
	if c.Simulation.Interval < 0 {
		errs = append(errs, "simulation.interval must not be negative")
	}
	if c.Simulation.MinValue > c.Simulation.MaxValue {
		errs = append(errs, "simulation.min_value must not exceed simulation.max_value")
	}

	// Journal
	if c.Database.Enabled && c.Database.Path == "" {
		errs = append(errs, "database.path is required when the journal is enabled")
	}

	// InfluxDB
	if c.InfluxDB.Enabled {
		if c.InfluxDB.URL == "" {
			errs = append(errs, "influxdb.url is required when influxdb is enabled")
		}
		if c.InfluxDB.Bucket == "" {
			errs = append(errs, "influxdb.bucket is required when influxdb is enabled")
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(errs, "; "))
	}

	return nil
}

// BrokerURL returns the broker address in the form the transport expects,
// e.g. "tcp://test.mosquitto.org:1883".
func (c MQTTConfig) BrokerURL() string {
	scheme := strings.ToLower(c.Broker.Protocol)
	switch scheme {
	case "", "mqtt":
		scheme = "tcp"
	case "mqtts", "tls":
		scheme = "ssl"
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Broker.Host, c.Broker.Port)
}
