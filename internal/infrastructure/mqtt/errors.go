package mqtt

import "errors"

// Domain-specific errors for MQTT operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrNotConnected is returned when publishing without an established connection.
	ErrNotConnected = errors.New("mqtt: client not connected")

	// ErrConnectionFailed is returned when the broker refuses or drops the connect.
	ErrConnectionFailed = errors.New("mqtt: connection failed")

	// ErrPublishFailed is returned when a publish is not acknowledged.
	ErrPublishFailed = errors.New("mqtt: publish failed")

	// ErrTimeout is returned when an outcome does not arrive in time.
	ErrTimeout = errors.New("mqtt: operation timed out")

	// ErrInvalidState is returned when an operation is requested out of lifecycle order.
	ErrInvalidState = errors.New("mqtt: invalid session state")

	// ErrInvalidTopic is returned when an empty or wildcard topic is configured.
	ErrInvalidTopic = errors.New("mqtt: invalid topic")

	// ErrInvalidConfig is returned when the broker settings cannot be used.
	ErrInvalidConfig = errors.New("mqtt: invalid configuration")
)
