package mqtt

import (
	"fmt"
	"strings"
)

// TopicTemperatureChanged is the channel temperature readings are published to.
const TopicTemperatureChanged = "temperature/changed"

// ValidateTopic checks that topic can be published to: it must be
// non-empty and free of the + and # subscription wildcards.
func ValidateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic cannot be empty", ErrInvalidTopic)
	}
	if strings.ContainsAny(topic, "+#") {
		return fmt.Errorf("%w: %q contains a wildcard", ErrInvalidTopic, topic)
	}
	return nil
}
