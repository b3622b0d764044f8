package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Point layout for mirrored readings.
const (
	measurementTemperature = "temperature"
	tagTemperatureID       = "temperature_id"
	tagTopic               = "topic"
	fieldValueCelsius      = "value_c"
)

// WriteTemperature queues one acknowledged reading. The write is
// non-blocking; points go out in batches.
//
// Example:
//
//	client.WriteTemperature("temp-3f2a1", 22.5)
func (c *Client) WriteTemperature(temperatureID string, value float64) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(temperaturePoint(temperatureID, c.topic, value, time.Now()))
}

func temperaturePoint(temperatureID, topic string, value float64, at time.Time) *write.Point {
	tags := map[string]string{tagTemperatureID: temperatureID}
	if topic != "" {
		tags[tagTopic] = topic
	}
	return write.NewPoint(
		measurementTemperature,
		tags,
		map[string]interface{}{fieldValueCelsius: value},
		at,
	)
}
