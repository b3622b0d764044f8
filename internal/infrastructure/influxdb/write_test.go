package influxdb

import (
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

func TestTemperaturePoint(t *testing.T) {
	at := time.Unix(1760788800, 0)

	tests := []struct {
		name  string
		topic string
		want  string
	}{
		{
			name:  "with topic",
			topic: "temperature/changed",
			want:  "temperature,temperature_id=temp-abcde,topic=temperature/changed value_c=22.5 1760788800000000000\n",
		},
		{
			name: "without topic",
			want: "temperature,temperature_id=temp-abcde value_c=22.5 1760788800000000000\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := temperaturePoint("temp-abcde", tt.topic, 22.5, at)
			if got := write.PointToLineProtocol(p, time.Nanosecond); got != tt.want {
				t.Errorf("line protocol = %q, want %q", got, tt.want)
			}
		})
	}
}
