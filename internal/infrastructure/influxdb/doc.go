// Package influxdb mirrors acknowledged temperature readings into
// InfluxDB v2 as "temperature" points (tags temperature_id and topic,
// field value_c).
//
// The mirror is optional and best effort: writes are batched by the
// influxdb-client-go write API, and failures are reported through the
// SetOnError callback instead of affecting publishing.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.Channel.Topic)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteTemperature("temp-3f2a1", 22.5)
package influxdb
