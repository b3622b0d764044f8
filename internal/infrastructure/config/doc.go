// Package config handles loading and validating temppub configuration.
//
// This package manages:
//   - Loading configuration from an optional YAML file
//   - Overriding with environment variables
//   - Validation of every section, reporting all problems at once
//   - Default value handling
//
// The broker, channel and payload schema sections are what the rest of
// the program trusts as pre-validated input: once Load or Validate has
// succeeded, the publisher never re-checks them.
//
// Security Considerations:
//   - Broker credentials and the InfluxDB token should be set via
//     environment variables rather than committed to the config file
//   - The config file should have restricted permissions (0600)
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.MQTT.Broker.Host)
package config
