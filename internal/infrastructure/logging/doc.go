// Package logging provides structured logging for temppub.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire application.
//
// # Features
//
//   - JSON output (machine-parsable) or text output (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Optional rotating log file written alongside the console
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//	  file:
//	    path: "./logs/temppub.log"
//	    max_size: 10     # megabytes before rotation
//	    max_backups: 3
//	    max_age: 28      # days
//	    compress: false
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	defer logger.Close()
//	logger.Info("publishing reading", "value", 22.5)
package logging
