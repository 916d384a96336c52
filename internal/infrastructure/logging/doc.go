// Package logging provides structured logging for onaird.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the entire daemon.
//
// # Features
//
//   - Text output for interactive use and launchd log files (human-readable)
//   - JSON output for machine parsing
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
// Logging is configured via the LoggingConfig in config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("light turned on", "trigger", "camera")
//	logger.Error("shortcut failed", "error", err)
package logging
