// Package logging provides structured logging for Inkwell Core.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for production, text for development
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// Configuration lives in the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log tokens, passwords or keys. Use Redact for a loggable prefix:
//
//	logger.Warn("refresh rejected", "token", logging.Redact(raw))
package logging
