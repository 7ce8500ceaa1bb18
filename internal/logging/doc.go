// Package logging provides structured logging for the config engine and tools.
//
// This package wraps zap with convenience functions for the logging patterns
// used across the CLI, the form engine, and the reference console server.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (request bodies, debounce timing)
//   - Info: Normal operations (requests, saves, validation results)
//   - Warn: Non-fatal issues (stale responses, retries)
//   - Error: Fatal issues (startup failures, critical errors)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Live validation applied",
//	    zap.String("app_slug", "my-app"),
//	    zap.Int64("sequence", 4),
//	    zap.Int("error_count", 2),
//	)
//
// # Configuration
//
// CLI commands are silent by default; verbosity is controlled via the
// KOTSCONFIG_LOG_LEVEL environment variable or an explicit Initialize call:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
