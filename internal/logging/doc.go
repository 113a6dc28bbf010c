// Package logging provides structured logging for the wsecho binaries.
//
// This package wraps a package-global zap logger with convenience functions
// for the events the server and client care about: connection lifecycle,
// TLS handshakes, HTTP requests and WebSocket messages.
//
// # Log Levels
//
//   - Debug: hex dumps, HTTP request headers, ping/pong traffic
//   - Info: connections, messages, state changes
//   - Warn: non-fatal issues (dropped connections, net/http server errors)
//   - Error: startup failures, handler panics
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// An empty level falls back to the WSECHO_LOG_LEVEL environment variable,
// and when that is empty too the logger is a no-op.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
