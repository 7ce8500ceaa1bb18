// Package server implements a reference admin console API for config editing.
//
// This package provides the HTTP surface that the form engine and CLI talk
// to: schema retrieval, live validation of edited trees, value persistence,
// and file downloads. It exists so the headless engine can be exercised
// end-to-end without a full console deployment.
//
// # Routes
//
//	GET  /api/v1/app/{slug}/config/{sequence}                  schema tree for one sequence
//	POST /api/v1/app/{slug}/liveconfig                         recompute + validate a submitted tree
//	PUT  /api/v1/app/{slug}/config/{sequence}/values           persist an edited tree
//	GET  /api/v1/app/{slug}/config/{sequence}/files/{filename} download an uploaded file
//	GET  /api/v1/app/{slug}/validation/ws                      websocket stream of validation events
//	GET  /healthz                                              liveness probe
//	GET  /metrics                                              Prometheus metrics
//
// # Save Semantics
//
// A save is rejected with HTTP 400 when the tree has visible, enabled
// required items without a value, or when regex validation fails for any
// visible item. The rejection body carries the details (requiredItems or
// validationErrors); transport-level errors are reserved for actual
// transport failures.
//
// # Live Validation
//
// The liveconfig endpoint is stateless: it validates whatever tree the
// client submits and echoes it back with the validation overlay. Every
// evaluation is also broadcast to websocket subscribers so that multiple
// clients editing the same app stay in sync.
//
// # Usage Example
//
//	config := &server.Config{
//	    Host:     "",
//	    Port:     3000,
//	    AppSlug:  "my-app",
//	    SeedPath: "/path/to/config.yaml",
//	    LogLevel: "info",
//	}
//
//	srv, err := server.New(config)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Start blocks until shutdown signal or error
//	if err := srv.Start(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// The server handles SIGINT and SIGTERM signals for graceful shutdown:
//  1. Disconnect websocket subscribers
//  2. Stop accepting new connections
//  3. Wait for in-flight requests to complete
//  4. Clean up resources
//
// # Thread Safety
//
// The store and websocket hub are safe for concurrent use. Each request
// runs in its own goroutine per net/http semantics.
package server
