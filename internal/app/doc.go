// Package app wires the dashboard together and manages its lifecycle.
//
// NewApplication loads configuration and the global logger, then New
// builds everything else in order:
//
//  1. OpenTelemetry providers and the shared business metrics
//  2. The dataset, loaded once, and the dashboard service around it
//  3. The websocket hub and the health service
//  4. The chi router and the HTTP server
//
// # Routes
//
//	GET /                      dashboard page
//	GET /static/*              embedded script and stylesheet
//	GET /ws                    live view updates
//	GET /api/dashboard/...     views, providers, render, exports
//	GET /api/health[/ready|/live]
//	GET /api/version
//	GET /metrics               Prometheus scrape endpoint
//
// The websocket route sits outside the main middleware group so that
// nothing wraps the ResponseWriter before the upgrade.
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. Stop notifies websocket clients, drains
// the HTTP server, stops the hub, flushes telemetry and closes the log
// file. Errors are returned to the caller; the package never calls
// os.Exit.
package app
