// Package http implements the HTTP handlers of the dashboard. Handlers stay
// thin: they parse and validate query parameters, call the service layer
// and translate service errors into RFC 7807 problems.
//
// # Routes
//
//	GET /                             PageHandler, server-rendered page
//	GET /api/dashboard/views          DashboardHandler.GetViews
//	GET /api/dashboard/providers      DashboardHandler.GetProviders
//	GET /api/dashboard/render         DashboardHandler.GetRender
//	GET /api/dashboard/export.csv     DashboardHandler.Export("csv")
//	GET /api/dashboard/export.xlsx    DashboardHandler.Export("xlsx")
//	GET /api/health[/ready|/live]     HealthHandler
//	GET /api/version                  HealthHandler.Version
//
// # Error Mapping
//
//	dashboard.ErrUnknownView  -> 404 UNKNOWN_VIEW
//	validation failures       -> 400 VALIDATION_FAILED with per-field errors
//	export failures           -> 500 EXPORT_FAILED
//	context deadline          -> 504
//
// Handlers depend on DashboardServiceInterface and HealthServiceInterface
// so tests can substitute testify mocks.
package http
