// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP and websocket transports and the pure view
// builders in package dashboard.
//
// # Available Services
//
//   - DashboardService: owns the loaded dataset and the memoizing view
//     renderer, and serves views, provider options, page markup and exports
//   - HealthService: health, readiness and liveness checks
//
// # Error Handling
//
// Services return sentinel errors (ErrDatasetNotLoaded, ErrUnsupportedFormat,
// ErrRenderFailed) or pass through dashboard.ErrUnknownView. Handlers map
// them to RFC 7807 problems with errors.Is.
//
// # Testing
//
// Health checks are tested against MockDatasetReporter and
// MockClientCounter:
//
//	reporter := new(MockDatasetReporter)
//	reporter.On("Ready").Return(nil)
//	reporter.On("Stats").Return(DatasetStats{Rows: 4})
//	hs := NewHealthService("1.0.0", "", reporter, nil, logger)
package services
