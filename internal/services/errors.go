package services

import "errors"

// Dashboard service errors
var (
	// Dataset errors
	ErrDatasetNotLoaded = errors.New("dataset not loaded")

	// Export errors
	ErrUnsupportedFormat = errors.New("unsupported export format")

	// Rendering errors
	ErrRenderFailed = errors.New("failed to render view")
)
