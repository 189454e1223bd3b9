package http

import (
	"context"
	"io"

	"nhsdash/internal/dashboard"
)

// DashboardServiceInterface defines the dashboard operations the handlers use
type DashboardServiceInterface interface {
	Views() []dashboard.View
	Providers(ctx context.Context) []dashboard.ProviderOption
	Render(ctx context.Context, view, provider string) (dashboard.Artifact, error)
	WritePage(ctx context.Context, w io.Writer, view, provider string) error
	Export(ctx context.Context, w io.Writer, format, provider string) error
}
