package services

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"time"

	"nhsdash/internal/config"
	"nhsdash/internal/dashboard"
	"nhsdash/internal/dataset"
	"nhsdash/internal/exporter"
	"nhsdash/internal/infrastructure"
	"nhsdash/internal/web"
)

// Export formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// RenderedView pairs an artifact with its content panel markup.
type RenderedView struct {
	Artifact dashboard.Artifact
	HTML     template.HTML
}

// DatasetStats describes the loaded dataset.
type DatasetStats struct {
	Source    string    `json:"source"`
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	Providers int       `json:"providers"`
	CacheSize int       `json:"cache_size"`
	LoadedAt  time.Time `json:"loaded_at"`
}

// DashboardService owns the immutable dataset and serves every view,
// page and export built from it.
type DashboardService struct {
	source   string
	loadedAt time.Time
	renderer *dashboard.Renderer
	pages    *web.Renderer
	csv      *exporter.CSVWriter
	xlsx     *exporter.XLSXWriter
	metrics  *infrastructure.BusinessMetrics
	logger   *slog.Logger
}

// NewDashboardService wraps an already loaded table. metrics may be nil.
func NewDashboardService(table *dataset.Table, source string, pages *web.Renderer, cfg config.DashboardConfig, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "dashboard_service"))

	return &DashboardService{
		source:   source,
		loadedAt: time.Now(),
		renderer: dashboard.NewRenderer(table,
			dashboard.WithLogger(logger),
			dashboard.WithObserver(metrics),
			dashboard.WithCache(cfg.CacheEnabled)),
		pages:   pages,
		csv:     exporter.NewCSVWriter(logger),
		xlsx:    exporter.NewXLSXWriter(logger),
		metrics: metrics,
		logger:  logger,
	}
}

// LoadDashboardService reads the configured data file and builds the
// service around it. Load failures are returned as-is so the caller can
// treat them as fatal.
func LoadDashboardService(ctx context.Context, cfg *config.Config, metrics *infrastructure.BusinessMetrics, logger *slog.Logger) (*DashboardService, error) {
	path := cfg.DataFilePath()

	table, err := dataset.NewLoader(logger).Load(ctx, path)
	if err != nil {
		return nil, err
	}

	pages, err := web.NewRenderer(web.Options{
		ChartWidth:  cfg.Dashboard.ChartWidth,
		ChartHeight: cfg.Dashboard.ChartHeight,
		AssetsHost:  cfg.Dashboard.AssetsHost,
	})
	if err != nil {
		return nil, err
	}

	svc := NewDashboardService(table, path, pages, cfg.Dashboard, metrics, logger)

	if cfg.Dashboard.CacheEnabled && cfg.Dashboard.WarmCache {
		start := time.Now()
		if err := svc.renderer.Warm(ctx); err != nil {
			return nil, fmt.Errorf("failed to warm view cache: %w", err)
		}
		svc.logger.InfoContext(ctx, "view cache warmed",
			slog.Int("entries", svc.renderer.CacheSize()),
			slog.Duration("duration", time.Since(start)))
	}

	return svc, nil
}

// Views returns the selectable tabs in display order.
func (s *DashboardService) Views() []dashboard.View {
	return dashboard.Views()
}

// Providers returns the dropdown options.
func (s *DashboardService) Providers(ctx context.Context) []dashboard.ProviderOption {
	return dashboard.ProviderOptions(s.renderer.Table())
}

// Render returns the artifact for one selection. An unknown view fails
// with dashboard.ErrUnknownView.
func (s *DashboardService) Render(ctx context.Context, view, provider string) (dashboard.Artifact, error) {
	return s.renderer.Render(ctx, view, provider)
}

// RenderView renders an artifact together with its HTML fragment.
func (s *DashboardService) RenderView(ctx context.Context, view, provider string) (RenderedView, error) {
	a, err := s.Render(ctx, view, provider)
	if err != nil {
		return RenderedView{}, err
	}

	html, err := s.pages.Fragment(a)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "fragment rendering failed",
			slog.String("view", view),
			slog.String("provider", provider),
			slog.String("error", err.Error()))
		return RenderedView{}, fmt.Errorf("%w: %v", ErrRenderFailed, err)
	}

	return RenderedView{Artifact: a, HTML: html}, nil
}

// WritePage renders the full dashboard document for one selection. An
// unknown view is shown as a message in the content panel.
func (s *DashboardService) WritePage(ctx context.Context, w io.Writer, view, provider string) error {
	var content template.HTML

	rendered, err := s.RenderView(ctx, view, provider)
	switch {
	case err == nil:
		content = rendered.HTML
	case dashboard.IsView(view):
		return err
	default:
		content, err = s.pages.Message(fmt.Sprintf("Unknown view: %s", view))
		if err != nil {
			return err
		}
	}

	return s.pages.Page(w, web.Page{
		Title:         config.AppName,
		Subtitle:      config.AppSubtitle,
		Version:       "v" + config.AppVersion,
		Views:         s.Views(),
		Providers:     s.Providers(ctx),
		View:          view,
		Provider:      provider,
		Content:       content,
		WebSocketPath: config.WebSocketEndpoint,
	})
}

// Export writes the provider's rows in format to w.
func (s *DashboardService) Export(ctx context.Context, w io.Writer, format, provider string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	subset := s.renderer.Table().Filter(provider)

	var err error
	switch format {
	case FormatCSV:
		err = s.csv.WriteTable(w, subset)
	case FormatXLSX:
		err = s.xlsx.WriteTable(w, subset)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err != nil {
		infrastructure.RecordError(ctx, err)
		s.logger.ErrorContext(ctx, "export failed",
			slog.String("format", format),
			slog.String("provider", provider),
			slog.String("error", err.Error()))
		return err
	}

	s.metrics.RecordExport(ctx, format)
	s.logger.InfoContext(ctx, "dataset exported",
		slog.String("format", format),
		slog.String("provider", provider),
		slog.Int("rows", subset.Len()))
	return nil
}

// ExportCSV writes the provider's rows as CSV.
func (s *DashboardService) ExportCSV(ctx context.Context, w io.Writer, provider string) error {
	return s.Export(ctx, w, FormatCSV, provider)
}

// ExportXLSX writes the provider's rows as an Excel workbook.
func (s *DashboardService) ExportXLSX(ctx context.Context, w io.Writer, provider string) error {
	return s.Export(ctx, w, FormatXLSX, provider)
}

// Ready reports whether a dataset is available.
func (s *DashboardService) Ready() error {
	if s == nil || s.renderer == nil || s.renderer.Table() == nil {
		return ErrDatasetNotLoaded
	}
	return nil
}

// Stats summarizes the loaded dataset.
func (s *DashboardService) Stats() DatasetStats {
	t := s.renderer.Table()
	return DatasetStats{
		Source:    s.source,
		Rows:      t.Len(),
		Columns:   len(t.Columns()),
		Providers: len(t.Providers()),
		CacheSize: s.renderer.CacheSize(),
		LoadedAt:  s.loadedAt,
	}
}
