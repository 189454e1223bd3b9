package http

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"nhsdash/internal/dashboard"
	"nhsdash/internal/dataset"
	apierrors "nhsdash/internal/errors"
	"nhsdash/internal/exporter"
	custommw "nhsdash/internal/middleware"
	"nhsdash/internal/services"
)

// RenderQuery holds the query parameters of GET /render.
type RenderQuery struct {
	View     string `query:"view" validate:"required,max=64,selector"`
	Provider string `query:"provider" validate:"max=200,selector"`
}

// ExportQuery holds the query parameters of the export routes.
type ExportQuery struct {
	Provider string `query:"provider" validate:"max=200,selector"`
}

var exportContentTypes = map[string]string{
	services.FormatCSV:  "text/csv; charset=utf-8",
	services.FormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DashboardHandler serves the dashboard JSON API and exports
type DashboardHandler struct {
	service      DashboardServiceInterface
	validator    *custommw.Validator
	auditLogger  *slog.Logger
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DashboardHandler {
	return &DashboardHandler{
		service:      service,
		validator:    custommw.NewValidator(),
		auditLogger:  logger,
		logger:       logger.With(slog.String("component", "dashboard_handler")),
		errorHandler: errorHandler,
	}
}

// Routes returns the dashboard routes
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/views", h.GetViews)
		r.Get("/providers", h.GetProviders)
		r.Get("/render", h.GetRender)
	})

	r.Group(func(r chi.Router) {
		r.Use(custommw.AuditLog(h.auditLogger))
		r.Get("/export.csv", h.Export(services.FormatCSV))
		r.Get("/export.xlsx", h.Export(services.FormatXLSX))
	})

	return r
}

// GetViews handles GET /api/dashboard/views
func (h *DashboardHandler) GetViews(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.Views())
}

// GetProviders handles GET /api/dashboard/providers
func (h *DashboardHandler) GetProviders(w http.ResponseWriter, r *http.Request) {
	providers := h.service.Providers(r.Context())
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   providers,
		"count":  len(providers),
	})
}

// GetRender handles GET /api/dashboard/render?view=&provider=
func (h *DashboardHandler) GetRender(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetReqID(r.Context())

	q := RenderQuery{
		View:     r.URL.Query().Get("view"),
		Provider: r.URL.Query().Get("provider"),
	}
	if err := h.validator.Struct(q); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if q.Provider == "" {
		q.Provider = dataset.AllProviders
	}

	artifact, err := h.service.Render(r.Context(), q.View, q.Provider)
	if err != nil {
		if errors.Is(err, dashboard.ErrUnknownView) {
			h.errorHandler.HandleError(w, r, apierrors.UnknownViewError(q.View))
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to render view",
			slog.String("error", err.Error()),
			slog.String("view", q.View),
			slog.String("provider", q.Provider),
			slog.String("request_id", reqID))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, artifact)
}

// Export returns the handler for GET /api/dashboard/export.<format>
func (h *DashboardHandler) Export(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := ExportQuery{Provider: r.URL.Query().Get("provider")}
		if err := h.validator.Struct(q); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		if q.Provider == "" {
			q.Provider = dataset.AllProviders
		}

		// Buffer the file so a failed export still gets a problem response.
		var buf bytes.Buffer
		if err := h.service.Export(r.Context(), &buf, format, q.Provider); err != nil {
			h.logger.ErrorContext(r.Context(), "export failed",
				slog.String("format", format),
				slog.String("provider", q.Provider),
				slog.String("error", err.Error()),
				slog.String("request_id", middleware.GetReqID(r.Context())))
			h.errorHandler.HandleError(w, r, apierrors.ExportError(format, err))
			return
		}

		w.Header().Set("Content-Type", exportContentTypes[format])
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exporter.Filename(q.Provider, format)))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := buf.WriteTo(w); err != nil {
			h.logger.WarnContext(r.Context(), "export write interrupted",
				slog.String("format", format),
				slog.String("error", err.Error()))
		}
	}
}
