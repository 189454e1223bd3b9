package http

import (
	"bytes"
	"log/slog"
	"net/http"

	"nhsdash/internal/dashboard"
	"nhsdash/internal/dataset"
	apierrors "nhsdash/internal/errors"
)

// PageHandler serves the server-rendered dashboard page. It works without
// JavaScript: the tabs are links and the provider dropdown is a GET form.
type PageHandler struct {
	service      DashboardServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewPageHandler creates a new page handler
func NewPageHandler(service DashboardServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *PageHandler {
	return &PageHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "page_handler")),
		errorHandler: errorHandler,
	}
}

// ServeHTTP handles GET /?view=&provider=
func (h *PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	view := r.URL.Query().Get("view")
	if view == "" {
		view = dashboard.DefaultView
	}
	provider := r.URL.Query().Get("provider")
	if provider == "" {
		provider = dataset.AllProviders
	}

	var buf bytes.Buffer
	if err := h.service.WritePage(r.Context(), &buf, view, provider); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render page",
			slog.String("view", view),
			slog.String("provider", provider),
			slog.String("error", err.Error()))
		h.errorHandler.HandleError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
