package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"

	"github.com/go-chi/chi/v5/middleware"
)

// Problem types (RFC 7807 "type" member).
const (
	TypeValidation = "/errors/validation"
	TypeNotFound   = "/errors/not-found"
	TypeRateLimit  = "/errors/rate-limit"
	TypeInternal   = "/errors/internal"
	TypeTimeout    = "/errors/timeout"
	TypeMethod     = "/errors/method-not-allowed"

	TypeUnknownView   = "/errors/dashboard/unknown-view"
	TypeExportFailed  = "/errors/dashboard/export-failed"
	TypeDataNotLoaded = "/errors/dashboard/data-not-loaded"
)

// problemTypes maps APIError codes onto problem types. Codes not listed
// are reported as TypeInternal.
var problemTypes = map[string]string{
	CodeValidationFailed: TypeValidation,
	CodeInvalidRequest:   TypeValidation,
	CodeUnknownView:      TypeUnknownView,
	CodeExportFailed:     TypeExportFailed,
}

// ErrorHandler turns handler errors into problem+json responses.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. With includeStack set (development
// logging) responses carry the goroutine stack.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError logs err and writes it as a problem. A nil error writes nothing.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	h.logger.ErrorContext(r.Context(), "request failed",
		slog.String("error", err.Error()),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	problem := h.ErrorToProblem(err, r).WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("stack", stackTrace())
	}
	WriteProblem(w, problem)
}

// ErrorToProblem classifies err. Cancellation and deadlines become 504,
// APIErrors keep their status, dataset load failures become 503 and
// everything else is an opaque 500.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiProblem(apiErr, r.URL.Path)
	}

	var loadErr *AppError
	if errors.As(err, &loadErr) {
		// Message only; the path stays in the logs.
		return NewProblemDetails(http.StatusServiceUnavailable, TypeDataNotLoaded, "Dataset Unavailable",
			loadErr.Message, r.URL.Path).
			WithExtension("stage", string(loadErr.Type))
	}

	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred while processing your request", r.URL.Path)
}

func apiProblem(apiErr *APIError, instance string) *ProblemDetails {
	problemType, ok := problemTypes[apiErr.ErrorCode]
	if !ok {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode),
		apiErr.Message, instance).
		WithExtension("error_code", apiErr.ErrorCode)

	switch d := apiErr.Details.(type) {
	case nil:
	case ValidationErrors:
		problem.WithExtension("errors", d.Errors)
	default:
		problem.WithExtension("details", d)
	}
	return problem
}

// NotFound is the router's 404 handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

// MethodNotAllowed is the router's 405 handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteProblem(w, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethod, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())))
}

func stackTrace() string {
	buf := make([]byte, 8<<10)
	return string(buf[:runtime.Stack(buf, false)])
}
