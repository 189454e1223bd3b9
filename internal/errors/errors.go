package errors

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// Error codes carried in APIError.ErrorCode. Each maps to one problem type.
const (
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeInvalidRequest   = "INVALID_REQUEST"
	CodeUnknownView      = "UNKNOWN_VIEW"
	CodeExportFailed     = "EXPORT_FAILED"
)

// APIError is an error a handler can return to the client as is.
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return e.Message
}

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError describes a single rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors is the Details payload of a VALIDATION_FAILED error.
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// New creates an APIError.
func New(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// ErrValidation rejects a single field.
func ErrValidation(field, message string) *APIError {
	return NewValidationErrors([]ValidationError{{Field: field, Message: message}})
}

// NewValidationErrors rejects several fields at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return New(http.StatusBadRequest, CodeValidationFailed, "Request validation failed", ValidationErrors{Errors: errs})
}

// InvalidRequestError reports query parameters that could not be decoded at all.
func InvalidRequestError(cause error) *APIError {
	return New(http.StatusBadRequest, CodeInvalidRequest, "Invalid request format", cause.Error())
}

// UnknownViewError reports a view identifier the dashboard does not serve.
func UnknownViewError(view string) *APIError {
	return New(http.StatusNotFound, CodeUnknownView, fmt.Sprintf("unknown view %q", view), view)
}

// ExportError wraps a failure while writing an export format.
func ExportError(format string, err error) *APIError {
	return New(http.StatusInternalServerError, CodeExportFailed,
		fmt.Sprintf("Failed to export dataset as %s", format), err.Error())
}
