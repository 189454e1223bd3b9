package middleware

import (
	"net/http"

	apierrors "nhsdash/internal/errors"
	"nhsdash/internal/infrastructure"
)

// ProblemContentType is the RFC 7807 media type.
const ProblemContentType = apierrors.ProblemContentType

// writeProblem sends an RFC 7807 body for rejections raised by middleware,
// before any handler has had a chance to render.
func writeProblem(w http.ResponseWriter, r *http.Request, status int, problemType, detail string) {
	problem := apierrors.NewProblemDetails(status, problemType, http.StatusText(status), detail, r.URL.Path)
	if traceID := infrastructure.GetTraceID(r.Context()); traceID != "" {
		problem.WithExtension("trace_id", traceID)
	}
	apierrors.WriteProblem(w, problem)
}
