package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rezkam/compass/internal/domain"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Details []ErrorField `json:"details,omitempty"`
}

// ErrorField describes a field-specific error.
type ErrorField struct {
	Field string `json:"field"`
	Issue string `json:"issue"`
}

// BadRequest sends a 400 Bad Request error.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, "INVALID_REQUEST", message, http.StatusBadRequest)
}

// ValidationError sends a 400 validation error with field details.
func ValidationError(w http.ResponseWriter, field, issue string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Code:    "VALIDATION_ERROR",
			Message: "validation failed",
			Details: []ErrorField{{Field: field, Issue: issue}},
		},
	})
}

// NotFound sends a 404 Not Found error.
func NotFound(w http.ResponseWriter, resource string) {
	Error(w, "NOT_FOUND", resource+" not found", http.StatusNotFound)
}

// Unauthorized sends a 401 Unauthorized error.
func Unauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="compass"`)
	Error(w, "UNAUTHORIZED", message, http.StatusUnauthorized)
}

// Conflict sends a 409 Conflict error.
func Conflict(w http.ResponseWriter, code, message string) {
	Error(w, code, message, http.StatusConflict)
}

// PayloadTooLarge sends a 413 Request Entity Too Large error.
func PayloadTooLarge(w http.ResponseWriter) {
	Error(w, "PAYLOAD_TOO_LARGE", "request body exceeds size limit", http.StatusRequestEntityTooLarge)
}

// InternalError sends a 500 Internal Server Error.
// The error is logged server-side; the client only gets a generic message.
func InternalError(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		slog.ErrorContext(r.Context(), "internal server error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	}
	Error(w, "INTERNAL_ERROR", "an internal error occurred", http.StatusInternalServerError)
}

// Error sends a generic error response.
func Error(w http.ResponseWriter, code, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// validationFields maps validation errors to the request field they concern,
// most specific first. Errors without a fixed field leave it empty.
var validationFields = []struct {
	err   error
	field string
}{
	{domain.ErrTitleRequired, "title"},
	{domain.ErrTitleTooLong, "title"},
	{domain.ErrInvalidID, "id"},
	{domain.ErrFrequencyRequired, "recurring.frequency"},
	{domain.ErrInvalidLink, "link"},
	{domain.ErrInvalidDependency, "dependencies"},
	{domain.ErrInvalidCompletion, "completion_percentage"},
	{domain.ErrInvalidMilestoneIndex, "milestone"},
	{domain.ErrInvalidSubtaskIndex, "subtask"},
	{domain.ErrInvalidDuration, ""},
	{domain.ErrEmptyUpdateMask, "update_mask"},
	{domain.ErrUnknownField, "update_mask"},
	{domain.ErrInvalidEtagFormat, "etag"},
	{domain.ErrNotRecurring, "status"},
	{domain.ErrInvalidEnum, ""},
}

// FromDomainError maps domain errors to HTTP responses.
func FromDomainError(w http.ResponseWriter, r *http.Request, err error) {
	for _, v := range validationFields {
		if errors.Is(err, v.err) {
			ValidationError(w, v.field, err.Error())
			return
		}
	}

	switch {
	// Not found errors (404)
	case errors.Is(err, domain.ErrTaskNotFound):
		NotFound(w, "task")
	case errors.Is(err, domain.ErrGoalNotFound):
		NotFound(w, "goal")
	case errors.Is(err, domain.ErrProjectNotFound):
		NotFound(w, "project")
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource")

	// Auth errors (401)
	case errors.Is(err, domain.ErrUnauthorized):
		Unauthorized(w, "invalid or missing token")

	// State conflicts (409)
	case errors.Is(err, domain.ErrVersionConflict):
		Conflict(w, "VERSION_CONFLICT", err.Error())
	case errors.Is(err, domain.ErrTaskHasDependents):
		Conflict(w, "HAS_DEPENDENTS", err.Error())
	case errors.Is(err, domain.ErrTaskBlocked):
		Conflict(w, "TASK_BLOCKED", err.Error())

	default:
		InternalError(w, r, err)
	}
}
