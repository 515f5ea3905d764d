// Package errors defines the error taxonomy for the event study pipeline.
//
// Structural problems with input tables (SchemaError, LabelDomainError) are
// fatal: they mean the output contract cannot be satisfied. Everything local
// to one ticker or one event is a recoverable warning; the affected output
// fields become null and the run continues.
package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/render"
)

// SchemaError indicates a required column is missing from an input table or a
// precondition on a derived value is violated. SchemaError is fatal.
type SchemaError struct {
	Table    string
	Field    string
	Observed []string
	Reason   string
}

// Error implements the error interface
func (e *SchemaError) Error() string {
	msg := fmt.Sprintf("schema error in %s: missing required column %q", e.Table, e.Field)
	if e.Reason != "" {
		msg = fmt.Sprintf("schema error in %s: field %q: %s", e.Table, e.Field, e.Reason)
	}
	if len(e.Observed) > 0 {
		msg += fmt.Sprintf(" (observed columns: %s)", strings.Join(e.Observed, ", "))
	}
	return msg
}

// NewSchemaError reports a missing required column, naming what was observed
func NewSchemaError(table, field string, observed []string) *SchemaError {
	return &SchemaError{Table: table, Field: field, Observed: observed}
}

// NewPreconditionError reports a violated precondition on a named field
func NewPreconditionError(table, field, reason string) *SchemaError {
	return &SchemaError{Table: table, Field: field, Reason: reason}
}

// LabelDomainError indicates a label value outside the closed vocabulary.
// LabelDomainError is fatal because downstream encoding cannot proceed.
type LabelDomainError struct {
	Value   string
	Allowed []string
}

// Error implements the error interface
func (e *LabelDomainError) Error() string {
	return fmt.Sprintf("label %q is outside the label vocabulary (allowed: %s)",
		e.Value, strings.Join(e.Allowed, ", "))
}

// NewLabelDomainError reports an out-of-vocabulary label value
func NewLabelDomainError(value string, allowed []string) *LabelDomainError {
	return &LabelDomainError{Value: value, Allowed: allowed}
}

// APIError represents a structured API error response for the results server
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// Predefined API errors for the results server
var (
	ErrInvalidRequest = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrNotFound       = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrResultsMissing = New(http.StatusNotFound, "RESULTS_MISSING", "Pipeline output not found; run the pipeline first")
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return &APIError{
		StatusCode: http.StatusNotFound,
		ErrorCode:  "NOT_FOUND",
		Message:    fmt.Sprintf("%s not found", resource),
		Details:    resource,
	}
}

// InternalError wraps an internal error into an APIError response
func InternalError(err error) *APIError {
	return &APIError{
		StatusCode: http.StatusInternalServerError,
		ErrorCode:  "INTERNAL_SERVER_ERROR",
		Message:    "Internal server error",
		Details:    err.Error(),
	}
}
