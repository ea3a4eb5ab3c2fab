package server

import (
	"net/http"

	"github.com/go-chi/render"
)

// APIError is the JSON error envelope returned by every endpoint.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// Render implements render.Renderer.
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

func newAPIError(status int, code, msg string, details any) *APIError {
	return &APIError{StatusCode: status, ErrorCode: code, Message: msg, Details: details}
}

func errInvalidRequest(err error) *APIError {
	return newAPIError(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format", err.Error())
}

func errValidation(problems []string) *APIError {
	return newAPIError(http.StatusBadRequest, "VALIDATION_FAILED", "Filter validation failed", problems)
}

func errLoadFailed(reason string) *APIError {
	return newAPIError(http.StatusUnprocessableEntity, "LOAD_FAILED", reason, nil)
}

func errNotFound(what string) *APIError {
	return newAPIError(http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

var (
	errMissingSource = newAPIError(http.StatusBadRequest, "MISSING_SOURCE", "Please provide either a Google Sheet URL or paste CSV data.", nil)
	errRateLimited   = newAPIError(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many loads, retry shortly", nil)
	errInternal      = newAPIError(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error", nil)
)

func writeError(w http.ResponseWriter, r *http.Request, e *APIError) {
	_ = render.Render(w, r, e)
}
