package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the standard success response shape for the service's own
// endpoints.
type Envelope struct {
	Data    any    `json:"data"`
	Status  int    `json:"status"`
	Message string `json:"message,omitempty"`
	Path    string `json:"path"`
}

// Problem is the error shape for ordinary endpoint errors.
type Problem struct {
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
	Path    string `json:"path"`
	Status  int    `json:"status"`
}

// Rejection is the body a blocked request gets from the gate. Errors is
// a list of single-key group objects (missing_fields, invalid_urls,
// invalid_choices, too_large).
type Rejection struct {
	Message   string           `json:"message"`
	Errors    []map[string]any `json:"errors"`
	RequestID string           `json:"request_id"`
}

// Failure is the body of a failed request: deliberately generic, the
// detail lives in the logs under the same request id.
type Failure struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

const (
	// RejectionMessage is the fixed top line of every validation 400.
	RejectionMessage = "Invalid request payload."
	// FailureMessage is the fixed body of every 500.
	FailureMessage = "An unexpected error occurred."
)

// pathFromContext returns the request path from Echo context.
func pathFromContext(c echo.Context) string {
	if c == nil || c.Request() == nil {
		return ""
	}
	return c.Request().URL.Path
}

// OK sends a 200 response with data.
func OK(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusOK, Envelope{
		Data:    data,
		Status:  http.StatusOK,
		Message: message,
		Path:    pathFromContext(c),
	})
}

// Created sends a 201 response with data.
func Created(c echo.Context, data any, message string) error {
	return c.JSON(http.StatusCreated, Envelope{
		Data:    data,
		Status:  http.StatusCreated,
		Message: message,
		Path:    pathFromContext(c),
	})
}

// Error sends a Problem with the given status.
func Error(c echo.Context, status int, message, detail string) error {
	return c.JSON(status, Problem{
		Message: message,
		Detail:  detail,
		Path:    pathFromContext(c),
		Status:  status,
	})
}

// BadRequest sends 400 with message and detail.
func BadRequest(c echo.Context, message, detail string) error {
	return Error(c, http.StatusBadRequest, message, detail)
}

// NotFound sends 404 with message and detail.
func NotFound(c echo.Context, message, detail string) error {
	return Error(c, http.StatusNotFound, message, detail)
}

// ValidationFailed sends the gate's 400 rejection body.
func ValidationFailed(c echo.Context, requestID string, groups []map[string]any) error {
	if groups == nil {
		groups = []map[string]any{}
	}
	return c.JSON(http.StatusBadRequest, Rejection{
		Message:   RejectionMessage,
		Errors:    groups,
		RequestID: requestID,
	})
}

// InternalError sends the gate's generic 500. No error detail, no
// stack; clients get the request id to quote instead.
func InternalError(c echo.Context, requestID string) error {
	return c.JSON(http.StatusInternalServerError, Failure{
		Message:   FailureMessage,
		RequestID: requestID,
	})
}
