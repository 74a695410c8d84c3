package model

import (
	"time"

	"github.com/rs/zerolog"
)

type DiagnosticKind string

const (
	DiagMissingField  DiagnosticKind = "missing_field"
	DiagInvalidChoice DiagnosticKind = "invalid_choice"
	DiagInvalidURL    DiagnosticKind = "invalid_url_format"
	DiagTooLarge      DiagnosticKind = "too_large"
)

// URL failure reasons carried by DiagInvalidURL diagnostics.
const (
	URLReasonMissingScheme = "missing_scheme"
	URLReasonEmptyHost     = "empty_host"
	URLReasonInvalidChars  = "invalid_characters"
)

// Diagnostic is one validation finding. Kind decides which of the
// optional fields are populated.
type Diagnostic struct {
	Kind     DiagnosticKind `json:"kind"`
	Field    string         `json:"field"`
	Reason   string         `json:"reason,omitempty"`
	Received string         `json:"received,omitempty"`
	Allowed  []string       `json:"allowed_values,omitempty"`
	Limit    int            `json:"limit,omitempty"`
	Length   int            `json:"length,omitempty"`
}

// Breadcrumb is one pipeline checkpoint on the request timeline.
type Breadcrumb struct {
	Event string    `json:"event"`
	At    time.Time `json:"at"`
}

// Timings is the per-request duration breakdown in milliseconds.
// ServiceMS counts top-level instrumented spans only; MiddlewareMS is
// everything outside the dispatched handler.
type Timings struct {
	TotalMS      float64 `json:"total_ms"`
	MiddlewareMS float64 `json:"middleware_ms"`
	RouteMS      float64 `json:"route_ms"`
	ServiceMS    float64 `json:"service_ms"`
}

// Delta records one field the normalizer changed.
type Delta struct {
	Field string `json:"field"`
	From  any    `json:"from"`
	To    any    `json:"to"`
}

// FileMeta describes an uploaded file without buffering its content.
type FileMeta struct {
	Field       string `json:"field"`
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// ErrorDetail captures a handler failure for request_failed records.
type ErrorDetail struct {
	Kind     string `json:"kind"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
	Stack    string `json:"stack,omitempty"`
}

// LogRecord is the flat schema for one request lifecycle event. The same
// field set feeds the colorized console line and the JSON file line.
type LogRecord struct {
	Timestamp   time.Time         `json:"timestamp"`
	Level       string            `json:"level"`
	Message     string            `json:"message"`
	File        string            `json:"file"`
	Function    string            `json:"function"`
	Line        int               `json:"line"`
	RequestID   string            `json:"request_id"`
	TraceID     string            `json:"trace_id"`
	ParentID    string            `json:"parent_id"`
	UserID      string            `json:"user_id,omitempty"`
	Path        string            `json:"path"`
	Method      string            `json:"method"`
	DurationMS  float64           `json:"duration_ms"`
	Breadcrumbs []Breadcrumb      `json:"breadcrumbs"`
	Payload     map[string]any    `json:"sanitized_payload"`
	Headers     map[string]string `json:"headers,omitempty"`
	Diagnostics []Diagnostic      `json:"diagnostics"`
	Timings     *Timings          `json:"timings,omitempty"`
	Files       []FileMeta        `json:"files,omitempty"`
	Error       *ErrorDetail      `json:"error,omitempty"`
}

// MarshalZerologObject writes every field except timestamp, level and
// message, which zerolog stamps itself at emission time.
func (r *LogRecord) MarshalZerologObject(e *zerolog.Event) {
	e.Str("file", r.File).
		Str("function", r.Function).
		Int("line", r.Line).
		Str("request_id", r.RequestID).
		Str("trace_id", r.TraceID).
		Str("parent_id", r.ParentID)
	if r.UserID != "" {
		e.Str("user_id", r.UserID)
	}
	e.Str("path", r.Path).
		Str("method", r.Method).
		Float64("duration_ms", r.DurationMS).
		Interface("breadcrumbs", r.Breadcrumbs).
		Interface("sanitized_payload", r.Payload)
	if len(r.Headers) > 0 {
		e.Interface("headers", r.Headers)
	}
	e.Interface("diagnostics", r.Diagnostics)
	if r.Timings != nil {
		e.Interface("timings", r.Timings)
	}
	if len(r.Files) > 0 {
		e.Interface("files", r.Files)
	}
	if r.Error != nil {
		e.Interface("error", r.Error)
	}
}
