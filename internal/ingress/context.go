// Package ingress is the request gate: every inbound request is
// correlated, captured, normalized and validated here before any
// business handler sees it, and every request leaves behind exactly one
// structured log record.
package ingress

import (
	"context"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/safqa-app/safqagate/internal/model"
)

// ContextKey is where the gate stores the request context on the echo
// context.
const ContextKey = "ingress.request"

type ctxKey struct{}

// Gate outcomes, also used as metric label values.
const (
	outcomeCompleted = "completed"
	outcomeBlocked   = "blocked"
	outcomeFailed    = "failed"
)

// RawPayload is the verbatim capture of an inbound request: query
// params, body fields, allow-listed headers and upload metadata.
type RawPayload struct {
	Query   map[string]any
	Body    map[string]any
	Headers map[string]string
	Files   []model.FileMeta
}

// Fields merges query and body fields into one flat map, body winning
// on collisions. The receiver's maps are left alone.
func (p RawPayload) Fields() map[string]any {
	out := make(map[string]any, len(p.Query)+len(p.Body))
	for k, v := range p.Query {
		out[k] = v
	}
	for k, v := range p.Body {
		out[k] = v
	}
	return out
}

// RequestContext carries one request through the pipeline. It is built
// by the gate, lives on both the echo context and the request's
// context.Context, and is safe for the breadcrumb/span calls downstream
// code makes while it handles the request.
type RequestContext struct {
	RequestID string
	TraceID   string
	ParentID  string
	UserID    string
	Method    string
	Path      string

	Raw         RawPayload
	Normalized  map[string]any
	Deltas      []model.Delta
	Diagnostics []model.Diagnostic
	Cleaned     map[string]any

	outcome string
	detail  *model.ErrorDetail
	timer   *timer

	mu          sync.Mutex
	breadcrumbs []model.Breadcrumb
}

// AddBreadcrumb appends a named checkpoint to the request timeline.
func (rc *RequestContext) AddBreadcrumb(event string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	rc.breadcrumbs = append(rc.breadcrumbs, model.Breadcrumb{
		Event: event,
		At:    rc.timer.now().UTC(),
	})
}

// Breadcrumbs returns a copy of the timeline in append order.
func (rc *RequestContext) Breadcrumbs() []model.Breadcrumb {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return append([]model.Breadcrumb(nil), rc.breadcrumbs...)
}

// cleanFields is the merged payload handlers read: raw fields overlaid
// with their normalized values.
func (rc *RequestContext) cleanFields() map[string]any {
	raw := rc.Raw.Fields()
	out := make(map[string]any, len(raw)+len(rc.Normalized))
	for k, v := range raw {
		out[k] = v
	}
	for k, v := range rc.Normalized {
		out[k] = v
	}
	return out
}

// buildCleaned assembles the cleaned view with its inspection side
// channels. Side-channel keys are prefixed so they can never collide
// with payload fields.
func (rc *RequestContext) buildCleaned() {
	view := rc.cleanFields()
	view["__original"] = rc.Raw.Fields()
	view["__normalized"] = rc.Normalized
	view["__diagnostics"] = rc.Diagnostics
	rc.Cleaned = view
}

// Record builds the log record for this request's lifecycle event.
// Timings are read at call time, so stop the timer first.
func (rc *RequestContext) Record() *model.LogRecord {
	timings := rc.timer.snapshot()
	return &model.LogRecord{
		RequestID:   rc.RequestID,
		TraceID:     rc.TraceID,
		ParentID:    rc.ParentID,
		UserID:      rc.UserID,
		Path:        rc.Path,
		Method:      rc.Method,
		DurationMS:  timings.TotalMS,
		Breadcrumbs: rc.Breadcrumbs(),
		Payload:     rc.cleanFields(),
		Headers:     rc.Raw.Headers,
		Files:       rc.Raw.Files,
		Diagnostics: rc.Diagnostics,
		Timings:     &timings,
		Error:       rc.detail,
	}
}

// FromEcho returns the request context the gate stored, or nil when the
// gate is not mounted on this route.
func FromEcho(c echo.Context) *RequestContext {
	rc, _ := c.Get(ContextKey).(*RequestContext)
	return rc
}

// FromContext returns the request context carried by a
// context.Context, or nil.
func FromContext(ctx context.Context) *RequestContext {
	rc, _ := ctx.Value(ctxKey{}).(*RequestContext)
	return rc
}

// CleanedView is the payload interface for business handlers: raw
// fields overlaid with normalized values, plus the __original,
// __normalized and __diagnostics side channels.
func CleanedView(c echo.Context) map[string]any {
	if rc := FromEcho(c); rc != nil && rc.Cleaned != nil {
		return rc.Cleaned
	}
	return map[string]any{}
}
