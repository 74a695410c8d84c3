package ingress

import (
	"net/http"

	"github.com/google/uuid"
)

// Correlation headers. Inbound values are echoed; anything missing is
// generated, and all three always appear on the response, so the
// request id on the wire always matches the one in the logs.
const (
	HeaderRequestID = "X-Request-ID"
	HeaderTraceID   = "X-Trace-ID"
	HeaderParentID  = "X-Parent-ID"
)

func correlate(r *http.Request) (requestID, traceID, parentID string) {
	return headerOrNew(r, HeaderRequestID),
		headerOrNew(r, HeaderTraceID),
		headerOrNew(r, HeaderParentID)
}

func headerOrNew(r *http.Request, name string) string {
	if v := r.Header.Get(name); v != "" {
		return v
	}
	return uuid.NewString()
}
