package ingress

import "context"

// Span runs fn as a named service call on the request's timeline: it
// pushes a breadcrumb and adds the elapsed time to the service bucket.
// Only top-level spans count toward service time; a span opened inside
// another span is absorbed by its parent. Outside a gated request Span
// just runs fn.
func Span(ctx context.Context, name string, fn func(context.Context) error) error {
	rc := FromContext(ctx)
	if rc == nil {
		return fn(ctx)
	}
	rc.AddBreadcrumb(name)
	start, topLevel := rc.timer.enterSpan()
	defer rc.timer.exitSpan(start, topLevel)
	return fn(ctx)
}
