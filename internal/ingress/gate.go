package ingress

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/safqa-app/safqagate/internal/logging"
	"github.com/safqa-app/safqagate/internal/metrics"
	"github.com/safqa-app/safqagate/internal/model"
	"github.com/safqa-app/safqagate/internal/normalize"
	"github.com/safqa-app/safqagate/internal/registry"
	"github.com/safqa-app/safqagate/internal/response"
	"github.com/safqa-app/safqagate/internal/validate"
)

// Pipeline-stage breadcrumbs the gate appends on its own.
const (
	crumbExtract   = "extract"
	crumbNormalize = "normalize"
	crumbValidate  = "validate"
	crumbDispatch  = "dispatch"
	crumbComplete  = "complete"
	crumbFail      = "fail"
)

// Gate walks every request through extract, normalize and validate,
// then either dispatches it to the matched handler or blocks it with a
// structured 400. Whatever happens inside, each request ends in exactly
// one emitted lifecycle record.
type Gate struct {
	emitter  *logging.Emitter
	registry *registry.Provider
	profiles *Profiles
	metrics  *metrics.GateMetrics
	rules    normalize.Rules
	extract  ExtractConfig
	observe  func(*model.LogRecord)
}

// GateOptions wires the gate's collaborators. Everything except the
// emitter has a usable default.
type GateOptions struct {
	Emitter  *logging.Emitter
	Registry *registry.Provider
	Profiles *Profiles
	Metrics  *metrics.GateMetrics
	Rules    normalize.Rules
	Extract  ExtractConfig
	// Observe receives each emitted record after sanitization, e.g. to
	// feed a recent-requests ring.
	Observe func(*model.LogRecord)
}

func NewGate(opts GateOptions) *Gate {
	if opts.Registry == nil {
		opts.Registry = registry.NewProvider(nil)
	}
	if opts.Profiles == nil {
		opts.Profiles = NewProfiles()
	}
	if len(opts.Rules.URLSuffixes) == 0 {
		opts.Rules = normalize.DefaultRules()
	}
	def := DefaultExtractConfig()
	if opts.Extract.MaxBodyBytes <= 0 {
		opts.Extract.MaxBodyBytes = def.MaxBodyBytes
	}
	if opts.Extract.CaptureHeaders == nil {
		opts.Extract.CaptureHeaders = def.CaptureHeaders
	}
	return &Gate{
		emitter:  opts.Emitter,
		registry: opts.Registry,
		profiles: opts.Profiles,
		metrics:  opts.Metrics,
		rules:    opts.Rules,
		extract:  opts.Extract,
		observe:  opts.Observe,
	}
}

// Profiles returns the route profile table for declarations.
func (g *Gate) Profiles() *Profiles { return g.profiles }

// Registry returns the snapshot provider the gate validates against.
func (g *Gate) Registry() *registry.Provider { return g.registry }

// Middleware mounts the gate on an echo chain. It runs for every
// matched route.
func (g *Gate) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rc := g.begin(c)
			defer func() {
				if r := recover(); r != nil {
					rc.outcome = outcomeFailed
					rc.detail = panicDetail(r)
					if !c.Response().Committed {
						response.InternalError(c, rc.RequestID)
					}
				}
				g.finish(rc)
			}()

			req := c.Request()

			rc.Raw = extractPayload(req, g.extract)
			rc.AddBreadcrumb(crumbExtract)

			rc.Normalized, rc.Deltas = normalize.Apply(g.rules, rc.Raw.Fields())
			rc.AddBreadcrumb(crumbNormalize)

			profile, _ := g.profiles.Lookup(req.Method, c.Path())
			rc.Diagnostics = validate.Evaluate(profile, rc.Normalized, g.registry.Current())
			rc.AddBreadcrumb(crumbValidate)
			rc.buildCleaned()

			if len(rc.Diagnostics) > 0 && profile.MustValidate() {
				rc.outcome = outcomeBlocked
				return response.ValidationFailed(c, rc.RequestID, validate.ErrorGroups(rc.Diagnostics))
			}

			rc.AddBreadcrumb(crumbDispatch)
			err := func() error {
				rc.timer.handlerStarted()
				defer rc.timer.handlerFinished()
				return next(c)
			}()
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				// A deliberate business response, not a failure.
				return err
			}
			rc.outcome = outcomeFailed
			rc.detail = errorDetail(err)
			if !c.Response().Committed {
				return response.InternalError(c, rc.RequestID)
			}
			return nil
		}
	}
}

// begin builds the request context, stamps the correlation headers on
// the response and stores the context where handlers and service calls
// can reach it.
func (g *Gate) begin(c echo.Context) *RequestContext {
	req := c.Request()
	requestID, traceID, parentID := correlate(req)
	rc := &RequestContext{
		RequestID: requestID,
		TraceID:   traceID,
		ParentID:  parentID,
		UserID:    userHint(req),
		Method:    req.Method,
		Path:      req.URL.Path,
		outcome:   outcomeCompleted,
		timer:     newTimer(),
	}

	header := c.Response().Header()
	header.Set(HeaderRequestID, rc.RequestID)
	header.Set(HeaderTraceID, rc.TraceID)
	header.Set(HeaderParentID, rc.ParentID)

	c.Set(ContextKey, rc)
	c.SetRequest(req.WithContext(context.WithValue(req.Context(), ctxKey{}, rc)))

	g.metrics.RequestStarted()
	return rc
}

// finish closes the request out: final breadcrumb, frozen timings, one
// emitted record, metrics. It runs exactly once per request, on every
// path out of the middleware.
func (g *Gate) finish(rc *RequestContext) {
	event := logging.EventCompleted
	switch rc.outcome {
	case outcomeBlocked:
		event = logging.EventValidationFailed
	case outcomeFailed:
		event = logging.EventFailed
		rc.AddBreadcrumb(crumbFail)
	default:
		rc.AddBreadcrumb(crumbComplete)
	}

	rc.timer.stop()
	rec := rc.Record()
	g.emitter.Emit(event, rec)
	if g.observe != nil {
		g.observe(rec)
	}
	g.metrics.DiagnosticsFound(rc.Diagnostics)
	g.metrics.RequestFinished(rc.outcome, rec.Timings)
}

func errorDetail(err error) *model.ErrorDetail {
	return &model.ErrorDetail{
		Kind:    fmt.Sprintf("%T", err),
		Message: err.Error(),
		Stack:   string(debug.Stack()),
	}
}

func panicDetail(r any) *model.ErrorDetail {
	stack := debug.Stack()
	return &model.ErrorDetail{
		Kind:     "panic",
		Message:  fmt.Sprint(r),
		Location: panicSite(stack),
		Stack:    string(stack),
	}
}

// panicSite pulls the failing file:line out of a captured stack, the
// frame right below the runtime's panic entry.
func panicSite(stack []byte) string {
	lines := strings.Split(string(stack), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimSpace(line), "panic(") && i+3 < len(lines) {
			fields := strings.Fields(lines[i+3])
			if len(fields) > 0 {
				return fields[0]
			}
		}
	}
	return ""
}
