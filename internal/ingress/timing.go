package ingress

import (
	"sync"
	"time"

	"github.com/safqa-app/safqagate/internal/model"
)

// timer does the four-bucket accounting for one request.
//
//	total      = gate entry to record emission
//	route      = wall time inside the dispatched handler minus service
//	service    = top-level instrumented spans only
//	middleware = total minus handler wall time
//
// Nested spans are absorbed into their parent so nothing is counted
// twice, and the buckets always sum back to total.
type timer struct {
	now func() time.Time

	mu         sync.Mutex
	start      time.Time
	handlerAt  time.Time
	handlerDur time.Duration
	serviceDur time.Duration
	depth      int
	total      time.Duration
	stopped    bool
}

func newTimer() *timer {
	t := &timer{now: time.Now}
	t.start = t.now()
	return t
}

func (t *timer) handlerStarted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlerAt = t.now()
}

func (t *timer) handlerFinished() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.handlerAt.IsZero() {
		t.handlerDur += t.now().Sub(t.handlerAt)
		t.handlerAt = time.Time{}
	}
}

// enterSpan reports whether this span is top level. Must be paired with
// exitSpan.
func (t *timer) enterSpan() (start time.Time, topLevel bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth++
	return t.now(), t.depth == 1
}

func (t *timer) exitSpan(start time.Time, topLevel bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.depth--
	if topLevel {
		t.serviceDur += t.now().Sub(start)
	}
}

// stop freezes total. A handler still marked running is closed out
// first, which is what happens when a panic unwinds past the handler.
func (t *timer) stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	if !t.handlerAt.IsZero() {
		t.handlerDur += t.now().Sub(t.handlerAt)
		t.handlerAt = time.Time{}
	}
	t.total = t.now().Sub(t.start)
	t.stopped = true
}

func (t *timer) snapshot() model.Timings {
	t.mu.Lock()
	defer t.mu.Unlock()

	total := t.total
	if !t.stopped {
		total = t.now().Sub(t.start)
	}
	handler := t.handlerDur
	service := t.serviceDur
	if service > handler {
		service = handler
	}
	route := handler - service
	middleware := total - handler
	if middleware < 0 {
		middleware = 0
	}
	return model.Timings{
		TotalMS:      ms(total),
		MiddlewareMS: ms(middleware),
		RouteMS:      ms(route),
		ServiceMS:    ms(service),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
