// Package metrics exposes the gate's Prometheus collectors. Label sets
// stay small (outcome, bucket, kind) so cardinality cannot grow with
// traffic shape.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/safqa-app/safqagate/internal/model"
)

type GateMetrics struct {
	reg      *prometheus.Registry
	handler  http.Handler
	inflight prometheus.Gauge
	outcomes *prometheus.CounterVec
	duration *prometheus.HistogramVec
	diags    *prometheus.CounterVec
}

// New builds a fresh registry with process collectors plus the gate
// series. All methods are safe on a nil receiver, so wiring metrics is
// optional everywhere.
func New() *GateMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &GateMetrics{
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ingress_inflight_requests",
			Help: "Current number of requests inside the gate",
		}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingress_requests_total",
			Help: "Requests by gate outcome (completed, blocked, failed)",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ingress_stage_duration_seconds",
			Help:    "Request time split by accounting bucket",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"bucket"}),
		diags: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ingress_diagnostics_total",
			Help: "Validation findings by diagnostic kind",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.inflight, m.outcomes, m.duration, m.diags)

	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	m.reg = reg
	return m
}

// Handler serves the scrape endpoint for this registry.
func (m *GateMetrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return m.handler
}

func (m *GateMetrics) RequestStarted() {
	if m == nil {
		return
	}
	m.inflight.Inc()
}

// RequestFinished records one completed pass through the gate.
func (m *GateMetrics) RequestFinished(outcome string, t *model.Timings) {
	if m == nil {
		return
	}
	m.inflight.Dec()
	m.outcomes.WithLabelValues(outcome).Inc()
	if t == nil {
		return
	}
	m.duration.WithLabelValues("total").Observe(t.TotalMS / 1000)
	m.duration.WithLabelValues("middleware").Observe(t.MiddlewareMS / 1000)
	m.duration.WithLabelValues("route").Observe(t.RouteMS / 1000)
	m.duration.WithLabelValues("service").Observe(t.ServiceMS / 1000)
}

// DiagnosticsFound counts validation findings by kind.
func (m *GateMetrics) DiagnosticsFound(ds []model.Diagnostic) {
	if m == nil {
		return
	}
	for _, d := range ds {
		m.diags.WithLabelValues(string(d.Kind)).Inc()
	}
}
