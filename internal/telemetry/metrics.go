package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "walletclinic"

// Metrics holds the service's Prometheus collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	stageDuration   *prometheus.HistogramVec
	degraded        *prometheus.CounterVec
	reports         *prometheus.CounterVec
}

// NewMetrics registers every collector on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 20, 40, 60},
		}, []string{"route"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "report_stage_duration_seconds",
			Help:      "Report pipeline stage latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "report_degraded_total",
			Help:      "Report fields that fell back to a default value.",
		}, []string{"field"}),
		reports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Reports built by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.stageDuration,
		m.degraded,
		m.reports,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(route string, code int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveStage records the duration of one report stage.
func (m *Metrics) ObserveStage(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

// IncDegraded counts a field that fell back to its default.
func (m *Metrics) IncDegraded(field string) {
	m.degraded.WithLabelValues(field).Inc()
}

// IncReport counts a finished report.
func (m *Metrics) IncReport(kind string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.reports.WithLabelValues(kind, outcome).Inc()
}
