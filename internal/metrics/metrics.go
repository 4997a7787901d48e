// Package metrics provides Prometheus instrumentation for the toki server.
//
// All metrics are registered in a custom [prometheus.Registry] (not the global
// default) so that only toki metrics appear on the /metrics endpoint.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// outcome label for dispatches that returned an error
const OutcomeFailed = "failed"

// Metrics holds all Prometheus collectors used by the toki server.
type Metrics struct {
	Registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	EventsTotal         *prometheus.CounterVec
	DispatchesTotal     *prometheus.CounterVec
	DispatchDuration    *prometheus.HistogramVec
	ConditionErrors     *prometheus.CounterVec
	HandlersLoaded      prometheus.Gauge
	AuthFailuresTotal   prometheus.Counter
}

// New creates and registers all toki metrics in a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toki_http_requests_total",
			Help: "Total number of HTTP requests.",
		}, []string{"method", "route", "status"}),

		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toki_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),

		EventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toki_events_total",
			Help: "Total number of triggered events.",
		}, []string{"event"}),

		DispatchesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toki_dispatches_total",
			Help: "Total number of handler dispatches by action and outcome.",
		}, []string{"action", "outcome"}),

		DispatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "toki_dispatch_duration_seconds",
			Help:    "Latency of a single handler dispatch in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"action"}),

		ConditionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "toki_condition_errors_total",
			Help: "Total number of handler conditions that failed to evaluate.",
		}, []string{"handler"}),

		HandlersLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "toki_handlers_loaded",
			Help: "Number of handler definitions currently loaded.",
		}),

		AuthFailuresTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "toki_auth_failures_total",
			Help: "Total number of failed admin authentication attempts.",
		}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.EventsTotal,
		m.DispatchesTotal,
		m.DispatchDuration,
		m.ConditionErrors,
		m.HandlersLoaded,
		m.AuthFailuresTotal,
	)

	return m
}

// Handler returns an [http.Handler] that serves Prometheus metrics.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}

// RecordHTTPRequest records count and latency of one served request.
func (m *Metrics) RecordHTTPRequest(method, route string, status int, took time.Duration) {
	code := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, route, code).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route, code).Observe(took.Seconds())
}

// RecordEvent increments the counter of the given event.
func (m *Metrics) RecordEvent(event string) {
	m.EventsTotal.WithLabelValues(event).Inc()
}

// RecordDispatch records one dispatch. Use OutcomeFailed for dispatches that returned an error.
func (m *Metrics) RecordDispatch(action, outcome string, took time.Duration) {
	m.DispatchesTotal.WithLabelValues(action, outcome).Inc()
	m.DispatchDuration.WithLabelValues(action).Observe(took.Seconds())
}

// IncConditionErrors increments the condition error counter of a handler.
func (m *Metrics) IncConditionErrors(handler string) {
	m.ConditionErrors.WithLabelValues(handler).Inc()
}

// SetHandlersLoaded updates the loaded handler gauge.
func (m *Metrics) SetHandlersLoaded(n int) {
	m.HandlersLoaded.Set(float64(n))
}

// IncAuthFailures increments the auth failure counter.
func (m *Metrics) IncAuthFailures() {
	m.AuthFailuresTotal.Inc()
}
