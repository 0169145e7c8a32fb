// Package metrics exposes Prometheus instrumentation for the Athlete
// Sentinel backend. A dedicated registry is used so tests can create
// independent instances without duplicate-registration panics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles all collectors with their registry.
type Metrics struct {
	registry *prometheus.Registry

	generationTotal   *prometheus.CounterVec
	generationLatency *prometheus.HistogramVec
	httpDuration      *prometheus.HistogramVec
	deviceSubscribers prometheus.Gauge
}

// New creates and registers all collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		generationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_generation_requests_total",
			Help: "Generation requests by flow and outcome; reason is set on fallbacks.",
		}, []string{"flow", "outcome", "reason"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_generation_duration_seconds",
			Help:    "End-to-end generation latency per flow.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"flow"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sentinel_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
		deviceSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_device_ws_subscribers",
			Help: "Connected device-status websocket clients.",
		}),
	}
	reg.MustRegister(m.generationTotal, m.generationLatency, m.httpDuration, m.deviceSubscribers)
	return m
}

// ObserveGeneration records one gateway call. reason is empty on success.
func (m *Metrics) ObserveGeneration(flow, outcome, reason string, elapsed time.Duration) {
	m.generationTotal.WithLabelValues(flow, outcome, reason).Inc()
	m.generationLatency.WithLabelValues(flow).Observe(elapsed.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route, method string, status int, elapsed time.Duration) {
	m.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// DeviceSubscriberConnected adjusts the websocket subscriber gauge.
func (m *Metrics) DeviceSubscriberConnected(delta int) {
	m.deviceSubscribers.Add(float64(delta))
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
