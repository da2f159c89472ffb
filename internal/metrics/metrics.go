// Package metrics records backend request counters and latencies.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder with its collectors registered.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "nexus",
				Name:      "backend_requests_total",
				Help:      "Backend requests by endpoint and outcome.",
			},
			[]string{"endpoint", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "nexus",
				Name:      "backend_request_duration_seconds",
				Help:      "Backend request latency by endpoint.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
			},
			[]string{"endpoint"},
		),
	}
	r.registry.MustRegister(r.requests, r.duration)
	return r
}

// Observe records one finished request. A nil Recorder is a no-op.
func (r *Recorder) Observe(endpoint, outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(endpoint, outcome).Inc()
	r.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
