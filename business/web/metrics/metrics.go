// Package metrics publishes the node's prometheus metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "web",
		Name:      "requests_total",
		Help:      "Count of requests served by the node APIs.",
	}, []string{"method"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meridian",
		Subsystem: "web",
		Name:      "request_duration_seconds",
		Help:      "Duration of requests served by the node APIs.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	errorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "web",
		Name:      "errors_total",
		Help:      "Count of requests that resulted in an error response.",
	})

	panicsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meridian",
		Subsystem: "web",
		Name:      "panics_total",
		Help:      "Count of recovered handler panics.",
	})
)

// ObserveRequest records one served request with its latency.
func ObserveRequest(method string, d time.Duration) {
	requestsTotal.WithLabelValues(method).Inc()
	requestDuration.WithLabelValues(method).Observe(d.Seconds())
}

// AddError counts one request that ended in an error response.
func AddError() {
	errorsTotal.Inc()
}

// AddPanic counts one recovered handler panic.
func AddPanic() {
	panicsTotal.Inc()
}
