// Package metrics declares the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for outbound requests
const (
	OutcomeSuccess = "success"
	OutcomeEmpty   = "empty"
	OutcomeError   = "error"
)

var (
	OutboundRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swytch_outbound_requests_total",
			Help: "Total number of requests sent to third-party APIs",
		},
		[]string{"provider", "outcome"},
	)

	OutboundDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "swytch_outbound_request_duration_seconds",
			Help:    "Latency of third-party API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swytch_fallbacks_total",
			Help: "Total number of times a component fell back to a stub or heuristic result",
		},
		[]string{"component"},
	)

	AlternativesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "swytch_alternatives_returned",
			Help:    "Number of alternatives returned per analysis",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "swytch_http_requests_total",
			Help: "Total number of HTTP requests served",
		},
		[]string{"route", "status"},
	)
)

// ObserveOutbound records one third-party call
func ObserveOutbound(provider, outcome string, started time.Time) {
	OutboundRequests.WithLabelValues(provider, outcome).Inc()
	OutboundDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}

// OutcomeOf classifies a call by its error and result size
func OutcomeOf(err error, results int) string {
	switch {
	case err != nil:
		return OutcomeError
	case results == 0:
		return OutcomeEmpty
	default:
		return OutcomeSuccess
	}
}
