// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts HTTP requests by method, path, and status code.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgcoach_requests_total",
		Help: "Total HTTP requests processed.",
	}, []string{"method", "path", "status"})

	// AttemptsTotal counts generation attempts by model and result (ok, error).
	AttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgcoach_generate_attempts_total",
		Help: "Generation attempts made against the Gemini API.",
	}, []string{"model", "result"})

	// AttemptFailuresTotal counts failed attempts by model and error kind.
	AttemptFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgcoach_generate_failures_total",
		Help: "Failed generation attempts by error kind.",
	}, []string{"model", "kind"})

	// RewritesTotal counts finished rewrite chains by model and outcome (success, failed).
	RewritesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "msgcoach_rewrites_total",
		Help: "Rewrite requests that reached a terminal state.",
	}, []string{"model", "outcome"})

	// RewriteDuration tracks the wall time of a whole rewrite chain, retries included.
	RewriteDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "msgcoach_rewrite_duration_seconds",
		Help:    "Time spent on a rewrite including backoff.",
		Buckets: []float64{0.5, 1, 2, 3, 5, 10, 20, 30, 60},
	}, []string{"model"})

	// InputChars tracks the distribution of input text lengths.
	InputChars = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "msgcoach_input_chars",
		Help:    "Number of characters in rewrite input text.",
		Buckets: []float64{25, 50, 100, 250, 500, 1000, 2500},
	})

	// MaskedTotal counts rewrites where privacy mode changed the outgoing text.
	MaskedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "msgcoach_privacy_masked_total",
		Help: "Rewrites whose text was altered by privacy masking.",
	})
)
