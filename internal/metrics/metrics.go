// Package metrics registers the engine's prometheus collectors on the
// default registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/optimode/mxprobe/types"
)

var (
	probeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxprobe_probe_total",
			Help: "Probe attempts by outcome: accepted, rejected, transient, permanent.",
		},
		[]string{
			"outcome",
		},
	)
	probeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mxprobe_probe_duration_seconds",
			Help:    "Duration of a single probe attempt in seconds.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30, 60},
		},
	)
	resultTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mxprobe_result_total",
			Help: "Verification results by status and detail.",
		},
		[]string{
			"status",
			"detail",
		},
	)
	rateLimitWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mxprobe_ratelimit_wait_seconds",
			Help:    "Time a probe waited for the rate limiter in seconds.",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
	batchesRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mxprobe_batches_running",
			Help: "Batches currently executing.",
		},
	)
)

// Probe records one probe attempt.
func Probe(out types.Outcome, d time.Duration) {
	probeTotal.WithLabelValues(out.Kind.String()).Inc()
	probeDuration.Observe(d.Seconds())
}

// Result records one final verification result.
func Result(res types.VerificationResult) {
	resultTotal.WithLabelValues(string(res.Status), res.Detail).Inc()
}

// RateLimitWait records time spent waiting for a probe slot.
func RateLimitWait(d time.Duration) {
	rateLimitWait.Observe(d.Seconds())
}

// BatchStarted and BatchFinished track running batches.
func BatchStarted()  { batchesRunning.Inc() }
func BatchFinished() { batchesRunning.Dec() }
