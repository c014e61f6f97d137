// Package metrics exposes Prometheus collectors for the audit pipeline.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	auditChecksTotal          *prometheus.CounterVec
	auditCheckDurationSeconds *prometheus.HistogramVec
	auditRetriesTotal         prometheus.Counter
	auditBatchURLs            prometheus.Gauge
	auditCandidateURLs        prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		auditChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "psibatch_checks_total",
				Help: "Total number of completed checks, labeled by strategy and status.",
			},
			[]string{"strategy", "status"},
		)

		auditCheckDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "psibatch_check_duration_seconds",
				Help:    "Histogram of end-to-end check latencies, labeled by strategy.",
				Buckets: []float64{1, 2, 5, 10, 20, 30, 60},
			},
			[]string{"strategy"},
		)

		auditRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "psibatch_retries_total",
				Help: "Total retry attempts made against the scoring API.",
			},
		)

		auditBatchURLs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "psibatch_batch_urls",
				Help: "Number of URLs selected for the current batch.",
			},
		)

		auditCandidateURLs = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "psibatch_candidate_urls",
				Help: "Number of candidate URLs after dedup and filtering.",
			},
		)
	})
}

// Handler returns an http.Handler for exposing Prometheus metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveCheck records one completed check.
func ObserveCheck(strategy string, status string, duration time.Duration) {
	auditChecksTotal.WithLabelValues(strategy, status).Inc()
	auditCheckDurationSeconds.WithLabelValues(strategy).Observe(duration.Seconds())
}

// AddRetries adds n to the retry counter.
func AddRetries(n int) {
	if n > 0 {
		auditRetriesTotal.Add(float64(n))
	}
}

// SetBatchSize records the size of the selected batch.
func SetBatchSize(n int) {
	auditBatchURLs.Set(float64(n))
}

// SetCandidateCount records the candidate set size.
func SetCandidateCount(n int) {
	auditCandidateURLs.Set(float64(n))
}
