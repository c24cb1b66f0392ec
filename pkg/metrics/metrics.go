package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal     *prometheus.CounterVec
	HTTPRequestDuration   *prometheus.HistogramVec
	ReconciledURLsTotal   *prometheus.CounterVec
	ContentFetchFailures  prometheus.Counter
	SubmissionChunksTotal *prometheus.CounterVec
	SubmittedURLsTotal    prometheus.Counter
	SubmissionDuration    prometheus.Histogram
	WatcherRunsTotal      *prometheus.CounterVec

	initOnce sync.Once
)

// Init registers all collectors with the default registry. It is safe to
// call more than once.
func Init() {
	initOnce.Do(register)
}

func register() {
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ReconciledURLsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexnow_reconciled_urls_total",
			Help: "URL entries produced by reconciliation, by resulting status.",
		},
		[]string{"status"},
	)

	ContentFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexnow_content_fetch_failures_total",
			Help: "Content fetches that yielded no content.",
		},
	)

	SubmissionChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexnow_submission_chunks_total",
			Help: "Submission chunks sent to IndexNow, by outcome.",
		},
		[]string{"outcome"}, // accepted, rejected, network_error
	)

	SubmittedURLsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexnow_submitted_urls_total",
			Help: "URLs acknowledged by IndexNow.",
		},
	)

	SubmissionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indexnow_submission_chunk_duration_seconds",
			Help:    "Duration of a single chunk submission.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)

	WatcherRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "indexnow_watcher_runs_total",
			Help: "Scheduled re-check passes, by result.",
		},
		[]string{"result"},
	)
}
