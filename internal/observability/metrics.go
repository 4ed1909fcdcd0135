// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Ingestion metrics
	TokensIngested  prometheus.Counter
	SnapshotsStored prometheus.Counter
	FeedBufferSize  prometheus.Gauge
	IngestionErrors *prometheus.CounterVec

	// Detection metrics
	BatchRunsTotal    *prometheus.CounterVec
	BatchDuration     prometheus.Histogram
	MatchesFound      prometheus.Counter
	MatchesByMethod   *prometheus.CounterVec
	ParentsLinked     prometheus.Counter
	RunnersSelected   prometheus.Gauge
	CandidatesInBatch prometheus.Gauge

	// Database metrics
	DBQueryErrors *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "solana_derivative_lab"
	}

	return &Metrics{
		// Ingestion metrics
		TokensIngested: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "tokens_ingested_total",
			Help:      "Total number of token profiles ingested",
		}),
		SnapshotsStored: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "snapshots_stored_total",
			Help:      "Total number of market snapshots stored",
		}),
		FeedBufferSize: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "feed_buffer_size",
			Help:      "Current number of tokens buffered by the feed",
		}),
		IngestionErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingestion",
			Name:      "errors_total",
			Help:      "Total number of ingestion errors by source",
		}, []string{"source"}),

		// Detection metrics
		BatchRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "batch_runs_total",
			Help:      "Total number of batch runs by status",
		}, []string{"status"}),
		BatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "batch_duration_seconds",
			Help:      "Batch run duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120},
		}),
		MatchesFound: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "matches_found_total",
			Help:      "Total number of derivative matches found",
		}),
		MatchesByMethod: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "matches_by_method_total",
			Help:      "Total number of matches by best detection method",
		}, []string{"method"}),
		ParentsLinked: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "parents_linked_total",
			Help:      "Total number of parent links persisted",
		}),
		RunnersSelected: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "runners_selected",
			Help:      "Number of runners in the latest batch",
		}),
		CandidatesInBatch: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "detection",
			Name:      "candidates_in_batch",
			Help:      "Number of candidates evaluated in the latest batch",
		}),

		// Database metrics
		DBQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "database",
			Name:      "query_errors_total",
			Help:      "Total number of database query errors",
		}, []string{"database", "operation"}),

		// Health metrics
		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of last successful batch run",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordBatchRun records a batch run outcome.
func RecordBatchRun(status string, durationSeconds float64) {
	DefaultMetrics.BatchRunsTotal.WithLabelValues(status).Inc()
	DefaultMetrics.BatchDuration.Observe(durationSeconds)
}

// RecordMatch records a found match by its best method.
func RecordMatch(method string) {
	DefaultMetrics.MatchesFound.Inc()
	DefaultMetrics.MatchesByMethod.WithLabelValues(method).Inc()
}

// RecordIngestionError records an ingestion error by source.
func RecordIngestionError(source string) {
	DefaultMetrics.IngestionErrors.WithLabelValues(source).Inc()
}

// RecordDBError records a database query error.
func RecordDBError(database, operation string) {
	DefaultMetrics.DBQueryErrors.WithLabelValues(database, operation).Inc()
}
