// Package metrics provides Prometheus metrics for the aggregation engine.
//
// The engine is a batch process, so metrics are primarily read at the end of
// a run (and by tests); the registry is still a standard Prometheus one so a
// scrape endpoint or push gateway can be bolted on without touching callers.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Manager owns all Prometheus collectors for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         prometheus.Registerer

	// Input pass
	recordsRead    prometheus.Counter
	rowsDropped    *prometheus.CounterVec
	recordsGrouped prometheus.Counter

	// Aggregation
	bucketsComputed      prometheus.Counter
	bucketsOmitted       *prometheus.CounterVec
	bucketComputeSeconds prometheus.Histogram
	workerCount          prometheus.Gauge

	// Run level
	runDurationSeconds prometheus.Histogram
	runsFailed         prometheus.Counter
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "ageincome",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	m.recordsRead = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_read_total",
		Help:      "Extract rows consumed, malformed or not.",
	})
	m.rowsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_dropped_total",
		Help:      "Rows excluded before aggregation, by reason.",
	}, []string{"reason"})
	m.recordsGrouped = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "records_grouped_total",
		Help:      "Records that landed in a (year, age) bucket.",
	})
	m.bucketsComputed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buckets_computed_total",
		Help:      "Buckets summarized into output cells.",
	})
	m.bucketsOmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "buckets_omitted_total",
		Help:      "Buckets left out of the output, by reason.",
	}, []string{"reason"})
	m.bucketComputeSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "bucket_compute_seconds",
		Help:      "Per-bucket summarize latency.",
		Buckets:   m.histogramBuckets,
	})
	m.workerCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_count",
		Help:      "Concurrent bucket summarize workers.",
	})
	m.runDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "End-to-end pipeline run duration.",
		Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	m.runsFailed = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_failed_total",
		Help:      "Runs aborted by a fatal error.",
	})

	if m.registry != nil {
		m.registry.MustRegister(
			m.recordsRead,
			m.rowsDropped,
			m.recordsGrouped,
			m.bucketsComputed,
			m.bucketsOmitted,
			m.bucketComputeSeconds,
			m.workerCount,
			m.runDurationSeconds,
			m.runsFailed,
		)
	}
}

// Package-level helpers against the global manager.

// AddRecordsRead counts consumed extract rows.
func AddRecordsRead(n int) {
	if globalManager.enabled {
		globalManager.recordsRead.Add(float64(n))
	}
}

// AddRowsDropped counts excluded rows under a reason label.
func AddRowsDropped(reason string, n int) {
	if globalManager.enabled && n > 0 {
		globalManager.rowsDropped.WithLabelValues(reason).Add(float64(n))
	}
}

// AddRecordsGrouped counts records routed into buckets.
func AddRecordsGrouped(n int) {
	if globalManager.enabled {
		globalManager.recordsGrouped.Add(float64(n))
	}
}

// RecordBucketComputed counts one summarized bucket.
func RecordBucketComputed() {
	if globalManager.enabled {
		globalManager.bucketsComputed.Inc()
	}
}

// RecordBucketOmitted counts one omitted bucket under a reason label.
func RecordBucketOmitted(reason string) {
	if globalManager.enabled {
		globalManager.bucketsOmitted.WithLabelValues(reason).Inc()
	}
}

// ObserveBucketCompute records one bucket's summarize latency in seconds.
func ObserveBucketCompute(seconds float64) {
	if globalManager.enabled {
		globalManager.bucketComputeSeconds.Observe(seconds)
	}
}

// SetWorkerCount publishes the configured worker parallelism.
func SetWorkerCount(n int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(n))
	}
}

// ObserveRunDuration records the end-to-end run duration in seconds.
func ObserveRunDuration(seconds float64) {
	if globalManager.enabled {
		globalManager.runDurationSeconds.Observe(seconds)
	}
}

// RecordRunFailed counts one aborted run.
func RecordRunFailed() {
	if globalManager.enabled {
		globalManager.runsFailed.Inc()
	}
}

// Registry exposes the engine's registry for scrape or push integration.
func Registry() *prometheus.Registry {
	return customRegistry
}
