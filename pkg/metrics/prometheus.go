// Package metrics provides Prometheus metrics for the elograph rating pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns all Prometheus metrics for the pipeline.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	registry         *prometheus.Registry

	// Ingestion metrics
	filesParsed   prometheus.Counter
	parseErrors   *prometheus.CounterVec
	parseLatency  prometheus.Histogram
	batchRuns     prometheus.Counter
	batchDuration prometheus.Histogram
	batchInFlight prometheus.Gauge
	workerCount   prometheus.Gauge

	// Rating metrics
	tournamentsApplied prometheus.Counter
	tournamentsSkipped prometheus.Counter
	snapshotsAppended  prometheus.Counter
	eventsSkipped      *prometheus.CounterVec
	applyLatency       prometheus.Histogram

	// Aggregate metrics
	schoolsTracked prometheus.Gauge
	statesTracked  prometheus.Gauge
}

// Global metrics manager on its own registry, to keep default Go collectors out.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager()
}

// NewManager creates a metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "elograph",
		subsystem:        "pipeline",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		registry:         prometheus.NewRegistry(),
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	factory := promauto.With(m.registry)

	m.filesParsed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "files_parsed_total",
		Help: "Result files parsed successfully.",
	})
	m.parseErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "parse_errors_total",
		Help: "Result files that failed to parse, by kind.",
	}, []string{"kind"})
	m.parseLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "parse_latency_ms",
		Help:    "Per-file parse latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.batchRuns = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "batch_runs_total",
		Help: "Ingestion batches executed.",
	})
	m.batchDuration = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "batch_duration_ms",
		Help:    "End-to-end batch duration in milliseconds.",
		Buckets: m.histogramBuckets,
	})
	m.batchInFlight = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "batch_in_flight",
		Help: "Files currently being parsed.",
	})
	m.workerCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "worker_count",
		Help: "Configured parser worker count.",
	})

	m.tournamentsApplied = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tournaments_applied_total",
		Help: "Tournaments whose ratings were applied to the store.",
	})
	m.tournamentsSkipped = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "tournaments_skipped_total",
		Help: "Tournaments skipped as already applied.",
	})
	m.snapshotsAppended = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "snapshots_appended_total",
		Help: "Rating snapshots appended to school histories.",
	})
	m.eventsSkipped = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "events_skipped_total",
		Help: "Event rankings skipped during rating, by reason.",
	}, []string{"reason"})
	m.applyLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name:    "apply_latency_ms",
		Help:    "Per-tournament rating application latency in milliseconds.",
		Buckets: m.histogramBuckets,
	})

	m.schoolsTracked = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "schools_tracked",
		Help: "Distinct (state, school) pairs in the aggregate.",
	})
	m.statesTracked = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem,
		Name: "states_tracked",
		Help: "Distinct states in the aggregate.",
	})
}

// Handler returns an HTTP handler serving the manager's registry.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Package-level helpers delegating to the global manager.

func RecordFileParsed() {
	if globalManager.enabled {
		globalManager.filesParsed.Inc()
	}
}

func RecordParseError(kind string) {
	if globalManager.enabled {
		globalManager.parseErrors.WithLabelValues(kind).Inc()
	}
}

func ObserveParseLatency(ms float64) {
	if globalManager.enabled {
		globalManager.parseLatency.Observe(ms)
	}
}

func RecordBatchRun() {
	if globalManager.enabled {
		globalManager.batchRuns.Inc()
	}
}

func ObserveBatchDuration(ms float64) {
	if globalManager.enabled {
		globalManager.batchDuration.Observe(ms)
	}
}

func UpdateBatchInFlight(n int) {
	if globalManager.enabled {
		globalManager.batchInFlight.Set(float64(n))
	}
}

func UpdateWorkerCount(n int) {
	if globalManager.enabled {
		globalManager.workerCount.Set(float64(n))
	}
}

func RecordTournamentApplied() {
	if globalManager.enabled {
		globalManager.tournamentsApplied.Inc()
	}
}

func RecordTournamentSkipped() {
	if globalManager.enabled {
		globalManager.tournamentsSkipped.Inc()
	}
}

func RecordSnapshotsAppended(n int) {
	if globalManager.enabled {
		globalManager.snapshotsAppended.Add(float64(n))
	}
}

func RecordEventSkipped(reason string) {
	if globalManager.enabled {
		globalManager.eventsSkipped.WithLabelValues(reason).Inc()
	}
}

func ObserveApplyLatency(ms float64) {
	if globalManager.enabled {
		globalManager.applyLatency.Observe(ms)
	}
}

func UpdateSchoolsTracked(n int) {
	if globalManager.enabled {
		globalManager.schoolsTracked.Set(float64(n))
	}
}

func UpdateStatesTracked(n int) {
	if globalManager.enabled {
		globalManager.statesTracked.Set(float64(n))
	}
}

// Handler returns the global manager's HTTP handler.
func Handler() http.Handler {
	return globalManager.Handler()
}
