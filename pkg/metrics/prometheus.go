// Package metrics provides Prometheus metrics for the tonus configuration engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Default metrics configuration constants.
const (
	defaultRefreshInterval = 10 * time.Second
)

// Manager manages all Prometheus metrics for the tonus service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	customLabels     map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Mutation metrics - the engine's unit of work
	mutationsApplied   *prometheus.CounterVec
	mutationsDuplicate prometheus.Counter
	mutationsRejected  *prometheus.CounterVec
	mutationLatency    prometheus.Histogram
	presetApplies      *prometheus.CounterVec

	// Session metrics
	sessionsActive   prometheus.Gauge
	sessionsCreated  prometheus.Counter
	sessionsDeleted  prometheus.Counter
	sessionsRestored prometheus.Counter

	// Save queue metrics - async persistence backlog
	saveQueueSize        prometheus.Gauge
	saveQueueCapacity    prometheus.Gauge
	saveQueueUtilization prometheus.Gauge
	saveEnqueued         prometheus.Counter
	saveDequeued         prometheus.Counter
	saveDropped          prometheus.Counter

	// Persistence metrics - workers and the snapshot store
	snapshotsPersisted prometheus.Counter
	persistErrors      prometheus.Counter
	persistLatency     prometheus.Histogram
	storeSessions      prometheus.Gauge
	storeSaveLatency   prometheus.Histogram
	storeQueryLatency  prometheus.Histogram

	// Worker pool metrics
	workerActiveCount prometheus.Gauge
	workerIdleCount   prometheus.Gauge
	workerErrors      prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Error metrics - detailed error tracking
	errorsByComponent *prometheus.CounterVec
	errorsByType      *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec
	errorLatency      *prometheus.HistogramVec

	// System metrics
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "tonus",
		subsystem:        "engine",
		histogramBuckets: prometheus.DefBuckets,
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		customLabels:     make(map[string]string),
		metricPrefix:     "",
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	// Register on the configured registry (custom by default).
	auto := promauto.With(m.registry)

	// Mutation metrics
	m.mutationsApplied = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "mutations_applied_total",
			Help:      "Total number of configuration mutations applied, by kind",
		},
		[]string{"kind"},
	)

	m.mutationsDuplicate = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutations_duplicate_total",
		Help:      "Total number of mutations absorbed as duplicates via update id",
	})

	m.mutationsRejected = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "mutations_rejected_total",
			Help:      "Total number of mutations rejected at the boundary, by reason",
		},
		[]string{"reason"},
	)

	m.mutationLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "mutation_latency_milliseconds",
		Help:      "Histogram of mutation apply latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.presetApplies = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "preset_applies_total",
			Help:      "Total number of preset applications, by preset name",
		},
		[]string{"preset"},
	)

	// Session metrics
	m.sessionsActive = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_active",
		Help:      "Current number of live sessions held in memory",
	})

	m.sessionsCreated = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_created_total",
		Help:      "Total number of sessions created",
	})

	m.sessionsDeleted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_deleted_total",
		Help:      "Total number of sessions deleted",
	})

	m.sessionsRestored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "sessions_restored_total",
		Help:      "Total number of sessions lazily restored from the snapshot store",
	})

	// Save queue metrics
	m.saveQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_queue_size",
		Help:      "Current size of the snapshot save queue (persistence backlog)",
	})

	m.saveQueueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_queue_capacity",
		Help:      "Maximum capacity of the snapshot save queue",
	})

	m.saveQueueUtilization = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_queue_utilization",
		Help:      "Save queue utilization ratio (size over capacity)",
	})

	m.saveEnqueued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_enqueued_total",
		Help:      "Total number of save requests enqueued",
	})

	m.saveDequeued = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_dequeued_total",
		Help:      "Total number of save requests handed to workers",
	})

	m.saveDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "save_dropped_total",
		Help:      "Total number of save requests dropped because the queue was full or closed",
	})

	// Persistence metrics
	m.snapshotsPersisted = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "snapshots_persisted_total",
		Help:      "Total number of session snapshots written to the store",
	})

	m.persistErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_errors_total",
		Help:      "Total number of snapshot persistence failures",
	})

	m.persistLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_latency_milliseconds",
		Help:      "Histogram of end-to-end snapshot persistence latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_sessions",
		Help:      "Number of session snapshots currently in the durable store",
	})

	m.storeSaveLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_save_latency_milliseconds",
		Help:      "Histogram of store write latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.storeQueryLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_query_latency_milliseconds",
		Help:      "Histogram of store read latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	// Worker pool metrics
	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_active_count",
		Help:      "Number of persistence workers currently processing",
	})

	m.workerIdleCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_idle_count",
		Help:      "Number of persistence workers currently idle",
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "worker_errors_total",
		Help:      "Total number of worker processing errors",
	})

	// HTTP metrics
	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint, method and status",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)

	// Error metrics
	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_component_total",
			Help:      "Total number of errors by component and error type",
		},
		[]string{"component", "error_type"},
	)

	m.errorsByType = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_type_total",
			Help:      "Total number of errors by error type and severity",
		},
		[]string{"error_type", "severity"},
	)

	m.errorsByEndpoint = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_by_endpoint_total",
			Help:      "Total number of errors by endpoint, method and error type",
		},
		[]string{"endpoint", "method", "error_type"},
	)

	m.errorLatency = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "error_latency_milliseconds",
			Help:      "Latency of operations that ended in an error, in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"component", "error_type"},
	)

	// System metrics
	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_memory_usage_bytes",
		Help:      "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_goroutine_count",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "system_gc_pause_time_milliseconds",
		Help:      "GC pause time in milliseconds",
		Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// Mutation metrics functions.

// RecordMutation increments the applied-mutations counter for a kind
// (weight, sub_weight, preset, sub_focus, threshold, bfr, game_score).
func RecordMutation(kind string) {
	globalManager.mutationsApplied.WithLabelValues(kind).Inc()
}

// RecordMutationDuplicate increments the duplicate-mutations counter.
func RecordMutationDuplicate() {
	globalManager.mutationsDuplicate.Inc()
}

// RecordMutationRejected increments the rejected-mutations counter for a reason.
func RecordMutationRejected(reason string) {
	globalManager.mutationsRejected.WithLabelValues(reason).Inc()
}

// RecordMutationLatency records mutation apply latency in milliseconds.
func RecordMutationLatency(latencyMs float64) {
	globalManager.mutationLatency.Observe(latencyMs)
}

// RecordPresetApply increments the preset application counter for a preset name.
func RecordPresetApply(preset string) {
	globalManager.presetApplies.WithLabelValues(preset).Inc()
}

// Session metrics functions.

// UpdateSessionCount sets the number of live sessions.
func UpdateSessionCount(count int) {
	globalManager.sessionsActive.Set(float64(count))
}

// RecordSessionCreated increments the created-sessions counter.
func RecordSessionCreated() {
	globalManager.sessionsCreated.Inc()
}

// RecordSessionDeleted increments the deleted-sessions counter.
func RecordSessionDeleted() {
	globalManager.sessionsDeleted.Inc()
}

// RecordSessionRestored increments the restored-sessions counter.
func RecordSessionRestored() {
	globalManager.sessionsRestored.Inc()
}

// Save queue metrics functions.

// UpdateSaveQueueSize sets the current save queue size.
func UpdateSaveQueueSize(size int) {
	globalManager.saveQueueSize.Set(float64(size))
}

// UpdateSaveQueueCapacity sets the save queue capacity.
func UpdateSaveQueueCapacity(capacity int) {
	globalManager.saveQueueCapacity.Set(float64(capacity))
}

// UpdateSaveQueueUtilization sets the save queue utilization ratio.
func UpdateSaveQueueUtilization(utilization float64) {
	globalManager.saveQueueUtilization.Set(utilization)
}

// RecordSaveEnqueued increments the enqueued save requests counter.
func RecordSaveEnqueued() {
	globalManager.saveEnqueued.Inc()
}

// RecordSaveDequeued increments the dequeued save requests counter.
func RecordSaveDequeued() {
	globalManager.saveDequeued.Inc()
}

// RecordSaveDropped increments the dropped save requests counter.
func RecordSaveDropped() {
	globalManager.saveDropped.Inc()
}

// Persistence metrics functions.

// RecordSnapshotPersisted increments the persisted snapshots counter.
func RecordSnapshotPersisted() {
	globalManager.snapshotsPersisted.Inc()
}

// RecordPersistError increments the persistence error counter.
func RecordPersistError() {
	globalManager.persistErrors.Inc()
}

// RecordPersistLatency records end-to-end persistence latency in milliseconds.
func RecordPersistLatency(latencyMs float64) {
	globalManager.persistLatency.Observe(latencyMs)
}

// UpdateStoredSessions sets the number of snapshots in the durable store.
func UpdateStoredSessions(count int64) {
	globalManager.storeSessions.Set(float64(count))
}

// RecordStoreSaveLatency records store write latency in milliseconds.
func RecordStoreSaveLatency(latencyMs float64) {
	globalManager.storeSaveLatency.Observe(latencyMs)
}

// RecordStoreQueryLatency records store read latency in milliseconds.
func RecordStoreQueryLatency(latencyMs float64) {
	globalManager.storeQueryLatency.Observe(latencyMs)
}

// Worker metrics functions.

// UpdateWorkerActiveCount sets the number of active workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// UpdateWorkerIdleCount sets the number of idle workers.
func UpdateWorkerIdleCount(count int) {
	globalManager.workerIdleCount.Set(float64(count))
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// HTTP metrics functions.

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration in milliseconds.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// Error metrics functions.

// RecordErrorByComponent records an error with component and type labels.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorsByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorLatency records the latency of an operation that resulted in an error.
func RecordErrorLatency(component, errorType string, latencyMs float64) {
	globalManager.errorLatency.WithLabelValues(component, errorType).Observe(latencyMs)
}

// System metrics functions.

// UpdateSystemMemoryUsage sets the system memory usage in bytes.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the number of goroutines.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records GC pause time in milliseconds.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
