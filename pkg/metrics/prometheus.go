// Package metrics provides Prometheus metrics for the Compass metrics engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Label values shared by callers.
const (
	OutcomeSuccess     = "success"
	OutcomeUnavailable = "unavailable"
	OutcomeHit         = "hit"
	OutcomeMiss        = "miss"
	OutcomeFailed      = "failed"

	CompletenessFull     = "full"
	CompletenessDegraded = "degraded"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Signal sources
	signalFetches      *prometheus.CounterVec
	signalFetchLatency *prometheus.HistogramVec
	resolverAttempts   *prometheus.CounterVec
	breakerState       *prometheus.GaugeVec
	breakerTransitions *prometheus.CounterVec

	// Aggregation and batches
	aggregations      *prometheus.CounterVec
	batchRuns         prometheus.Counter
	batchChunks       prometheus.Counter
	batchGames        *prometheus.CounterVec
	batchChunkLatency prometheus.Histogram

	// Sync jobs
	syncJobs       *prometheus.CounterVec
	queueSize      prometheus.Gauge
	queueCapacity  prometheus.Gauge
	queueEnqueued  prometheus.Counter
	queueDequeued  prometheus.Counter
	queueRejected  prometheus.Counter
	workerActive   prometheus.Gauge
	workerLatency  prometheus.Histogram
	workerErrors   prometheus.Counter
	storedGames    prometheus.Gauge
	storeLatency   *prometheus.HistogramVec
	storeErrors    *prometheus.CounterVec
	componentError *prometheus.CounterVec

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "compass",
		subsystem:        "engine",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 20000},
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counterOpts(name, help string) prometheus.CounterOpts {
	return prometheus.CounterOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) gaugeOpts(name, help string) prometheus.GaugeOpts {
	return prometheus.GaugeOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		ConstLabels: m.constLabels,
	}
}

func (m *Manager) histogramOpts(name, help string) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     m.histogramBuckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every metric definition
	auto := promauto.With(m.registry)

	m.signalFetches = auto.NewCounterVec(
		m.counterOpts("signal_fetch_total", "Signal fetches by source and outcome"),
		[]string{"source", "outcome"},
	)
	m.signalFetchLatency = auto.NewHistogramVec(
		m.histogramOpts("signal_fetch_latency_milliseconds", "Signal fetch latency in milliseconds, all resolver attempts included"),
		[]string{"source"},
	)
	m.resolverAttempts = auto.NewCounterVec(
		m.counterOpts("resolver_attempts_total", "Name candidates tried against name-keyed sources"),
		[]string{"outcome"},
	)
	m.breakerState = auto.NewGaugeVec(
		m.gaugeOpts("source_breaker_state", "Circuit breaker state per source (0 closed, 1 half-open, 2 open)"),
		[]string{"source"},
	)
	m.breakerTransitions = auto.NewCounterVec(
		m.counterOpts("source_breaker_transitions_total", "Circuit breaker state transitions per source"),
		[]string{"source", "to"},
	)

	m.aggregations = auto.NewCounterVec(
		m.counterOpts("aggregations_total", "Per-game aggregations by completeness"),
		[]string{"completeness"},
	)
	m.batchRuns = auto.NewCounter(m.counterOpts("batch_runs_total", "Batch runs started"))
	m.batchChunks = auto.NewCounter(m.counterOpts("batch_chunks_total", "Batch chunks processed"))
	m.batchGames = auto.NewCounterVec(
		m.counterOpts("batch_games_total", "Games processed by batches by outcome"),
		[]string{"outcome"},
	)
	m.batchChunkLatency = auto.NewHistogram(
		m.histogramOpts("batch_chunk_latency_milliseconds", "Time for every game of a chunk to settle"),
	)

	m.syncJobs = auto.NewCounterVec(
		m.counterOpts("sync_jobs_total", "Library sync jobs by final status"),
		[]string{"status"},
	)
	m.queueSize = auto.NewGauge(m.gaugeOpts("queue_size", "Sync jobs waiting in the queue"))
	m.queueCapacity = auto.NewGauge(m.gaugeOpts("queue_capacity", "Maximum sync queue capacity"))
	m.queueEnqueued = auto.NewCounter(m.counterOpts("queue_enqueue_total", "Sync jobs enqueued"))
	m.queueDequeued = auto.NewCounter(m.counterOpts("queue_dequeue_total", "Sync jobs dequeued"))
	m.queueRejected = auto.NewCounter(m.counterOpts("queue_enqueue_errors_total", "Sync jobs rejected by a full or closed queue"))
	m.workerActive = auto.NewGauge(m.gaugeOpts("worker_active_count", "Running sync workers"))
	m.workerLatency = auto.NewHistogram(m.histogramOpts("worker_processing_latency_milliseconds", "Sync job processing latency in milliseconds"))
	m.workerErrors = auto.NewCounter(m.counterOpts("worker_errors_total", "Sync jobs that ended in error"))

	m.storedGames = auto.NewGauge(m.gaugeOpts("stored_games", "Game metrics records in the store"))
	m.storeLatency = auto.NewHistogramVec(
		m.histogramOpts("store_latency_milliseconds", "Store operation latency in milliseconds"),
		[]string{"operation"},
	)
	m.storeErrors = auto.NewCounterVec(
		m.counterOpts("store_errors_total", "Store operation failures"),
		[]string{"operation"},
	)
	m.componentError = auto.NewCounterVec(
		m.counterOpts("errors_by_component_total", "Errors by component and type"),
		[]string{"component", "error_type"},
	)

	m.httpRequests = auto.NewCounterVec(
		m.counterOpts("http_requests_total", "HTTP requests by endpoint, method and status"),
		[]string{"endpoint", "method", "status_code"},
	)
	m.httpRequestDuration = auto.NewHistogramVec(
		m.histogramOpts("http_request_duration_milliseconds", "HTTP request duration in milliseconds"),
		[]string{"endpoint", "method", "status_code"},
	)

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts("system_memory_usage_bytes", "Heap bytes allocated"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts("system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        "system_gc_pause_time_milliseconds",
		Help:        "Average GC pause time in milliseconds",
		Buckets:     []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100},
		ConstLabels: m.constLabels,
	})
}

// RecordSignalFetch counts one settled signal and its latency.
func RecordSignalFetch(source, outcome string, latencyMs float64) {
	globalManager.signalFetches.WithLabelValues(source, outcome).Inc()
	globalManager.signalFetchLatency.WithLabelValues(source).Observe(latencyMs)
}

// RecordResolverAttempt counts one name candidate tried.
func RecordResolverAttempt(outcome string) {
	globalManager.resolverAttempts.WithLabelValues(outcome).Inc()
}

// UpdateBreakerState sets the breaker state gauge of a source.
func UpdateBreakerState(source string, state int) {
	globalManager.breakerState.WithLabelValues(source).Set(float64(state))
}

// RecordBreakerTransition counts a breaker moving into state to.
func RecordBreakerTransition(source, to string) {
	globalManager.breakerTransitions.WithLabelValues(source, to).Inc()
}

// RecordAggregation counts a finished per-game aggregation.
func RecordAggregation(degraded bool) {
	completeness := CompletenessFull
	if degraded {
		completeness = CompletenessDegraded
	}
	globalManager.aggregations.WithLabelValues(completeness).Inc()
}

// RecordBatchRun counts a started batch.
func RecordBatchRun() {
	globalManager.batchRuns.Inc()
}

// RecordBatchChunk counts a settled chunk and its latency.
func RecordBatchChunk(latencyMs float64) {
	globalManager.batchChunks.Inc()
	globalManager.batchChunkLatency.Observe(latencyMs)
}

// RecordBatchGames adds n games with the given outcome.
func RecordBatchGames(outcome string, n int) {
	if n <= 0 {
		return
	}
	globalManager.batchGames.WithLabelValues(outcome).Add(float64(n))
}

// RecordSyncJob counts a sync job reaching a final status.
func RecordSyncJob(status string) {
	globalManager.syncJobs.WithLabelValues(status).Inc()
}

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue counts an accepted job.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a job handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueEnqueueError counts a rejected job.
func RecordQueueEnqueueError() {
	globalManager.queueRejected.Inc()
}

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActive.Set(float64(count))
}

// RecordWorkerProcessingLatency observes one job's processing time.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerLatency.Observe(latencyMs)
}

// RecordWorkerError counts a failed job.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// UpdateStoredGames sets the number of stored records.
func UpdateStoredGames(count int) {
	globalManager.storedGames.Set(float64(count))
}

// RecordStoreLatency observes a store operation.
func RecordStoreLatency(operation string, latencyMs float64) {
	globalManager.storeLatency.WithLabelValues(operation).Observe(latencyMs)
}

// RecordStoreError counts a failed store operation.
func RecordStoreError(operation string) {
	globalManager.storeErrors.WithLabelValues(operation).Inc()
}

// RecordErrorByComponent counts an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.componentError.WithLabelValues(component, errorType).Inc()
}

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes a served request's duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// UpdateSystemMemoryUsage sets the allocated heap size.
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

// GetRegistry returns the custom registry for the /metrics handler.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
