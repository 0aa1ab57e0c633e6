// Package metrics provides Prometheus metrics for the paddock dashboard service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
	dashboardSubsystem     = "dashboard"
)

// Outcome labels shared by upstream and batch metrics.
const (
	OutcomeOK     = "ok"
	OutcomeError  = "error"
	OutcomeStale  = "stale"
	OutcomeReject = "rejected"
)

// Manager owns every Prometheus collector of the service.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	refreshInterval  time.Duration
	registry         prometheus.Registerer

	// Upstream prediction API
	upstreamFetches *prometheus.CounterVec
	upstreamLatency *prometheus.HistogramVec

	// Dashboard state
	batchOutcomes  *prometheus.CounterVec
	refreshTicks   prometheus.Counter
	selectionMoves *prometheus.CounterVec
	activeSessions prometheus.Gauge

	// Chat relay
	chatRelays       *prometheus.CounterVec
	chatRelayLatency prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByEndpoint *prometheus.CounterVec
	errorRateByType     *prometheus.CounterVec

	// Fetch queue
	queueSize          prometheus.Gauge
	queueCapacity      prometheus.Gauge
	queueEnqueue       prometheus.Counter
	queueDequeue       prometheus.Counter
	queueEnqueueErrors *prometheus.CounterVec
	queueCoalesced     prometheus.Counter

	// Fetch workers
	workerActiveCount       prometheus.Gauge
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // custom registry without default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a metrics manager and registers its collectors.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "paddock",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		refreshInterval:  defaultRefreshInterval,
		registry:         prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for every collector
	auto := promauto.With(m.registry)

	m.upstreamFetches = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "fetches_total",
		Help:      "Prediction API calls by resource and outcome",
	}, []string{"resource", "outcome"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "upstream",
		Name:      "fetch_latency_milliseconds",
		Help:      "Prediction API call latency in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"resource"})

	m.batchOutcomes = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: dashboardSubsystem,
		Name:      "batches_total",
		Help:      "Fetch batches by kind and outcome (ok, error, stale)",
	}, []string{"kind", "outcome"})

	m.refreshTicks = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: dashboardSubsystem,
		Name:      "refresh_ticks_total",
		Help:      "Background refresh timer ticks",
	})

	m.selectionMoves = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: dashboardSubsystem,
		Name:      "selection_transitions_total",
		Help:      "Filter state transitions by target state",
	}, []string{"state"})

	m.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: dashboardSubsystem,
		Name:      "sessions",
		Help:      "Dashboards currently held, one per browser session",
	})

	m.chatRelays = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "chat",
		Name:      "relays_total",
		Help:      "Chat relay calls by outcome",
	}, []string{"outcome"})

	m.chatRelayLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "chat",
		Name:      "relay_latency_milliseconds",
		Help:      "Completion round trip latency in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by endpoint, method and status code",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorRateByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_by_endpoint_total",
		Help:      "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.errorRateByType = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "http",
		Name:      "errors_by_type_total",
		Help:      "HTTP errors by type and severity",
	}, []string{"error_type", "severity"})

	m.queueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "size",
		Help:      "Fetch jobs waiting in the queue",
	})

	m.queueCapacity = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "capacity",
		Help:      "Fetch queue capacity",
	})

	m.queueEnqueue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueued_total",
		Help:      "Fetch jobs enqueued",
	})

	m.queueDequeue = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "dequeued_total",
		Help:      "Fetch jobs handed to workers",
	})

	m.queueEnqueueErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "enqueue_errors_total",
		Help:      "Rejected enqueues by reason",
	}, []string{"reason"})

	m.queueCoalesced = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "queue",
		Name:      "coalesced_total",
		Help:      "Fetch jobs skipped because an identical job was already pending",
	})

	m.workerActiveCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "active",
		Help:      "Running fetch workers",
	})

	m.workerProcessingLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "processing_latency_milliseconds",
		Help:      "Time to execute one fetch job",
		Buckets:   m.histogramBuckets,
	})

	m.workerErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: "worker",
		Name:      "errors_total",
		Help:      "Fetch jobs that ended in an error",
	})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "memory_bytes",
		Help:      "Heap bytes allocated",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "goroutines",
		Help:      "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: "system",
		Name:      "gc_pause_milliseconds",
		Help:      "Average GC pause in milliseconds",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50},
	})
}

// Upstream prediction API.

// RecordUpstreamFetch counts one prediction API call and observes its latency.
func RecordUpstreamFetch(resource, outcome string, latencyMs float64) {
	globalManager.upstreamFetches.WithLabelValues(resource, outcome).Inc()
	globalManager.upstreamLatency.WithLabelValues(resource).Observe(latencyMs)
}

// Dashboard state.

// RecordBatch counts a fetch batch outcome.
func RecordBatch(kind, outcome string) {
	globalManager.batchOutcomes.WithLabelValues(kind, outcome).Inc()
}

// RecordRefreshTick counts one background refresh tick.
func RecordRefreshTick() {
	globalManager.refreshTicks.Inc()
}

// RecordSelectionTransition counts a filter state transition.
func RecordSelectionTransition(state string) {
	globalManager.selectionMoves.WithLabelValues(state).Inc()
}

// UpdateActiveSessions sets the number of held dashboard sessions.
func UpdateActiveSessions(n int) {
	globalManager.activeSessions.Set(float64(n))
}

// Chat relay.

// RecordChatRelay counts one relay call and observes its latency.
func RecordChatRelay(outcome string, latencyMs float64) {
	globalManager.chatRelays.WithLabelValues(outcome).Inc()
	if outcome != OutcomeReject {
		globalManager.chatRelayLatency.Observe(latencyMs)
	}
}

// HTTP.

// RecordHTTPRequest increments the HTTP request counter.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByEndpoint records an error with endpoint, method and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// Fetch queue.

// UpdateQueueSize sets the current queue length.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// UpdateQueueCapacity sets the queue capacity.
func UpdateQueueCapacity(capacity int) {
	globalManager.queueCapacity.Set(float64(capacity))
}

// RecordQueueEnqueue increments the enqueue counter.
func RecordQueueEnqueue() {
	globalManager.queueEnqueue.Inc()
}

// RecordQueueDequeue increments the dequeue counter.
func RecordQueueDequeue() {
	globalManager.queueDequeue.Inc()
}

// RecordQueueEnqueueError counts a rejected enqueue.
func RecordQueueEnqueueError(reason string) {
	globalManager.queueEnqueueErrors.WithLabelValues(reason).Inc()
}

// RecordQueueCoalesced counts a job skipped as a duplicate of a pending one.
func RecordQueueCoalesced() {
	globalManager.queueCoalesced.Inc()
}

// Fetch workers.

// UpdateWorkerActiveCount sets the number of running workers.
func UpdateWorkerActiveCount(count int) {
	globalManager.workerActiveCount.Set(float64(count))
}

// RecordWorkerProcessingLatency records job execution latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the worker error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// System.

// UpdateSystemMemoryUsage sets the heap usage in bytes.
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

// RefreshInterval reports how often system gauges should be refreshed.
func RefreshInterval() time.Duration {
	return globalManager.refreshInterval
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
