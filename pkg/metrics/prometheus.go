// Package metrics provides Prometheus metrics for the tracker service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the tracker.
type Manager struct {
	namespace string
	registry  *prometheus.Registry

	// Capture pipeline metrics
	callsClassified     *prometheus.CounterVec
	submissionsCaptured prometheus.Counter
	pendingSize         prometheus.Gauge
	pendingEvicted      prometheus.Counter
	eventsEmitted       prometheus.Counter
	emitFailures        prometheus.Counter
	correlationMisses   prometheus.Counter

	// Forwarding metrics
	eventsForwarded  prometheus.Counter
	forwardFailures  prometheus.Counter
	offlineQueueSize prometheus.Gauge
	offlineFlushed   prometheus.Counter

	// Ingestion metrics
	eventsIngested   prometheus.Counter
	eventsDuplicate  prometheus.Counter
	eventsRejected   prometheus.Counter
	txRetries        prometheus.Counter
	txConflicts      prometheus.Counter
	ingestLatency    prometheus.Histogram
	problemsCreated  prometheus.Counter
	submissionsSaved prometheus.Counter
	streakIncrements prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Process metrics
	memoryUsage    prometheus.Gauge
	goroutineCount prometheus.Gauge
	dedupeEntries  prometheus.Gauge
}

var defaultManager = NewManager()

// NewManager creates a metrics manager with its own registry.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace: "dsa_tracker",
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}

	factory := promauto.With(m.registry)

	m.callsClassified = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "calls_classified_total",
		Help:      "Outbound calls seen by the interception layer, by classification.",
	}, []string{"kind"})
	m.submissionsCaptured = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "submissions_captured_total",
		Help:      "Pending submissions registered after a submit response.",
	})
	m.pendingSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "pending_submissions",
		Help:      "Current size of the pending submission registry.",
	})
	m.pendingEvicted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "pending_evicted_total",
		Help:      "Pending submissions removed by the TTL sweep.",
	})
	m.eventsEmitted = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "correlation_events_emitted_total",
		Help:      "Correlation events emitted on acceptance.",
	})
	m.emitFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "correlation_emit_failures_total",
		Help:      "Correlation events dropped because the bus was full or closed.",
	})
	m.correlationMisses = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "correlation_misses_total",
		Help:      "Status polls with no matching pending submission.",
	})

	m.eventsForwarded = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_forwarded_total",
		Help:      "Correlation events delivered to the ingestion endpoint.",
	})
	m.forwardFailures = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "forward_failures_total",
		Help:      "Delivery attempts that failed and queued the event offline.",
	})
	m.offlineQueueSize = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "offline_queue_size",
		Help:      "Events waiting in the offline queue.",
	})
	m.offlineFlushed = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "offline_flushed_total",
		Help:      "Offline-queued events delivered by a sync batch.",
	})

	m.eventsIngested = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_ingested_total",
		Help:      "Correlation events applied by the ingestion endpoint.",
	})
	m.eventsDuplicate = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_duplicate_total",
		Help:      "Correlation events suppressed by the idempotency key.",
	})
	m.eventsRejected = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "events_rejected_total",
		Help:      "Correlation events rejected by validation.",
	})
	m.txRetries = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tx_retries_total",
		Help:      "Transaction attempts retried after a transient conflict.",
	})
	m.txConflicts = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "tx_conflicts_total",
		Help:      "Transaction conflicts observed.",
	})
	m.ingestLatency = factory.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "ingest_latency_ms",
		Help:      "End-to-end ingestion latency in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
	m.problemsCreated = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "problems_created_total",
		Help:      "Problems created on first sighting via ingestion.",
	})
	m.submissionsSaved = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "submissions_saved_total",
		Help:      "Submission records created.",
	})
	m.streakIncrements = factory.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "streak_updates_total",
		Help:      "Streak recomputations triggered by a first accepted solve.",
	})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by endpoint, method and status code.",
	}, []string{"endpoint", "method", "status"})
	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request duration in milliseconds.",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	}, []string{"endpoint", "method", "status"})

	m.memoryUsage = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "memory_usage_bytes",
		Help:      "Current heap allocation in bytes.",
	})
	m.goroutineCount = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "goroutines",
		Help:      "Current number of goroutines.",
	})
	m.dedupeEntries = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Name:      "dedupe_entries",
		Help:      "Entries held by the ingestion idempotency cache.",
	})

	return m
}

// GetRegistry returns the registry backing the default manager.
func GetRegistry() *prometheus.Registry { return defaultManager.registry }

// Package-level helpers operating on the default manager.

func RecordCallClassified(kind string) { defaultManager.callsClassified.WithLabelValues(kind).Inc() }
func RecordSubmissionCaptured()        { defaultManager.submissionsCaptured.Inc() }
func UpdatePendingSize(n int)          { defaultManager.pendingSize.Set(float64(n)) }
func RecordPendingEvicted(n int)       { defaultManager.pendingEvicted.Add(float64(n)) }
func RecordEventEmitted()              { defaultManager.eventsEmitted.Inc() }
func RecordEmitFailure()               { defaultManager.emitFailures.Inc() }
func RecordCorrelationMiss()           { defaultManager.correlationMisses.Inc() }
func RecordEventForwarded()            { defaultManager.eventsForwarded.Inc() }
func RecordForwardFailure()            { defaultManager.forwardFailures.Inc() }
func UpdateOfflineQueueSize(n int)     { defaultManager.offlineQueueSize.Set(float64(n)) }
func RecordOfflineFlushed(n int)       { defaultManager.offlineFlushed.Add(float64(n)) }
func RecordEventIngested()             { defaultManager.eventsIngested.Inc() }
func RecordEventDuplicate()            { defaultManager.eventsDuplicate.Inc() }
func RecordEventRejected()             { defaultManager.eventsRejected.Inc() }
func RecordTxRetry()                   { defaultManager.txRetries.Inc() }
func RecordTxConflict()                { defaultManager.txConflicts.Inc() }
func RecordIngestLatency(ms float64)   { defaultManager.ingestLatency.Observe(ms) }
func RecordProblemCreated()            { defaultManager.problemsCreated.Inc() }
func RecordSubmissionSaved()           { defaultManager.submissionsSaved.Inc() }
func RecordStreakUpdate()              { defaultManager.streakIncrements.Inc() }

func RecordHTTPRequest(endpoint, method, status string) {
	defaultManager.httpRequests.WithLabelValues(endpoint, method, status).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, status string, ms float64) {
	defaultManager.httpRequestDuration.WithLabelValues(endpoint, method, status).Observe(ms)
}

func UpdateMemoryUsage(bytes uint64) { defaultManager.memoryUsage.Set(float64(bytes)) }
func UpdateGoroutineCount(n int)     { defaultManager.goroutineCount.Set(float64(n)) }
func UpdateDedupeEntries(n int)      { defaultManager.dedupeEntries.Set(float64(n)) }
