// Package metrics provides Prometheus metrics for the telescope intel service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	defaultRefreshInterval = 10 * time.Second
)

// Label values shared by callers.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"

	CacheKindProfile  = "profile"
	CacheKindActivity = "activity"

	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeEmpty     = "empty"
	OutcomeCancelled = "cancelled"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	enabled          bool
	refreshInterval  time.Duration
	constLabels      map[string]string
	metricPrefix     string
	registry         prometheus.Registerer

	// Lookup pipeline
	lookups        *prometheus.CounterVec
	lookupDuration prometheus.Histogram
	pilotsByTier   *prometheus.CounterVec
	pilotErrors    prometheus.Counter

	// Cache
	cacheRequests   *prometheus.CounterVec
	cacheWriteFails *prometheus.CounterVec
	cacheEntries    prometheus.Gauge

	// Upstream providers
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Dispatch
	dispatchInflight prometheus.Gauge
	dispatchQueued   prometheus.Gauge
	dispatchWait     prometheus.Histogram

	// HTTP
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Errors
	errorsByComponent *prometheus.CounterVec
	errorsByEndpoint  *prometheus.CounterVec

	// System
	systemMemoryUsage    prometheus.Gauge
	systemGoroutineCount prometheus.Gauge
	systemGCPauseTime    prometheus.Histogram
}

var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // avoids default Go collectors

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "telescope",
		subsystem:        "intel",
		histogramBuckets: []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		enabled:          true,
		refreshInterval:  defaultRefreshInterval,
		constLabels:      make(map[string]string),
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) name(n string) string {
	return m.metricPrefix + n
}

func (m *Manager) initializeMetrics() { //nolint:funlen // one place for all metric definitions
	auto := promauto.With(m.registry)
	constLabels := prometheus.Labels(m.constLabels)

	m.lookups = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("lookups_total"),
		Help: "Total number of pilot lookups by outcome",
	}, []string{"outcome"})

	m.lookupDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("lookup_duration_milliseconds"),
		Help:    "End-to-end lookup duration in milliseconds",
		Buckets: m.histogramBuckets,
	})

	m.pilotsByTier = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("pilots_total"),
		Help: "Pilot records produced, by risk tier",
	}, []string{"tier"})

	m.pilotErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("pilot_errors_total"),
		Help: "Pilot records returned as placeholders with an error",
	})

	m.cacheRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("cache_requests_total"),
		Help: "Cache probes by entry kind and result",
	}, []string{"kind", "result"})

	m.cacheWriteFails = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("cache_write_failures_total"),
		Help: "Cache writes that failed, by entry kind",
	}, []string{"kind"})

	m.cacheEntries = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("cache_entries"),
		Help: "Number of live cache entries",
	})

	m.upstreamRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("upstream_requests_total"),
		Help: "Requests sent to upstream providers by provider, endpoint and status",
	}, []string{"provider", "endpoint", "status"})

	m.upstreamLatency = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("upstream_latency_milliseconds"),
		Help:    "Upstream request latency in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"provider", "endpoint"})

	m.dispatchInflight = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("dispatch_inflight"),
		Help: "Fetch tasks released by the gate and still running",
	})

	m.dispatchQueued = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("dispatch_queued"),
		Help: "Fetch tasks waiting for admission",
	})

	m.dispatchWait = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("dispatch_wait_milliseconds"),
		Help:    "Time a fetch task waited for admission",
		Buckets: m.histogramBuckets,
	})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("http_requests_total"),
		Help: "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("http_request_duration_milliseconds"),
		Help:    "HTTP request duration in milliseconds",
		Buckets: m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})

	m.errorsByComponent = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_component_total"),
		Help: "Errors by component and error type",
	}, []string{"component", "error_type"})

	m.errorsByEndpoint = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("errors_by_endpoint_total"),
		Help: "HTTP errors by endpoint, method and error type",
	}, []string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_memory_usage_bytes"),
		Help: "System memory usage in bytes",
	})

	m.systemGoroutineCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name: m.name("system_goroutine_count"),
		Help: "Number of goroutines",
	})

	m.systemGCPauseTime = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, ConstLabels: constLabels,
		Name:    m.name("system_gc_pause_time_milliseconds"),
		Help:    "GC pause time in milliseconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000},
	})
}

// RecordLookup counts a finished lookup and observes its duration.
func RecordLookup(outcome string, d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.lookups.WithLabelValues(outcome).Inc()
	globalManager.lookupDuration.Observe(float64(d.Milliseconds()))
}

// RecordPilot counts one produced record by tier.
func RecordPilot(tier string) {
	if !globalManager.enabled {
		return
	}
	globalManager.pilotsByTier.WithLabelValues(tier).Inc()
}

// RecordPilotError counts one placeholder record.
func RecordPilotError() {
	if !globalManager.enabled {
		return
	}
	globalManager.pilotErrors.Inc()
}

// RecordCacheRequest counts a cache probe.
func RecordCacheRequest(kind, result string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheRequests.WithLabelValues(kind, result).Inc()
}

// RecordCacheWriteFailure counts a failed cache write.
func RecordCacheWriteFailure(kind string) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheWriteFails.WithLabelValues(kind).Inc()
}

// UpdateCacheEntries sets the live cache entry count.
func UpdateCacheEntries(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.cacheEntries.Set(float64(count))
}

// RecordUpstreamRequest counts an upstream request and observes its latency.
// status is the HTTP status code, or "error" for transport failures.
func RecordUpstreamRequest(provider, endpoint, status string, latency time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.upstreamRequests.WithLabelValues(provider, endpoint, status).Inc()
	globalManager.upstreamLatency.WithLabelValues(provider, endpoint).Observe(float64(latency.Milliseconds()))
}

// AddDispatchInflight adjusts the in-flight task gauge by delta.
func AddDispatchInflight(delta int) {
	if !globalManager.enabled {
		return
	}
	globalManager.dispatchInflight.Add(float64(delta))
}

// UpdateDispatchQueued sets the number of tasks waiting for admission.
func UpdateDispatchQueued(count int) {
	if !globalManager.enabled {
		return
	}
	globalManager.dispatchQueued.Set(float64(count))
}

// RecordDispatchWait observes the admission wait of one task.
func RecordDispatchWait(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.dispatchWait.Observe(float64(d.Milliseconds()))
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	if !globalManager.enabled {
		return
	}
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByComponent records errors by component.
func RecordErrorByComponent(component, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}

// RecordErrorByEndpoint records HTTP errors by endpoint.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	if !globalManager.enabled {
		return
	}
	globalManager.errorsByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

// UpdateSystemMemoryUsage sets the current memory usage.
func UpdateSystemMemoryUsage(bytes uint64) {
	globalManager.systemMemoryUsage.Set(float64(bytes))
}

// UpdateSystemGoroutineCount sets the current goroutine count.
func UpdateSystemGoroutineCount(count int) {
	globalManager.systemGoroutineCount.Set(float64(count))
}

// RecordSystemGCPauseTime records a GC pause time.
func RecordSystemGCPauseTime(pauseMs float64) {
	globalManager.systemGCPauseTime.Observe(pauseMs)
}

// GetRegistry returns the registry all package-level metrics are registered on.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
