// Package metrics provides Prometheus metrics for the devbasics core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the service.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	constLabels      prometheus.Labels
	registry         prometheus.Registerer

	// Assessment metrics
	previewsComputed prometheus.Counter
	submissions      *prometheus.CounterVec

	// Upstream API metrics
	upstreamRequests *prometheus.CounterVec
	upstreamLatency  *prometheus.HistogramVec

	// Session metrics
	overlayTransitions *prometheus.CounterVec
	signedIn           prometheus.Gauge
	slotWrites         *prometheus.CounterVec

	// Broadcast metrics
	broadcastPublished   *prometheus.CounterVec
	broadcastDropped     *prometheus.CounterVec
	broadcastDuplicate   *prometheus.CounterVec
	broadcastSubscribers *prometheus.GaugeVec

	// Listener metrics
	workerProcessingLatency prometheus.Histogram
	workerErrors            prometheus.Counter

	// HTTP boundary metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	errorRateByType     *prometheus.CounterVec
	errorRateByEndpoint *prometheus.CounterVec

	// System Performance Metrics
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
		namespace:        "devbasics",
		subsystem:        "core",
		histogramBuckets: prometheus.DefBuckets,
		constLabels:      prometheus.Labels{},
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

func (m *Manager) histogramOpts(name, help string, buckets []float64) prometheus.HistogramOpts {
	return prometheus.HistogramOpts{
		Namespace:   m.namespace,
		Subsystem:   m.subsystem,
		Name:        name,
		Help:        help,
		Buckets:     buckets,
		ConstLabels: m.constLabels,
	}
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() { //nolint:funlen // long function required for comprehensive metrics initialization
	auto := promauto.With(m.registry)

	m.previewsComputed = auto.NewCounter(m.counterOpts(
		"previews_computed_total", "Total number of live assessment previews computed"))
	m.submissions = auto.NewCounterVec(m.counterOpts(
		"submissions_total", "Outbound submissions by kind and outcome"),
		[]string{"kind", "outcome"})

	m.upstreamRequests = auto.NewCounterVec(m.counterOpts(
		"upstream_requests_total", "Requests sent to the external API by endpoint and status"),
		[]string{"endpoint", "status_code"})
	m.upstreamLatency = auto.NewHistogramVec(m.histogramOpts(
		"upstream_latency_milliseconds", "Latency of external API calls in milliseconds", m.histogramBuckets),
		[]string{"endpoint"})

	m.overlayTransitions = auto.NewCounterVec(m.counterOpts(
		"overlay_transitions_total", "Auth overlay transitions by kind"),
		[]string{"transition"})
	m.signedIn = auto.NewGauge(m.gaugeOpts(
		"signed_in", "1 when a user is signed in, 0 otherwise"))
	m.slotWrites = auto.NewCounterVec(m.counterOpts(
		"slot_writes_total", "Durable slot writes by operation and outcome"),
		[]string{"op", "outcome"})

	m.broadcastPublished = auto.NewCounterVec(m.counterOpts(
		"broadcast_published_total", "Broadcast events delivered to at least one subscriber"),
		[]string{"topic"})
	m.broadcastDropped = auto.NewCounterVec(m.counterOpts(
		"broadcast_dropped_total", "Broadcast deliveries dropped by reason"),
		[]string{"topic", "reason"})
	m.broadcastDuplicate = auto.NewCounterVec(m.counterOpts(
		"broadcast_duplicate_total", "Broadcast events ignored as duplicates"),
		[]string{"topic"})
	m.broadcastSubscribers = auto.NewGaugeVec(m.gaugeOpts(
		"broadcast_subscribers", "Current subscribers per topic"),
		[]string{"topic"})

	m.workerProcessingLatency = auto.NewHistogram(m.histogramOpts(
		"worker_processing_latency_milliseconds", "Time spent handling one broadcast event", m.histogramBuckets))
	m.workerErrors = auto.NewCounter(m.counterOpts(
		"worker_errors_total", "Broadcast events whose handler returned an error"))

	m.httpRequests = auto.NewCounterVec(m.counterOpts(
		"http_requests_total", "Total number of HTTP requests by endpoint and method"),
		[]string{"endpoint", "method", "status_code"})
	m.httpRequestDuration = auto.NewHistogramVec(m.histogramOpts(
		"http_request_duration_milliseconds", "HTTP request duration in milliseconds", m.histogramBuckets),
		[]string{"endpoint", "method", "status_code"})
	m.errorRateByType = auto.NewCounterVec(m.counterOpts(
		"errors_by_type_total", "Total number of errors by type"),
		[]string{"error_type", "severity"})
	m.errorRateByEndpoint = auto.NewCounterVec(m.counterOpts(
		"errors_by_endpoint_total", "Total number of errors by endpoint"),
		[]string{"endpoint", "method", "error_type"})

	m.systemMemoryUsage = auto.NewGauge(m.gaugeOpts(
		"system_memory_usage_bytes", "System memory usage in bytes"))
	m.systemGoroutineCount = auto.NewGauge(m.gaugeOpts(
		"system_goroutine_count", "Number of goroutines"))
	m.systemGCPauseTime = auto.NewHistogram(m.histogramOpts(
		"system_gc_pause_time_milliseconds", "GC pause time in milliseconds",
		[]float64{0.1, 0.5, 1, 2, 5, 10, 25, 50, 100, 250, 500, 1000}))
}

// RecordPreviewComputed increments the preview counter.
func RecordPreviewComputed() {
	globalManager.previewsComputed.Inc()
}

// RecordSubmission counts an outbound submission attempt by kind and outcome.
func RecordSubmission(kind, outcome string) {
	globalManager.submissions.WithLabelValues(kind, outcome).Inc()
}

// RecordUpstreamRequest records one external API call.
func RecordUpstreamRequest(endpoint, statusCode string, latencyMs float64) {
	globalManager.upstreamRequests.WithLabelValues(endpoint, statusCode).Inc()
	globalManager.upstreamLatency.WithLabelValues(endpoint).Observe(latencyMs)
}

// RecordOverlayTransition counts an auth overlay transition.
func RecordOverlayTransition(transition string) {
	globalManager.overlayTransitions.WithLabelValues(transition).Inc()
}

// UpdateSignedIn sets the signed-in gauge.
func UpdateSignedIn(signedIn bool) {
	v := 0.0
	if signedIn {
		v = 1
	}
	globalManager.signedIn.Set(v)
}

// RecordSlotWrite counts a durable slot write.
func RecordSlotWrite(op, outcome string) {
	globalManager.slotWrites.WithLabelValues(op, outcome).Inc()
}

// RecordBroadcastPublished counts a delivered broadcast event.
func RecordBroadcastPublished(topic string) {
	globalManager.broadcastPublished.WithLabelValues(topic).Inc()
}

// RecordBroadcastDropped counts a dropped broadcast delivery.
func RecordBroadcastDropped(topic, reason string) {
	globalManager.broadcastDropped.WithLabelValues(topic, reason).Inc()
}

// RecordBroadcastDuplicate counts a broadcast ignored as duplicate.
func RecordBroadcastDuplicate(topic string) {
	globalManager.broadcastDuplicate.WithLabelValues(topic).Inc()
}

// UpdateBroadcastSubscribers sets the subscriber gauge for a topic.
func UpdateBroadcastSubscribers(topic string, count int) {
	globalManager.broadcastSubscribers.WithLabelValues(topic).Set(float64(count))
}

// RecordWorkerProcessingLatency records listener handling latency.
func RecordWorkerProcessingLatency(latencyMs float64) {
	globalManager.workerProcessingLatency.Observe(latencyMs)
}

// RecordWorkerError increments the listener error counter.
func RecordWorkerError() {
	globalManager.workerErrors.Inc()
}

// RecordHTTPRequest records an HTTP request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration records HTTP request duration.
func RecordHTTPRequestDuration(endpoint, method, statusCode string, duration float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(duration)
}

// RecordErrorByType records an error with type and severity labels.
func RecordErrorByType(errorType, severity string) {
	globalManager.errorRateByType.WithLabelValues(errorType, severity).Inc()
}

// RecordErrorByEndpoint records an error with endpoint, method, and error type labels.
func RecordErrorByEndpoint(endpoint, method, errorType string) {
	globalManager.errorRateByEndpoint.WithLabelValues(endpoint, method, errorType).Inc()
}

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
