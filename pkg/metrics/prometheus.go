// Package metrics provides Prometheus metrics for the beatcore runtime.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager owns every gameplay and pipeline metric.
type Manager struct {
	namespace   string
	subsystem   string
	tickBuckets []float64
	registry    prometheus.Registerer

	// Simulation
	ticks         prometheus.Counter
	tickDuration  prometheus.Histogram
	liveInstances prometheus.Gauge

	// Gameplay
	spawns           *prometheus.CounterVec
	cuts             *prometheus.CounterVec
	misses           prometheus.Counter
	bombHits         prometheus.Counter
	obstacleHits     prometheus.Counter
	feverActivations prometheus.Counter
	score            prometheus.Gauge
	combo            prometheus.Gauge
	multiplier       prometheus.Gauge
	levelsCompleted  *prometheus.CounterVec

	// Persistence pipeline
	queueSize        prometheus.Gauge
	queueEnqueued    prometheus.Counter
	queueDequeued    prometheus.Counter
	queueRejected    *prometheus.CounterVec
	resultsPersisted prometheus.Counter
	persistErrors    prometheus.Counter
	persistLatency   prometheus.Histogram

	// HTTP
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	httpErrors   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // metrics registry

func init() { //nolint:gochecknoinits // global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:   "beatcore",
		subsystem:   "runtime",
		tickBuckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		registry:    prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) counter(name, help string) prometheus.Counter {
	return promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) gauge(name, help string) prometheus.Gauge {
	return promauto.With(m.registry).NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	})
}

func (m *Manager) counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return promauto.With(m.registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace, Subsystem: m.subsystem, Name: name, Help: help,
	}, labels)
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.ticks = m.counter("ticks_total", "Simulation ticks advanced")
	m.tickDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "tick_duration_milliseconds",
		Help:      "Wall time spent inside one simulation tick",
		Buckets:   m.tickBuckets,
	})
	m.liveInstances = m.gauge("live_instances", "Pooled instances currently in flight")

	m.spawns = m.counterVec("spawns_total", "Instances spawned by kind", "kind")
	m.cuts = m.counterVec("cuts_total", "Note cuts by outcome", "outcome")
	m.misses = m.counter("misses_total", "Coloured notes missed")
	m.bombHits = m.counter("bomb_hits_total", "Bombs cut")
	m.obstacleHits = m.counter("obstacle_hits_total", "Obstacle intersections entered")
	m.feverActivations = m.counter("fever_activations_total", "Fever mode activations")
	m.score = m.gauge("score", "Observable score of the current session")
	m.combo = m.gauge("combo", "Current combo")
	m.multiplier = m.gauge("multiplier", "Current base multiplier")
	m.levelsCompleted = m.counterVec("levels_completed_total", "Finished sessions by end state and rank", "end_state", "rank")

	m.queueSize = m.gauge("result_queue_size", "Completed-level records waiting to be persisted")
	m.queueEnqueued = m.counter("result_queue_enqueued_total", "Records accepted by the result queue")
	m.queueDequeued = m.counter("result_queue_dequeued_total", "Records handed to persistence workers")
	m.queueRejected = m.counterVec("result_queue_rejected_total", "Records rejected by the result queue", "reason")
	m.resultsPersisted = m.counter("results_persisted_total", "Records written to the results store")
	m.persistErrors = m.counter("persist_errors_total", "Failed writes to the results store")
	m.persistLatency = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "persist_latency_milliseconds",
		Help:      "Latency of results store writes",
		Buckets:   prometheus.DefBuckets,
	})

	m.httpRequests = m.counterVec("http_requests_total", "HTTP requests by endpoint and status", "endpoint", "method", "status_code")
	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request latency by endpoint",
		Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250},
	}, []string{"endpoint", "method"})
	m.httpErrors = m.counterVec("http_errors_total", "HTTP error responses by endpoint and type", "endpoint", "error_type")
}

// Simulation.

// RecordTick counts one tick and its duration.
func RecordTick(durationMs float64) {
	globalManager.ticks.Inc()
	globalManager.tickDuration.Observe(durationMs)
}

// UpdateLiveInstances sets the number of live pooled instances.
func UpdateLiveInstances(n int) {
	globalManager.liveInstances.Set(float64(n))
}

// Gameplay.

// InitSpawnKinds exposes a zero spawn counter for every kind so scrapes see
// the full label set before the first spawn.
func InitSpawnKinds(kinds ...string) {
	for _, k := range kinds {
		globalManager.spawns.WithLabelValues(k)
	}
}

// RecordSpawn counts a spawned instance of kind.
func RecordSpawn(kind string) {
	globalManager.spawns.WithLabelValues(kind).Inc()
}

// RecordCut counts a note cut; good selects the outcome label.
func RecordCut(good bool) {
	outcome := "bad"
	if good {
		outcome = "good"
	}
	globalManager.cuts.WithLabelValues(outcome).Inc()
}

// RecordMiss counts a missed coloured note.
func RecordMiss() {
	globalManager.misses.Inc()
}

// RecordBombHit counts a cut bomb.
func RecordBombHit() {
	globalManager.bombHits.Inc()
}

// RecordObstacleHit counts an obstacle intersection edge.
func RecordObstacleHit() {
	globalManager.obstacleHits.Inc()
}

// RecordFeverActivation counts a fever start.
func RecordFeverActivation() {
	globalManager.feverActivations.Inc()
}

// UpdateScore sets the observable score gauge.
func UpdateScore(score int) {
	globalManager.score.Set(float64(score))
}

// UpdateCombo sets the combo gauge.
func UpdateCombo(combo int) {
	globalManager.combo.Set(float64(combo))
}

// UpdateMultiplier sets the multiplier gauge.
func UpdateMultiplier(multiplier int) {
	globalManager.multiplier.Set(float64(multiplier))
}

// RecordLevelCompleted counts a finished session.
func RecordLevelCompleted(endState, rank string) {
	globalManager.levelsCompleted.WithLabelValues(endState, rank).Inc()
}

// Persistence pipeline.

// UpdateQueueSize sets the result queue backlog.
func UpdateQueueSize(size int) {
	globalManager.queueSize.Set(float64(size))
}

// RecordQueueEnqueue counts an accepted record.
func RecordQueueEnqueue() {
	globalManager.queueEnqueued.Inc()
}

// RecordQueueDequeue counts a record handed to a worker.
func RecordQueueDequeue() {
	globalManager.queueDequeued.Inc()
}

// RecordQueueRejected counts a rejected record by reason.
func RecordQueueRejected(reason string) {
	globalManager.queueRejected.WithLabelValues(reason).Inc()
}

// RecordPersisted counts a stored record and its write latency.
func RecordPersisted(latencyMs float64) {
	globalManager.resultsPersisted.Inc()
	globalManager.persistLatency.Observe(latencyMs)
}

// RecordPersistError counts a failed write.
func RecordPersistError() {
	globalManager.persistErrors.Inc()
}

// HTTP.

// RecordHTTPRequest counts a served request.
func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

// RecordHTTPRequestDuration observes the latency of a served request.
func RecordHTTPRequestDuration(endpoint, method string, durationMs float64) {
	globalManager.httpDuration.WithLabelValues(endpoint, method).Observe(durationMs)
}

// RecordHTTPError counts an error response.
func RecordHTTPError(endpoint, errorType string) {
	globalManager.httpErrors.WithLabelValues(endpoint, errorType).Inc()
}

// GetRegistry returns the custom Prometheus registry used by our metrics.
func GetRegistry() *prometheus.Registry {
	return customRegistry
}
