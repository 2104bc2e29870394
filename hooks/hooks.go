// Package hooks provides production-ready core.Logger and
// core.MetricsCollector implementations: a slog-backed logger, an
// in-memory metrics accumulator for tests and small deployments, and a
// Prometheus-backed collector for production use.
package hooks

import (
	"log/slog"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/batchresize/engine/core"
)

// ── Structured logger adapter ───────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...any) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...any)  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...any)  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...any) { s.log.Error(msg, fields...) }

// ── In-memory metrics collector ─────────────────────────────────────────

// InMemoryMetrics accumulates stage observations under a mutex; safe for
// concurrent use by every decode/resize/encode worker in a pipeline run.
type InMemoryMetrics struct {
	mu sync.Mutex

	stageDurationsMs map[string]int64
	stageCalls       map[string]int64
	stageOK          map[string]int64
	stageFailed      map[string]int64
	queueDepths      map[string]int
}

// NewInMemoryMetrics creates an empty metrics store.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		stageDurationsMs: make(map[string]int64),
		stageCalls:       make(map[string]int64),
		stageOK:          make(map[string]int64),
		stageFailed:      make(map[string]int64),
		queueDepths:      make(map[string]int),
	}
}

func (m *InMemoryMetrics) RecordStageDuration(stage string, seconds float64) {
	m.mu.Lock()
	m.stageDurationsMs[stage] += int64(seconds * 1000)
	m.stageCalls[stage]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordQueueDepth(queue string, depth int) {
	m.mu.Lock()
	m.queueDepths[queue] = depth
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordItemOutcome(stage string, ok bool) {
	m.mu.Lock()
	if ok {
		m.stageOK[stage]++
	} else {
		m.stageFailed[stage]++
	}
	m.mu.Unlock()
}

// MetricsSnapshot is an immutable point-in-time copy of InMemoryMetrics.
type MetricsSnapshot struct {
	StageDurationsMs map[string]int64
	StageCalls       map[string]int64
	StageOK          map[string]int64
	StageFailed      map[string]int64
	QueueDepths      map[string]int
}

// Snapshot returns a copy of the metrics accumulated so far.
func (m *InMemoryMetrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := MetricsSnapshot{
		StageDurationsMs: make(map[string]int64, len(m.stageDurationsMs)),
		StageCalls:       make(map[string]int64, len(m.stageCalls)),
		StageOK:          make(map[string]int64, len(m.stageOK)),
		StageFailed:      make(map[string]int64, len(m.stageFailed)),
		QueueDepths:      make(map[string]int, len(m.queueDepths)),
	}
	for k, v := range m.stageDurationsMs {
		snap.StageDurationsMs[k] = v
	}
	for k, v := range m.stageCalls {
		snap.StageCalls[k] = v
	}
	for k, v := range m.stageOK {
		snap.StageOK[k] = v
	}
	for k, v := range m.stageFailed {
		snap.StageFailed[k] = v
	}
	for k, v := range m.queueDepths {
		snap.QueueDepths[k] = v
	}
	return snap
}

// ── Prometheus metrics collector ────────────────────────────────────────

// PrometheusMetrics feeds pipeline and worker-pool stage observations into
// a Prometheus registry.
type PrometheusMetrics struct {
	stageDuration *prometheus.HistogramVec
	queueDepth    *prometheus.GaugeVec
	itemOutcomes  *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine's metrics against reg. Pass
// prometheus.DefaultRegisterer to use the global registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "batchresize",
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline/worker-pool stage, per item.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		queueDepth: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "batchresize",
			Name:      "queue_depth",
			Help:      "Current depth of an inter-stage bounded queue.",
		}, []string{"queue"}),
		itemOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "batchresize",
			Name:      "stage_items_total",
			Help:      "Count of items processed by a stage, partitioned by outcome.",
		}, []string{"stage", "outcome"}),
	}
}

func (m *PrometheusMetrics) RecordStageDuration(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

func (m *PrometheusMetrics) RecordQueueDepth(queue string, depth int) {
	m.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

func (m *PrometheusMetrics) RecordItemOutcome(stage string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	m.itemOutcomes.WithLabelValues(stage, outcome).Inc()
}

var _ core.Logger = (*SlogLogger)(nil)
var _ core.MetricsCollector = (*InMemoryMetrics)(nil)
var _ core.MetricsCollector = (*PrometheusMetrics)(nil)
