package reactive

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for a graph.
//
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	evaluations   *prometheus.CounterVec
	failures      *prometheus.CounterVec
	hits          *prometheus.CounterVec
	invalidations *prometheus.CounterVec
	writes        *prometheus.CounterVec
	duration      *prometheus.HistogramVec
}

// NewMetrics creates and registers the graph collectors with reg.
// Registering twice with the same registerer panics, as promauto does.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		evaluations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exprdash_node_evaluations_total",
			Help: "Total node function runs by node",
		}, []string{"node"}),
		failures: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exprdash_node_failures_total",
			Help: "Total failed node evaluations by node",
		}, []string{"node"}),
		hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exprdash_node_cache_hits_total",
			Help: "Total node reads served from cache by node",
		}, []string{"node"}),
		invalidations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exprdash_node_invalidations_total",
			Help: "Total clean-to-dirty transitions by node",
		}, []string{"node"}),
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "exprdash_cell_writes_total",
			Help: "Total cell writes by cell and result",
		}, []string{"cell", "result"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "exprdash_node_evaluation_duration_seconds",
			Help:    "Node evaluation duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
		}, []string{"node"}),
	}
}

func (m *Metrics) evaluated(node string, d time.Duration) {
	if m == nil {
		return
	}
	m.evaluations.WithLabelValues(node).Inc()
	m.duration.WithLabelValues(node).Observe(d.Seconds())
}

func (m *Metrics) failed(node string) {
	if m == nil {
		return
	}
	m.failures.WithLabelValues(node).Inc()
}

func (m *Metrics) hit(node string) {
	if m == nil {
		return
	}
	m.hits.WithLabelValues(node).Inc()
}

func (m *Metrics) invalidated(node string) {
	if m == nil {
		return
	}
	m.invalidations.WithLabelValues(node).Inc()
}

func (m *Metrics) written(cell, result string) {
	if m == nil {
		return
	}
	m.writes.WithLabelValues(cell, result).Inc()
}
