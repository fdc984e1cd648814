package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments shared by every InstrumentedGuide
// in a process. Construct one with NewMetrics and pass it to each decorator;
// sharing a single Metrics across guides is required, not optional, since
// each instrument is registered only once.
type Metrics struct {
	TotalNodes    *prometheus.GaugeVec
	FrontierSize  *prometheus.GaugeVec
	Traversals    *prometheus.CounterVec
	MaxSavedLevel *prometheus.GaugeVec
	Exhaustions   *prometheus.CounterVec
	SizeEstimate  *prometheus.HistogramVec
}

// NewMetrics registers and returns the guide metric family against reg. Pass
// prometheus.DefaultRegisterer in production so promhttp.Handler() serves
// them on /metrics; pass a fresh prometheus.NewRegistry() in tests so
// repeated calls within one test binary don't collide on duplicate
// registration. A nil reg creates the instruments unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TotalNodes: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tree_guide_total_nodes",
				Help: "Distinct decision-tree nodes materialized so far, by guide kind.",
			},
			[]string{"guide"},
		),
		FrontierSize: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tree_guide_frontier_size",
				Help: "Pending BFS frontier queue size, by guide kind.",
			},
			[]string{"guide"},
		),
		Traversals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tree_guide_traversals_total",
				Help: "Completed traversals, by guide kind.",
			},
			[]string{"guide"},
		),
		MaxSavedLevel: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "tree_guide_max_saved_level",
				Help: "Level of the most recently dequeued BFS frontier node, by guide kind.",
			},
			[]string{"guide"},
		),
		Exhaustions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tree_guide_exhausted_total",
				Help: "Number of times a guide's decision space was found exhausted.",
			},
			[]string{"guide"},
		),
		SizeEstimate: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tree_guide_size_estimate",
				Help:    "Root subtree size estimates observed on sampler trail collapse.",
				Buckets: prometheus.ExponentialBuckets(1, 2, 16),
			},
			[]string{"guide"},
		),
	}
}

func (m *Metrics) recordTraversal(guideKind string, totalNodes int) {
	m.Traversals.WithLabelValues(guideKind).Inc()
	m.TotalNodes.WithLabelValues(guideKind).Set(float64(totalNodes))
}

func (m *Metrics) recordExhaustion(guideKind string) {
	m.Exhaustions.WithLabelValues(guideKind).Inc()
}

func (m *Metrics) recordFrontierSize(guideKind string, size int) {
	m.FrontierSize.WithLabelValues(guideKind).Set(float64(size))
}

func (m *Metrics) recordMaxSavedLevel(guideKind string, level int) {
	m.MaxSavedLevel.WithLabelValues(guideKind).Set(float64(level))
}

func (m *Metrics) recordSizeEstimate(guideKind string, estimate float64) {
	m.SizeEstimate.WithLabelValues(guideKind).Observe(estimate)
}
