package simulation

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for the simulation engine.
type Metrics struct {
	TreesGenerated     *prometheus.CounterVec
	GenerationFailures *prometheus.CounterVec
	LeafCount          prometheus.Histogram
	Generations        prometheus.Histogram
	SampleRuns         *prometheus.CounterVec
	SampleDuration     prometheus.Histogram
}

// NewMetrics returns the process-wide metrics registered on the default
// registry. Registration happens once.
//
// Metrics:
//   - branchsim_simulation_trees_generated_total{strategy}
//   - branchsim_simulation_generation_failures_total{reason}
//   - branchsim_simulation_leaf_count
//   - branchsim_simulation_generations
//   - branchsim_simulation_sample_runs_total{strategy}
//   - branchsim_simulation_sample_duration_seconds
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = NewMetricsWithRegistry(prometheus.DefaultRegisterer)
	})
	return globalMetrics
}

// NewMetricsWithRegistry registers a fresh set of metrics on reg.
func NewMetricsWithRegistry(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		TreesGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "trees_generated_total",
				Help:      "Total number of trees generated",
			},
			[]string{"strategy"},
		),
		GenerationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "generation_failures_total",
				Help:      "Trees abandoned because a limit was hit or the run was cancelled",
			},
			[]string{"reason"}, // depth_limit, node_limit, cancelled
		),
		LeafCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "leaf_count",
				Help:      "Leaves per generated tree",
				Buckets:   prometheus.ExponentialBuckets(4, 2, 14),
			},
		),
		Generations: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "generations",
				Help:      "Deepest generation per generated tree",
				Buckets:   prometheus.LinearBuckets(2, 4, 16),
			},
		),
		SampleRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "sample_runs_total",
				Help:      "Total number of completed sampling runs",
			},
			[]string{"strategy"},
		),
		SampleDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "branchsim",
				Subsystem: "simulation",
				Name:      "sample_duration_seconds",
				Help:      "Duration of sampling runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
	}
}
