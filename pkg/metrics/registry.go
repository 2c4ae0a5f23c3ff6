// Package metrics exposes Prometheus collectors for discovery runs and
// comparison sweeps on a private registry.
package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	defaultRegistry *Registry
	once            sync.Once
)

// Registry holds all metrics for the application
type Registry struct {
	// Discovery Metrics
	RunsTotal         *prometheus.CounterVec
	RunDuration       prometheus.Histogram
	RegionsTotal      *prometheus.CounterVec
	ClustersTotal     prometheus.Counter
	EdgesRemovedTotal prometheus.Counter
	PowerStepsTotal   prometheus.Counter

	// Comparison Metrics
	TrialsTotal            *prometheus.CounterVec
	TrialDuration          *prometheus.HistogramVec
	TrialMatchingScore     *prometheus.HistogramVec
	ReferenceFailuresTotal *prometheus.CounterVec

	registry *prometheus.Registry
}

// DefaultRegistry returns the process-wide registry
func DefaultRegistry() *Registry {
	once.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	r := &Registry{registry: prometheus.NewRegistry()}
	r.initDiscoveryMetrics()
	r.initComparisonMetrics()
	return r
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// WriteTextfile dumps every metric in the Prometheus text format, the way
// node_exporter's textfile collector expects it.
func (r *Registry) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}

func (r *Registry) initDiscoveryMetrics() {
	r.RunsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustiflor_runs_total",
			Help: "Total number of discovery runs",
		},
		[]string{"status"},
	)

	r.RunDuration = promauto.With(r.registry).NewHistogram(
		prometheus.HistogramOpts{
			Name:    "clustiflor_run_duration_seconds",
			Help:    "Discovery run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1.0, 5.0, 30.0, 120.0},
		},
	)

	r.RegionsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustiflor_regions_total",
			Help: "Regions processed by outcome",
		},
		[]string{"outcome"},
	)

	r.ClustersTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "clustiflor_clusters_emitted_total",
			Help: "Total number of biclusters emitted",
		},
	)

	r.EdgesRemovedTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "clustiflor_edges_removed_total",
			Help: "Edges removed from residual graphs",
		},
	)

	r.PowerStepsTotal = promauto.With(r.registry).NewCounter(
		prometheus.CounterOpts{
			Name: "clustiflor_power_steps_total",
			Help: "Power iteration steps performed",
		},
	)
}

func (r *Registry) initComparisonMetrics() {
	r.TrialsTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustiflor_comparison_trials_total",
			Help: "Comparison trials by status",
		},
		[]string{"status"},
	)

	r.TrialDuration = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clustiflor_comparison_solver_duration_seconds",
			Help:    "Solver duration per trial in seconds",
			Buckets: []float64{0.001, 0.01, 0.1, 1.0, 10.0, 60.0},
		},
		[]string{"solver"},
	)

	r.TrialMatchingScore = promauto.With(r.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clustiflor_comparison_matching_score",
			Help:    "Matching score against ground truth per trial",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
		[]string{"solver"},
	)

	r.ReferenceFailuresTotal = promauto.With(r.registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustiflor_reference_failures_total",
			Help: "Reference tool runs that failed",
		},
		[]string{"solver"},
	)
}

// RunSummary is what a finished discovery run reports
type RunSummary struct {
	Regions      int
	Accepted     int
	Rejected     int
	Degenerate   int
	Discarded    int
	Clusters     int
	EdgesRemoved int
	PowerSteps   int
}

// RecordRun records a discovery run; a nil registry ignores it.
func (r *Registry) RecordRun(status string, duration time.Duration, s RunSummary) {
	if r == nil {
		return
	}
	r.RunsTotal.WithLabelValues(status).Inc()
	r.RunDuration.Observe(duration.Seconds())
	r.RegionsTotal.WithLabelValues("accepted").Add(float64(s.Accepted))
	r.RegionsTotal.WithLabelValues("rejected").Add(float64(s.Rejected))
	r.RegionsTotal.WithLabelValues("degenerate").Add(float64(s.Degenerate))
	r.RegionsTotal.WithLabelValues("discarded").Add(float64(s.Discarded))
	r.ClustersTotal.Add(float64(s.Clusters))
	r.EdgesRemovedTotal.Add(float64(s.EdgesRemoved))
	r.PowerStepsTotal.Add(float64(s.PowerSteps))
}

// RecordTrial records one comparison trial
func (r *Registry) RecordTrial(status string) {
	if r == nil {
		return
	}
	r.TrialsTotal.WithLabelValues(status).Inc()
}

// RecordSolver records one solver outcome inside a trial
func (r *Registry) RecordSolver(solver string, duration time.Duration, matching float64, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.ReferenceFailuresTotal.WithLabelValues(solver).Inc()
		return
	}
	r.TrialDuration.WithLabelValues(solver).Observe(duration.Seconds())
	r.TrialMatchingScore.WithLabelValues(solver).Observe(matching)
}
