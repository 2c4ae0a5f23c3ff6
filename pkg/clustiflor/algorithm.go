// Package clustiflor discovers biclusters, dense row x column sub-blocks of
// a weighted bipartite graph, by repeatedly splitting regions along the
// dominant singular direction of their sub-adjacency.
package clustiflor

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/metrics"
)

// Engine runs discovery with fixed parameters and collaborators
type Engine struct {
	params  Params
	logger  zerolog.Logger
	tracker *SplitTracker
	metrics *metrics.Registry
}

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the progress logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithSplitTracker logs every split decision to t
func WithSplitTracker(t *SplitTracker) Option {
	return func(e *Engine) { e.tracker = t }
}

// WithMetrics records run metrics into r
func WithMetrics(r *metrics.Registry) Option {
	return func(e *Engine) { e.metrics = r }
}

// NewEngine creates an engine. Parameters are validated when Discover runs.
func NewEngine(params Params, opts ...Option) *Engine {
	e := &Engine{params: params, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}
	switch {
	case params.Verbosity >= 2:
		e.logger = e.logger.Level(zerolog.TraceLevel)
	case params.Verbosity == 1:
		e.logger = e.logger.Level(zerolog.DebugLevel)
	}
	return e
}

// Discover extracts biclusters from g. The caller's graph is never modified:
// the engine works on a private copy, removes the edges of every emitted
// cluster from it and returns that copy as Result.Residual.
func (e *Engine) Discover(ctx context.Context, g *bigraph.Graph) (*Result, error) {
	if err := e.params.Validate(); err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrConfiguration)
	}
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("invalid graph: %w", err)
	}

	startTime := time.Now()
	runID := uuid.NewString()
	logger := e.logger.With().Str("run_id", runID).Logger()

	logger.Info().
		Int("rows", g.N()).
		Int("cols", g.M()).
		Int("edges", g.NumEdges()).
		Float64("size_sensitivity", e.params.SizeSensitivity).
		Float64("split_threshold", e.params.SplitThreshold).
		Int("power_iterations", e.params.PowerIterations).
		Msg("Starting bicluster discovery")

	res := newResidual(g.Clone())
	minRows := sizeFloor(e.params.SizeSensitivity, g.N())
	minCols := sizeFloor(e.params.SizeSensitivity, g.M())

	var (
		stats    Stats
		clusters []biclust.Bicluster
	)

	// LIFO: an accepted sub-block is handled before the rest of its parent
	stack := []*region{{rows: sequence(g.N()), cols: sequence(g.M())}}
	for len(stack) > 0 {
		select {
		case <-ctx.Done():
			e.metrics.RecordRun("cancelled", time.Since(startTime), summarize(stats))
			return nil, ctx.Err()
		default:
		}

		reg := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		stats.Regions++
		stats.CellsVisited += int64(len(reg.rows)) * int64(len(reg.cols))

		if len(reg.rows) < minRows || len(reg.cols) < minCols {
			stats.Discarded++
			logger.Debug().
				Int("rows", len(reg.rows)).
				Int("cols", len(reg.cols)).
				Msg("Region below size floor, discarded")
			continue
		}

		w := res.block(reg.rows, reg.cols)
		weight := w.weight
		if weight == 0 {
			stats.Discarded++
			continue
		}

		d := e.evaluate(res, reg, w, minRows, minCols)
		stats.PowerSteps += d.steps
		e.tracker.Log(runID, reg.depth, reg, d)

		logger.Trace().
			Int("depth", reg.depth).
			Int("rows", len(reg.rows)).
			Int("cols", len(reg.cols)).
			Int("sub_rows", len(d.rows)).
			Int("sub_cols", len(d.cols)).
			Float64("inside", d.inside).
			Float64("boundary", d.boundary).
			Str("decision", d.outcome.String()).
			Msg("Split evaluated")

		switch d.outcome {
		case outcomeAccepted:
			stats.SplitsAccepted++
			reg.split = true
			stack = append(stack, reg, &region{
				rows:     d.rows,
				cols:     d.cols,
				depth:    reg.depth + 1,
				accepted: true,
			})
			continue
		case outcomeDegenerate:
			stats.Degenerate++
		default:
			stats.SplitsRejected++
		}

		// terminal region: a cluster if it was never split and is either an
		// accepted sub-block or uniform as a whole, residual noise otherwise
		if reg.split || (!reg.accepted && d.outcome != outcomeDegenerate) {
			stats.Discarded++
			continue
		}

		density := weight / float64(res.unclaimed(reg.rows, reg.cols))
		removed := res.claim(reg.rows, reg.cols)
		clusters = append(clusters, biclust.NewWithDensity(reg.rows, reg.cols, density))
		stats.Clusters++
		stats.EdgesRemoved += removed

		logger.Debug().
			Int("cluster", len(clusters)-1).
			Int("rows", len(reg.rows)).
			Int("cols", len(reg.cols)).
			Float64("density", density).
			Int("edges_removed", removed).
			Msg("Emitted bicluster")
	}

	stats.Elapsed = time.Since(startTime)
	stats.RuntimeMS = stats.Elapsed.Milliseconds()
	e.metrics.RecordRun("ok", stats.Elapsed, summarize(stats))

	logger.Info().
		Int("clusters", stats.Clusters).
		Int("regions", stats.Regions).
		Int("splits_accepted", stats.SplitsAccepted).
		Int("edges_removed", stats.EdgesRemoved).
		Int64("runtime_ms", stats.RuntimeMS).
		Msg("Bicluster discovery completed")

	return &Result{
		RunID:      runID,
		Biclusters: biclust.NewSet(clusters...),
		Stats:      stats,
		Params:     e.params,
		Residual:   res.g,
	}, nil
}

// evaluate bipartitions reg along its dominant direction and tests the
// high-affinity sub-block against the split threshold and the size floor.
func (e *Engine) evaluate(res *residual, reg *region, w *block, minRows, minCols int) decision {
	u, v := dominantDirection(w, e.params.PowerIterations)
	if u == nil {
		return decision{outcome: outcomeDegenerate}
	}
	rowSub, colSub := highAffinity(u), highAffinity(v)
	if len(rowSub) == len(reg.rows) && len(colSub) == len(reg.cols) {
		return decision{rows: reg.rows, cols: reg.cols, steps: e.params.PowerIterations, outcome: outcomeDegenerate}
	}

	d := res.contrast(reg, w, rowSub, colSub)
	d.steps = e.params.PowerIterations
	d.rows = pick(reg.rows, rowSub)
	d.cols = pick(reg.cols, colSub)
	switch {
	case !(d.contrast > e.params.SplitThreshold):
		d.outcome = outcomeRejected
	case len(d.rows) < minRows || len(d.cols) < minCols:
		d.outcome = outcomeTooSmall
	default:
		d.outcome = outcomeAccepted
	}
	return d
}

func summarize(s Stats) metrics.RunSummary {
	return metrics.RunSummary{
		Regions:      s.Regions,
		Accepted:     s.SplitsAccepted,
		Rejected:     s.SplitsRejected,
		Degenerate:   s.Degenerate,
		Discarded:    s.Discarded,
		Clusters:     s.Clusters,
		EdgesRemoved: s.EdgesRemoved,
		PowerSteps:   s.PowerSteps,
	}
}

// Discover runs the engine with params and no collaborators
func Discover(g *bigraph.Graph, params Params) (*Result, error) {
	return NewEngine(params).Discover(context.Background(), g)
}

// Run executes discovery with the logger, split tracking and parameters
// taken from config.
func Run(ctx context.Context, g *bigraph.Graph, config *Config, opts ...Option) (*Result, error) {
	logger := config.CreateLogger()

	var tracker *SplitTracker
	if config.EnableSplitTracking() {
		t, err := NewSplitTracker(config.TrackingOutputFile())
		if err != nil {
			logger.Warn().Err(err).Msg("Split tracking disabled")
		} else {
			tracker = t
			defer tracker.Close()
		}
	}

	all := append([]Option{WithLogger(logger), WithSplitTracker(tracker)}, opts...)
	return NewEngine(config.Params(), all...).Discover(ctx, g)
}
