// Package comparison runs multi-trial sweeps scoring the discovery engine
// and external reference tools against planted ground truth.
package comparison

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/clustiflor"
	"github.com/lucas-test/clustiflor/pkg/metrics"
)

// EngineName labels the discovery engine's results in rows and tables
const EngineName = "clustiflor"

// SolverResult holds performance statistics of one solver on one trial
type SolverResult struct {
	Name     string        `json:"name"`
	Matching float64       `json:"matching"`
	Accuracy float64       `json:"accuracy"`
	Clusters int           `json:"clusters"`
	Runtime  time.Duration `json:"runtime"`
	Success  bool          `json:"success"`
	Error    string        `json:"error,omitempty"`
}

// Row is the outcome of one trial
type Row struct {
	Trial         int            `json:"trial"`
	TrialID       string         `json:"trial_id"`
	N             int            `json:"n"`
	M             int            `json:"m"`
	RealNoise     float64        `json:"real_noise"`
	Noise         float64        `json:"noise"`
	RealOverlap   float64        `json:"real_overlap"`
	RowOverlap    float64        `json:"row_overlap"`
	RowSeparation float64        `json:"row_separation"`
	Solvers       []SolverResult `json:"solvers"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
}

// Sweep describes a comparison run
type Sweep struct {
	Trials  int
	Workers int   // 0 means one per CPU
	Seed    int64 // trial i draws from rand.NewSource(Seed + i)
	Ranges  Ranges
	Params  clustiflor.Params

	References   []Reference
	WorkDir      string // parent of the per-trial directories, os.TempDir() when empty
	KeepWorkDirs bool

	Logger  zerolog.Logger
	Metrics *metrics.Registry
}

type sweepArgs struct {
	Trials  int `validate:"min=1"`
	Workers int `validate:"gte=0"`
}

// Run executes every trial. A failing trial or reference is logged and
// recorded in its row; it never stops the other trials. The returned error
// is only set for an invalid sweep or a cancelled context.
func (s *Sweep) Run(ctx context.Context) ([]Row, error) {
	if err := validate.Struct(sweepArgs{Trials: s.Trials, Workers: s.Workers}); err != nil {
		return nil, fmt.Errorf("invalid sweep: %w", err)
	}
	if err := s.Ranges.Validate(); err != nil {
		return nil, err
	}
	if err := s.Params.Validate(); err != nil {
		return nil, err
	}

	workers := s.Workers
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	s.Logger.Info().
		Int("trials", s.Trials).
		Int("workers", workers).
		Int("references", len(s.References)).
		Msg("Starting comparison sweep")

	rows := make([]Row, s.Trials)
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for trial := 0; trial < s.Trials; trial++ {
		trial := trial
		g.Go(func() error {
			rows[trial] = s.runTrial(ctx, trial)
			return nil
		})
	}
	g.Wait()

	failed := 0
	for _, r := range rows {
		if !r.Success {
			failed++
		}
	}
	s.Logger.Info().Int("trials", s.Trials).Int("failed", failed).Msg("Comparison sweep completed")
	return rows, ctx.Err()
}

func (s *Sweep) runTrial(ctx context.Context, trial int) Row {
	rng := rand.New(rand.NewSource(s.Seed + int64(trial)))
	d := s.Ranges.draw(rng)
	row := Row{
		Trial:         trial,
		TrialID:       uuid.NewString(),
		N:             d.n,
		M:             d.m,
		Noise:         d.noise,
		RowOverlap:    d.rowOverlap,
		RowSeparation: d.rowSeparation,
	}
	logger := s.Logger.With().Int("trial", trial).Str("trial_id", row.TrialID).Logger()

	graph, err := bigraph.Generate(d.n, d.m, d.noise, d.rowOverlap, d.rowSeparation, rng)
	if err != nil {
		return s.fail(logger, row, err)
	}
	gt := graph.GroundTruth()
	if gt.IsEmpty() {
		return s.fail(logger, row, fmt.Errorf("graph %dx%d has no planted cluster", d.n, d.m))
	}
	row.RealNoise = graph.ComputeNoise(gt)
	row.RealOverlap = gt.RowsOverlapping()

	start := time.Now()
	result, err := clustiflor.NewEngine(s.Params, clustiflor.WithMetrics(s.Metrics)).Discover(ctx, graph)
	var found *biclust.Set
	if err == nil {
		found = result.Biclusters
	}
	row.Solvers = append(row.Solvers, s.score(logger, EngineName, gt, found, time.Since(start), err))

	if len(s.References) > 0 {
		row.Solvers = append(row.Solvers, s.runReferences(ctx, logger, trial, graph)...)
	}

	row.Success = true
	status := "ok"
	for _, sr := range row.Solvers {
		if !sr.Success {
			status = "partial"
		}
	}
	s.Metrics.RecordTrial(status)
	logger.Debug().Int("n", d.n).Int("m", d.m).Float64("real_noise", row.RealNoise).Str("status", status).Msg("Trial completed")
	return row
}

func (s *Sweep) runReferences(ctx context.Context, logger zerolog.Logger, trial int, graph *bigraph.Graph) []SolverResult {
	gt := graph.GroundTruth()
	out := make([]SolverResult, 0, len(s.References))

	dir, err := os.MkdirTemp(s.WorkDir, fmt.Sprintf("trial-%d-", trial))
	if err != nil {
		for _, ref := range s.References {
			out = append(out, s.score(logger, ref.Name(), gt, nil, 0, err))
		}
		return out
	}
	if !s.KeepWorkDirs {
		defer os.RemoveAll(dir)
	}

	for _, ref := range s.References {
		set, elapsed, err := ref.Run(ctx, dir, graph)
		out = append(out, s.score(logger, ref.Name(), gt, set, elapsed, err))
	}
	return out
}

func (s *Sweep) score(logger zerolog.Logger, name string, gt, found *biclust.Set, elapsed time.Duration, err error) SolverResult {
	res := SolverResult{Name: name, Runtime: elapsed}
	if err != nil {
		res.Error = err.Error()
		logger.Warn().Err(err).Str("solver", name).Msg("Solver failed")
		s.Metrics.RecordSolver(name, elapsed, 0, err)
		return res
	}
	res.Success = true
	res.Matching = gt.MatchingScore(found)
	res.Accuracy = gt.Accuracy(found)
	res.Clusters = found.Len()
	s.Metrics.RecordSolver(name, elapsed, res.Matching, nil)
	return res
}

func (s *Sweep) fail(logger zerolog.Logger, row Row, err error) Row {
	row.Error = err.Error()
	logger.Warn().Err(err).Msg("Trial failed")
	s.Metrics.RecordTrial("failed")
	return row
}
