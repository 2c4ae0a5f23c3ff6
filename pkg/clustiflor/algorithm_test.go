package clustiflor

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
	"github.com/lucas-test/clustiflor/pkg/metrics"
)

// plantedBlock builds an n x m graph whose only edges form a weight-1 block
// on the first rows x cols cells.
func plantedBlock(t *testing.T, n, m, rows, cols int) *bigraph.Graph {
	t.Helper()
	g := bigraph.New(n, m)
	rowIdx := make([]int, rows)
	colIdx := make([]int, cols)
	for a := 0; a < rows; a++ {
		rowIdx[a] = a
		for b := 0; b < cols; b++ {
			require.NoError(t, g.SetWeight(a, b, 1))
		}
	}
	for b := range colIdx {
		colIdx[b] = b
	}
	g.SetGroundTruth(biclust.NewSet(biclust.NewWithDensity(rowIdx, colIdx, 1)))
	return g
}

func generated(t *testing.T, n, m int, noise float64, seed int64) *bigraph.Graph {
	t.Helper()
	g, err := bigraph.Generate(n, m, noise, 1.0, 1.0, rand.New(rand.NewSource(seed)))
	require.NoError(t, err)
	return g
}

func TestDiscoverSingleBlock(t *testing.T) {
	g := plantedBlock(t, 20, 20, 10, 10)

	result, err := Discover(g, DefaultParams())
	require.NoError(t, err)

	require.Equal(t, 1, result.Biclusters.Len())
	found := result.Biclusters.At(0)
	gt := g.GroundTruth().At(0)
	assert.Equal(t, gt.Rows, found.Rows)
	assert.Equal(t, gt.Cols, found.Cols)
	assert.Equal(t, 1.0, found.Density)
	assert.GreaterOrEqual(t, g.GroundTruth().MatchingScore(result.Biclusters), 0.95)

	assert.Equal(t, 100, result.Stats.EdgesRemoved)
	assert.Equal(t, 0, result.Residual.NumEdges())
	assert.Equal(t, 100, g.NumEdges(), "caller graph must not be modified")
	assert.NotEmpty(t, result.RunID)
}

func TestDiscoverLargeSparseGraph(t *testing.T) {
	// a dense n x m region would take 8 GB
	g := bigraph.New(50000, 20000)
	for a := 100; a < 110; a++ {
		for b := 300; b < 310; b++ {
			require.NoError(t, g.SetWeight(a, b, 1))
		}
	}
	params := DefaultParams()
	params.SizeSensitivity = 0

	result, err := Discover(g, params)
	require.NoError(t, err)
	require.Equal(t, 1, result.Biclusters.Len())
	assert.Equal(t, []int{100, 101, 102, 103, 104, 105, 106, 107, 108, 109}, result.Biclusters.At(0).Rows)
	assert.Equal(t, []int{300, 301, 302, 303, 304, 305, 306, 307, 308, 309}, result.Biclusters.At(0).Cols)
	assert.Equal(t, 0, result.Residual.NumEdges())
}

func TestContrastSkipsClaimedCells(t *testing.T) {
	g := bigraph.New(4, 4)
	for a := 0; a < 2; a++ {
		for b := 0; b < 2; b++ {
			require.NoError(t, g.SetWeight(a, b, 1))
		}
	}
	require.NoError(t, g.SetWeight(0, 2, 1))
	res := newResidual(g)
	reg := &region{rows: sequence(4), cols: sequence(4)}

	d := res.contrast(reg, res.block(reg.rows, reg.cols), []int{0, 1}, []int{0, 1})
	assert.Equal(t, 1.0, d.inside)
	// boundary: 2 x 2 cells right of the block plus 2 x 2 below, one edge
	assert.Equal(t, 1.0/8, d.boundary)
	assert.Equal(t, 7.0, d.contrast)

	assert.Equal(t, 1, res.claim([]int{0}, []int{2, 3}))
	d = res.contrast(reg, res.block(reg.rows, reg.cols), []int{0, 1}, []int{0, 1})
	assert.Equal(t, 0.0, d.boundary)
	assert.True(t, math.IsInf(d.contrast, 1))
}

func TestDiscoverUniformGraphIsOneCluster(t *testing.T) {
	g := plantedBlock(t, 6, 8, 6, 8)

	result, err := Discover(g, DefaultParams())
	require.NoError(t, err)
	require.Equal(t, 1, result.Biclusters.Len())
	assert.Equal(t, 6, len(result.Biclusters.At(0).Rows))
	assert.Equal(t, 1, result.Stats.Degenerate)
}

func TestDiscoverEmptyGraph(t *testing.T) {
	result, err := Discover(bigraph.New(10, 10), DefaultParams())
	require.NoError(t, err)
	assert.True(t, result.Biclusters.IsEmpty())
	assert.Equal(t, 1, result.Stats.Discarded)
}

func TestDiscoverSeparatedBlocks(t *testing.T) {
	g := generated(t, 36, 36, 0.2, 11)

	result, err := Discover(g, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, 3, result.Biclusters.Len())
	assert.GreaterOrEqual(t, g.GroundTruth().MatchingScore(result.Biclusters), 0.9)
}

func TestHighSplitThresholdFindsNothing(t *testing.T) {
	g := generated(t, 40, 40, 0.3, 5)
	params := DefaultParams()
	params.SplitThreshold = 1000

	result, err := Discover(g, params)
	require.NoError(t, err)
	assert.True(t, result.Biclusters.IsEmpty())
	assert.Equal(t, 0, result.Stats.SplitsAccepted)
	assert.Equal(t, g.NumEdges(), result.Residual.NumEdges())
}

func TestPowerIterationsDoNotHurt(t *testing.T) {
	g := generated(t, 36, 36, 0, 3)

	scores := make(map[int]float64)
	for _, iterations := range []int{1, 10} {
		params := DefaultParams()
		params.PowerIterations = iterations
		result, err := Discover(g, params)
		require.NoError(t, err)
		scores[iterations] = g.GroundTruth().MatchingScore(result.Biclusters)
	}
	assert.GreaterOrEqual(t, scores[10], scores[1])
	assert.GreaterOrEqual(t, scores[10], 0.95)
}

func TestInvalidParamsAreRejected(t *testing.T) {
	g := generated(t, 20, 20, 0.1, 1)
	edges := g.NumEdges()

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"split threshold below one", func(p *Params) { p.SplitThreshold = 0.5 }},
		{"zero power iterations", func(p *Params) { p.PowerIterations = 0 }},
		{"negative size sensitivity", func(p *Params) { p.SizeSensitivity = -1 }},
		{"negative verbosity", func(p *Params) { p.Verbosity = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := DefaultParams()
			tt.mutate(&params)
			_, err := Discover(g, params)
			assert.True(t, errors.Is(err, ErrConfiguration), "got %v", err)
			assert.Equal(t, edges, g.NumEdges())
		})
	}

	_, err := Discover(nil, DefaultParams())
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestRerunOnResidual(t *testing.T) {
	g := generated(t, 36, 36, 0.1, 8)

	first, err := Discover(g, DefaultParams())
	require.NoError(t, err)
	require.False(t, first.Biclusters.IsEmpty())

	first.Biclusters.Each(func(_ int, c biclust.Bicluster) {
		for _, a := range c.Rows {
			for _, b := range c.Cols {
				assert.False(t, first.Residual.HasEdge(a, b))
			}
		}
	})

	second, err := Discover(first.Residual, DefaultParams())
	require.NoError(t, err)
	second.Biclusters.Each(func(_ int, c biclust.Bicluster) {
		first.Biclusters.Each(func(_ int, prev biclust.Bicluster) {
			assert.False(t, c.Equal(prev), "cluster %s emitted twice", c)
		})
	})
	assert.Equal(t, first.Residual.NumEdges()-second.Stats.EdgesRemoved, second.Residual.NumEdges())
}

func TestDiscoverIsDeterministic(t *testing.T) {
	g := generated(t, 30, 45, 0.25, 21)

	a, err := Discover(g, DefaultParams())
	require.NoError(t, err)
	b, err := Discover(g, DefaultParams())
	require.NoError(t, err)
	assert.Equal(t, a.Biclusters.Clusters(), b.Biclusters.Clusters())
	assert.NotEqual(t, a.RunID, b.RunID)
}

func TestVerbosityDoesNotChangeResult(t *testing.T) {
	g := generated(t, 25, 25, 0.2, 4)

	quiet, err := Discover(g, DefaultParams())
	require.NoError(t, err)

	var buf bytes.Buffer
	params := DefaultParams()
	params.Verbosity = 2
	loud, err := NewEngine(params, WithLogger(zerolog.New(&buf))).Discover(context.Background(), g)
	require.NoError(t, err)

	assert.Equal(t, quiet.Biclusters.Clusters(), loud.Biclusters.Clusters())
	assert.Contains(t, buf.String(), "Starting bicluster discovery")
}

func TestDiscoverHonorsCancellation(t *testing.T) {
	g := generated(t, 20, 20, 0.1, 1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEngine(DefaultParams()).Discover(ctx, g)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSplitTrackerAndMetrics(t *testing.T) {
	g := generated(t, 36, 36, 0.1, 2)

	var buf bytes.Buffer
	tracker := NewSplitTrackerWriter(&buf)
	reg := metrics.NewRegistry()

	result, err := NewEngine(DefaultParams(), WithSplitTracker(tracker), WithMetrics(reg)).
		Discover(context.Background(), g)
	require.NoError(t, err)

	assert.Greater(t, tracker.Steps(), 0)
	lines := 0
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var ev SplitEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		assert.Equal(t, result.RunID, ev.RunID)
		assert.NotEmpty(t, ev.Decision)
		lines++
	}
	assert.Equal(t, tracker.Steps(), lines)

	assert.Equal(t, 1.0, testutil.ToFloat64(reg.RunsTotal.WithLabelValues("ok")))
	assert.Equal(t, float64(result.Stats.Clusters), testutil.ToFloat64(reg.ClustersTotal))
	assert.Equal(t, float64(result.Stats.SplitsAccepted), testutil.ToFloat64(reg.RegionsTotal.WithLabelValues("accepted")))
}

func TestRunWithSplitTracking(t *testing.T) {
	g := generated(t, 36, 36, 0.1, 2)
	path := filepath.Join(t.TempDir(), "splits.jsonl")

	config := NewConfig()
	config.Set("logging.level", "error")
	config.Set("analysis.track_splits", true)
	config.Set("analysis.output_file", path)

	result, err := Run(context.Background(), g, config)
	require.NoError(t, err)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var events []SplitEvent
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var ev SplitEvent
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &ev))
		events = append(events, ev)
	}
	require.NoError(t, scanner.Err())
	require.NotEmpty(t, events)
	for i, ev := range events {
		assert.Equal(t, i+1, ev.Step)
		assert.Equal(t, result.RunID, ev.RunID)
	}
	assert.Equal(t, result.Stats.SplitsAccepted+result.Stats.SplitsRejected+result.Stats.Degenerate, len(events))
}

func TestRunKeepsGoingWhenSplitLogFails(t *testing.T) {
	g := generated(t, 20, 20, 0.1, 1)
	config := NewConfig()
	config.Set("logging.level", "error")
	config.Set("analysis.track_splits", true)
	config.Set("analysis.output_file", filepath.Join(t.TempDir(), "missing", "splits.jsonl"))

	result, err := Run(context.Background(), g, config)
	require.NoError(t, err)
	assert.NotNil(t, result.Biclusters)
}

func TestDiscoverProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 25
	properties := gopter.NewProperties(parameters)

	properties.Property("clusters are non-empty and edges are removed once", prop.ForAll(
		func(n, m int, noise, sensitivity float64, seed int64) bool {
			g, err := bigraph.Generate(n, m, noise, 1.2, 0.7, rand.New(rand.NewSource(seed)))
			if err != nil {
				return false
			}
			params := DefaultParams()
			params.SizeSensitivity = sensitivity
			result, err := Discover(g, params)
			if err != nil {
				return false
			}
			for _, c := range result.Biclusters.Clusters() {
				if !c.IsValid() {
					return false
				}
			}
			return result.Stats.EdgesRemoved == g.NumEdges()-result.Residual.NumEdges() &&
				result.Stats.Clusters == result.Biclusters.Len()
		},
		gen.IntRange(1, 24),
		gen.IntRange(1, 24),
		gen.Float64Range(0, 0.6),
		gen.Float64Range(0, 2),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
