package bigraph

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("dimensions and ground truth", func(t *testing.T) {
		g, err := Generate(40, 30, 0.2, 1.0, 0.8, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Equal(t, 40, g.N())
		assert.Equal(t, 30, g.M())
		require.NoError(t, g.Validate())

		gt := g.GroundTruth()
		require.NotNil(t, gt)
		// floor(sqrt(30)/2) = 2
		assert.Equal(t, 2, gt.Len())
		for _, c := range gt.Clusters() {
			assert.True(t, c.IsValid())
			assert.Equal(t, 1.0-0.2/2, c.Density)
		}
		maxRow, maxCol := gt.MaxIndices()
		assert.LessOrEqual(t, maxRow, 40)
		assert.LessOrEqual(t, maxCol, 30)
	})

	t.Run("small graphs have no ground truth", func(t *testing.T) {
		g, err := Generate(3, 10, 0.1, 1.0, 1.0, rand.New(rand.NewSource(1)))
		require.NoError(t, err)
		assert.Nil(t, g.GroundTruth())
		assert.Equal(t, 3, g.N())
	})

	t.Run("noise-free graph has zero noise", func(t *testing.T) {
		g, err := Generate(36, 36, 0, 1.0, 1.0, rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		assert.Equal(t, 0.0, g.ComputeNoise(g.GroundTruth()))

		overlapping, err := Generate(36, 36, 0, 1.5, 1.0, rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		assert.Equal(t, 0.0, overlapping.ComputeNoise(overlapping.GroundTruth()))
	})

	t.Run("noisy graph has positive noise", func(t *testing.T) {
		g, err := Generate(36, 36, 0.5, 1.0, 0.5, rand.New(rand.NewSource(3)))
		require.NoError(t, err)
		assert.Greater(t, g.ComputeNoise(g.GroundTruth()), 0.0)
	})

	t.Run("reproducible for a fixed seed", func(t *testing.T) {
		a, err := Generate(25, 25, 0.3, 1.2, 0.7, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		b, err := Generate(25, 25, 0.3, 1.2, 0.7, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		assert.Equal(t, a.Edges(), b.Edges())
		assert.Equal(t, a.GroundTruth().Clusters(), b.GroundTruth().Clusters())
	})

	t.Run("row overlap creates overlapping blocks", func(t *testing.T) {
		g, err := Generate(64, 64, 0, 1.5, 1.0, rand.New(rand.NewSource(5)))
		require.NoError(t, err)
		assert.Greater(t, g.GroundTruth().RowsOverlapping(), 1.0)
	})
}

func TestGenerateRejectsInvalidArguments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	tests := []struct {
		name                  string
		n, m                  int
		noise, overlap, separ float64
	}{
		{"zero rows", 0, 5, 0.1, 1, 1},
		{"zero columns", 5, 0, 0.1, 1, 1},
		{"noise above one", 5, 5, 1.5, 1, 1},
		{"negative noise", 5, 5, -0.1, 1, 1},
		{"overlap below one", 5, 5, 0.1, 0.5, 1},
		{"separation above one", 5, 5, 0.1, 1, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Generate(tt.n, tt.m, tt.noise, tt.overlap, tt.separ, rng)
			assert.True(t, errors.Is(err, ErrInvalidGeneration), "got %v", err)
		})
	}
}

func TestGenerateProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("generated graphs keep their shape and indices", prop.ForAll(
		func(n, m int, noise float64, seed int64) bool {
			g, err := Generate(n, m, noise, 1.0, 0.5, rand.New(rand.NewSource(seed)))
			if err != nil {
				return false
			}
			if g.N() != n || g.M() != m || g.Validate() != nil {
				return false
			}
			for _, e := range g.Edges() {
				if e.A < 0 || e.A >= n || e.B < 0 || e.B >= m || e.Weight <= 0 || e.Weight > 1 {
					return false
				}
			}
			if min(n, m) >= minBlockSide && g.GroundTruth().IsEmpty() {
				return false
			}
			return true
		},
		gen.IntRange(1, 30),
		gen.IntRange(1, 30),
		gen.Float64Range(0, 1),
		gen.Int64(),
	))

	properties.TestingRun(t)
}
