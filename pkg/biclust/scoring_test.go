package biclust

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoBlocks() *Set {
	return NewSet(
		New([]int{0, 1, 2}, []int{0, 1}),
		New([]int{3, 4}, []int{2, 3, 4}),
	)
}

func TestMatchingScore(t *testing.T) {
	gt := twoBlocks()

	t.Run("identical sets score one", func(t *testing.T) {
		assert.InDelta(t, 1.0, gt.MatchingScore(gt.With()), 1e-12)
	})

	t.Run("empty-sided clusters do not lower self score", func(t *testing.T) {
		x := NewSet(New([]int{0, 1}, []int{0}), New(nil, nil), New([]int{2}, nil))
		assert.Equal(t, 1, x.Len())
		assert.InDelta(t, 1.0, x.MatchingScore(NewSet(x.Clusters()...)), 1e-12)
	})

	t.Run("empty other scores zero", func(t *testing.T) {
		assert.Equal(t, 0.0, gt.MatchingScore(NewSet()))
		assert.Equal(t, 0.0, gt.MatchingScore(nil))
		assert.Equal(t, 0.0, NewSet().MatchingScore(gt))
	})

	t.Run("unmatched cluster contributes zero", func(t *testing.T) {
		found := NewSet(New([]int{0, 1, 2}, []int{0, 1}))
		assert.InDelta(t, 0.5, gt.MatchingScore(found), 1e-12)
	})

	t.Run("partial overlap", func(t *testing.T) {
		a := NewSet(New([]int{0, 1}, []int{0, 1}))
		b := NewSet(New([]int{1, 2}, []int{0, 1}))
		// rows 1/3, cols 2/2 -> 3/5
		assert.InDelta(t, 0.6, a.MatchingScore(b), 1e-12)
	})

	t.Run("disjoint sets score zero", func(t *testing.T) {
		other := NewSet(New([]int{9}, []int{9}))
		assert.Equal(t, 0.0, gt.MatchingScore(other))
	})
}

func TestFScore(t *testing.T) {
	gt := twoBlocks()
	assert.InDelta(t, 1.0, gt.FScore(gt), 1e-12)
	assert.Equal(t, 0.0, gt.FScore(NewSet()))

	// extra spurious cluster lowers relevance but not recovery
	noisy := gt.With(New([]int{7, 8}, []int{7, 8}))
	assert.InDelta(t, 1.0, gt.MatchingScore(noisy), 1e-12)
	assert.Less(t, gt.FScore(noisy), 1.0)
}

func TestAccuracy(t *testing.T) {
	gt := twoBlocks()

	assert.Equal(t, 0.0, gt.Accuracy(NewSet()), "empty discovered set")
	assert.InDelta(t, 1.0, gt.Accuracy(gt), 1e-12, "exact cover")
	assert.Equal(t, 0.0, NewSet().Accuracy(gt), "empty ground truth")

	half := NewSet(New([]int{0, 1, 2}, []int{0}))
	// 3 of 12 planted cells
	assert.InDelta(t, 0.25, gt.Accuracy(half), 1e-12)
}

func TestRowsOverlapping(t *testing.T) {
	assert.Equal(t, 0.0, NewSet().RowsOverlapping())
	assert.InDelta(t, 1.0, twoBlocks().RowsOverlapping(), 1e-12)

	overlapping := NewSet(
		New([]int{0, 1, 2, 3}, []int{0}),
		New([]int{2, 3, 4, 5}, []int{1}),
	)
	// 6 rows, 8 memberships
	assert.InDelta(t, 8.0/6.0, overlapping.RowsOverlapping(), 1e-12)
	assert.InDelta(t, 2.0/6.0, overlapping.OverlappingRowFraction(), 1e-12)
}

func TestRowNMI(t *testing.T) {
	gt := twoBlocks()
	assert.InDelta(t, 1.0, gt.RowNMI(gt, 5), 1e-12)

	relabeled := NewSet(
		New([]int{3, 4}, []int{0}),
		New([]int{0, 1, 2}, []int{1}),
	)
	assert.InDelta(t, 1.0, gt.RowNMI(relabeled, 5), 1e-12)

	single := NewSet(New([]int{0, 1, 2, 3, 4}, []int{0}))
	nmi := gt.RowNMI(single, 5)
	assert.False(t, math.IsNaN(nmi))
	assert.InDelta(t, 0.0, nmi, 1e-12)
	assert.Equal(t, 0.0, gt.RowNMI(single, 0))
}

// genSet draws four 3x3 clusters over a 30x30 index space
func genSet() gopter.Gen {
	return gen.SliceOfN(24, gen.IntRange(0, 30)).Map(func(xs []int) *Set {
		clusters := make([]Bicluster, 0, 4)
		for i := 0; i+6 <= len(xs); i += 6 {
			clusters = append(clusters, New(xs[i:i+3], xs[i+3:i+6]))
		}
		return NewSet(clusters...)
	})
}

func TestScoringProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("matching score of a set against a copy is one", prop.ForAll(
		func(s *Set) bool {
			return math.Abs(s.MatchingScore(NewSet(s.Clusters()...))-1) < 1e-12
		},
		genSet(),
	))

	properties.Property("accuracy never decreases when a cluster is added", prop.ForAll(
		func(gt, found *Set, extra int) bool {
			before := gt.Accuracy(found)
			after := gt.Accuracy(found.With(gt.At(extra % gt.Len())))
			return after >= before-1e-12
		},
		genSet(), genSet(), gen.IntRange(0, 100),
	))

	properties.Property("scores stay within [0, 1]", prop.ForAll(
		func(a, b *Set) bool {
			for _, v := range []float64{a.MatchingScore(b), a.Accuracy(b), a.FScore(b)} {
				if v < 0 || v > 1+1e-12 {
					return false
				}
			}
			return true
		},
		genSet(), genSet(),
	))

	properties.TestingRun(t)
}

func TestSetImmutability(t *testing.T) {
	rows := []int{2, 1, 1}
	s := NewSet(New(rows, []int{0}))
	rows[0] = 99

	got := s.At(0)
	require.Equal(t, []int{1, 2}, got.Rows)

	got.Rows[0] = 42
	assert.Equal(t, []int{1, 2}, s.At(0).Rows)

	extended := s.With(New([]int{5}, []int{5}))
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, 2, extended.Len())
}
