package bigraph

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/go-playground/validator/v10"

	"github.com/lucas-test/clustiflor/pkg/biclust"
)

// minBlockSide is the smallest min(n, m) for which blocks are planted
const minBlockSide = 4

type generationArgs struct {
	N             int     `validate:"min=1"`
	M             int     `validate:"min=1"`
	Noise         float64 `validate:"gte=0,lte=1"`
	RowOverlap    float64 `validate:"gte=1"`
	RowSeparation float64 `validate:"gte=0,lte=1"`
}

var validate = validator.New()

// Generate synthesizes an n x m graph with planted biclusters.
//
// k = floor(sqrt(min(n, m)) / 2) blocks are planted on disjoint column
// groups. Row blocks start as an even partition of A and are widened by
// rowOverlap, so values above 1 make consecutive blocks share rows. Cells
// inside a block weigh 1 - noise*U; other cells weigh noise*U plus a leak of
// (1 - rowSeparation)*U/2. For min(n, m) < 4 no block is planted and the
// ground truth is nil. The result is reproducible for a given rng.
func Generate(n, m int, noise, rowOverlap, rowSeparation float64, rng *rand.Rand) (*Graph, error) {
	args := generationArgs{N: n, M: m, Noise: noise, RowOverlap: rowOverlap, RowSeparation: rowSeparation}
	if err := validate.Struct(args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeneration, err)
	}

	g := New(n, m)
	g.params = &GenerationParams{N: n, M: m, Noise: noise, RowOverlap: rowOverlap, RowSeparation: rowSeparation}

	k := 0
	if min(n, m) >= minBlockSide {
		k = int(math.Sqrt(float64(min(n, m))) / 2)
	}

	// membership[a] lists the column blocks row a is planted in
	membership := make([][]int, n)
	colBlock := make([]int, m)
	for b := range colBlock {
		colBlock[b] = -1
	}

	clusters := make([]biclust.Bicluster, 0, k)
	for i := 0; i < k; i++ {
		colLo, colHi := i*m/k, (i+1)*m/k
		rowLo, rowHi := i*n/k, (i+1)*n/k

		extra := int(math.Ceil((rowOverlap - 1) * float64(rowHi-rowLo)))
		rowHi += extra
		if rowHi > n {
			rowLo -= rowHi - n
			rowHi = n
		}
		if rowLo < 0 {
			rowLo = 0
		}

		rows := make([]int, 0, rowHi-rowLo)
		for a := rowLo; a < rowHi; a++ {
			rows = append(rows, a)
			membership[a] = append(membership[a], i)
		}
		cols := make([]int, 0, colHi-colLo)
		for b := colLo; b < colHi; b++ {
			cols = append(cols, b)
			colBlock[b] = i
		}
		clusters = append(clusters, biclust.NewWithDensity(rows, cols, 1-noise/2))
	}

	for a := 0; a < n; a++ {
		for b := 0; b < m; b++ {
			inside := false
			for _, blk := range membership[a] {
				if colBlock[b] == blk {
					inside = true
					break
				}
			}

			var w float64
			if inside {
				w = 1 - noise*rng.Float64()
			} else {
				w = noise * rng.Float64()
				if len(membership[a]) > 0 && rowSeparation < 1 {
					w += (1 - rowSeparation) * rng.Float64() / 2
				}
			}
			w = math.Max(0, math.Min(1, w))
			if w > 0 {
				g.rows[a][b] = w
				g.cols[b][a] = w
				g.numEdges++
				g.totalWeight += w
			}
		}
	}

	if k > 0 {
		g.groundTruth = biclust.NewSet(clusters...)
	}
	return g, nil
}

// ComputeNoise returns the mean absolute deviation of the realized weights
// from the ideal planted weights (1 inside any cluster of gt, 0 elsewhere)
// over all n*m cells. It does not modify the graph.
func (g *Graph) ComputeNoise(gt *biclust.Set) float64 {
	n, m := g.N(), g.M()
	if n == 0 || m == 0 {
		return 0
	}
	ideal := make([]map[int]struct{}, n)
	gt.Each(func(_ int, c biclust.Bicluster) {
		for _, a := range c.Rows {
			if a < 0 || a >= n {
				continue
			}
			if ideal[a] == nil {
				ideal[a] = make(map[int]struct{})
			}
			for _, b := range c.Cols {
				if b >= 0 && b < m {
					ideal[a][b] = struct{}{}
				}
			}
		}
	})

	deviation := 0.0
	for a := 0; a < n; a++ {
		for b := range ideal[a] {
			deviation += math.Abs(1 - g.rows[a][b])
		}
		for b, w := range g.rows[a] {
			if _, planted := ideal[a][b]; !planted {
				deviation += w
			}
		}
	}
	return deviation / float64(n*m)
}
