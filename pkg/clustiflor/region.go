package clustiflor

import (
	"math"
	"sort"

	"github.com/lucas-test/clustiflor/pkg/bigraph"
)

// region is one entry of the worklist: a row subset and a column subset of
// the graph, both sorted.
type region struct {
	rows, cols []int
	depth      int

	accepted bool // produced by an accepted split
	split    bool // a sub-block has already been split off it
}

type outcome int

const (
	outcomeAccepted outcome = iota
	outcomeRejected
	outcomeTooSmall
	outcomeDegenerate
)

func (o outcome) String() string {
	switch o {
	case outcomeAccepted:
		return "accepted"
	case outcomeRejected:
		return "rejected"
	case outcomeTooSmall:
		return "too_small"
	case outcomeDegenerate:
		return "degenerate"
	}
	return "unknown"
}

// decision is the evaluation of one candidate sub-block
type decision struct {
	rows, cols []int

	inside   float64 // mean weight of the unclaimed sub-block cells
	boundary float64 // mean weight of the unclaimed cells sharing a row or a column with it
	contrast float64
	steps    int // power iteration rounds spent
	outcome  outcome
}

// residual is the engine's private copy of the graph. Cells of emitted
// clusters are claimed: their edges are gone and they no longer count
// towards any density.
type residual struct {
	g       *bigraph.Graph
	claimed []map[int]struct{}
}

func newResidual(g *bigraph.Graph) *residual {
	return &residual{g: g, claimed: make([]map[int]struct{}, g.N())}
}

// unclaimed counts the cells of rows x cols not claimed yet; cols must be sorted.
func (r *residual) unclaimed(rows, cols []int) int {
	count := len(rows) * len(cols)
	for _, a := range rows {
		for b := range r.claimed[a] {
			if i := sort.SearchInts(cols, b); i < len(cols) && cols[i] == b {
				count--
			}
		}
	}
	return count
}

// claim marks rows x cols as consumed and removes their edges
func (r *residual) claim(rows, cols []int) int {
	for _, a := range rows {
		if r.claimed[a] == nil {
			r.claimed[a] = make(map[int]struct{}, len(cols))
		}
		for _, b := range cols {
			r.claimed[a][b] = struct{}{}
		}
	}
	return r.g.RemoveEdges(rows, cols)
}

// contrast compares the candidate sub-block rowSub x colSub (positions in
// reg) with its boundary, the cells of reg sharing exactly one side with it.
// Sums come from the edges of w; cell counts are areas minus claimed cells.
func (r *residual) contrast(reg *region, w *block, rowSub, colSub []int) decision {
	inRow := make([]bool, len(reg.rows))
	for _, i := range rowSub {
		inRow[i] = true
	}
	inCol := make([]bool, len(reg.cols))
	for _, j := range colSub {
		inCol[j] = true
	}

	var insideSum, boundarySum float64
	for i, row := range w.rows {
		for _, e := range row {
			switch {
			case inRow[i] && inCol[e.j]:
				insideSum += e.w
			case inRow[i] || inCol[e.j]:
				boundarySum += e.w
			}
		}
	}

	nr, nc := len(rowSub), len(colSub)
	insideCells := nr * nc
	boundaryCells := nr*(len(reg.cols)-nc) + (len(reg.rows)-nr)*nc

	pos := positions(reg.cols)
	for i, a := range reg.rows {
		for b := range r.claimed[a] {
			j, ok := pos[b]
			if !ok {
				continue
			}
			switch {
			case inRow[i] && inCol[j]:
				insideCells--
			case inRow[i] || inCol[j]:
				boundaryCells--
			}
		}
	}

	var d decision
	if insideCells > 0 {
		d.inside = insideSum / float64(insideCells)
	}
	if boundaryCells > 0 {
		d.boundary = boundarySum / float64(boundaryCells)
	}
	switch {
	case d.boundary > 0:
		d.contrast = d.inside/d.boundary - 1
	case d.inside > 0:
		d.contrast = math.Inf(1)
	}
	return d
}

// sizeFloor is the smallest admissible cluster side for a node set of size n
func sizeFloor(sensitivity float64, n int) int {
	return max(1, int(math.Ceil(sensitivity*math.Sqrt(float64(n))/2)))
}

func pick(indices, positions []int) []int {
	out := make([]int, len(positions))
	for k, p := range positions {
		out[k] = indices[p]
	}
	return out
}

func sequence(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
