// Package biclust holds the bicluster value types shared by the discovery
// engine, the synthetic generator and the external result adapters, together
// with the scoring functions used to compare two collections of biclusters.
package biclust

import (
	"fmt"
	"sort"
)

// Bicluster is a pair of row and column index sets forming one dense block.
// Rows and Cols are kept sorted and free of duplicates.
type Bicluster struct {
	Rows    []int   `json:"rows" yaml:"rows"`
	Cols    []int   `json:"cols" yaml:"cols"`
	Density float64 `json:"density,omitempty" yaml:"density,omitempty"`
}

// New builds a bicluster from arbitrary row and column indices
func New(rows, cols []int) Bicluster {
	return Bicluster{Rows: normalize(rows), Cols: normalize(cols)}
}

// NewWithDensity builds a bicluster carrying a target or realized density
func NewWithDensity(rows, cols []int, density float64) Bicluster {
	b := New(rows, cols)
	b.Density = density
	return b
}

// IsValid reports whether both sides are non-empty
func (b Bicluster) IsValid() bool {
	return len(b.Rows) > 0 && len(b.Cols) > 0
}

// Size returns the number of rows and columns
func (b Bicluster) Size() (int, int) {
	return len(b.Rows), len(b.Cols)
}

// Cells returns the number of (row, col) cells covered
func (b Bicluster) Cells() int {
	return len(b.Rows) * len(b.Cols)
}

// HasRow reports whether row a belongs to the bicluster
func (b Bicluster) HasRow(a int) bool {
	return contains(b.Rows, a)
}

// HasCol reports whether column c belongs to the bicluster
func (b Bicluster) HasCol(c int) bool {
	return contains(b.Cols, c)
}

// ContainsCell reports whether (a, c) lies inside the block
func (b Bicluster) ContainsCell(a, c int) bool {
	return b.HasRow(a) && b.HasCol(c)
}

// Clone returns a copy that shares no slices with b
func (b Bicluster) Clone() Bicluster {
	return Bicluster{
		Rows:    append([]int(nil), b.Rows...),
		Cols:    append([]int(nil), b.Cols...),
		Density: b.Density,
	}
}

// Equal compares membership only; density is ignored.
func (b Bicluster) Equal(o Bicluster) bool {
	return equalInts(b.Rows, o.Rows) && equalInts(b.Cols, o.Cols)
}

// Jaccard computes the overlap over the union of row and column membership.
func (b Bicluster) Jaccard(o Bicluster) float64 {
	interRows := intersectionSize(b.Rows, o.Rows)
	interCols := intersectionSize(b.Cols, o.Cols)
	union := len(b.Rows) + len(o.Rows) - interRows + len(b.Cols) + len(o.Cols) - interCols
	if union == 0 {
		return 0
	}
	return float64(interRows+interCols) / float64(union)
}

func (b Bicluster) String() string {
	return fmt.Sprintf("bicluster{rows=%v cols=%v}", b.Rows, b.Cols)
}

func normalize(xs []int) []int {
	out := append([]int(nil), xs...)
	sort.Ints(out)
	n := 0
	for i, x := range out {
		if i > 0 && x == out[n-1] {
			continue
		}
		out[n] = x
		n++
	}
	return out[:n]
}

func contains(sorted []int, x int) bool {
	i := sort.SearchInts(sorted, x)
	return i < len(sorted) && sorted[i] == x
}

// intersectionSize walks two sorted slices in lockstep
func intersectionSize(a, b []int) int {
	i, j, n := 0, 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			n++
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return n
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
