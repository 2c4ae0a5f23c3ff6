package clustiflor

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

var _ mat.Matrix = (*block)(nil)

type entry struct {
	j int
	w float64
}

// block is the sparse sub-adjacency of a region over the residual graph.
// Row i is reg.rows[i], column j is reg.cols[j]; entries of a row are in
// increasing column order. Only edges are stored, so memory follows the
// edge count of the region and not its area.
type block struct {
	r, c    int
	rows    [][]entry
	colSums []float64
	weight  float64
}

// block collects the residual edges of rows x cols; cols must be sorted.
func (r *residual) block(rows, cols []int) *block {
	b := &block{r: len(rows), c: len(cols), rows: make([][]entry, len(rows)), colSums: make([]float64, len(cols))}
	pos := positions(cols)
	for i, a := range rows {
		r.g.EachInRow(a, func(col int, w float64) {
			if j, ok := pos[col]; ok {
				b.rows[i] = append(b.rows[i], entry{j: j, w: w})
				b.colSums[j] += w
				b.weight += w
			}
		})
	}
	return b
}

// Dims, At and T make a block usable as a read-only gonum matrix.
func (b *block) Dims() (int, int) { return b.r, b.c }

func (b *block) At(i, j int) float64 {
	row := b.rows[i]
	k := sort.Search(len(row), func(k int) bool { return row[k].j >= j })
	if k < len(row) && row[k].j == j {
		return row[k].w
	}
	return 0
}

func (b *block) T() mat.Matrix { return mat.Transpose{Matrix: b} }

// mulVec sets dst = W·v
func (b *block) mulVec(dst, v *mat.VecDense) {
	for i, row := range b.rows {
		var s float64
		for _, e := range row {
			s += e.w * v.AtVec(e.j)
		}
		dst.SetVec(i, s)
	}
}

// mulTransVec sets dst = Wᵀ·u
func (b *block) mulTransVec(dst, u *mat.VecDense) {
	dst.Zero()
	for i, row := range b.rows {
		ui := u.AtVec(i)
		if ui == 0 {
			continue
		}
		for _, e := range row {
			dst.SetVec(e.j, dst.AtVec(e.j)+e.w*ui)
		}
	}
}

func positions(sorted []int) map[int]int {
	pos := make(map[int]int, len(sorted))
	for j, x := range sorted {
		pos[x] = j
	}
	return pos
}
