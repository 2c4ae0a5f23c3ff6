package clustiflor

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// affinityEpsilon is the relative slack under the mean that still counts as
// high affinity. It absorbs rounding on uniform directions.
const affinityEpsilon = 1e-9

// dominantDirection approximates the leading singular vector pair of w with
// a fixed number of power iteration rounds over the sparse entries of w.
// The start vector is the indicator of the heaviest column (lowest index on
// ties), so the result is deterministic. It returns nil vectors when w
// carries no weight.
func dominantDirection(w *block, iterations int) (u, v *mat.VecDense) {
	r, c := w.Dims()
	if r == 0 || c == 0 {
		return nil, nil
	}

	start, best := -1, 0.0
	for j, s := range w.colSums {
		if s > best {
			start, best = j, s
		}
	}
	if start < 0 {
		return nil, nil
	}

	v = mat.NewVecDense(c, nil)
	v.SetVec(start, 1)
	u = mat.NewVecDense(r, nil)
	for it := 0; it < iterations; it++ {
		w.mulVec(u, v)
		if !normalize(u) {
			return nil, nil
		}
		w.mulTransVec(v, u)
		if !normalize(v) {
			return nil, nil
		}
	}
	return u, v
}

func normalize(x *mat.VecDense) bool {
	norm := mat.Norm(x, 2)
	if norm == 0 {
		return false
	}
	x.ScaleVec(1/norm, x)
	return true
}

// highAffinity returns the positions whose coordinate is at least
// mean - eps*max, in increasing order
func highAffinity(x *mat.VecDense) []int {
	if x.Len() == 0 {
		return nil
	}
	values := make([]float64, x.Len())
	for i := range values {
		values[i] = x.AtVec(i)
	}
	cut := stat.Mean(values, nil) - affinityEpsilon*floats.Max(values)

	var out []int
	for i, val := range values {
		if val >= cut {
			out = append(out, i)
		}
	}
	return out
}
