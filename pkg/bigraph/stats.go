package bigraph

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a graph for reporting
type Stats struct {
	N            int     `json:"n" yaml:"n"`
	M            int     `json:"m" yaml:"m"`
	Edges        int     `json:"edges" yaml:"edges"`
	TotalWeight  float64 `json:"total_weight" yaml:"total_weight"`
	Density      float64 `json:"density" yaml:"density"`
	MeanWeight   float64 `json:"mean_weight" yaml:"mean_weight"`
	StdDevWeight float64 `json:"stddev_weight" yaml:"stddev_weight"`
	MaxWeight    float64 `json:"max_weight" yaml:"max_weight"`
	IsolatedRows int     `json:"isolated_rows" yaml:"isolated_rows"`
	IsolatedCols int     `json:"isolated_cols" yaml:"isolated_cols"`
	Components   int     `json:"components" yaml:"components"` // connected components with at least one edge
}

func (s Stats) String() string {
	return fmt.Sprintf("n=%d m=%d edges=%d density=%.4f weight(mean=%.4f sd=%.4f max=%.4f) components=%d",
		s.N, s.M, s.Edges, s.Density, s.MeanWeight, s.StdDevWeight, s.MaxWeight, s.Components)
}

// Stats computes the summary; it does not modify the graph.
func (g *Graph) Stats() Stats {
	s := Stats{N: g.N(), M: g.M(), Edges: g.numEdges}

	weights := make([]float64, 0, g.numEdges)
	for a := range g.rows {
		g.EachInRow(a, func(_ int, w float64) {
			weights = append(weights, w)
		})
	}
	if len(weights) > 0 {
		s.TotalWeight = floats.Sum(weights)
		s.MaxWeight = floats.Max(weights)
		s.MeanWeight = stat.Mean(weights, nil)
		if len(weights) > 1 {
			s.StdDevWeight = stat.StdDev(weights, nil)
		}
	}
	if s.N > 0 && s.M > 0 {
		s.Density = float64(s.Edges) / float64(s.N*s.M)
	}

	for a := range g.rows {
		if len(g.rows[a]) == 0 {
			s.IsolatedRows++
		}
	}
	for b := range g.cols {
		if len(g.cols[b]) == 0 {
			s.IsolatedCols++
		}
	}
	s.Components = len(g.components())
	return s
}

// components returns the connected components that contain at least one
// edge, each as sorted row and column indices.
func (g *Graph) components() [][2][]int {
	n := int64(g.N())
	u := simple.NewUndirectedGraph()
	for a := range g.rows {
		if len(g.rows[a]) == 0 {
			continue
		}
		for b := range g.rows[a] {
			u.SetEdge(simple.Edge{F: simple.Node(int64(a)), T: simple.Node(n + int64(b))})
		}
	}

	var out [][2][]int
	for _, comp := range topo.ConnectedComponents(u) {
		var rows, cols []int
		for _, node := range comp {
			id := node.ID()
			if id < n {
				rows = append(rows, int(id))
			} else {
				cols = append(cols, int(id-n))
			}
		}
		out = append(out, [2][]int{normalizeInts(rows), normalizeInts(cols)})
	}
	return out
}

// Components returns the connected components with at least one edge as
// (rows, cols) pairs, ordered by their smallest row index.
func (g *Graph) Components() (rows [][]int, cols [][]int) {
	comps := g.components()
	sortComponents(comps)
	for _, c := range comps {
		rows = append(rows, c[0])
		cols = append(cols, c[1])
	}
	return rows, cols
}

func normalizeInts(xs []int) []int {
	sort.Ints(xs)
	return xs
}

func sortComponents(comps [][2][]int) {
	sort.Slice(comps, func(i, j int) bool {
		ri, rj := comps[i][0], comps[j][0]
		switch {
		case len(ri) == 0 && len(rj) == 0:
			return comps[i][1][0] < comps[j][1][0]
		case len(ri) == 0:
			return false
		case len(rj) == 0:
			return true
		}
		return ri[0] < rj[0]
	})
}
