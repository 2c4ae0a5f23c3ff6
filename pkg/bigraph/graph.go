// Package bigraph implements the weighted bipartite graph the bicluster
// engine works on: two dense node sets A (rows) and B (columns), a sparse
// weighted edge set indexed both by row and by column, label tables for I/O
// and an optional planted ground truth for synthetic graphs.
package bigraph

import (
	"fmt"
	"math"
	"sort"

	"github.com/lucas-test/clustiflor/pkg/biclust"
)

// Edge is one weighted (row, column) pair
type Edge struct {
	A      int     `json:"a"`
	B      int     `json:"b"`
	Weight float64 `json:"weight"`
}

// GenerationParams records how a synthetic graph was produced
type GenerationParams struct {
	N             int     `json:"n" yaml:"n"`
	M             int     `json:"m" yaml:"m"`
	Noise         float64 `json:"noise" yaml:"noise"`
	RowOverlap    float64 `json:"row_overlap" yaml:"row_overlap"`
	RowSeparation float64 `json:"row_separation" yaml:"row_separation"`
}

// Header renders the parameters as the key=value comment used in graph files
func (p GenerationParams) Header() string {
	return fmt.Sprintf("# n=%d m=%d noise=%.3f row_overlap=%.3f row_separation=%.3f",
		p.N, p.M, p.Noise, p.RowOverlap, p.RowSeparation)
}

// Graph is a weighted bipartite graph between rows 0..n-1 and columns 0..m-1.
// Absent edges have weight 0; stored weights are always finite and positive.
type Graph struct {
	rows        []map[int]float64 // rows[a][b] = weight
	cols        []map[int]float64 // cols[b][a] = weight
	numEdges    int
	totalWeight float64

	rowLabels *LabelTable
	colLabels *LabelTable

	groundTruth *biclust.Set
	params      *GenerationParams
}

// New creates an edgeless graph with numeric labels r<i> and c<j>
func New(n, m int) *Graph {
	return NewWithLabels(NumericLabels("r", n), NumericLabels("c", m))
}

// NewWithLabels creates an edgeless graph sized by the two label tables
func NewWithLabels(rowLabels, colLabels *LabelTable) *Graph {
	g := &Graph{
		rows:      make([]map[int]float64, rowLabels.Len()),
		cols:      make([]map[int]float64, colLabels.Len()),
		rowLabels: rowLabels,
		colLabels: colLabels,
	}
	for i := range g.rows {
		g.rows[i] = make(map[int]float64)
	}
	for j := range g.cols {
		g.cols[j] = make(map[int]float64)
	}
	return g
}

// N returns the number of rows (node set A)
func (g *Graph) N() int { return len(g.rows) }

// M returns the number of columns (node set B)
func (g *Graph) M() int { return len(g.cols) }

// NumEdges returns the number of stored edges
func (g *Graph) NumEdges() int { return g.numEdges }

// TotalWeight returns the sum of all edge weights
func (g *Graph) TotalWeight() float64 { return g.totalWeight }

// RowLabels returns the label table of node set A
func (g *Graph) RowLabels() *LabelTable { return g.rowLabels }

// ColLabels returns the label table of node set B
func (g *Graph) ColLabels() *LabelTable { return g.colLabels }

// GroundTruth returns the planted clusters, nil for graphs that were not generated.
func (g *Graph) GroundTruth() *biclust.Set { return g.groundTruth }

// SetGroundTruth attaches a planted cluster set used for evaluation only
func (g *Graph) SetGroundTruth(gt *biclust.Set) { g.groundTruth = gt }

// Params returns the generation parameters, if any
func (g *Graph) Params() *GenerationParams { return g.params }

// Vocabulary returns the label tables in the form used by ground-truth files
func (g *Graph) Vocabulary() *biclust.Vocabulary {
	return &biclust.Vocabulary{Rows: g.rowLabels.Labels(), Cols: g.colLabels.Labels()}
}

func (g *Graph) inRange(a, b int) bool {
	return a >= 0 && a < len(g.rows) && b >= 0 && b < len(g.cols)
}

// Weight returns the weight of edge (a, b), 0 when absent or out of range.
func (g *Graph) Weight(a, b int) float64 {
	if !g.inRange(a, b) {
		return 0
	}
	return g.rows[a][b]
}

// HasEdge reports whether (a, b) carries a positive weight
func (g *Graph) HasEdge(a, b int) bool {
	return g.Weight(a, b) > 0
}

// SetWeight stores w on edge (a, b); a zero weight deletes the edge.
func (g *Graph) SetWeight(a, b int, w float64) error {
	if !g.inRange(a, b) {
		return fmt.Errorf("%w: edge (%d,%d) in %dx%d graph", ErrIndexOutOfRange, a, b, len(g.rows), len(g.cols))
	}
	if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		return fmt.Errorf("%w: %v on edge (%d,%d)", ErrInvalidWeight, w, a, b)
	}
	g.RemoveEdge(a, b)
	if w == 0 {
		return nil
	}
	g.rows[a][b] = w
	g.cols[b][a] = w
	g.numEdges++
	g.totalWeight += w
	return nil
}

// AddWeight accumulates w onto edge (a, b)
func (g *Graph) AddWeight(a, b int, w float64) error {
	return g.SetWeight(a, b, g.Weight(a, b)+w)
}

// RemoveEdge deletes edge (a, b) and reports whether it existed
func (g *Graph) RemoveEdge(a, b int) bool {
	if !g.inRange(a, b) {
		return false
	}
	w, ok := g.rows[a][b]
	if !ok {
		return false
	}
	delete(g.rows[a], b)
	delete(g.cols[b], a)
	g.numEdges--
	g.totalWeight -= w
	if g.numEdges == 0 {
		g.totalWeight = 0
	}
	return true
}

// RemoveEdges deletes every edge with its row in rows and its column in cols.
// It returns the number of edges removed.
func (g *Graph) RemoveEdges(rows, cols []int) int {
	colSet := make(map[int]struct{}, len(cols))
	for _, b := range cols {
		colSet[b] = struct{}{}
	}
	removed := 0
	for _, a := range rows {
		if a < 0 || a >= len(g.rows) {
			continue
		}
		// collect first: RemoveEdge mutates the row map
		var victims []int
		for b := range g.rows[a] {
			if _, ok := colSet[b]; ok {
				victims = append(victims, b)
			}
		}
		for _, b := range victims {
			if g.RemoveEdge(a, b) {
				removed++
			}
		}
	}
	return removed
}

// RowDegree returns the number of edges of row a
func (g *Graph) RowDegree(a int) int {
	if a < 0 || a >= len(g.rows) {
		return 0
	}
	return len(g.rows[a])
}

// ColDegree returns the number of edges of column b
func (g *Graph) ColDegree(b int) int {
	if b < 0 || b >= len(g.cols) {
		return 0
	}
	return len(g.cols[b])
}

// EachInRow calls fn for every edge of row a in increasing column order
func (g *Graph) EachInRow(a int, fn func(b int, w float64)) {
	if a < 0 || a >= len(g.rows) {
		return
	}
	for _, b := range sortedKeys(g.rows[a]) {
		fn(b, g.rows[a][b])
	}
}

// EachInCol calls fn for every edge of column b in increasing row order
func (g *Graph) EachInCol(b int, fn func(a int, w float64)) {
	if b < 0 || b >= len(g.cols) {
		return
	}
	for _, a := range sortedKeys(g.cols[b]) {
		fn(a, g.cols[b][a])
	}
}

// Edges returns all edges sorted by row then column
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, 0, g.numEdges)
	for a := range g.rows {
		g.EachInRow(a, func(b int, w float64) {
			edges = append(edges, Edge{A: a, B: b, Weight: w})
		})
	}
	return edges
}

// Clone returns a deep copy sharing no mutable storage with g
func (g *Graph) Clone() *Graph {
	c := NewWithLabels(g.rowLabels.clone(), g.colLabels.clone())
	for a, row := range g.rows {
		for b, w := range row {
			c.rows[a][b] = w
			c.cols[b][a] = w
		}
	}
	c.numEdges = g.numEdges
	c.totalWeight = g.totalWeight
	if g.groundTruth != nil {
		c.groundTruth = biclust.NewSet(g.groundTruth.Clusters()...)
	}
	if g.params != nil {
		p := *g.params
		c.params = &p
	}
	return c
}

// Transpose returns a new graph with the roles of rows and columns swapped
func (g *Graph) Transpose() *Graph {
	t := NewWithLabels(g.colLabels.clone(), g.rowLabels.clone())
	for a, row := range g.rows {
		for b, w := range row {
			t.rows[b][a] = w
			t.cols[a][b] = w
		}
	}
	t.numEdges = g.numEdges
	t.totalWeight = g.totalWeight
	if g.groundTruth != nil {
		swapped := make([]biclust.Bicluster, 0, g.groundTruth.Len())
		g.groundTruth.Each(func(_ int, b biclust.Bicluster) {
			swapped = append(swapped, biclust.NewWithDensity(b.Cols, b.Rows, b.Density))
		})
		t.groundTruth = biclust.NewSet(swapped...)
	}
	return t
}

func sortedKeys(m map[int]float64) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
