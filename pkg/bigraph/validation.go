package bigraph

import (
	"fmt"
	"math"
)

// Validate checks the structural invariants of the graph: dense indices,
// mirrored row/column storage, finite positive weights and label tables
// sized like the node sets. All problems found are returned together.
func (g *Graph) Validate() error {
	var errors ValidationErrors

	if g.rowLabels.Len() != len(g.rows) {
		errors = append(errors, ValidationError{
			Field:   "row_labels",
			Message: fmt.Sprintf("label table has %d entries for %d rows", g.rowLabels.Len(), len(g.rows)),
		})
	}
	if g.colLabels.Len() != len(g.cols) {
		errors = append(errors, ValidationError{
			Field:   "col_labels",
			Message: fmt.Sprintf("label table has %d entries for %d columns", g.colLabels.Len(), len(g.cols)),
		})
	}

	count := 0
	for a, row := range g.rows {
		for b, w := range row {
			count++
			if b < 0 || b >= len(g.cols) {
				errors = append(errors, ValidationError{
					Field:   "edge",
					Message: "column index out of range",
					Value:   fmt.Sprintf("(%d,%d)", a, b),
				})
				continue
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
				errors = append(errors, ValidationError{
					Field:   "edge.weight",
					Message: "weight must be finite and positive",
					Value:   fmt.Sprintf("(%d,%d)=%v", a, b, w),
				})
			}
			if mirror, ok := g.cols[b][a]; !ok || mirror != w {
				errors = append(errors, ValidationError{
					Field:   "edge",
					Message: "row and column storage disagree",
					Value:   fmt.Sprintf("(%d,%d)", a, b),
				})
			}
		}
	}

	mirrored := 0
	for b, col := range g.cols {
		for a := range col {
			mirrored++
			if a < 0 || a >= len(g.rows) {
				errors = append(errors, ValidationError{
					Field:   "edge",
					Message: "row index out of range",
					Value:   fmt.Sprintf("(%d,%d)", a, b),
				})
			}
		}
	}

	if count != g.numEdges || mirrored != g.numEdges {
		errors = append(errors, ValidationError{
			Field:   "num_edges",
			Message: fmt.Sprintf("counter says %d, rows hold %d, columns hold %d", g.numEdges, count, mirrored),
		})
	}

	if g.groundTruth != nil {
		maxRow, maxCol := g.groundTruth.MaxIndices()
		if maxRow > len(g.rows) || maxCol > len(g.cols) {
			errors = append(errors, ValidationError{
				Field:   "ground_truth",
				Message: "cluster references nodes outside the graph",
			})
		}
	}

	if len(errors) > 0 {
		return errors
	}
	return nil
}
