package clustiflor

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"time"
)

// SplitEvent is one line of the split log
type SplitEvent struct {
	Step      int     `json:"step"`
	RunID     string  `json:"run_id"`
	Depth     int     `json:"depth"`
	Rows      int     `json:"rows"`
	Cols      int     `json:"cols"`
	SubRows   int     `json:"sub_rows"`
	SubCols   int     `json:"sub_cols"`
	Inside    float64 `json:"inside_density"`
	Boundary  float64 `json:"boundary_density"`
	Contrast  float64 `json:"contrast"`
	Decision  string  `json:"decision"`
	Timestamp int64   `json:"timestamp"`
}

// SplitTracker writes every split decision as a JSON line. A nil tracker
// discards events, so callers never need to check.
type SplitTracker struct {
	closer  io.Closer
	encoder *json.Encoder
	step    int
}

// NewSplitTracker creates the tracking file
func NewSplitTracker(filename string) (*SplitTracker, error) {
	file, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create split log: %w", err)
	}
	return &SplitTracker{closer: file, encoder: json.NewEncoder(file)}, nil
}

// NewSplitTrackerWriter logs to an arbitrary writer
func NewSplitTrackerWriter(w io.Writer) *SplitTracker {
	return &SplitTracker{encoder: json.NewEncoder(w)}
}

// Log records one decision. Infinite contrast is written as -1 because
// JSON has no infinity.
func (st *SplitTracker) Log(runID string, depth int, reg *region, d decision) {
	if st == nil {
		return
	}
	st.step++
	contrast := d.contrast
	if math.IsInf(contrast, 1) {
		contrast = -1
	}
	st.encoder.Encode(SplitEvent{
		Step:      st.step,
		RunID:     runID,
		Depth:     depth,
		Rows:      len(reg.rows),
		Cols:      len(reg.cols),
		SubRows:   len(d.rows),
		SubCols:   len(d.cols),
		Inside:    d.inside,
		Boundary:  d.boundary,
		Contrast:  contrast,
		Decision:  d.outcome.String(),
		Timestamp: time.Now().Unix(),
	})
}

// Steps returns the number of events written
func (st *SplitTracker) Steps() int {
	if st == nil {
		return 0
	}
	return st.step
}

func (st *SplitTracker) Close() {
	if st != nil && st.closer != nil {
		st.closer.Close()
	}
}
