package clustiflor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lucas-test/clustiflor/pkg/biclust"
)

// Report is the machine-readable form of a run summary
type Report struct {
	RunID    string          `json:"run_id" yaml:"run_id"`
	Params   Params          `json:"params" yaml:"params"`
	Stats    Stats           `json:"stats" yaml:"stats"`
	Clusters []ReportCluster `json:"clusters,omitempty" yaml:"clusters,omitempty"`
}

// ReportCluster is one bicluster with its labels resolved
type ReportCluster struct {
	Rows    []string `json:"rows" yaml:"rows"`
	Cols    []string `json:"cols" yaml:"cols"`
	Density float64  `json:"density" yaml:"density"`
}

// Report builds the summary; vocab may be nil, labels are then indices.
func (r *Result) Report(vocab *biclust.Vocabulary, includeClusters bool) Report {
	rep := Report{RunID: r.RunID, Params: r.Params, Stats: r.Stats}
	if !includeClusters {
		return rep
	}
	r.Biclusters.Each(func(_ int, b biclust.Bicluster) {
		rc := ReportCluster{Density: b.Density}
		for _, a := range b.Rows {
			rc.Rows = append(rc.Rows, vocab.RowLabel(a))
		}
		for _, c := range b.Cols {
			rc.Cols = append(rc.Cols, vocab.ColLabel(c))
		}
		rep.Clusters = append(rep.Clusters, rc)
	})
	return rep
}

// PrintStats writes the parameters and run statistics as "# key value"
// comment lines, followed by the clusters when includeClusters is set. The
// output is a valid ground-truth file. It never modifies the result.
func (r *Result) PrintStats(w io.Writer, vocab *biclust.Vocabulary, includeClusters bool) error {
	s := r.Stats
	lines := []string{
		fmt.Sprintf("run_id %s", r.RunID),
		fmt.Sprintf("size_sensitivity %g", r.Params.SizeSensitivity),
		fmt.Sprintf("split_threshold %g", r.Params.SplitThreshold),
		fmt.Sprintf("power_iterations %d", r.Params.PowerIterations),
		fmt.Sprintf("clusters %d", s.Clusters),
		fmt.Sprintf("regions %d", s.Regions),
		fmt.Sprintf("splits_accepted %d", s.SplitsAccepted),
		fmt.Sprintf("splits_rejected %d", s.SplitsRejected),
		fmt.Sprintf("degenerate %d", s.Degenerate),
		fmt.Sprintf("discarded %d", s.Discarded),
		fmt.Sprintf("edges_removed %d", s.EdgesRemoved),
		fmt.Sprintf("cells_visited %d", s.CellsVisited),
		fmt.Sprintf("power_steps %d", s.PowerSteps),
		fmt.Sprintf("runtime_ms %d", s.RuntimeMS),
	}
	if !includeClusters {
		return biclust.Write(w, nil, nil, strings.Join(lines, "\n"))
	}
	return biclust.Write(w, r.Biclusters, vocab, strings.Join(lines, "\n"))
}

// WriteReport writes the summary to path: YAML for .yaml/.yml files, the
// PrintStats text format otherwise.
func (r *Result) WriteReport(path string, vocab *biclust.Vocabulary, includeClusters bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		enc := yaml.NewEncoder(f)
		enc.SetIndent(2)
		if err := enc.Encode(r.Report(vocab, includeClusters)); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
	default:
		if err := r.PrintStats(f, vocab, includeClusters); err != nil {
			return fmt.Errorf("failed to write report: %w", err)
		}
	}
	return f.Close()
}
