package comparison

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
)

// WriteTable writes one space-separated line per row: the drawn and measured
// generation parameters, then matching score, accuracy and runtime for each
// solver in order of first appearance. Missing or failed solvers print NA.
func WriteTable(w io.Writer, rows []Row) error {
	var solvers []string
	seen := make(map[string]bool)
	for _, r := range rows {
		for _, s := range r.Solvers {
			if !seen[s.Name] {
				seen[s.Name] = true
				solvers = append(solvers, s.Name)
			}
		}
	}

	bw := bufio.NewWriter(w)
	header := []string{"n", "m", "real_noise", "p_noise", "real_overlap", "p_overlap", "p_separation"}
	for _, name := range solvers {
		prefix := tableName(name)
		header = append(header, prefix+"_mtc", prefix+"_acc", prefix+"_time_s")
	}
	fmt.Fprintln(bw, strings.Join(header, " "))

	for _, r := range rows {
		fields := []string{
			strconv.Itoa(r.N),
			strconv.Itoa(r.M),
			ftoa(r.RealNoise),
			ftoa(r.Noise),
			ftoa(r.RealOverlap),
			ftoa(r.RowOverlap),
			ftoa(r.RowSeparation),
		}
		for _, name := range solvers {
			res, ok := r.solver(name)
			if !ok || !res.Success {
				fields = append(fields, "NA", "NA", "NA")
				continue
			}
			fields = append(fields, ftoa(res.Matching), ftoa(res.Accuracy), ftoa(res.Runtime.Seconds()))
		}
		fmt.Fprintln(bw, strings.Join(fields, " "))
	}
	return bw.Flush()
}

// WriteTableFile writes the table to path
func WriteTableFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	defer f.Close()
	if err := WriteTable(f, rows); err != nil {
		return err
	}
	return f.Close()
}

func (r Row) solver(name string) (SolverResult, bool) {
	for _, s := range r.Solvers {
		if s.Name == name {
			return s, true
		}
	}
	return SolverResult{}, false
}

// clustiflor -> CF, bimax -> BM, anything else upper-cased
func tableName(name string) string {
	switch strings.ToLower(name) {
	case EngineName:
		return "CF"
	case "bimax":
		return "BM"
	case "bibit":
		return "BB"
	}
	return strings.ToUpper(name)
}

func ftoa(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}

// GenerateBatch writes count random graphs drawn from ranges into dir as
// <i>.edges, each with a <i>.ground_truth listing its planted clusters when
// it has any. It returns the edge file paths.
func GenerateBatch(dir string, count int, ranges Ranges, rng *rand.Rand) ([]string, error) {
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create batch directory: %w", err)
	}

	paths := make([]string, 0, count)
	for i := 0; i < count; i++ {
		d := ranges.draw(rng)
		g, err := bigraph.Generate(d.n, d.m, d.noise, d.rowOverlap, d.rowSeparation, rng)
		if err != nil {
			return paths, fmt.Errorf("graph %d: %w", i, err)
		}

		edges := filepath.Join(dir, fmt.Sprintf("%d.edges", i))
		if err := g.WriteFile(edges, "", " "); err != nil {
			return paths, err
		}
		if gt := g.GroundTruth(); !gt.IsEmpty() {
			truth := filepath.Join(dir, fmt.Sprintf("%d.ground_truth", i))
			if err := biclust.WriteFile(truth, gt, g.Vocabulary(), g.Params().Header()); err != nil {
				return paths, err
			}
		}
		paths = append(paths, edges)
	}
	return paths, nil
}
