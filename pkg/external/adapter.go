// Package external converts bicluster listings produced by reference tools
// into biclust.Set values indexed like the graph they were computed on.
package external

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lucas-test/clustiflor/pkg/biclust"
	"github.com/lucas-test/clustiflor/pkg/bigraph"
)

var (
	// ErrMapping is returned when a label of the listing is not in the graph's
	// label tables. The listing and the graph are out of sync.
	ErrMapping = errors.New("external: label not found")

	// ErrParse is returned for a listing that does not pair row and column lines.
	ErrParse = errors.New("external: parse error")
)

// Adapter resolves external labels with the label tables of one graph
type Adapter struct {
	Rows *bigraph.LabelTable
	Cols *bigraph.LabelTable
}

// ForGraph returns an adapter using the labels of g
func ForGraph(g *bigraph.Graph) *Adapter {
	return &Adapter{Rows: g.RowLabels(), Cols: g.ColLabels()}
}

// Read parses a listing holding, per cluster, a line of row labels followed
// by a line of column labels. Labels are whitespace separated and may be
// double quoted. Blank lines, '#' comments and "Bicluster <n>" headers are
// skipped. Clusters with an empty side are dropped.
func (ad *Adapter) Read(r io.Reader) (*biclust.Set, error) {
	var (
		clusters []biclust.Bicluster
		rows     []int
		pending  bool
		lineNum  int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || isHeader(line) {
			continue
		}

		labels := strings.Fields(line)
		if !pending {
			idx, err := resolve(ad.Rows, labels)
			if err != nil {
				return nil, fmt.Errorf("line %d: row %w", lineNum, err)
			}
			rows, pending = idx, true
			continue
		}

		cols, err := resolve(ad.Cols, labels)
		if err != nil {
			return nil, fmt.Errorf("line %d: column %w", lineNum, err)
		}
		if b := biclust.New(rows, cols); b.IsValid() {
			clusters = append(clusters, b)
		}
		rows, pending = nil, false
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read external results: %w", err)
	}
	if pending {
		return nil, fmt.Errorf("%w: line %d: row line without column line", ErrParse, lineNum)
	}
	return biclust.NewSet(clusters...), nil
}

// LoadFile reads a listing from path
func (ad *Adapter) LoadFile(path string) (*biclust.Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open external results: %w", err)
	}
	defer f.Close()

	set, err := ad.Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return set, nil
}

func isHeader(line string) bool {
	fields := strings.Fields(line)
	return len(fields) <= 2 && strings.EqualFold(strings.Trim(fields[0], `"`), "bicluster")
}

func resolve(table *bigraph.LabelTable, labels []string) ([]int, error) {
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		l = strings.Trim(l, `"`)
		if l == "" {
			continue
		}
		i, ok := table.Index(l)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrMapping, l)
		}
		out = append(out, i)
	}
	return out, nil
}
