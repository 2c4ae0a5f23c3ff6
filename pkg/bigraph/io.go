package bigraph

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/golang/snappy"
)

// Orientation selects which endpoint of an edge-list line is a row
type Orientation int

const (
	// OrientationRows reads the first field as a row (node set A)
	OrientationRows Orientation = iota
	// OrientationColumns reads the first field as a column (node set B)
	OrientationColumns
)

const (
	rowsDirective = "#@rows"
	colsDirective = "#@cols"

	// CompressedExt marks snappy-framed graph files
	CompressedExt = ".sz"
)

// LoadOptions controls how an edge list is read
type LoadOptions struct {
	Delimiter   string
	Orientation Orientation

	// Fixed vocabularies in file order (first field, second field). When set,
	// unknown labels fail with ErrIndexOutOfRange instead of being interned.
	FirstLabels  []string
	SecondLabels []string
}

type rawEdge struct {
	first, second int
	weight        float64
}

// Read builds a graph from an edge list: one "<a><delim><b>[<delim><weight>]"
// per line. A missing weight means 1 and duplicate edges accumulate. Lines
// starting with '#' are comments; key=value pairs in them fill the generation
// parameters and the #@rows / #@cols directives fix the label vocabularies.
func Read(r io.Reader, opts LoadOptions) (*Graph, error) {
	var (
		first, second *LabelTable
		fixedFirst    = opts.FirstLabels != nil
		fixedSecond   = opts.SecondLabels != nil
		edges         []rawEdge
		params        GenerationParams
		hasParams     bool
		lineNum       int
	)
	first = NewLabelTable(opts.FirstLabels)
	second = NewLabelTable(opts.SecondLabels)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, rowsDirective) || strings.HasPrefix(line, colsDirective) {
			if len(edges) > 0 {
				return nil, fmt.Errorf("%w: line %d: vocabulary directive after edges", ErrParse, lineNum)
			}
			isRows := strings.HasPrefix(line, rowsDirective)
			rest := strings.TrimPrefix(strings.TrimPrefix(line, rowsDirective), colsDirective)
			if opts.Delimiter != "" && opts.Delimiter != " " {
				rest = strings.TrimPrefix(rest, opts.Delimiter)
			}
			var labels []string
			if rest != "" {
				labels = splitFields(rest, opts.Delimiter)
			}
			switch {
			case isRows && !fixedFirst:
				first, fixedFirst = NewLabelTable(labels), true
			case !isRows && !fixedSecond:
				second, fixedSecond = NewLabelTable(labels), true
			}
			continue
		}

		if strings.HasPrefix(line, "#") {
			if parseHeader(line, &params) {
				hasParams = true
			}
			continue
		}

		fields := splitFields(line, opts.Delimiter)
		if len(fields) != 2 && len(fields) != 3 {
			return nil, fmt.Errorf("%w: line %d: expected 2 or 3 fields, got %d", ErrParse, lineNum, len(fields))
		}
		if fields[0] == "" || fields[1] == "" {
			return nil, fmt.Errorf("%w: line %d: empty node label", ErrParse, lineNum)
		}

		weight := 1.0
		if len(fields) == 3 {
			w, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d: bad weight %q", ErrParse, lineNum, fields[2])
			}
			if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
				return nil, fmt.Errorf("%w: line %d: weight %v out of domain", ErrParse, lineNum, w)
			}
			weight = w
		}

		i, err := resolveLabel(first, fields[0], fixedFirst)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		j, err := resolveLabel(second, fields[1], fixedSecond)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		edges = append(edges, rawEdge{first: i, second: j, weight: weight})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read edge list: %w", err)
	}

	rowLabels, colLabels := first, second
	if opts.Orientation == OrientationColumns {
		rowLabels, colLabels = second, first
	}
	g := NewWithLabels(rowLabels, colLabels)
	for _, e := range edges {
		a, b := e.first, e.second
		if opts.Orientation == OrientationColumns {
			a, b = b, a
		}
		if err := g.AddWeight(a, b, e.weight); err != nil {
			return nil, err
		}
	}
	if hasParams {
		g.params = &params
	}
	return g, nil
}

// LoadFile reads an edge-list file; files ending in .sz are snappy-framed.
func LoadFile(path string, opts LoadOptions) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		r = snappy.NewReader(f)
	}
	g, err := Read(r, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return g, nil
}

// Write serializes g as an edge list. The header comment is written first
// (the generation parameters when header is empty), then the label
// vocabularies, then every edge sorted by row and column. Labels that Read
// could not split back out fail with ErrUnencodableLabel before anything is
// written.
func (g *Graph) Write(w io.Writer, header, delim string) error {
	if delim == "" {
		delim = " "
	}
	for _, lt := range []*LabelTable{g.rowLabels, g.colLabels} {
		for _, label := range lt.Labels() {
			if err := checkLabel(label, delim); err != nil {
				return err
			}
		}
	}
	bw := bufio.NewWriter(w)

	if header == "" && g.params != nil {
		header = g.params.Header()
	}
	if header != "" {
		for _, line := range strings.Split(header, "\n") {
			if !strings.HasPrefix(line, "#") {
				line = "# " + line
			}
			fmt.Fprintln(bw, line)
		}
	}
	fmt.Fprintln(bw, rowsDirective+delim+strings.Join(g.rowLabels.Labels(), delim))
	fmt.Fprintln(bw, colsDirective+delim+strings.Join(g.colLabels.Labels(), delim))

	for _, e := range g.Edges() {
		fmt.Fprint(bw, g.rowLabels.Label(e.A), delim, g.colLabels.Label(e.B), delim,
			strconv.FormatFloat(e.Weight, 'g', -1, 64), "\n")
	}
	return bw.Flush()
}

// WriteFile writes g to path, snappy-framed when path ends in .sz
func (g *Graph) WriteFile(path, header, delim string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create graph file: %w", err)
	}

	if strings.HasSuffix(path, CompressedExt) {
		sw := snappy.NewBufferedWriter(f)
		if err := g.Write(sw, header, delim); err != nil {
			f.Close()
			return err
		}
		if err := sw.Close(); err != nil {
			f.Close()
			return fmt.Errorf("failed to flush compressed graph: %w", err)
		}
		return f.Close()
	}

	if err := g.Write(f, header, delim); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// splitFields splits on runs of whitespace for the space delimiter and on
// the exact delimiter otherwise, so tab-separated labels may hold spaces.
func splitFields(line, delim string) []string {
	if delim == "" || delim == " " {
		return strings.Fields(line)
	}
	parts := strings.Split(line, delim)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

func checkLabel(label, delim string) error {
	var reason string
	switch {
	case label == "":
		reason = "empty"
	case strings.TrimSpace(label) != label:
		reason = "surrounding whitespace"
	case strings.ContainsAny(label, "\r\n"):
		reason = "line break"
	case strings.HasPrefix(label, "#"):
		reason = "starts with '#'"
	case delim == " " && strings.IndexFunc(label, unicode.IsSpace) >= 0:
		reason = "whitespace with the space delimiter"
	case delim != " " && strings.Contains(label, delim):
		reason = "contains the delimiter"
	default:
		return nil
	}
	return fmt.Errorf("%w: %q: %s", ErrUnencodableLabel, label, reason)
}

func resolveLabel(lt *LabelTable, label string, fixed bool) (int, error) {
	if !fixed {
		return lt.intern(label), nil
	}
	i, ok := lt.Index(label)
	if !ok {
		return 0, fmt.Errorf("%w: unknown label %q", ErrIndexOutOfRange, label)
	}
	return i, nil
}

// parseHeader reads key=value pairs from a comment line
func parseHeader(line string, p *GenerationParams) bool {
	found := false
	for _, tok := range strings.Fields(strings.TrimPrefix(line, "#")) {
		key, value, ok := strings.Cut(tok, "=")
		if !ok {
			continue
		}
		var err error
		switch key {
		case "n":
			p.N, err = strconv.Atoi(value)
		case "m":
			p.M, err = strconv.Atoi(value)
		case "noise":
			p.Noise, err = strconv.ParseFloat(value, 64)
		case "row_overlap":
			p.RowOverlap, err = strconv.ParseFloat(value, 64)
		case "row_separation":
			p.RowSeparation, err = strconv.ParseFloat(value, 64)
		default:
			continue
		}
		if err == nil {
			found = true
		}
	}
	return found
}
