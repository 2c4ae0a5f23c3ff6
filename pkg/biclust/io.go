package biclust

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// ErrParse is returned for malformed ground-truth input
var ErrParse = errors.New("biclust: parse error")

const (
	rowsVocabTag = "@rows_vocab"
	colsVocabTag = "@cols_vocab"
	rowsTag      = "rows"
	colsTag      = "cols"
)

// Vocabulary maps row and column indices to their external labels.
// Labels must not contain whitespace.
type Vocabulary struct {
	Rows []string
	Cols []string
}

// RowLabel returns the label of row i, its decimal form when unknown
func (v *Vocabulary) RowLabel(i int) string {
	if v != nil && i >= 0 && i < len(v.Rows) {
		return v.Rows[i]
	}
	return strconv.Itoa(i)
}

// ColLabel returns the label of column i
func (v *Vocabulary) ColLabel(i int) string {
	if v != nil && i >= 0 && i < len(v.Cols) {
		return v.Cols[i]
	}
	return strconv.Itoa(i)
}

// Write serializes s in the ground-truth format. When vocab is non-nil the
// vocabularies are written too so readers can rebuild the label tables.
func Write(w io.Writer, s *Set, vocab *Vocabulary, comment string) error {
	bw := bufio.NewWriter(w)
	if comment != "" {
		for _, line := range strings.Split(comment, "\n") {
			if !strings.HasPrefix(line, "#") {
				line = "# " + line
			}
			fmt.Fprintln(bw, line)
		}
	}
	if vocab != nil {
		fmt.Fprintln(bw, strings.Join(append([]string{rowsVocabTag}, vocab.Rows...), " "))
		fmt.Fprintln(bw, strings.Join(append([]string{colsVocabTag}, vocab.Cols...), " "))
	}
	s.Each(func(_ int, b Bicluster) {
		rows := make([]string, 0, len(b.Rows)+1)
		rows = append(rows, rowsTag)
		for _, r := range b.Rows {
			rows = append(rows, vocab.RowLabel(r))
		}
		cols := make([]string, 0, len(b.Cols)+1)
		cols = append(cols, colsTag)
		for _, c := range b.Cols {
			cols = append(cols, vocab.ColLabel(c))
		}
		fmt.Fprintln(bw, strings.Join(rows, " "))
		fmt.Fprintln(bw, strings.Join(cols, " "))
	})
	return bw.Flush()
}

// WriteFile writes s to path in the ground-truth format
func WriteFile(path string, s *Set, vocab *Vocabulary, comment string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create ground truth file: %w", err)
	}
	if err := Write(f, s, vocab, comment); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses a ground-truth listing. Labels are resolved against vocab when
// given, otherwise against the vocabulary directives found in the input,
// otherwise they are read as plain integer indices. Each side is handled on
// its own, an empty label list counts as absent. The vocabulary actually used
// is returned, nil when both sides were read as indices. Clusters with an
// empty side are dropped.
func Read(r io.Reader, vocab *Vocabulary) (*Set, *Vocabulary, error) {
	var (
		rowIndex, colIndex map[string]int
		clusters           []Bicluster
		pendingRows        []int
		pending            bool
		lineNum            int
	)
	used := &Vocabulary{}
	if vocab != nil {
		if len(vocab.Rows) > 0 {
			used.Rows = vocab.Rows
			rowIndex = indexOf(vocab.Rows)
		}
		if len(vocab.Cols) > 0 {
			used.Cols = vocab.Cols
			colIndex = indexOf(vocab.Cols)
		}
	}
	vocab = used

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		switch fields[0] {
		case rowsVocabTag:
			if rowIndex == nil {
				vocab.Rows = append([]string(nil), fields[1:]...)
				rowIndex = indexOf(vocab.Rows)
			}
		case colsVocabTag:
			if colIndex == nil {
				vocab.Cols = append([]string(nil), fields[1:]...)
				colIndex = indexOf(vocab.Cols)
			}
		case rowsTag:
			if pending {
				return nil, nil, fmt.Errorf("%w: line %d: rows line without matching cols line", ErrParse, lineNum)
			}
			idx, err := resolve(fields[1:], rowIndex)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrParse, lineNum, err)
			}
			pendingRows, pending = idx, true
		case colsTag:
			if !pending {
				return nil, nil, fmt.Errorf("%w: line %d: cols line without preceding rows line", ErrParse, lineNum)
			}
			idx, err := resolve(fields[1:], colIndex)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrParse, lineNum, err)
			}
			clusters = append(clusters, New(pendingRows, idx))
			pendingRows, pending = nil, false
		default:
			return nil, nil, fmt.Errorf("%w: line %d: unknown tag %q", ErrParse, lineNum, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read ground truth: %w", err)
	}
	if pending {
		return nil, nil, fmt.Errorf("%w: line %d: trailing rows line without cols line", ErrParse, lineNum)
	}
	if len(vocab.Rows) == 0 && len(vocab.Cols) == 0 {
		vocab = nil
	}
	return NewSet(clusters...), vocab, nil
}

// ReadFile reads a ground-truth file from path
func ReadFile(path string, vocab *Vocabulary) (*Set, *Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open ground truth file: %w", err)
	}
	defer f.Close()
	return Read(f, vocab)
}

func indexOf(labels []string) map[string]int {
	m := make(map[string]int, len(labels))
	for i, l := range labels {
		m[l] = i
	}
	return m
}

func resolve(labels []string, index map[string]int) ([]int, error) {
	out := make([]int, 0, len(labels))
	for _, l := range labels {
		if index != nil {
			i, ok := index[l]
			if !ok {
				return nil, fmt.Errorf("unknown label %q", l)
			}
			out = append(out, i)
			continue
		}
		i, err := strconv.Atoi(l)
		if err != nil || i < 0 {
			return nil, fmt.Errorf("invalid index %q", l)
		}
		out = append(out, i)
	}
	return out, nil
}
