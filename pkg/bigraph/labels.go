package bigraph

import "strconv"

// LabelTable maps dense node indices to stable external labels and back.
type LabelTable struct {
	labels []string
	index  map[string]int
}

// NewLabelTable builds a table from labels in index order. Duplicate labels
// resolve to their first index.
func NewLabelTable(labels []string) *LabelTable {
	lt := &LabelTable{
		labels: make([]string, 0, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	for _, l := range labels {
		lt.labels = append(lt.labels, l)
		if _, exists := lt.index[l]; !exists {
			lt.index[l] = len(lt.labels) - 1
		}
	}
	return lt
}

// NumericLabels returns a table labelled prefix0..prefix(n-1)
func NumericLabels(prefix string, n int) *LabelTable {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = prefix + strconv.Itoa(i)
	}
	return NewLabelTable(labels)
}

// Len returns the number of labels
func (lt *LabelTable) Len() int {
	return len(lt.labels)
}

// Label returns the label of index i, or its decimal form when i is unknown.
func (lt *LabelTable) Label(i int) string {
	if i >= 0 && i < len(lt.labels) {
		return lt.labels[i]
	}
	return strconv.Itoa(i)
}

// Index resolves a label to its index
func (lt *LabelTable) Index(label string) (int, bool) {
	i, ok := lt.index[label]
	return i, ok
}

// Labels returns a copy of the labels in index order
func (lt *LabelTable) Labels() []string {
	return append([]string(nil), lt.labels...)
}

// intern returns the index of label, appending it when unseen
func (lt *LabelTable) intern(label string) int {
	if i, ok := lt.index[label]; ok {
		return i
	}
	lt.labels = append(lt.labels, label)
	lt.index[label] = len(lt.labels) - 1
	return len(lt.labels) - 1
}

func (lt *LabelTable) clone() *LabelTable {
	return NewLabelTable(lt.labels)
}
