package biclust

// Set is an ordered collection of biclusters produced by one run, a ground
// truth or an adapted external result. Order reflects discovery order.
type Set struct {
	clusters []Bicluster
}

// NewSet copies the given clusters into a new set. Clusters with an empty
// side are dropped: a set only holds valid biclusters.
func NewSet(clusters ...Bicluster) *Set {
	s := &Set{clusters: make([]Bicluster, 0, len(clusters))}
	for _, c := range clusters {
		if c.IsValid() {
			s.clusters = append(s.clusters, c.Clone())
		}
	}
	return s
}

// Len returns the number of clusters; a nil set is empty.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.clusters)
}

// IsEmpty reports whether the set holds no cluster
func (s *Set) IsEmpty() bool {
	return s.Len() == 0
}

// At returns a copy of the i-th cluster
func (s *Set) At(i int) Bicluster {
	return s.clusters[i].Clone()
}

// Clusters returns a copy of every cluster in order
func (s *Set) Clusters() []Bicluster {
	out := make([]Bicluster, 0, s.Len())
	if s == nil {
		return out
	}
	for _, c := range s.clusters {
		out = append(out, c.Clone())
	}
	return out
}

// With returns a new set extended by the given clusters; s is left untouched.
func (s *Set) With(clusters ...Bicluster) *Set {
	return NewSet(append(s.Clusters(), clusters...)...)
}

// Each calls fn for every cluster; fn receives a copy.
func (s *Set) Each(fn func(i int, b Bicluster)) {
	if s == nil {
		return
	}
	for i, c := range s.clusters {
		fn(i, c.Clone())
	}
}

// MaxIndices returns one plus the largest row and column index referenced
func (s *Set) MaxIndices() (int, int) {
	maxRow, maxCol := 0, 0
	if s == nil {
		return 0, 0
	}
	for _, c := range s.clusters {
		if len(c.Rows) > 0 && c.Rows[len(c.Rows)-1]+1 > maxRow {
			maxRow = c.Rows[len(c.Rows)-1] + 1
		}
		if len(c.Cols) > 0 && c.Cols[len(c.Cols)-1]+1 > maxCol {
			maxCol = c.Cols[len(c.Cols)-1] + 1
		}
	}
	return maxRow, maxCol
}
