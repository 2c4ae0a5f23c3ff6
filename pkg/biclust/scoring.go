package biclust

import "math"

// Scoring functions are total: they never fail, and return 0 when one side
// is empty so that comparison sweeps never abort mid-run.

type cell [2]int

// MatchingScore averages, over the clusters of s, the best Jaccard overlap
// against any cluster of other. Unmatched clusters contribute 0.
func (s *Set) MatchingScore(other *Set) float64 {
	if s.IsEmpty() || other.IsEmpty() {
		return 0
	}
	total := 0.0
	for _, c := range s.clusters {
		best := 0.0
		for _, o := range other.clusters {
			if j := c.Jaccard(o); j > best {
				best = j
			}
		}
		total += best
	}
	return total / float64(len(s.clusters))
}

// FScore is the harmonic mean of the matching score in both directions:
// recovery of s by other and relevance of other with respect to s.
func (s *Set) FScore(other *Set) float64 {
	recovery := s.MatchingScore(other)
	relevance := other.MatchingScore(s)
	if recovery+relevance == 0 {
		return 0
	}
	return 2 * recovery * relevance / (recovery + relevance)
}

// Accuracy returns the fraction of the cells planted in s that are covered
// by at least one cluster of other. Adding clusters to other never lowers it.
func (s *Set) Accuracy(other *Set) float64 {
	planted := s.cells()
	if len(planted) == 0 || other.IsEmpty() {
		return 0
	}
	covered := 0
	for c := range planted {
		for _, o := range other.clusters {
			if o.ContainsCell(c[0], c[1]) {
				covered++
				break
			}
		}
	}
	return float64(covered) / float64(len(planted))
}

// RowsOverlapping returns the mean number of clusters each clustered row
// belongs to: 1 means no overlap, comparable to the generator's overlap factor.
func (s *Set) RowsOverlapping() float64 {
	counts := s.rowMemberships()
	if len(counts) == 0 {
		return 0
	}
	total := 0
	for _, c := range counts {
		total += c
	}
	return float64(total) / float64(len(counts))
}

// OverlappingRowFraction returns the fraction of clustered rows that belong
// to more than one cluster.
func (s *Set) OverlappingRowFraction() float64 {
	counts := s.rowMemberships()
	if len(counts) == 0 {
		return 0
	}
	shared := 0
	for _, c := range counts {
		if c > 1 {
			shared++
		}
	}
	return float64(shared) / float64(len(counts))
}

// RowNMI computes the normalized mutual information between the row
// partitions induced by s and other over rows 0..n-1. Each row is assigned
// to the first cluster containing it, or to -1 when unclustered.
func (s *Set) RowNMI(other *Set, n int) float64 {
	if n <= 0 {
		return 0
	}
	a := s.rowAssignment(n)
	b := other.rowAssignment(n)

	joint := make(map[[2]int]int)
	countsA := make(map[int]int)
	countsB := make(map[int]int)
	for i := 0; i < n; i++ {
		joint[[2]int{a[i], b[i]}]++
		countsA[a[i]]++
		countsB[b[i]]++
	}

	mi := 0.0
	for key, nij := range joint {
		ni := countsA[key[0]]
		nj := countsB[key[1]]
		mi += float64(nij) / float64(n) * math.Log2(float64(nij*n)/float64(ni*nj))
	}

	avgEntropy := (entropy(countsA, n) + entropy(countsB, n)) / 2
	if avgEntropy == 0 {
		// both partitions are a single block
		return 1
	}
	return mi / avgEntropy
}

func entropy(counts map[int]int, n int) float64 {
	h := 0.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		if p > 0 {
			h -= p * math.Log2(p)
		}
	}
	return h
}

func (s *Set) rowAssignment(n int) []int {
	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	if s == nil {
		return assign
	}
	for id, c := range s.clusters {
		for _, r := range c.Rows {
			if r >= 0 && r < n && assign[r] == -1 {
				assign[r] = id
			}
		}
	}
	return assign
}

func (s *Set) rowMemberships() map[int]int {
	counts := make(map[int]int)
	if s == nil {
		return counts
	}
	for _, c := range s.clusters {
		if !c.IsValid() {
			continue
		}
		for _, r := range c.Rows {
			counts[r]++
		}
	}
	return counts
}

func (s *Set) cells() map[cell]struct{} {
	out := make(map[cell]struct{})
	if s == nil {
		return out
	}
	for _, c := range s.clusters {
		for _, r := range c.Rows {
			for _, col := range c.Cols {
				out[cell{r, col}] = struct{}{}
			}
		}
	}
	return out
}
