package csr

import "sort"

// SparsityLearner accumulates (row, col) insertions without ever storing a
// value, then emits the sorted, deduplicated per-row column pattern it
// observed. Pass the result to Matrix.LoadSparsityPattern to pre-size a
// matrix's leadIndex/trailIndex arrays so the first real pass of inserts
// lands directly instead of growing the arena incrementally.
//
// Grounded on ChSparsityPatternLearner: a leading-dimension-indexed slice of
// lists, append-only, sorted once on read.
type SparsityLearner struct {
	rowMajor bool
	lists    [][]int
}

// NewSparsityLearner creates a learner for a matrix with the given leading
// dimension (rows if rowMajor, columns otherwise).
func NewSparsityLearner(leadDim int, rowMajor bool) *SparsityLearner {
	return &SparsityLearner{
		rowMajor: rowMajor,
		lists:    make([][]int, leadDim),
	}
}

// Record notes that (row, col) will eventually hold a value. Call order and
// duplicate calls do not matter; the pattern is sorted and deduplicated in
// GetSparsityPattern.
func (l *SparsityLearner) Record(row, col int) {
	lead, trail := row, col
	if !l.rowMajor {
		lead, trail = col, row
	}
	l.lists[lead] = append(l.lists[lead], trail)
}

// GetSparsityPattern sorts and deduplicates every row's observed columns and
// returns them alongside the total non-zero count. The learner's own lists
// are left sorted as a side effect, so calling this more than once is cheap.
func (l *SparsityLearner) GetSparsityPattern() (pattern [][]int, nnz int) {
	pattern = make([][]int, len(l.lists))
	for i, list := range l.lists {
		if list == nil {
			list = []int{}
		}
		sort.Ints(list)
		list = dedupSorted(list)
		l.lists[i] = list
		pattern[i] = list
		nnz += len(list)
	}
	return pattern, nnz
}

func dedupSorted(s []int) []int {
	if len(s) == 0 {
		return s
	}
	out := s[:1]
	for _, v := range s[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
