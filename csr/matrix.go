// Package csr implements a compressed-sparse-row matrix that supports
// gap-tolerant in-place incremental construction, sparsity-pattern learning
// and locking, compression/pruning, and clipped mat-vec multiplication.
//
// The design is grounded on ChCSR3Matrix: a single boolean orientation flag
// aliases "leading" and "trailing" dimension so row-major and column-major
// matrices share one code path, and an initialized[] parallel slice marks
// which physical slots hold real entries versus reserved gaps.
package csr

const sentinelCol = -1

// defaultMaxShifts bounds how many rows ahead element() will search for a
// free slot before falling back to reallocation.
const defaultMaxShifts = 5

// Options configures a new Matrix. The zero value is a column-major matrix
// (RowMajor false) with the default shift search depth.
type Options struct {
	// RowMajor selects the physical orientation: true stores each logical
	// row contiguously, false stores each logical column contiguously.
	RowMajor bool
	// MaxShifts bounds the forward shift-insertion search in element(). Zero
	// means defaultMaxShifts.
	MaxShifts int
}

// Matrix is a sparse matrix in compressed-sparse-row (or, with RowMajor
// false, compressed-sparse-column) form.
type Matrix struct {
	rows, cols int
	rowMajor   bool
	maxShifts  int

	// leadIndex has length leadDim()+1; leadIndex[i] is the offset into
	// trailIndex/values/initialized where lead-dimension slot i begins.
	leadIndex []int
	// trailIndex, values and initialized are parallel arrays over physical
	// slots. A slot is a real entry iff initialized[slot] is true.
	trailIndex  []int
	values      []float64
	initialized []bool

	nnz int

	patternLocked bool
	lockBroken    bool
	compressed    bool
}

// NewMatrix allocates an empty rows x cols matrix with room for at least
// hint non-zero entries, evenly distributed across the leading dimension.
func NewMatrix(rows, cols, hint int, opts Options) *Matrix {
	m := &Matrix{rows: rows, cols: cols, rowMajor: opts.RowMajor}
	m.maxShifts = opts.MaxShifts
	if m.maxShifts <= 0 {
		m.maxShifts = defaultMaxShifts
	}
	m.allocateEmpty(hint)
	return m
}

func (m *Matrix) leadDim() int {
	if m.rowMajor {
		return m.rows
	}
	return m.cols
}

func (m *Matrix) trailDim() int {
	if m.rowMajor {
		return m.cols
	}
	return m.rows
}

// leadTrail maps a logical (row, col) pair to (lead, trail) physical
// coordinates according to the matrix's orientation.
func (m *Matrix) leadTrail(row, col int) (lead, trail int) {
	if m.rowMajor {
		return row, col
	}
	return col, row
}

// Rows reports the logical row count.
func (m *Matrix) Rows() int { return m.rows }

// Cols reports the logical column count.
func (m *Matrix) Cols() int { return m.cols }

// IsRowMajor reports the physical orientation.
func (m *Matrix) IsRowMajor() bool { return m.rowMajor }

// IsCompressed reports whether the matrix currently holds no gaps.
func (m *Matrix) IsCompressed() bool { return m.compressed }

// GetNNZ returns the number of initialized (real) entries.
func (m *Matrix) GetNNZ() int { return m.nnz }

// SetMaxShifts changes the forward shift-insertion search depth.
func (m *Matrix) SetMaxShifts(n int) {
	if n > 0 {
		m.maxShifts = n
	}
}

// SetSparsityPatternLock promises the engine that the (row, col) pattern
// will not change structurally from here on, allowing Reset to skip
// reallocation and only zero values. A structural write made while locked
// breaks the lock (see lockBroken) and forces compression on the next Reset.
func (m *Matrix) SetSparsityPatternLock(locked bool) {
	m.patternLocked = locked
	if locked {
		m.lockBroken = false
	}
}

// allocateEmpty seeds leadIndex with hint slots evenly spread across the
// leading dimension and leaves every physical slot uninitialized.
func (m *Matrix) allocateEmpty(hint int) {
	if hint < 0 {
		hint = 0
	}
	L := m.leadDim()
	lead := make([]int, L+1)
	distributeIntegerRangeOnVector(lead, 0, hint)
	capacity := hint
	m.leadIndex = lead
	m.trailIndex = make([]int, capacity)
	m.values = make([]float64, capacity)
	m.initialized = make([]bool, capacity)
	for i := range m.trailIndex {
		m.trailIndex[i] = sentinelCol
	}
	m.nnz = 0
	m.compressed = capacity == 0
	m.lockBroken = false
}

// distributeIntegerRangeOnVector fills v with len(v) integers evenly spaced
// from start to end inclusive. Used to seed leadIndex with a uniform
// placeholder capacity guess before any real structure is known, and inside
// reallocation to spread newly reserved gaps across rows.
func distributeIntegerRangeOnVector(v []int, start, end int) {
	n := len(v)
	if n == 0 {
		return
	}
	if n == 1 {
		v[0] = start
		return
	}
	span := end - start
	for i := 0; i < n; i++ {
		v[i] = start + span*i/(n-1)
	}
}

// Reset reshapes the matrix to rows x cols. When the sparsity pattern is
// locked and the shape is unchanged, only values are zeroed and the
// existing leadIndex/trailIndex/initialized arrays are kept for fast reuse;
// if a structural write broke the lock since, the matrix is compressed
// first. Otherwise the matrix is reallocated for hint reserved non-zeros.
func (m *Matrix) Reset(rows, cols, hint int) {
	sameShape := rows == m.rows && cols == m.cols
	if m.patternLocked && sameShape {
		if m.lockBroken {
			m.Compress()
			m.lockBroken = false
		}
		for i := range m.values {
			if m.initialized[i] {
				m.values[i] = 0
			}
		}
		return
	}
	m.rows, m.cols = rows, cols
	m.allocateEmpty(hint)
}

// GetElement returns the value stored at (row, col), or 0 if no entry is
// present. It never creates a slot.
func (m *Matrix) GetElement(row, col int) float64 {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		outOfBounds(row, col, m.rows, m.cols)
	}
	lead, trail := m.leadTrail(row, col)
	lo, hi := m.leadIndex[lead], m.leadIndex[lead+1]
	for k := lo; k < hi; k++ {
		if m.initialized[k] && m.trailIndex[k] == trail {
			return m.values[k]
		}
	}
	return 0
}

// SetElement ensures a slot for (row, col) exists and writes v into it.
// When overwrite is false, v is added to whatever the slot already held
// (which is 0 for a freshly created slot, so the first write always lands
// exactly v regardless of overwrite).
func (m *Matrix) SetElement(row, col int, v float64, overwrite bool) {
	ptr := m.Element(row, col)
	if overwrite {
		*ptr = v
	} else {
		*ptr += v
	}
}

// Element returns a mutable handle to the value at (row, col), creating the
// slot if it is absent. When the row has no ready gap, a slot is opened by
// shiftInsert and, failing that, by grow followed by shiftInsert.
func (m *Matrix) Element(row, col int) *float64 {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		outOfBounds(row, col, m.rows, m.cols)
	}
	lead, trail := m.leadTrail(row, col)

	if k, ok := m.findInitialized(lead, trail); ok {
		return &m.values[k]
	}
	if k, ok := m.bracketedGap(lead, trail); ok {
		return m.occupy(k, trail)
	}
	if m.shiftInsert(lead, trail) {
		if k, ok := m.bracketedGap(lead, trail); ok {
			return m.occupy(k, trail)
		}
	}
	m.grow(m.capacity() + 1)
	k, ok := m.bracketedGap(lead, trail)
	if !ok && m.shiftInsert(lead, trail) {
		k, ok = m.bracketedGap(lead, trail)
	}
	if !ok {
		// Growth guarantees at least one free slot per lead row; this
		// branch means the arena invariant was violated.
		panic("csr: element slot missing after growth")
	}
	return m.occupy(k, trail)
}

func (m *Matrix) occupy(slot, trail int) *float64 {
	m.trailIndex[slot] = trail
	m.initialized[slot] = true
	m.values[slot] = 0
	m.nnz++
	m.compressed = false
	if m.patternLocked {
		m.lockBroken = true
	}
	return &m.values[slot]
}

func (m *Matrix) findInitialized(lead, trail int) (int, bool) {
	lo, hi := m.leadIndex[lead], m.leadIndex[lead+1]
	for k := lo; k < hi; k++ {
		if m.initialized[k] && m.trailIndex[k] == trail {
			return k, true
		}
	}
	return 0, false
}

// bracketedGap finds an uninitialized slot in the lead row's window whose
// immediate initialized neighbors (if any) bracket trail in ascending
// order, so writing it there preserves the row's sorted invariant.
func (m *Matrix) bracketedGap(lead, trail int) (int, bool) {
	lo, hi := m.leadIndex[lead], m.leadIndex[lead+1]
	for k := lo; k < hi; k++ {
		if m.initialized[k] {
			continue
		}
		prev := minInt
		for j := k - 1; j >= lo; j-- {
			if m.initialized[j] {
				prev = m.trailIndex[j]
				break
			}
		}
		next := maxInt
		for j := k + 1; j < hi; j++ {
			if m.initialized[j] {
				next = m.trailIndex[j]
				break
			}
		}
		if prev < trail && trail < next {
			return k, true
		}
	}
	return 0, false
}

const (
	minInt = -1 << 62
	maxInt = 1<<62 - 1
)

// shiftInsert looks for an uninitialized slot at or after trail's sorted
// position in lead's own window, then up to maxShifts lead-rows past lead,
// and shifts every initialized entry between that position and the slot one
// position toward it. The freed slot ends up at trail's sorted position in
// lead's window, and every lead boundary crossed is bumped by one so the
// structure stays consistent.
func (m *Matrix) shiftInsert(lead, trail int) bool {
	L := m.leadDim()
	lo, hi := m.leadIndex[lead], m.leadIndex[lead+1]
	pos := hi
	for pos > lo && (!m.initialized[pos-1] || m.trailIndex[pos-1] > trail) {
		pos--
	}
	limit := lead + 1 + m.maxShifts
	if limit > L {
		limit = L
	}
	for q := lead; q < limit; q++ {
		lo2, hi2 := m.leadIndex[q], m.leadIndex[q+1]
		if q == lead {
			lo2 = pos
		}
		for p := lo2; p < hi2; p++ {
			if m.initialized[p] {
				continue
			}
			for k := p; k > pos; k-- {
				m.trailIndex[k] = m.trailIndex[k-1]
				m.values[k] = m.values[k-1]
				m.initialized[k] = m.initialized[k-1]
			}
			m.initialized[pos] = false
			m.trailIndex[pos] = sentinelCol
			m.values[pos] = 0
			for r := lead + 1; r <= q; r++ {
				m.leadIndex[r]++
			}
			return true
		}
	}
	return false
}

func (m *Matrix) capacity() int { return len(m.trailIndex) }

// grow reallocates the backing arrays to at least minCapacity, redistributing
// the freed gap uniformly across every lead row (copyAndDistribute).
func (m *Matrix) grow(minCapacity int) {
	capacity := m.capacity()
	newCap := capacity + capacity/2
	if newCap < 0 {
		// Overflowed into negative territory; a real allocation failure,
		// not a shape clampAbove should paper over.
		panic(ErrAlloc)
	}
	newCap = clampAbove(newCap, minCapacity)
	// Guarantee at least one free slot per lead row after redistribution,
	// otherwise a very sparse, wide matrix could grow without ever opening
	// a gap for the row that triggered the growth.
	if L := m.leadDim(); L > 0 {
		newCap = clampAbove(newCap, m.nnz+L)
	}
	newCap = clampAbove(newCap, 1)
	m.copyAndDistribute(newCap)
}

func (m *Matrix) copyAndDistribute(newCap int) {
	L := m.leadDim()
	gap := 0
	if L > 0 {
		gap = clampAbove((newCap-m.nnz)/L, 0)
	}
	newLead := make([]int, L+1)
	newTrail := make([]int, 0, newCap)
	newValues := make([]float64, 0, newCap)
	newInit := make([]bool, 0, newCap)

	for r := 0; r < L; r++ {
		newLead[r] = len(newTrail)
		lo, hi := m.leadIndex[r], m.leadIndex[r+1]
		for k := lo; k < hi; k++ {
			if m.initialized[k] {
				newTrail = append(newTrail, m.trailIndex[k])
				newValues = append(newValues, m.values[k])
				newInit = append(newInit, true)
			}
		}
		for g := 0; g < gap; g++ {
			newTrail = append(newTrail, sentinelCol)
			newValues = append(newValues, 0)
			newInit = append(newInit, false)
		}
	}
	newLead[L] = len(newTrail)

	m.leadIndex = newLead
	m.trailIndex = newTrail
	m.values = newValues
	m.initialized = newInit
}

// Compress packs all initialized entries to the front of each row, in
// order, removing every gap. It returns whether the matrix was already
// compressed (no work was needed).
func (m *Matrix) Compress() bool {
	if m.compressed {
		return true
	}
	L := m.leadDim()
	pos := 0
	newLead := make([]int, L+1)
	for r := 0; r < L; r++ {
		newLead[r] = pos
		lo, hi := m.leadIndex[r], m.leadIndex[r+1]
		for k := lo; k < hi; k++ {
			if m.initialized[k] {
				m.trailIndex[pos] = m.trailIndex[k]
				m.values[pos] = m.values[k]
				m.initialized[pos] = true
				pos++
			}
		}
	}
	newLead[L] = pos
	m.leadIndex = newLead
	m.trailIndex = m.trailIndex[:pos]
	m.values = m.values[:pos]
	m.initialized = m.initialized[:pos]
	m.compressed = true
	return false
}

// Prune compresses the matrix, then additionally drops every entry whose
// magnitude is at most threshold.
func (m *Matrix) Prune(threshold float64) {
	m.Compress()
	L := m.leadDim()
	pos := 0
	newLead := make([]int, L+1)
	for r := 0; r < L; r++ {
		newLead[r] = pos
		lo, hi := m.leadIndex[r], m.leadIndex[r+1]
		for k := lo; k < hi; k++ {
			v := m.values[k]
			if v < 0 {
				v = -v
			}
			if v <= threshold {
				continue
			}
			m.trailIndex[pos] = m.trailIndex[k]
			m.values[pos] = m.values[k]
			m.initialized[pos] = true
			pos++
		}
	}
	newLead[L] = pos
	m.leadIndex = newLead
	m.trailIndex = m.trailIndex[:pos]
	m.values = m.values[:pos]
	m.initialized = m.initialized[:pos]
	m.nnz = pos
	m.compressed = true
}

// Trim shrinks the backing arrays' capacity to exactly their current
// length, releasing any reserved-but-unused slots.
func (m *Matrix) Trim() {
	n := len(m.trailIndex)
	trail := make([]int, n)
	values := make([]float64, n)
	init := make([]bool, n)
	copy(trail, m.trailIndex)
	copy(values, m.values)
	copy(init, m.initialized)
	m.trailIndex, m.values, m.initialized = trail, values, init
}

// LoadSparsityPattern rebuilds leadIndex/trailIndex from a learner's
// recorded pattern. Values are zeroed, every slot is marked initialized,
// and the matrix ends up compressed.
func (m *Matrix) LoadSparsityPattern(l *SparsityLearner) {
	pattern, nnz := l.GetSparsityPattern()
	L := m.leadDim()
	newLead := make([]int, L+1)
	newTrail := make([]int, nnz)
	newValues := make([]float64, nnz)
	newInit := make([]bool, nnz)
	pos := 0
	for r := 0; r < L && r < len(pattern); r++ {
		newLead[r] = pos
		for _, c := range pattern[r] {
			newTrail[pos] = c
			newInit[pos] = true
			pos++
		}
	}
	for r := len(pattern); r <= L; r++ {
		newLead[r] = pos
	}
	newLead[L] = pos
	m.leadIndex = newLead
	m.trailIndex = newTrail
	m.values = newValues
	m.initialized = newInit
	m.nnz = pos
	m.compressed = true
}

// MatMultiply computes yOut = A * xIn over the full matrix.
func (m *Matrix) MatMultiply(xIn, yOut []float64) {
	m.MatMultiplyClipped(xIn, yOut, 0, m.rows, 0, m.cols, 0, 0)
}

// MatMultiplyClipped computes, for i in [rowStart, rowEnd):
//
//	yOut[yOffset+i-rowStart] = sum over stored (i,j) with j in [colStart, colEnd)
//	                           of values * xIn[xOffset+j-colStart]
//
// Entries outside the column clipping window are skipped. Output slots in
// range are zeroed before accumulation; MatMultiply is the unclipped
// special case.
func (m *Matrix) MatMultiplyClipped(xIn, yOut []float64, rowStart, rowEnd, colStart, colEnd, xOffset, yOffset int) {
	for i := rowStart; i < rowEnd; i++ {
		yOut[yOffset+i-rowStart] = 0
	}
	if m.rowMajor {
		for i := rowStart; i < rowEnd; i++ {
			lo, hi := m.leadIndex[i], m.leadIndex[i+1]
			var acc float64
			for k := lo; k < hi; k++ {
				if !m.initialized[k] {
					continue
				}
				j := m.trailIndex[k]
				if j < colStart || j >= colEnd {
					continue
				}
				acc += m.values[k] * xIn[xOffset+j-colStart]
			}
			yOut[yOffset+i-rowStart] = acc
		}
		return
	}
	// Column-major storage: walk each stored column and scatter into rows.
	for j := colStart; j < colEnd; j++ {
		lo, hi := m.leadIndex[j], m.leadIndex[j+1]
		xv := xIn[xOffset+j-colStart]
		if xv == 0 {
			continue
		}
		for k := lo; k < hi; k++ {
			if !m.initialized[k] {
				continue
			}
			i := m.trailIndex[k]
			if i < rowStart || i >= rowEnd {
				continue
			}
			yOut[yOffset+i-rowStart] += m.values[k] * xv
		}
	}
}

// ForEachExistentValue visits every initialized (row, col, value) in
// physical storage order. fn may mutate the value through the pointer it
// receives.
func (m *Matrix) ForEachExistentValue(fn func(row, col int, v *float64)) {
	m.ForEachExistentValueInRange(0, m.rows, 0, m.cols, fn)
}

// ForEachExistentValueInRange is ForEachExistentValue restricted to entries
// with row in [rowStart, rowEnd) and col in [colStart, colEnd).
func (m *Matrix) ForEachExistentValueInRange(rowStart, rowEnd, colStart, colEnd int, fn func(row, col int, v *float64)) {
	L := m.leadDim()
	for lead := 0; lead < L; lead++ {
		lo, hi := m.leadIndex[lead], m.leadIndex[lead+1]
		for k := lo; k < hi; k++ {
			if !m.initialized[k] {
				continue
			}
			var row, col int
			if m.rowMajor {
				row, col = lead, m.trailIndex[k]
			} else {
				row, col = m.trailIndex[k], lead
			}
			if row < rowStart || row >= rowEnd || col < colStart || col >= colEnd {
				continue
			}
			fn(row, col, &m.values[k])
		}
	}
}

// ForEachExistentValueThatMeetsRequirement visits every initialized entry
// for which predicate returns true.
func (m *Matrix) ForEachExistentValueThatMeetsRequirement(predicate func(row, col int, v float64) bool, fn func(row, col int, v *float64)) {
	m.ForEachExistentValue(func(row, col int, v *float64) {
		if predicate(row, col, *v) {
			fn(row, col, v)
		}
	})
}
