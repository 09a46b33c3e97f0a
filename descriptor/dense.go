package descriptor

// DenseSystem is a SystemDescriptor backed by plain dense slices. It is not
// part of the narrow interface contract; it exists so the solver can be
// integration-tested without a full multibody assembly, and demonstrates
// the friction-tangent stride convention CountActiveConstraints and
// ConvertToMatrixForm use when skipContactsUV is set.
type DenseSystem struct {
	G [][]float64 // n x n
	A [][]float64 // mFull x n, rows grouped by contact when ContactStride == 3
	E [][]float64 // mFull x mFull compliance block, nil if unused
	C []float64   // n
	B []float64   // mFull

	// ContactStride is 1 for plain inequality rows, or 3 when rows are
	// grouped in (normal, tangent-u, tangent-v) triplets per contact and
	// skipContactsUV should strip the two tangent rows out of each group.
	ContactStride int
	// Bilateral is the number of equality rows CountActiveConstraints
	// reports when includeBilateral is requested. This solver never
	// assembles them; the count exists only so a caller juggling a mixed
	// bilateral/unilateral system can size its own buffers correctly.
	Bilateral int

	x          []float64
	lagrangian []float64
}

// NewDenseSystem builds a DenseSystem with no friction structure
// (ContactStride 1) over the given dense blocks.
func NewDenseSystem(g, a [][]float64, c, b []float64) *DenseSystem {
	return &DenseSystem{G: g, A: a, C: c, B: b, ContactStride: 1}
}

func (d *DenseSystem) n() int { return len(d.G) }

func (d *DenseSystem) mFull() int { return len(d.A) }

// CountActiveVariables returns n.
func (d *DenseSystem) CountActiveVariables() int { return d.n() }

// CountActiveConstraints returns m, optionally collapsing friction triplets
// to their normal row and/or adding the bilateral row count.
func (d *DenseSystem) CountActiveConstraints(includeBilateral, skipContactsUV bool) int {
	m := d.mFull()
	if skipContactsUV && d.ContactStride > 1 {
		m = m / d.ContactStride
	}
	if includeBilateral {
		m += d.Bilateral
	}
	return m
}

// isNormalRow reports whether row is the lead row of its contact group
// (always true when ContactStride is 1).
func (d *DenseSystem) isNormalRow(row int) bool {
	return d.ContactStride <= 1 || row%d.ContactStride == 0
}

// ConvertToMatrixForm fills the requested fields of out from the dense
// blocks, stripping friction-tangent rows from A/E/B/Fric when
// skipContactsUV is set. onlyBilateral is accepted for interface
// conformance; DenseSystem has no bilateral rows to assemble, so it is a
// no-op here.
func (d *DenseSystem) ConvertToMatrixForm(out *MatrixForm, onlyBilateral, skipContactsUV bool) error {
	_ = onlyBilateral
	n := d.n()

	if out.G != nil {
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				if v := d.G[i][j]; v != 0 {
					out.G.SetElement(i, j, v, true)
				}
			}
		}
	}

	rows := make([]int, 0, d.mFull())
	for r := 0; r < d.mFull(); r++ {
		if skipContactsUV && !d.isNormalRow(r) {
			continue
		}
		rows = append(rows, r)
	}

	if out.A != nil {
		for ai, r := range rows {
			for j := 0; j < n; j++ {
				if v := d.A[r][j]; v != 0 {
					out.A.SetElement(ai, j, v, true)
				}
			}
		}
	}
	if out.Compliance != nil && d.E != nil {
		for ai, r := range rows {
			for bj, c := range rows {
				if v := d.E[r][c]; v != 0 {
					out.Compliance.SetElement(ai, bj, v, true)
				}
			}
		}
	}
	if out.C != nil {
		copy(out.C, d.C)
	}
	if out.B != nil {
		for ai, r := range rows {
			out.B[ai] = d.B[r]
		}
	}
	if out.Fric != nil {
		for ai := range rows {
			out.Fric[ai] = 0
		}
	}
	return nil
}

// FromVectorToUnknowns copies sol's primal block into x and its Lagrangian
// block into lagrangian. The caller is responsible for expanding the
// Lagrangian block back to full contact stride before calling this (see
// ipsolve's solution-emission step); DenseSystem only stores what it is
// given.
func (d *DenseSystem) FromVectorToUnknowns(sol []float64) {
	n := d.n()
	d.x = append(d.x[:0], sol[:n]...)
	d.lagrangian = append(d.lagrangian[:0], sol[n:]...)
}

// X returns the primal solution written by the last FromVectorToUnknowns.
func (d *DenseSystem) X() []float64 { return d.x }

// Lagrangian returns the full-stride Lagrange multiplier block written by
// the last FromVectorToUnknowns.
func (d *DenseSystem) Lagrangian() []float64 { return d.lagrangian }

var _ SystemDescriptor = (*DenseSystem)(nil)
