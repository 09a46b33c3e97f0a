// Package descriptor defines the contract between a multibody-dynamics
// system and the interior-point solver, and ships a dense reference
// implementation used by tests and examples.
//
// The real collaborator, a rigid-body assembly with bilateral joints and
// frictional contacts, is out of scope; only its abstract capabilities are
// specified here, mirroring ChLcpSystemDescriptor.
package descriptor

import "contactqp/csr"

// SystemDescriptor produces the block structure [ G, -Aᵀ ; A, -E ] and the
// vectors c, b that an IpSolver assembles into its KKT system, and receives
// the solution back in its own variable layout.
type SystemDescriptor interface {
	// CountActiveVariables returns n, the number of primal unknowns.
	CountActiveVariables() int
	// CountActiveConstraints returns m, the number of inequality rows.
	// includeBilateral additionally counts equality (bilateral) rows this
	// solver does not itself handle, for callers that need the full count.
	// skipContactsUV excludes friction-tangent rows from the count.
	CountActiveConstraints(includeBilateral, skipContactsUV bool) int
	// ConvertToMatrixForm fills whichever fields of out are non-nil: G and
	// A in the descriptor's own sign convention (the caller, not the
	// descriptor, is responsible for any sign flip its solver needs),
	// Compliance for the -E block, C/B for the cost and constraint
	// vectors, and Fric for per-row friction coefficients aligned with the
	// constraint rows. onlyBilateral restricts assembly to bilateral rows;
	// skipContactsUV strips friction-tangent rows from whatever is
	// assembled.
	ConvertToMatrixForm(out *MatrixForm, onlyBilateral, skipContactsUV bool) error
	// FromVectorToUnknowns writes sol's primal block back into descriptor
	// state and its Lagrangian block back into the descriptor's multiplier
	// storage. sol is already laid out at full stride; the caller, not the
	// descriptor, is responsible for padding any stripped friction-tangent
	// rows back to [-lam_i, 0, 0] triplets before calling this.
	FromVectorToUnknowns(sol []float64)
}

// MatrixForm collects the optional outputs ConvertToMatrixForm may fill.
// A nil field means "don't compute this output".
type MatrixForm struct {
	G          *csr.Matrix
	A          *csr.Matrix
	Compliance *csr.Matrix
	C          []float64
	B          []float64
	Fric       []float64
}
