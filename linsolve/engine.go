// Package linsolve defines the contract a direct sparse linear solver must
// satisfy to back an interior-point KKT solve, and ships two reference
// implementations (dense and sparse partial-pivot LU) that satisfy it.
//
// The real collaborator this contract stands in for, such as MUMPS,
// PARDISO, or an in-tree supernodal LDLᵀ, is out of scope; any type
// implementing Engine works with contactqp/ipsolve.
package linsolve

import "contactqp/csr"

// Job selects which phase of the factor/solve pipeline a Call invocation
// performs.
type Job int

const (
	Analyze Job = iota
	Factorize
	AnalyzeFactorize
	Solve
	FactorizeSolve
	End
)

// Status is the non-zero-means-failure result of a Call. Zero is success.
type Status int

// OK is the zero Status value: the requested job completed successfully.
const OK Status = 0

// Engine factors a CSR matrix and solves against a caller-owned right-hand
// side in place. The engine owns the numerical factorization between calls;
// the caller owns the matrix storage and the RHS buffer. The engine keeps
// the matrix and buffer it was last given until the next SetMatrix/SetRHS
// call, and never mutates the matrix.
type Engine interface {
	// SetMatrix registers the matrix to factor. The engine may read it
	// during Analyze/Factorize but must not mutate it.
	SetMatrix(m *csr.Matrix)
	// SetRHS registers the right-hand side buffer. Solve overwrites it with
	// the solution in place.
	SetRHS(rhs []float64)
	// Call runs job and returns a Status; non-OK signals a linear-solve
	// failure that the caller must surface.
	Call(job Job) Status
}
