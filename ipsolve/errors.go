package ipsolve

import (
	"errors"
	"fmt"
)

// ErrAlloc mirrors csr.ErrAlloc at the solver boundary: a growth failure
// while assembling BigMat. Solve never returns it; a growth failure inside
// csr panics with csr.ErrAlloc.
var ErrAlloc = errors.New("ipsolve: allocation failed")

// ErrLinearEngine wraps a non-OK linsolve.Status reported by the engine
// during factor or solve. Use errors.Is(err, ErrLinearEngine) to detect it;
// the wrapping fmt.Errorf call that produces it also carries the status.
var ErrLinearEngine = errors.New("ipsolve: linear engine reported failure")

// ErrNonConvergence is returned alongside the best iterate found when
// IterMax is reached without meeting all three exit tolerances. It is not
// fatal: Result still holds a usable, if degraded, solution.
var ErrNonConvergence = errors.New("ipsolve: iteration cap reached without meeting tolerances")

// ErrInfeasibleStart is fatal for the call: after the starting-point repair
// phase, residuals remain above a sentinel that makes continuing pointless.
var ErrInfeasibleStart = errors.New("ipsolve: starting point residuals remain infeasible")

// ErrUnsupported is returned by Solve when Options.KKTMethod selects a
// layout that is accepted for forward-declaration purposes but has no
// working implementation (KKTNormal).
var ErrUnsupported = errors.New("ipsolve: KKT layout not implemented")

func linearEngineError(phase string, status int) error {
	return fmt.Errorf("%w: %s returned status %d", ErrLinearEngine, phase, status)
}
