// Package contactqp assembles and solves the convex QP
//
//	minimize   1/2 xᵀGx + cᵀx
//	subject to Ax >= b
//
// that a multibody contact solver produces each time step, through a
// primal-dual predictor-corrector interior-point method backed by a
// pluggable sparse linear engine.
//
// This file is the package's public convenience surface, grounded on the
// teacher's own top-level API shape: a constructor plus a handful of
// methods that assemble the heavier machinery underneath
// (NewCircuit/Load/MNA, here NewProblem/Solver), and a package-level
// driver function for the common one-shot case (Simulate, here Solve).
package contactqp

import (
	"contactqp/descriptor"
	"contactqp/ipsolve"
	"contactqp/linsolve"
)

// Problem wraps a dense reference system descriptor so a caller building a
// small or test QP by hand never has to touch the descriptor package
// directly. Larger or sparse-native systems should implement
// descriptor.SystemDescriptor themselves and skip Problem entirely.
type Problem struct {
	*descriptor.DenseSystem
}

// NewProblem builds a Problem from dense G, A blocks and c, b vectors. A
// and b may be nil for an unconstrained QP. c and b are in the descriptor's
// sign convention: the solver negates both on load, so the QP it solves is
// minimize 1/2 xᵀGx - cᵀx subject to Ax >= -b.
func NewProblem(g, a [][]float64, c, b []float64) *Problem {
	return &Problem{DenseSystem: descriptor.NewDenseSystem(g, a, c, b)}
}

// Solver returns an IpSolver bound to engine and opts, ready to run
// repeated Solve calls against this Problem or any other
// descriptor.SystemDescriptor of matching shape.
func (p *Problem) Solver(engine linsolve.Engine, opts ipsolve.Options) *ipsolve.IpSolver {
	return ipsolve.New(engine, opts)
}

// Solve is the one-shot convenience path: build a solver for engine and
// opts, run it once against d, and return the result. Equivalent to
// ipsolve.New(engine, opts).Solve(d), kept so a caller with a single
// problem never has to name the ipsolve package directly.
func Solve(d descriptor.SystemDescriptor, engine linsolve.Engine, opts ipsolve.Options) (ipsolve.Result, error) {
	return ipsolve.New(engine, opts).Solve(d)
}
