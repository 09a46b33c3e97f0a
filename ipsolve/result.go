package ipsolve

// Residuals reports the normalized KKT residual norms and complementarity
// measure at some iterate, surfacing what VerifyKKTconditions /
// check_feasibility compute in the original solver.
type Residuals struct {
	RpNorm float64 // ‖A x − y − b‖₂ / m
	RdNorm float64 // ‖G x − Aᵀ lam + c‖₂ / n
	Mu     float64 // yᵀ lam / m
}

// Feasible reports whether the residuals meet the given tolerances.
func (r Residuals) Feasible(rpTol, rdTol, muTol float64) bool {
	return r.RpNorm <= rpTol && r.RdNorm <= rdTol && r.Mu <= muTol
}

// Result is what Solve returns: the primal solution, the Lagrangian block
// (already re-expanded to full contact stride if SkipContactsUV was set),
// and enough diagnostics for a caller to decide whether to trust the step.
type Result struct {
	X          []float64
	Lagrangian []float64
	Objective  float64
	Iterations int
	Converged  bool
	Residuals  Residuals
}
