// Package ipsolve implements the primal-dual predictor-corrector
// interior-point solver for the convex QP
//
//	minimize   1/2 xᵀGx + cᵀx
//	subject to Ax >= b
//
// arising from multibody contact problems, following Nocedal & Wright
// section 16.1 (Mehrotra's predictor-corrector method) with the KKT system
// at each iteration assembled into a csr.Matrix and factored through an
// injected linsolve.Engine.
package ipsolve

import (
	"math"

	"golang.org/x/exp/constraints"

	"contactqp/csr"
	"contactqp/descriptor"
	"contactqp/iplog"
	"contactqp/linsolve"
)

const infeasibleSentinel = 1e8

// IpSolver owns all interior-point state and orchestrates the
// assembly -> KKT-solve -> step-length -> update loop described in
// section 4.4. It exclusively owns BigMat, rhsSol and every dense
// workspace; the linear engine borrows BigMat read-only and mutates only
// rhsSol, and the descriptor is borrowed read-only for the duration of
// Solve.
type IpSolver struct {
	opts   Options
	engine linsolve.Engine
	layout kktLayout

	n, m int

	G, A, E *csr.Matrix
	BigMat  *csr.Matrix
	rhsSol  []float64
	EDiag   []float64

	x, y, lam    []float64
	Dx, Dy, Dlam []float64
	c, b         []float64
	rp, rd       []float64
	vectn, vectm []float64

	mu, sigma, alphaP, alphaD float64
	iteration                 int
	solverCall                int

	havePrev              bool
	prevN, prevM          int
	prevX, prevY, prevLam []float64
}

// New creates an IpSolver bound to engine for every linear solve. opts is
// captured by value with defaults filled in; a later Solve call always
// sees opts.withDefaults(), so constructing with the zero Options is safe.
func New(engine linsolve.Engine, opts Options) *IpSolver {
	return &IpSolver{
		opts:   opts.withDefaults(),
		engine: engine,
	}
}

// Solve runs the full interior-point procedure against descriptor and
// returns the solution alongside convergence diagnostics. A non-nil error
// other than ErrNonConvergence means the call did not produce a usable
// Result.
func (s *IpSolver) Solve(d descriptor.SystemDescriptor) (Result, error) {
	layout, err := layoutFor(s.opts.KKTMethod)
	if err != nil {
		return Result{}, err
	}
	s.layout = layout
	s.solverCall++

	n := d.CountActiveVariables()
	m := d.CountActiveConstraints(false, s.opts.SkipContactsUV)
	if n != s.n || m != s.m || s.BigMat == nil {
		s.resetDimensions(n, m)
	}

	if err := s.assemble(d); err != nil {
		return Result{}, err
	}

	if s.m == 0 {
		return s.solveUnconstrained(d)
	}

	if err := s.initializeStartingPoint(); err != nil {
		return Result{}, err
	}

	converged := false
	for s.iteration = 0; s.iteration < s.opts.IterMax; s.iteration++ {
		if err := s.iterate(); err != nil {
			return Result{}, err
		}
		s.opts.Logger.Log(iplog.Record{
			SolverCall: s.solverCall,
			Iteration:  s.iteration,
			RpNorm:     norm(s.rp) / float64(s.m),
			RdNorm:     norm(s.rd) / float64(s.n),
			Mu:         s.mu,
		})
		if s.checkExitConditions() {
			converged = true
			s.iteration++
			break
		}
	}

	s.saveWarmStart()
	result := s.emit(d, converged)
	if !converged {
		return result, ErrNonConvergence
	}
	return result, nil
}

// resetDimensions (re)sizes every dense workspace and BigMat/rhsSol for a
// new (n, m) and drops any warm-start history, since it no longer applies
// to a differently-shaped problem.
func (s *IpSolver) resetDimensions(n, m int) {
	s.n, s.m = n, m
	s.x = make([]float64, n)
	s.Dx = make([]float64, n)
	s.c = make([]float64, n)
	s.rd = make([]float64, n)
	s.vectn = make([]float64, n)
	s.y = make([]float64, m)
	s.lam = make([]float64, m)
	s.Dy = make([]float64, m)
	s.Dlam = make([]float64, m)
	s.b = make([]float64, m)
	s.rp = make([]float64, m)
	s.vectm = make([]float64, m)
	s.EDiag = make([]float64, m)

	opts := csr.Options{RowMajor: true, MaxShifts: s.opts.MaxShifts}
	s.G = csr.NewMatrix(n, n, n, opts)
	s.A = csr.NewMatrix(m, n, m, opts)
	if s.opts.AddCompliance {
		s.E = csr.NewMatrix(m, m, m, opts)
	} else {
		s.E = nil
	}

	if m > 0 {
		size := s.layout.size(n, m)
		s.BigMat = csr.NewMatrix(size, size, size, opts)
		s.rhsSol = make([]float64, size)
	} else {
		s.BigMat = nil
		s.rhsSol = nil
	}

	s.havePrev = false
}

// assemble loads G, A, (E), c and b from the descriptor, rebuilds BigMat's
// structure on the first call for this shape and refills its values every
// call, and flips the -Aᵀ block's sign.
func (s *IpSolver) assemble(d descriptor.SystemDescriptor) error {
	form := &descriptor.MatrixForm{G: s.G, A: s.A, C: s.c, B: s.b}
	if s.opts.AddCompliance {
		form.Compliance = s.E
	}
	if err := d.ConvertToMatrixForm(form, false, s.opts.SkipContactsUV); err != nil {
		return err
	}
	for i := range s.c {
		s.c[i] = -s.c[i]
	}
	for i := range s.b {
		s.b[i] = -s.b[i]
	}

	if s.opts.NormalizeConstraintRows {
		normalizeConstraintRows(s.A, s.b)
	}

	if s.m == 0 {
		return nil
	}

	if !s.BigMat.IsCompressed() || s.BigMat.GetNNZ() == 0 {
		learner := csr.NewSparsityLearner(s.BigMat.Rows(), true)
		s.layout.pattern(learner, s)
		s.BigMat.LoadSparsityPattern(learner)
		s.BigMat.SetSparsityPatternLock(true)
	} else {
		s.BigMat.Reset(s.BigMat.Rows(), s.BigMat.Cols(), 0)
	}
	s.layout.fillStatic(s)

	r0, r1, c0, c1 := s.layout.negAtBlock(s.n, s.m)
	makePositiveDefinite(s.BigMat, r0, r1, c0, c1)
	return nil
}

// solveUnconstrained handles the m == 0 degenerate case: -rd = -c has no
// inequality coupling, so it is solved directly rather than through the
// full predictor-corrector loop.
func (s *IpSolver) solveUnconstrained(d descriptor.SystemDescriptor) (Result, error) {
	rhs := make([]float64, s.n)
	for i := range rhs {
		rhs[i] = -s.c[i]
	}
	s.engine.SetMatrix(s.G)
	s.engine.SetRHS(rhs)
	if st := s.engine.Call(linsolve.AnalyzeFactorize); st != linsolve.OK {
		return Result{}, linearEngineError("AnalyzeFactorize", int(st))
	}
	if st := s.engine.Call(linsolve.Solve); st != linsolve.OK {
		return Result{}, linearEngineError("Solve", int(st))
	}
	copy(s.x, rhs)

	sol := append([]float64{}, s.x...)
	d.FromVectorToUnknowns(sol)
	return Result{
		X:          append([]float64{}, s.x...),
		Lagrangian: nil,
		Objective:  s.objective(),
		Iterations: 0,
		Converged:  true,
	}, nil
}

func (s *IpSolver) objective() float64 {
	gx := make([]float64, s.n)
	s.G.MatMultiply(s.x, gx)
	var q float64
	for i := range s.x {
		q += 0.5*s.x[i]*gx[i] + s.c[i]*s.x[i]
	}
	return q
}

// fullUpdateResidual recomputes rp = Ax - y - b, rd = Gx - Aᵀlam + c and mu
// from scratch, grounded on fullupdate_residual.
func (s *IpSolver) fullUpdateResidual() {
	s.A.MatMultiply(s.x, s.rp)
	for i := range s.rp {
		s.rp[i] -= s.y[i] + s.b[i]
	}
	s.G.MatMultiply(s.x, s.rd)
	s.multiplyNegAT(s.lam, s.vectn)
	for i := range s.rd {
		s.rd[i] += s.vectn[i] + s.c[i]
	}
	s.mu = dot(s.y, s.lam) / float64(s.m)
}

// multiplyNegAT computes out = -Aᵀ * vect using A directly (A's transpose
// is never materialized).
func (s *IpSolver) multiplyNegAT(vect, out []float64) {
	for i := range out {
		out[i] = 0
	}
	s.A.ForEachExistentValue(func(row, col int, v *float64) {
		out[col] -= *v * vect[row]
	})
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

// clampBelow replaces every entry with max(|v|, floor): always positive,
// regardless of the entry's original sign. Written against
// constraints.Float rather than hand-duplicated for float32/float64.
func clampBelow[T constraints.Float](v []T, floor T) {
	for i, x := range v {
		if x < 0 {
			x = -x
		}
		if x < floor {
			x = floor
		}
		v[i] = x
	}
}

// normalizeConstraintRows rescales each row of A, and the matching entry of
// b, by the row's Euclidean norm so every constraint row has unit norm
// without changing the feasible set. Grounded on normalize_Arows; opt-in
// via Options.NormalizeConstraintRows since it changes the reported scale
// of the Lagrange multipliers.
func normalizeConstraintRows(a *csr.Matrix, b []float64) {
	norms := make([]float64, a.Rows())
	a.ForEachExistentValue(func(row, col int, v *float64) {
		norms[row] += *v * *v
	})
	for i := range norms {
		if norms[i] > 0 {
			norms[i] = math.Sqrt(norms[i])
		} else {
			norms[i] = 1
		}
	}
	a.ForEachExistentValue(func(row, col int, v *float64) {
		*v /= norms[row]
	})
	for i := range b {
		b[i] /= norms[i]
	}
}

func (s *IpSolver) saveWarmStart() {
	s.prevN, s.prevM = s.n, s.m
	s.prevX = append(s.prevX[:0], s.x...)
	s.prevY = append(s.prevY[:0], s.y...)
	s.prevLam = append(s.prevLam[:0], s.lam...)
	s.havePrev = true
}

// emit copies x into the solution vector and -lam into the Lagrangian
// block, re-expanding to [-lam_i, 0, 0] triplets when SkipContactsUV is
// set, then writes it back through the descriptor.
func (s *IpSolver) emit(d descriptor.SystemDescriptor, converged bool) Result {
	lagLen := s.m
	stride := 1
	if s.opts.SkipContactsUV {
		stride = 3
		lagLen = s.m * 3
	}
	sol := make([]float64, s.n+lagLen)
	copy(sol, s.x)
	for i := 0; i < s.m; i++ {
		sol[s.n+i*stride] = -s.lam[i]
	}
	d.FromVectorToUnknowns(sol)

	return Result{
		X:          append([]float64{}, s.x...),
		Lagrangian: append([]float64{}, sol[s.n:]...),
		Objective:  s.objective(),
		Iterations: s.iteration,
		Converged:  converged,
		Residuals: Residuals{
			RpNorm: norm(s.rp) / float64(s.m),
			RdNorm: norm(s.rd) / float64(s.n),
			Mu:     s.mu,
		},
	}
}
