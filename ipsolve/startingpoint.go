package ipsolve

import (
	"math"

	"contactqp/linsolve"
)

// initializeStartingPoint dispatches to the configured strategy, then
// performs the first full residual update so the iterate loop's exit test
// at the end of iteration zero sees real numbers.
func (s *IpSolver) initializeStartingPoint() error {
	switch s.opts.StartingPoint {
	case StartSTP1:
		s.startSTP1()
	case StartSTP2:
		s.startSTP2()
	case StartNocedalWarmStart:
		if err := s.startNocedalWarmStart(); err != nil {
			return err
		}
	default:
		if err := s.startNocedal(); err != nil {
			return err
		}
	}
	s.fullUpdateResidual()
	if norm(s.rp)/float64(s.m) > infeasibleSentinel || norm(s.rd)/float64(s.n) > infeasibleSentinel {
		return ErrInfeasibleStart
	}
	return nil
}

// startNocedal is the default strategy: x <- 1, lam <- 1, y <- A x - b,
// then one affine-scaling Newton step with sigma=0 ignoring the
// complementarity coupling, followed by clamping y and lam away from the
// boundary so the very first centered step has somewhere to go.
func (s *IpSolver) startNocedal() error {
	for i := range s.x {
		s.x[i] = 1
	}
	for i := range s.lam {
		s.lam[i] = 1
	}
	s.A.MatMultiply(s.x, s.y)
	for i := range s.y {
		s.y[i] -= s.b[i]
	}
	s.fullUpdateResidual()

	s.refreshAndFactor()
	s.layout.buildRHS(s, 0, false)
	if st := s.solveBigMat(); st != nil {
		return st
	}
	s.layout.extract(s)

	for i := range s.y {
		s.y[i] += s.Dy[i]
		s.lam[i] += s.Dlam[i]
	}
	clampBelow(s.y, 1)
	clampBelow(s.lam, 1)
	return nil
}

// startNocedalWarmStart runs the plain Nocedal start, then, only when
// WarmStart is enabled and the previous call solved a problem of the same
// shape, compares the two candidate states by complementarity measure and
// keeps whichever is smaller: a cheaply reused previous solution is often
// already closer to the new one than a cold restart.
func (s *IpSolver) startNocedalWarmStart() error {
	if err := s.startNocedal(); err != nil {
		return err
	}
	if !s.opts.WarmStart || !s.havePrev || s.prevN != s.n || s.prevM != s.m {
		return nil
	}
	coldMu := dot(s.y, s.lam) / float64(s.m)
	warmMu := dot(s.prevY, s.prevLam) / float64(s.m)
	if warmMu < coldMu {
		copy(s.x, s.prevX)
		copy(s.y, s.prevY)
		copy(s.lam, s.prevLam)
	}
	return nil
}

// startSTP1 is a feasibility-ratio uniform scaling start: x is left at
// zero, y is set to the constraint violation at x=0 floored to keep every
// entry strictly positive, and lam is scaled by the average feasibility
// ratio over all m rows so that mu = yᵀlam/m starts at a moderate, row-count
// independent value. No affine solve is performed.
func (s *IpSolver) startSTP1() {
	for i := range s.x {
		s.x[i] = 0
	}
	for i := range s.b {
		s.y[i] = -s.b[i]
	}
	clampBelow(s.y, 1)

	var ratio float64
	for i := range s.y {
		ratio += s.y[i]
	}
	ratio /= float64(s.m)
	if ratio <= 0 {
		ratio = 1
	}
	for i := range s.lam {
		s.lam[i] = ratio
	}
}

// startSTP2 derives y directly from the constraint residual at x=0 and sets
// lam to its reciprocal, so that y∘lam starts at exactly 1 everywhere and
// no affine predictor solve is needed to seed mu.
func (s *IpSolver) startSTP2() {
	for i := range s.x {
		s.x[i] = 0
	}
	for i := range s.b {
		s.y[i] = -s.b[i]
	}
	clampBelow(s.y, 1e-2)
	for i := range s.y {
		s.lam[i] = 1 / s.y[i]
	}
}

// refreshAndFactor rebuilds BigMat's iteration-varying diagonal block and
// hands it to the engine for a fresh factorization.
func (s *IpSolver) refreshAndFactor() {
	s.layout.refreshDiagonal(s)
	s.engine.SetMatrix(s.BigMat)
}

// solveBigMat factors and solves the currently loaded BigMat/rhsSol pair,
// translating a non-OK engine status into ErrLinearEngine.
func (s *IpSolver) solveBigMat() error {
	if st := s.engine.Call(linsolve.AnalyzeFactorize); st != linsolve.OK {
		return linearEngineError("Factorize", int(st))
	}
	s.engine.SetRHS(s.rhsSol)
	if st := s.engine.Call(linsolve.Solve); st != linsolve.OK {
		return linearEngineError("Solve", int(st))
	}
	return nil
}

// iterate runs one predictor-corrector step: affine prediction, Mehrotra
// centering parameter, corrected step, step-length selection and the
// variable/residual updates for the next exit check.
func (s *IpSolver) iterate() error {
	s.refreshAndFactor()

	// Predictor (affine-scaling) direction.
	s.layout.buildRHS(s, 0, false)
	if err := s.solveBigMat(); err != nil {
		return err
	}
	s.layout.extract(s)
	alphaPredP := s.maxStepLength(s.y, s.Dy)
	alphaPredD := s.maxStepLength(s.lam, s.Dlam)
	if s.opts.EqualStepLength {
		a := math.Min(alphaPredP, alphaPredD)
		alphaPredP, alphaPredD = a, a
	}

	muPred := predictedMu(s.y, s.Dy, s.lam, s.Dlam, alphaPredP, alphaPredD) / float64(s.m)
	sigma := 0.0
	if !s.opts.OnlyPredict {
		ratio := muPred / s.mu
		sigma = ratio * ratio * ratio
	}

	// Corrector: re-solve with the same factorization for the centered and
	// second-order-corrected RHS.
	s.layout.buildRHS(s, sigma, true)
	s.engine.SetRHS(s.rhsSol)
	if st := s.engine.Call(linsolve.Solve); st != linsolve.OK {
		return linearEngineError("Solve", int(st))
	}
	s.layout.extract(s)

	eta := fixedEta
	if s.opts.AdaptiveEta {
		eta = math.Exp(-s.mu*float64(s.m))*0.1 + 0.9
	}
	s.alphaP = eta * s.maxStepLength(s.y, s.Dy)
	s.alphaD = eta * s.maxStepLength(s.lam, s.Dlam)
	if s.opts.EqualStepLength {
		a := math.Min(s.alphaP, s.alphaD)
		s.alphaP, s.alphaD = a, a
	}

	for i := range s.x {
		s.x[i] += s.alphaP * s.Dx[i]
	}
	for i := range s.y {
		s.y[i] += s.alphaP * s.Dy[i]
	}
	for i := range s.lam {
		s.lam[i] += s.alphaD * s.Dlam[i]
	}

	s.fullUpdateResidual()
	return nil
}

// maxStepLength returns the largest alpha in (0, 1] keeping v+alpha*d
// non-negative component-wise, per the standard interior-point ratio test;
// callers scale it by eta to stay strictly inside.
func (s *IpSolver) maxStepLength(v, d []float64) float64 {
	alpha := 1.0
	for i := range v {
		if d[i] < 0 {
			if a := -v[i] / d[i]; a < alpha {
				alpha = a
			}
		}
	}
	return alpha
}

// predictedMu evaluates (y+alphaP*Dy)ᵀ(lam+alphaD*Dlam), the complementarity
// measure the affine step would reach if taken in full, used only to form
// Mehrotra's centering parameter.
func predictedMu(y, dy, lam, dlam []float64, alphaP, alphaD float64) float64 {
	var mu float64
	for i := range y {
		mu += (y[i] + alphaP*dy[i]) * (lam[i] + alphaD*dlam[i])
	}
	return mu
}

// fixedEta is the step-length damping factor used when AdaptiveEta is off.
const fixedEta = 0.95

func (s *IpSolver) checkExitConditions() bool {
	r := Residuals{
		RpNorm: norm(s.rp) / float64(s.m),
		RdNorm: norm(s.rd) / float64(s.n),
		Mu:     s.mu,
	}
	return r.Feasible(s.opts.RpTol, s.opts.RdTol, s.opts.MuTol)
}
