package ipsolve

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contactqp/descriptor"
	"contactqp/iplog"
	"contactqp/linsolve/dense"
)

// boxQP is minimize 1/2 xᵀx subject to x >= lo componentwise: an identity
// Hessian with a simple active box, small enough to trace by hand. The
// descriptor's b is -lo because IpSolver negates b on load.
func boxQP(lo []float64) *descriptor.DenseSystem {
	n := len(lo)
	g := make([][]float64, n)
	a := make([][]float64, n)
	c := make([]float64, n)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		g[i] = make([]float64, n)
		a[i] = make([]float64, n)
		g[i][i] = 1
		a[i][i] = 1
		b[i] = -lo[i]
	}
	return descriptor.NewDenseSystem(g, a, c, b)
}

func TestSolveIdentityQPWithNoActiveBound(t *testing.T) {
	d := boxQP([]float64{-1, -1})
	s := New(dense.NewEngine(), Options{})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 0, res.X[0], 1e-5)
	require.InDelta(t, 0, res.X[1], 1e-5)
}

func TestSolveIdentityQPWithActiveBound(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 1, res.X[0], 1e-5)
	require.InDelta(t, 1, res.X[1], 1e-5)
}

func TestSolveUnconstrainedFastPath(t *testing.T) {
	// IpSolver negates the descriptor's C on load (solver.go's assemble),
	// so a positive descriptor C here produces a positive optimum.
	g := [][]float64{{2, 0}, {0, 2}}
	c := []float64{4, 6}
	d := descriptor.NewDenseSystem(g, nil, c, nil)
	s := New(dense.NewEngine(), Options{})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.Equal(t, 0, res.Iterations)
	require.InDelta(t, 2, res.X[0], 1e-9)
	require.InDelta(t, 3, res.X[1], 1e-9)
}

func TestSolveStandardLayoutMatchesAugmented(t *testing.T) {
	d1 := boxQP([]float64{1, 1})
	d2 := boxQP([]float64{1, 1})
	aug, err := New(dense.NewEngine(), Options{}).Solve(d1)
	require.NoError(t, err)
	std, err := New(dense.NewEngine(), Options{KKTMethod: KKTStandard}).Solve(d2)
	require.NoError(t, err)
	require.InDelta(t, aug.X[0], std.X[0], 1e-5)
	require.InDelta(t, aug.X[1], std.X[1], 1e-5)
}

func TestSolveRejectsNormalLayout(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{KKTMethod: KKTNormal})
	_, err := s.Solve(d)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestSolveReportsNonConvergenceWithoutCrashing(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{IterMax: 1})
	res, err := s.Solve(d)
	require.ErrorIs(t, err, ErrNonConvergence)
	require.False(t, res.Converged)
	require.Len(t, res.X, 2)
}

func TestSolveEndsWithYAndLamPositive(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{})
	_, err := s.Solve(d)
	require.NoError(t, err)
	for i, v := range s.y {
		require.Greaterf(t, v, 0.0, "y[%d] went non-positive", i)
	}
	for i, v := range s.lam {
		require.Greaterf(t, v, 0.0, "lam[%d] went non-positive", i)
	}
}

func TestSolveSatisfiesKKTAtConvergence(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Residuals.Feasible(1e-6, 1e-6, 1e-6))
	for i := range s.y {
		require.InDelta(t, 0, s.y[i]*s.lam[i], 1e-6)
	}
}

func TestSolveWithSTP1StartingPoint(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{StartingPoint: StartSTP1})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 1, res.X[0], 1e-5)
}

func TestSolveWithSTP2StartingPoint(t *testing.T) {
	d := boxQP([]float64{1, 1})
	s := New(dense.NewEngine(), Options{StartingPoint: StartSTP2})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 1, res.X[0], 1e-5)
}

func TestSolveWarmStartReusesPreviousIterate(t *testing.T) {
	s := New(dense.NewEngine(), Options{StartingPoint: StartNocedalWarmStart, WarmStart: true})
	d1 := boxQP([]float64{1, 1})
	_, err := s.Solve(d1)
	require.NoError(t, err)

	d2 := boxQP([]float64{1.001, 1.001})
	res, err := s.Solve(d2)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 1.001, res.X[0], 1e-4)
}

func TestSolveDropsWarmStateOnShapeChange(t *testing.T) {
	s := New(dense.NewEngine(), Options{StartingPoint: StartNocedalWarmStart, WarmStart: true})
	_, err := s.Solve(boxQP([]float64{1, 1}))
	require.NoError(t, err)

	d2 := boxQP([]float64{1, 1, 1})
	res, err := s.Solve(d2)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.Len(t, res.X, 3)
}

func TestMuDecreasesMonotonically(t *testing.T) {
	d := boxQP([]float64{1, 1})
	logger := &recordingLogger{}
	s := New(dense.NewEngine(), Options{Logger: logger})
	_, err := s.Solve(d)
	require.NoError(t, err)
	for i := 1; i < len(logger.records); i++ {
		require.LessOrEqualf(t, logger.records[i].Mu, logger.records[i-1].Mu*1.01,
			"mu increased at iteration %d", i)
	}
}

func TestSolveEmitsLagrangianTripletsWhenSkippingContactsUV(t *testing.T) {
	g := [][]float64{{1, 0}, {0, 1}}
	a := [][]float64{
		{1, 0}, // contact normal
		{0, 1}, // tangent u
		{0, 0}, // tangent v
	}
	b := []float64{1, 0, 0}
	c := []float64{0, 0}
	d := &descriptor.DenseSystem{G: g, A: a, C: c, B: b, ContactStride: 3}
	s := New(dense.NewEngine(), Options{SkipContactsUV: true})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.Len(t, res.Lagrangian, 3)
	require.Equal(t, 0.0, res.Lagrangian[1])
	require.Equal(t, 0.0, res.Lagrangian[2])
}

func TestSolveWithNormalizedConstraintRows(t *testing.T) {
	g := [][]float64{{1, 0}, {0, 1}}
	a := [][]float64{{2, 0}, {0, 2}}
	b := []float64{-2, -2} // 2x >= 2 after IpSolver negates b
	c := []float64{0, 0}
	d := descriptor.NewDenseSystem(g, a, c, b)
	s := New(dense.NewEngine(), Options{NormalizeConstraintRows: true})
	res, err := s.Solve(d)
	require.NoError(t, err)
	require.True(t, res.Converged)
	require.InDelta(t, 1, res.X[0], 1e-5)
	require.InDelta(t, 1, res.X[1], 1e-5)
}

type recordingLogger struct {
	records []iplog.Record
}

func (l *recordingLogger) Log(r iplog.Record) {
	l.records = append(l.records, r)
}
