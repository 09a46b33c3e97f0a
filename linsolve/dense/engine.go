// Package dense implements linsolve.Engine with a dense partial-pivot LU
// factorization. It exists for small or degenerate KKT systems and as an
// oracle the sparse engine's tests can check against.
package dense

import (
	"math"

	"contactqp/csr"
	"contactqp/linsolve"
)

// Engine is a dense LU linsolve.Engine. The zero value is ready to use.
type Engine struct {
	n        int
	a        [][]float64
	lu       [][]float64
	perm     []int
	rhs      []float64
	factored bool
}

// NewEngine returns a ready-to-use dense engine.
func NewEngine() *Engine { return &Engine{} }

// SetMatrix copies m into a dense n x n working array. m is read-only.
func (e *Engine) SetMatrix(m *csr.Matrix) {
	n := m.Rows()
	a := make([][]float64, n)
	for i := range a {
		a[i] = make([]float64, n)
	}
	m.ForEachExistentValue(func(row, col int, v *float64) {
		a[row][col] = *v
	})
	e.n = n
	e.a = a
	e.factored = false
}

// SetRHS registers the buffer Solve overwrites with the solution.
func (e *Engine) SetRHS(rhs []float64) { e.rhs = rhs }

// Call runs the requested job.
func (e *Engine) Call(job linsolve.Job) linsolve.Status {
	switch job {
	case linsolve.Analyze:
		return linsolve.OK
	case linsolve.Factorize, linsolve.AnalyzeFactorize:
		return e.factorize()
	case linsolve.Solve:
		return e.solve()
	case linsolve.FactorizeSolve:
		if st := e.factorize(); st != linsolve.OK {
			return st
		}
		return e.solve()
	case linsolve.End:
		e.lu, e.perm, e.factored = nil, nil, false
		return linsolve.OK
	default:
		return linsolve.Status(-1)
	}
}

// factorize performs Doolittle LU decomposition with partial pivoting,
// mirroring luDense.Decompose's row-swap bookkeeping.
func (e *Engine) factorize() linsolve.Status {
	n := e.n
	lu := make([][]float64, n)
	for i := range lu {
		lu[i] = append([]float64(nil), e.a[i]...)
	}
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for k := 0; k < n; k++ {
		pivot := k
		best := math.Abs(lu[k][k])
		for i := k + 1; i < n; i++ {
			if v := math.Abs(lu[i][k]); v > best {
				best, pivot = v, i
			}
		}
		if best == 0 {
			return linsolve.Status(1)
		}
		if pivot != k {
			lu[k], lu[pivot] = lu[pivot], lu[k]
			perm[k], perm[pivot] = perm[pivot], perm[k]
		}
		for i := k + 1; i < n; i++ {
			factor := lu[i][k] / lu[k][k]
			lu[i][k] = factor
			for j := k + 1; j < n; j++ {
				lu[i][j] -= factor * lu[k][j]
			}
		}
	}
	e.lu, e.perm, e.factored = lu, perm, true
	return linsolve.OK
}

// solve runs forward/back substitution against the stored factorization,
// writing the result back into e.rhs in place.
func (e *Engine) solve() linsolve.Status {
	if !e.factored {
		return linsolve.Status(2)
	}
	n := e.n
	b := make([]float64, n)
	for i, p := range e.perm {
		b[i] = e.rhs[p]
	}
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		sum := b[i]
		for j := 0; j < i; j++ {
			sum -= e.lu[i][j] * y[j]
		}
		y[i] = sum
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= e.lu[i][j] * x[j]
		}
		x[i] = sum / e.lu[i][i]
	}
	copy(e.rhs, x)
	return linsolve.OK
}
