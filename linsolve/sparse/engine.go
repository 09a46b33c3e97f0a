// Package sparse implements linsolve.Engine directly on top of csr.Matrix:
// partial-pivot Gaussian elimination producing L/U factors, read through
// GetElement so fill-in during elimination is handled the same way as any
// other structural write to a Matrix.
package sparse

import (
	"math"

	"contactqp/csr"
	"contactqp/linsolve"
)

// Engine is a sparse LU linsolve.Engine operating on a csr.Matrix. The
// source matrix is read-only; only the caller's RHS buffer is mutated
// during Solve, matching the borrowing rule a LinearEngine must honor.
type Engine struct {
	source   *csr.Matrix
	n        int
	l, u     *csr.Matrix
	perm     []int
	rhs      []float64
	factored bool
}

// NewEngine returns a ready-to-use sparse engine.
func NewEngine() *Engine { return &Engine{} }

// SetMatrix registers the CSR matrix to factor. It is read-only until the
// next SetMatrix call.
func (e *Engine) SetMatrix(m *csr.Matrix) {
	e.source = m
	e.n = m.Rows()
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
		e.l, e.u, e.perm, e.factored = nil, nil, nil, false
		return linsolve.OK
	default:
		return linsolve.Status(-1)
	}
}

// factorize copies the source matrix into a working U and builds L
// alongside it via partial-pivot Gaussian elimination.
func (e *Engine) factorize() linsolve.Status {
	n := e.n
	u := csr.NewMatrix(n, n, e.source.GetNNZ(), csr.Options{RowMajor: true})
	e.source.ForEachExistentValue(func(row, col int, v *float64) {
		u.SetElement(row, col, *v, true)
	})
	l := csr.NewMatrix(n, n, n, csr.Options{RowMajor: true})
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}

	for k := 0; k < n; k++ {
		pivotRow := k
		best := math.Abs(u.GetElement(k, k))
		for i := k + 1; i < n; i++ {
			if v := math.Abs(u.GetElement(i, k)); v > best {
				best, pivotRow = v, i
			}
		}
		if best == 0 {
			return linsolve.Status(1)
		}
		if pivotRow != k {
			swapRows(u, k, pivotRow, n)
			swapRows(l, k, pivotRow, n)
			perm[k], perm[pivotRow] = perm[pivotRow], perm[k]
		}
		pivotVal := u.GetElement(k, k)
		for i := k + 1; i < n; i++ {
			factor := u.GetElement(i, k) / pivotVal
			if factor == 0 {
				continue
			}
			l.SetElement(i, k, factor, true)
			for j := k; j < n; j++ {
				uv := u.GetElement(k, j)
				if uv == 0 {
					continue
				}
				u.SetElement(i, j, -factor*uv, false)
			}
		}
	}
	for i := 0; i < n; i++ {
		l.SetElement(i, i, 1, true)
	}
	e.l, e.u, e.perm, e.factored = l, u, perm, true
	return linsolve.OK
}

// swapRows exchanges two rows of m. Zeros are written explicitly rather
// than left as gaps, trading a little sparsity for the simplicity of not
// needing a delete operation.
func swapRows(m *csr.Matrix, a, b, n int) {
	ra := make([]float64, n)
	rb := make([]float64, n)
	for j := 0; j < n; j++ {
		ra[j] = m.GetElement(a, j)
		rb[j] = m.GetElement(b, j)
	}
	for j := 0; j < n; j++ {
		m.SetElement(a, j, rb[j], true)
		m.SetElement(b, j, ra[j], true)
	}
}

// solve runs forward/back substitution against L and U, writing the result
// back into e.rhs in place.
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
			sum -= e.l.GetElement(i, j) * y[j]
		}
		y[i] = sum
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		sum := y[i]
		for j := i + 1; j < n; j++ {
			sum -= e.u.GetElement(i, j) * x[j]
		}
		x[i] = sum / e.u.GetElement(i, i)
	}
	copy(e.rhs, x)
	return linsolve.OK
}
