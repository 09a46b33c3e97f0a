package sparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contactqp/csr"
	"contactqp/linsolve"
)

func TestEngineSolvesSimpleSystem(t *testing.T) {
	m := csr.NewMatrix(2, 2, 4, csr.Options{RowMajor: true})
	m.SetElement(0, 0, 2, true)
	m.SetElement(0, 1, 1, true)
	m.SetElement(1, 0, 1, true)
	m.SetElement(1, 1, 3, true)

	e := NewEngine()
	e.SetMatrix(m)
	rhs := []float64{5, 10}
	e.SetRHS(rhs)

	require.Equal(t, linsolve.OK, e.Call(linsolve.FactorizeSolve))
	require.InDelta(t, 1.0, rhs[0], 1e-9)
	require.InDelta(t, 3.0, rhs[1], 1e-9)
}

func TestEngineMatchesDenseOnLargerSystem(t *testing.T) {
	dense := [][]float64{
		{4, -2, 1, 0},
		{-2, 4, -2, 1},
		{1, -2, 4, -2},
		{0, 1, -2, 4},
	}
	m := csr.NewMatrix(4, 4, 0, csr.Options{RowMajor: true})
	for i, row := range dense {
		for j, v := range row {
			if v != 0 {
				m.SetElement(i, j, v, true)
			}
		}
	}
	e := NewEngine()
	e.SetMatrix(m)
	rhs := []float64{1, 2, 3, 4}
	e.SetRHS(rhs)
	require.Equal(t, linsolve.OK, e.Call(linsolve.FactorizeSolve))

	residual := make([]float64, 4)
	for i, row := range dense {
		var acc float64
		for j, v := range row {
			acc += v * rhs[j]
		}
		residual[i] = acc
	}
	want := []float64{1, 2, 3, 4}
	for i := range want {
		require.InDelta(t, want[i], residual[i], 1e-9)
	}
}

func TestEngineSurvivesRowSwap(t *testing.T) {
	m := csr.NewMatrix(2, 2, 4, csr.Options{RowMajor: true})
	m.SetElement(0, 1, 1, true)
	m.SetElement(1, 0, 1, true)

	e := NewEngine()
	e.SetMatrix(m)
	rhs := []float64{2, 1}
	e.SetRHS(rhs)

	require.Equal(t, linsolve.OK, e.Call(linsolve.FactorizeSolve))
	require.InDelta(t, 1.0, rhs[0], 1e-9)
	require.InDelta(t, 2.0, rhs[1], 1e-9)
}
