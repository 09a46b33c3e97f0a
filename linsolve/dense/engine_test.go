package dense

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contactqp/csr"
	"contactqp/linsolve"
)

func TestEngineSolvesSimpleSystem(t *testing.T) {
	// [2 1; 1 3] x = [5; 10] -> x = [1, 3]
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

func TestEngineRequiresPivoting(t *testing.T) {
	// [0 1; 1 0] x = [2; 1] -> x = [1, 2]
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

func TestEngineReportsSingularMatrix(t *testing.T) {
	m := csr.NewMatrix(2, 2, 0, csr.Options{RowMajor: true})
	e := NewEngine()
	e.SetMatrix(m)
	require.NotEqual(t, linsolve.OK, e.Call(linsolve.Factorize))
}
