package descriptor

import (
	"testing"

	"github.com/stretchr/testify/require"

	"contactqp/csr"
)

func TestDenseSystemCounts(t *testing.T) {
	d := NewDenseSystem(
		[][]float64{{1, 0}, {0, 1}},
		[][]float64{{1, 0}, {0, 1}},
		[]float64{-1, -1},
		[]float64{0, 0},
	)
	require.Equal(t, 2, d.CountActiveVariables())
	require.Equal(t, 2, d.CountActiveConstraints(false, false))
}

func TestDenseSystemAssemblesMatrixForm(t *testing.T) {
	d := NewDenseSystem(
		[][]float64{{2, 0}, {0, 3}},
		[][]float64{{1, 0}, {0, 1}},
		[]float64{4, 6},
		[]float64{0, 0},
	)
	g := csr.NewMatrix(2, 2, 0, csr.Options{RowMajor: true})
	a := csr.NewMatrix(2, 2, 0, csr.Options{RowMajor: true})
	c := make([]float64, 2)
	b := make([]float64, 2)
	out := &MatrixForm{G: g, A: a, C: c, B: b}
	require.NoError(t, d.ConvertToMatrixForm(out, false, false))

	require.Equal(t, 2.0, g.GetElement(0, 0))
	require.Equal(t, 3.0, g.GetElement(1, 1))
	require.Equal(t, 1.0, a.GetElement(0, 0))
	require.Equal(t, []float64{4, 6}, c)
	require.Equal(t, []float64{0, 0}, b)
}

func TestDenseSystemSkipsContactTangentRows(t *testing.T) {
	d := NewDenseSystem(
		[][]float64{{1, 0}, {0, 1}},
		[][]float64{
			{1, 0}, // contact 0 normal
			{0, 1}, // contact 0 tangent u
			{0, 0}, // contact 0 tangent v
			{1, 1}, // contact 1 normal
			{1, 0}, // contact 1 tangent u
			{0, 1}, // contact 1 tangent v
		},
		[]float64{0, 0},
		[]float64{1, 2, 3, 4, 5, 6},
	)
	d.ContactStride = 3

	require.Equal(t, 6, d.CountActiveConstraints(false, false))
	require.Equal(t, 2, d.CountActiveConstraints(false, true))

	a := csr.NewMatrix(2, 2, 0, csr.Options{RowMajor: true})
	b := make([]float64, 2)
	out := &MatrixForm{A: a, B: b}
	require.NoError(t, d.ConvertToMatrixForm(out, false, true))
	require.Equal(t, []float64{1, 4}, b)
	require.Equal(t, 1.0, a.GetElement(1, 0))
	require.Equal(t, 1.0, a.GetElement(1, 1))
}

func TestDenseSystemFromVectorStoresWhateverItIsGiven(t *testing.T) {
	d := &DenseSystem{
		G: [][]float64{{1, 0}, {0, 1}},
		A: [][]float64{{1, 0}, {0, 1}, {0, 0}},
		C: []float64{0, 0},
		B: []float64{0, 0, 0},
	}
	sol := []float64{10, 20, -5, 0, 0}
	d.FromVectorToUnknowns(sol)
	require.Equal(t, []float64{10, 20}, d.X())
	require.Equal(t, []float64{-5, 0, 0}, d.Lagrangian())
}
