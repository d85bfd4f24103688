package mean

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/hyper"
)

func TestOffsetValue(t *testing.T) {
	m := NewOffset(0.5)
	m.SetSize(4, hyper.Learn)

	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, m.Data(hyper.Learn).Value())

	m.SetOffset(1.25)
	assert.Equal(t, []float64{1.25, 1.25, 1.25, 1.25}, m.Data(hyper.Learn).Value())
}

func TestOffsetGradient(t *testing.T) {
	m := NewOffset(0)
	m.SetSize(3, hyper.Learn)

	grad := m.Data(hyper.Learn).Gradient()
	require.Len(t, grad, 1)
	assert.Equal(t, []float64{1, 1, 1}, grad[0])

	m.Variables().Fix("offset")
	assert.Empty(t, m.Data(hyper.Learn).Gradient())
}

func TestOffsetVariablesWriteThrough(t *testing.T) {
	m := NewOffset(0.5)
	m.SetSize(2, hyper.Learn)

	vars := m.Variables()
	require.Equal(t, []string{"offset"}, vars.Names())
	assert.Equal(t, 0.5, vars.Value("offset"))

	vars.SetValues([]float64{2.5})
	assert.Equal(t, 2.5, m.Offset())
	assert.Equal(t, []float64{2.5, 2.5}, m.Data(hyper.Learn).Value())
}

func TestOffsetPurposesAreIndependent(t *testing.T) {
	m := NewOffset(1)
	m.SetSize(3, hyper.Learn)
	m.SetSize(2, hyper.Predict)

	assert.Len(t, m.Data(hyper.Learn).Value(), 3)
	assert.Len(t, m.Data(hyper.Predict).Value(), 2)

	m.UnsetData(hyper.Learn)
	assert.Panics(t, func() { m.Data(hyper.Learn) })
	assert.Len(t, m.Data(hyper.Predict).Value(), 2)
}

func TestOffsetPanics(t *testing.T) {
	m := NewOffset(0)
	assert.PanicsWithValue(t, noData+"learn", func() { m.Data(hyper.Learn) })
	assert.PanicsWithValue(t, badSize, func() { m.SetSize(0, hyper.Learn) })
	assert.PanicsWithValue(t, badPurpose, func() { m.SetSize(3, hyper.Purpose(99)) })
}

func TestLinearValue(t *testing.T) {
	x := mat.NewDense(2, 3, []float64{
		1, 0, 2,
		0, 1, -1,
	})

	m := NewLinear(3)
	m.SetData(x, hyper.Learn)
	m.SetBetas([]float64{0.5, 2, 1})

	assert.Equal(t, []float64{2.5, 1}, m.Data(hyper.Learn).Value())
}

func TestLinearGradient(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{
		1, 3,
		2, 4,
	})

	m := NewLinear(2)
	m.SetData(x, hyper.Learn)

	grad := m.Data(hyper.Learn).Gradient()
	require.Len(t, grad, 2)
	assert.Equal(t, []float64{1, 2}, grad[0])
	assert.Equal(t, []float64{3, 4}, grad[1])

	// Fixing a coefficient drops its column, keeping declared order
	// for the rest.
	m.Variables().Fix("beta0")
	grad = m.Data(hyper.Learn).Gradient()
	require.Len(t, grad, 1)
	assert.Equal(t, []float64{3, 4}, grad[0])
}

func TestLinearBetas(t *testing.T) {
	m := NewLinear(2)
	require.Equal(t, []string{"beta0", "beta1"}, m.Variables().Names())

	m.SetBetas([]float64{1.5, -0.5})
	got := m.Betas()
	assert.Equal(t, []float64{1.5, -0.5}, got)

	// Accessors copy; the model keeps its own storage.
	got[0] = 99
	assert.Equal(t, []float64{1.5, -0.5}, m.Betas())

	assert.Equal(t, 1.5, m.Variables().Value("beta0"))
}

func TestLinearPanics(t *testing.T) {
	m := NewLinear(3)
	assert.PanicsWithValue(t, badCols, func() {
		m.SetData(mat.NewDense(2, 2, nil), hyper.Learn)
	})
	assert.PanicsWithValue(t, noData+"predict", func() { m.Data(hyper.Predict) })
	assert.Panics(t, func() { m.SetBetas([]float64{1}) })
}
