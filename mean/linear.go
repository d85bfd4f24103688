package mean

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

const badCols = "mean: design matrix column mismatch"

var _ gp.Mean = (*Linear)(nil)

// Linear is the fixed-effect mean X·β. The design matrix is bound per
// purpose; the betas, one variable "beta<i>" per column, are free by
// default and shared by every purpose.
type Linear struct {
	betas []float64
	vars  *hyper.Vars
	data  map[hyper.Purpose]mat.Matrix
}

// NewLinear returns a linear mean with ncols coefficients, all zero.
func NewLinear(ncols int) *Linear {
	if ncols <= 0 {
		panic(badSize)
	}
	m := &Linear{
		betas: make([]float64, ncols),
		data:  make(map[hyper.Purpose]mat.Matrix),
	}
	vs := make([]hyper.Var, ncols)
	for i := range vs {
		vs[i] = hyper.Var{Name: "beta" + strconv.Itoa(i), Val: &m.betas[i]}
	}
	m.vars = hyper.NewVars(vs...)
	return m
}

// SetData binds the design matrix under purpose p. The matrix is
// referenced, not copied, and its column count must match the number of
// coefficients.
func (m *Linear) SetData(x mat.Matrix, p hyper.Purpose) {
	if !p.Valid() {
		panic(badPurpose)
	}
	if _, c := x.Dims(); c != len(m.betas) {
		panic(badCols)
	}
	m.data[p] = x
}

// UnsetData drops the binding under purpose p only.
func (m *Linear) UnsetData(p hyper.Purpose) {
	delete(m.data, p)
}

// Betas returns a copy of the current coefficients.
func (m *Linear) Betas() []float64 {
	b := make([]float64, len(m.betas))
	copy(b, m.betas)
	return b
}

// SetBetas overwrites the coefficients.
func (m *Linear) SetBetas(b []float64) {
	if len(b) != len(m.betas) {
		panic(badCols)
	}
	copy(m.betas, b)
}

// Variables returns the owned variable set.
func (m *Linear) Variables() *hyper.Vars { return m.vars }

// Data returns the evaluation handle for purpose p.
func (m *Linear) Data(p hyper.Purpose) gp.MeanData {
	x, ok := m.data[p]
	if !ok {
		panic(noData + p.String())
	}
	return &linearData{m: m, x: x}
}

type linearData struct {
	m *Linear
	x mat.Matrix
}

func (d *linearData) Value() []float64 {
	r, _ := d.x.Dims()
	v := mat.NewVecDense(r, nil)
	v.MulVec(d.x, mat.NewVecDense(len(d.m.betas), d.m.betas))
	return v.RawVector().Data
}

// Gradient reports the design column for each free beta, in declared
// order.
func (d *linearData) Gradient() [][]float64 {
	r, _ := d.x.Dims()
	var g [][]float64
	for i := 0; i < d.m.vars.Len(); i++ {
		if d.m.vars.At(i).Fixed {
			continue
		}
		col := make([]float64, r)
		mat.Col(col, i, d.x)
		g = append(g, col)
	}
	return g
}
