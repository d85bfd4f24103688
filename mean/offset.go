// Package mean provides mean functions for the regression core. Each
// function owns its hyperparameters and binds data independently per
// purpose; evaluation handles report values and per-free-variable
// gradients in declared variable order.
package mean

import (
	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

const (
	noData     = "mean: no data bound for purpose "
	badSize    = "mean: nonpositive size"
	badPurpose = "mean: invalid purpose"
)

var _ gp.Mean = (*Offset)(nil)

// Offset is a constant mean. Its single variable "offset" is shared by
// every purpose; a binding carries only the vector length.
type Offset struct {
	offset float64
	vars   *hyper.Vars
	sizes  map[hyper.Purpose]int
}

// NewOffset returns a constant mean starting at the given offset.
func NewOffset(offset float64) *Offset {
	m := &Offset{offset: offset, sizes: make(map[hyper.Purpose]int)}
	m.vars = hyper.NewVars(hyper.Var{Name: "offset", Val: &m.offset})
	return m
}

// SetSize binds the mean length under purpose p. Bindings under other
// purposes are unaffected.
func (m *Offset) SetSize(n int, p hyper.Purpose) {
	if !p.Valid() {
		panic(badPurpose)
	}
	if n <= 0 {
		panic(badSize)
	}
	m.sizes[p] = n
}

// UnsetData drops the binding under purpose p only.
func (m *Offset) UnsetData(p hyper.Purpose) {
	delete(m.sizes, p)
}

// Offset returns the current offset value.
func (m *Offset) Offset() float64 { return m.offset }

// SetOffset sets the offset value.
func (m *Offset) SetOffset(v float64) { m.offset = v }

// Variables returns the owned variable set. Fixing "offset" through it
// removes the offset from learning.
func (m *Offset) Variables() *hyper.Vars { return m.vars }

// Data returns the evaluation handle for purpose p.
func (m *Offset) Data(p hyper.Purpose) gp.MeanData {
	n, ok := m.sizes[p]
	if !ok {
		panic(noData + p.String())
	}
	return &offsetData{m: m, n: n}
}

type offsetData struct {
	m *Offset
	n int
}

func (d *offsetData) Value() []float64 {
	v := make([]float64, d.n)
	for i := range v {
		v[i] = d.m.offset
	}
	return v
}

func (d *offsetData) Gradient() [][]float64 {
	if d.m.vars.At(0).Fixed {
		return nil
	}
	ones := make([]float64, d.n)
	for i := range ones {
		ones[i] = 1
	}
	return [][]float64{ones}
}
