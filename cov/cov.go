// Package cov provides covariance functions for the regression core.
// Each function owns its hyperparameters and binds data independently
// per purpose; evaluation handles report values and per-free-variable
// gradients in declared variable order. Square bindings produce
// symmetric values, cross bindings rectangular ones.
package cov

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

const (
	noData     = "cov: no data bound for purpose "
	badPurpose = "cov: invalid purpose"
	badScale   = "cov: nonpositive scale"
	badItems   = "cov: empty item list"
	noChildren = "cov: sum needs at least one child"
)

// scaled owns the log-space scale variable and the per-purpose base
// matrices shared by the concrete covariances. The reported value is
// exp(logscale) times the bound base; the derivative with respect to
// logscale is the value itself.
type scaled struct {
	logscale float64
	vars     *hyper.Vars
	bases    map[hyper.Purpose]mat.Matrix
}

func (c *scaled) init() {
	c.vars = hyper.NewVars(hyper.Var{Name: "logscale", Val: &c.logscale})
	c.bases = make(map[hyper.Purpose]mat.Matrix)
}

// Scale returns the current scale, exp(logscale).
func (c *scaled) Scale() float64 { return math.Exp(c.logscale) }

// SetScale sets the scale. Scales must be positive; the optimizer works
// on the unconstrained log.
func (c *scaled) SetScale(s float64) {
	if !(s > 0) {
		panic(badScale)
	}
	c.logscale = math.Log(s)
}

// Variables returns the owned variable set. Fixing "logscale" through
// it removes the scale from learning.
func (c *scaled) Variables() *hyper.Vars { return c.vars }

// UnsetData drops the binding under purpose p only.
func (c *scaled) UnsetData(p hyper.Purpose) {
	delete(c.bases, p)
}

func (c *scaled) bind(base mat.Matrix, p hyper.Purpose) {
	if !p.Valid() {
		panic(badPurpose)
	}
	c.bases[p] = base
}

// Data returns the evaluation handle for purpose p.
func (c *scaled) Data(p hyper.Purpose) gp.CovData {
	base, ok := c.bases[p]
	if !ok {
		panic(noData + p.String())
	}
	return &scaledData{c: c, base: base}
}

type scaledData struct {
	c    *scaled
	base mat.Matrix
}

func (d *scaledData) Value() mat.Matrix {
	return scaleMatrix(d.c.Scale(), d.base)
}

func (d *scaledData) Gradient() []mat.Matrix {
	if d.c.vars.At(0).Fixed {
		return nil
	}
	return []mat.Matrix{d.Value()}
}

// scaleMatrix returns s times base, keeping symmetry visible when base
// is symmetric.
func scaleMatrix(s float64, base mat.Matrix) mat.Matrix {
	if sym, ok := base.(mat.Symmetric); ok {
		var v mat.SymDense
		v.ScaleSym(s, sym)
		return &v
	}
	r, c := base.Dims()
	v := mat.NewDense(r, c, nil)
	v.Scale(s, base)
	return v
}
