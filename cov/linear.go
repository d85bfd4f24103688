package cov

import (
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

var _ gp.Cov = (*Linear)(nil)

// Linear is the dot-product covariance s·X·Xᵀ. The Gram matrix is
// computed once per binding and cached; only the scale changes during
// learning.
type Linear struct {
	scaled
}

// NewLinear returns a linear covariance with scale 1.
func NewLinear() *Linear {
	c := &Linear{}
	c.init()
	return c
}

// SetData binds the design matrix x under purpose p, caching the
// symmetric Gram matrix X·Xᵀ.
func (c *Linear) SetData(x mat.Matrix, p hyper.Purpose) {
	r, _ := x.Dims()
	gram := mat.NewSymDense(r, nil)
	gram.SymOuterK(1, x)
	c.bind(gram, p)
}

// SetCrossData binds the pair (xa, xb) under purpose p, caching the
// rectangular cross product Xa·Xbᵀ. Used for the transient
// learn-predict purpose.
func (c *Linear) SetCrossData(xa, xb mat.Matrix, p hyper.Purpose) {
	ra, _ := xa.Dims()
	rb, _ := xb.Dims()
	gram := mat.NewDense(ra, rb, nil)
	gram.Mul(xa, xb.T())
	c.bind(gram, p)
}
