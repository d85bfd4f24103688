package cov

import (
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

var _ gp.Cov = (*Given)(nil)

// Given scales an externally supplied base matrix, typically a kinship
// matrix: K = s·K₀. Cross-purpose bindings supply the matching
// off-diagonal block of the same base.
type Given struct {
	scaled
}

// NewGiven returns a given-matrix covariance with scale 1.
func NewGiven() *Given {
	c := &Given{}
	c.init()
	return c
}

// SetData binds the base matrix under purpose p. The matrix is
// referenced, not copied: square purposes want a symmetric block, the
// learn-predict purpose the rectangular learn-by-predict block.
func (c *Given) SetData(k0 mat.Matrix, p hyper.Purpose) {
	c.bind(k0, p)
}
