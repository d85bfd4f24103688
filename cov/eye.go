package cov

import (
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

var _ gp.Cov = (*Eye)(nil)

// Eye is the identity-by-item covariance: entry (i, j) is the scale
// when the i-th and j-th bound items are the same and zero otherwise.
// With distinct items it is s·I, the usual noise term.
type Eye struct {
	scaled
}

// NewEye returns an identity covariance with scale 1.
func NewEye() *Eye {
	c := &Eye{}
	c.init()
	return c
}

// Items returns the item list 0..n-1, the common case of n distinct
// samples.
func Items(n int) []int {
	items := make([]int, n)
	for i := range items {
		items[i] = i
	}
	return items
}

// SetData binds the item list under purpose p.
func (c *Eye) SetData(items []int, p hyper.Purpose) {
	if len(items) == 0 {
		panic(badItems)
	}
	n := len(items)
	base := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if items[i] == items[j] {
				base.SetSym(i, j, 1)
			}
		}
	}
	c.bind(base, p)
}

// SetCrossData binds the item pair (a, b) under purpose p.
func (c *Eye) SetCrossData(a, b []int, p hyper.Purpose) {
	if len(a) == 0 || len(b) == 0 {
		panic(badItems)
	}
	base := mat.NewDense(len(a), len(b), nil)
	for i, ai := range a {
		for j, bj := range b {
			if ai == bj {
				base.Set(i, j, 1)
			}
		}
	}
	c.bind(base, p)
}
