package cov

import (
	"strconv"

	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
)

var _ gp.Cov = (*Sum)(nil)

// Sum composes child covariances. Its value is the elementwise sum of
// the child values; its gradient concatenates the child gradients in
// child order. Children are bound individually by the caller.
type Sum struct {
	children []gp.Cov
}

// NewSum returns the sum of the given children.
func NewSum(children ...gp.Cov) *Sum {
	if len(children) == 0 {
		panic(noChildren)
	}
	return &Sum{children: children}
}

// Child returns the i-th child, for binding data or fixing variables.
func (c *Sum) Child(i int) gp.Cov { return c.children[i] }

// Variables merges the child sets, qualifying each name with the child
// index ("0.logscale"). The merged set shares value storage with the
// children but carries flag copies: fix variables on the children
// themselves.
func (c *Sum) Variables() *hyper.Vars {
	groups := make([]hyper.Group, len(c.children))
	for i, child := range c.children {
		groups[i] = hyper.Group{Role: strconv.Itoa(i), Vars: child.Variables()}
	}
	return hyper.Merge(groups...)
}

// Data returns the evaluation handle for purpose p. Every child must
// have data bound under p.
func (c *Sum) Data(p hyper.Purpose) gp.CovData {
	handles := make([]gp.CovData, len(c.children))
	for i, child := range c.children {
		handles[i] = child.Data(p)
	}
	return &sumData{handles: handles}
}

type sumData struct {
	handles []gp.CovData
}

// Value sums the child values. Shape mismatches between children panic
// through the matrix addition.
func (d *sumData) Value() mat.Matrix {
	vals := make([]mat.Matrix, len(d.handles))
	allSym := true
	for i, h := range d.handles {
		vals[i] = h.Value()
		if _, ok := vals[i].(mat.Symmetric); !ok {
			allSym = false
		}
	}
	if allSym {
		n := vals[0].(mat.Symmetric).SymmetricDim()
		sum := mat.NewSymDense(n, nil)
		for _, v := range vals {
			sum.AddSym(sum, v.(mat.Symmetric))
		}
		return sum
	}
	r, cc := vals[0].Dims()
	sum := mat.NewDense(r, cc, nil)
	for _, v := range vals {
		sum.Add(sum, v)
	}
	return sum
}

func (d *sumData) Gradient() []mat.Matrix {
	var g []mat.Matrix
	for _, h := range d.handles {
		g = append(g, h.Gradient()...)
	}
	return g
}
