// Package opt provides the scalar and multivariate maximizers the
// regression core dispatches to. Both entry points operate on ambient
// state: the current point is read from, and the optimum written back
// through, the objective's variable set.
package opt

import (
	"fmt"

	"gonum.org/v1/gonum/optimize"

	"github.com/glimix/lim/hyper"
)

const (
	noFreeVars    = "opt: no free variables"
	notScalar     = "opt: scalar maximizer needs exactly one free variable"
	badGradLength = "opt: gradient length mismatch"
)

// gradientTol is the convergence threshold on the gradient infinity
// norm of the negated objective.
const gradientTol = 1e-4

// Objective is a maximization target. Value and Gradient evaluate at
// the point currently stored in Variables; Gradient reports one partial
// per variable, in declaration order.
type Objective interface {
	Value() float64
	Gradient() []float64
	Variables() *hyper.Vars
}

// MaximizeArray drives all free variables of o jointly to a local
// maximum with a quasi-Newton method, leaving the optimized values in
// the owning objects. An error is returned only when the optimizer
// produced no usable point at all; stopping short of full convergence
// is not an error.
func MaximizeArray(o Objective) error {
	vars := o.Variables()
	dim := vars.Len()
	if dim == 0 {
		panic(noFreeVars)
	}
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			vars.SetValues(x)
			return -o.Value()
		},
		Grad: func(grad, x []float64) {
			vars.SetValues(x)
			g := o.Gradient()
			if len(g) != dim {
				panic(badGradLength)
			}
			for i, v := range g {
				grad[i] = -v
			}
		},
	}
	settings := &optimize.Settings{GradientThreshold: gradientTol}
	result, err := optimize.Minimize(problem, vars.Values(), settings, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("opt: maximize array: %w", err)
	}
	vars.SetValues(result.Location.X)
	return nil
}
