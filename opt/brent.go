package opt

import (
	"fmt"
	"math"
)

// Constants of Brent's minimization algorithm. cgold is the golden
// section ratio (3-sqrt(5))/2, zeps protects the convergence test when
// the minimizer sits at zero.
const (
	cgold = 0.3819660112501051
	zeps  = 1e-12

	scalarSpan = 10.0 // half-width of the scalar search interval
	scalarTol  = 1e-8
	scalarIter = 200
)

// MaximizeScalar drives the single free variable of o to a local
// maximum with a bracketing Brent search over value alone, leaving the
// optimized value in the owning object. The search interval is centered
// on the variable's current value. An error is returned only when no
// finite objective value was found anywhere in the interval.
func MaximizeScalar(o Objective) error {
	vars := o.Variables()
	if vars.Len() != 1 {
		panic(notScalar)
	}
	x0 := vars.Values()[0]
	f := func(x float64) float64 {
		vars.SetValues([]float64{x})
		return -o.Value()
	}
	x, fx := brentMin(f, x0-scalarSpan, x0+scalarSpan)
	if math.IsNaN(fx) || math.IsInf(fx, 0) {
		return fmt.Errorf("opt: maximize scalar: no finite objective value near %v", x0)
	}
	vars.SetValues([]float64{x})
	return nil
}

// brentMin locates a minimum of f inside [a, b] by Brent's method,
// alternating parabolic interpolation with golden-section steps.
func brentMin(f func(float64) float64, a, b float64) (xmin, fmin float64) {
	x := a + cgold*(b-a)
	w, v := x, x
	fx := f(x)
	fw, fv := fx, fx

	var d, e float64
	for iter := 0; iter < scalarIter; iter++ {
		m := 0.5 * (a + b)
		tol1 := scalarTol*math.Abs(x) + zeps
		tol2 := 2 * tol1
		if math.Abs(x-m) <= tol2-0.5*(b-a) {
			break
		}

		golden := true
		if math.Abs(e) > tol1 {
			// Try a parabola through x, v, w.
			r := (x - w) * (fx - fv)
			q := (x - v) * (fx - fw)
			p := (x-v)*q - (x-w)*r
			q = 2 * (q - r)
			if q > 0 {
				p = -p
			}
			q = math.Abs(q)
			etmp := e
			e = d
			if math.Abs(p) < math.Abs(0.5*q*etmp) && p > q*(a-x) && p < q*(b-x) {
				d = p / q
				u := x + d
				if u-a < tol2 || b-u < tol2 {
					d = math.Copysign(tol1, m-x)
				}
				golden = false
			}
		}
		if golden {
			if x < m {
				e = b - x
			} else {
				e = a - x
			}
			d = cgold * e
		}

		var u float64
		if math.Abs(d) >= tol1 {
			u = x + d
		} else {
			u = x + math.Copysign(tol1, d)
		}
		fu := f(u)

		if fu <= fx {
			if u < x {
				b = x
			} else {
				a = x
			}
			v, fv = w, fw
			w, fw = x, fx
			x, fx = u, fu
		} else {
			if u < x {
				a = u
			} else {
				b = u
			}
			if fu <= fw || w == x {
				v, fv = w, fw
				w, fw = u, fu
			} else if fu <= fv || v == x || v == w {
				v, fv = u, fu
			}
		}
	}
	return x, fx
}
