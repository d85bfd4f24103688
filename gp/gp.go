// Package gp implements exact Gaussian-process regression: the log
// marginal likelihood of an observation vector under polymorphic mean
// and covariance functions, its analytic gradient, maximum-likelihood
// learning of the free hyperparameters, and posterior-mean prediction.
package gp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/hyper"
	"github.com/glimix/lim/opt"
)

const (
	emptyObservations = "gp: empty observation vector"
	nilFunction       = "gp: nil mean or covariance function"
	badDims           = "gp: dimension mismatch between y, mean, and covariance"
	notPosDef         = "gp: covariance not positive definite"
)

// ErrSingular is the panic value raised when the learn covariance is
// singular or near singular during a linear solve.
var ErrSingular = errors.New("gp: covariance matrix singular or near singular")

// GP composes a mean function and a covariance function over an
// observation vector. It stores references only: hyperparameter state
// lives in the mean and covariance objects, so Learn may be invoked
// repeatedly and a single instance must not be shared across
// goroutines that mutate it.
type GP struct {
	y    []float64
	mean Mean
	cov  Cov
}

// New returns a GP over y with the given mean and covariance functions.
// It stores references and performs no computation; dimensions are
// validated against the learn-purpose bindings when first used.
func New(y []float64, mean Mean, cov Cov) *GP {
	if len(y) == 0 {
		panic(emptyObservations)
	}
	if mean == nil || cov == nil {
		panic(nilFunction)
	}
	return &GP{y: y, mean: mean, cov: cov}
}

// learnState is one evaluation of the learn-purpose model: the
// factorized covariance, its log determinant, and the solve
// Kiym = K⁻¹(y−m) reused by the likelihood, the gradient, and
// prediction. x snapshots the free-variable values the state was
// computed at.
type learnState struct {
	x      []float64
	lu     mat.LU
	ym     []float64
	kiym   *mat.VecDense
	logdet float64
}

func (g *GP) newLearnState() *learnState {
	m := g.mean.Data(hyper.Learn).Value()
	k := g.cov.Data(hyper.Learn).Value()
	n := len(g.y)
	if len(m) != n {
		panic(badDims)
	}
	if r, c := k.Dims(); r != n || c != n {
		panic(badDims)
	}

	st := &learnState{x: g.Variables().Values()}
	st.lu.Factorize(k)
	var sign float64
	st.logdet, sign = st.lu.LogDet()
	if sign != 1 {
		panic(notPosDef)
	}
	st.ym = make([]float64, n)
	floats.SubTo(st.ym, g.y, m)
	st.kiym = mat.NewVecDense(n, nil)
	if err := st.lu.SolveVecTo(st.kiym, false, mat.NewVecDense(n, st.ym)); err != nil {
		panic(ErrSingular)
	}
	return st
}

// LML returns the log marginal likelihood
//
//	−½ [ log|K| + (y−m)ᵀK⁻¹(y−m) + n·log 2π ]
//
// with m and K evaluated under the learn purpose. A covariance whose
// log-determinant sign is not +1 is not positive definite and panics.
func (g *GP) LML() float64 {
	return g.lmlFrom(g.newLearnState())
}

func (g *GP) lmlFrom(st *learnState) float64 {
	quad := floats.Dot(st.ym, st.kiym.RawVector().Data)
	n := float64(len(g.y))
	return -0.5 * (st.logdet + quad + n*math.Log(2*math.Pi))
}

// LMLGradient returns the partial derivatives of LML with respect to
// the free variables, mean block first, in Variables order.
func (g *GP) LMLGradient() []float64 {
	return g.lmlGradientFrom(g.newLearnState())
}

func (g *GP) lmlGradientFrom(st *learnState) []float64 {
	meanGrad := g.mean.Data(hyper.Learn).Gradient()
	covGrad := g.cov.Data(hyper.Learn).Gradient()
	grad := make([]float64, 0, len(meanGrad)+len(covGrad))

	kiym := st.kiym.RawVector().Data
	for _, dm := range meanGrad {
		grad = append(grad, floats.Dot(dm, kiym))
	}

	// ½(−tr(K⁻¹·dK) + KiymᵀdK·Kiym), the trace through a solve rather
	// than an explicit inverse.
	var kidk mat.Dense
	var dkk mat.VecDense
	for _, dk := range covGrad {
		if err := st.lu.SolveTo(&kidk, false, dk); err != nil {
			panic(ErrSingular)
		}
		dkk.MulVec(dk, st.kiym)
		grad = append(grad, 0.5*(mat.Dot(&dkk, st.kiym)-mat.Trace(&kidk)))
	}
	return grad
}

// Variables returns the free variables of the mean function followed by
// the free variables of the covariance function, qualified "mean" and
// "cov". The order is the order LMLGradient reports in, and the set
// shares value storage with the owning functions.
func (g *GP) Variables() *hyper.Vars {
	return hyper.Merge(
		hyper.Group{Role: "mean", Vars: g.mean.Variables().Free()},
		hyper.Group{Role: "cov", Vars: g.cov.Variables().Free()},
	)
}

// Learn drives the free variables to a local maximum of LML, mutating
// the mean and covariance objects in place. With no free variables it
// is a no-op; with exactly one it runs the bracketing scalar maximizer;
// otherwise the multivariate gradient maximizer. Stopping short of full
// convergence is not an error: an error is returned only when the
// optimizer produced no usable point at all.
func (g *GP) Learn() error {
	obj := &objective{gp: g}
	switch g.Variables().Len() {
	case 0:
		return nil
	case 1:
		if err := opt.MaximizeScalar(obj); err != nil {
			return fmt.Errorf("gp: learn: %w", err)
		}
	default:
		if err := opt.MaximizeArray(obj); err != nil {
			return fmt.Errorf("gp: learn: %w", err)
		}
	}
	return nil
}

// objective adapts the GP to the optimizer contract. The learn state is
// memoized on the free-variable snapshot so paired value and gradient
// evaluations at one iterate share a single factorization; the memo
// lives only for the duration of one Learn call.
type objective struct {
	gp *GP
	st *learnState
}

func (o *objective) state() *learnState {
	if o.st == nil || !floats.Equal(o.st.x, o.gp.Variables().Values()) {
		o.st = o.gp.newLearnState()
	}
	return o.st
}

func (o *objective) Value() float64         { return o.gp.lmlFrom(o.state()) }
func (o *objective) Gradient() []float64    { return o.gp.lmlGradientFrom(o.state()) }
func (o *objective) Variables() *hyper.Vars { return o.gp.Variables() }

// Predict returns the posterior mean at the predict-purpose points,
//
//	m_predict + K_learn_predictᵀ · K⁻¹(y−m),
//
// requiring the mean bound under predict and the covariance bound under
// learn-predict. The learn-predict binding is transient: Predict does
// not assume it outlives the call. Posterior variance is not computed.
func (g *GP) Predict() []float64 {
	st := g.newLearnState()
	mp := g.mean.Data(hyper.Predict).Value()
	klp := g.cov.Data(hyper.LearnPredict).Value()
	if r, c := klp.Dims(); r != len(g.y) || c != len(mp) {
		panic(badDims)
	}

	cross := mat.NewVecDense(len(mp), nil)
	cross.MulVec(klp.T(), st.kiym)
	out := make([]float64, len(mp))
	copy(out, mp)
	floats.Add(out, cross.RawVector().Data)
	return out
}
