package gp

import (
	"gonum.org/v1/gonum/mat"

	"github.com/glimix/lim/hyper"
)

// Mean is the mean-function contract consumed by the regression core.
// Implementations own their hyperparameters and bind data per purpose
// through concrete setters; the core only reads bound purposes.
type Mean interface {
	// Data returns the evaluation handle for purpose p. Requesting a
	// purpose with no bound data is a fatal error.
	Data(p hyper.Purpose) MeanData
	// Variables returns the owned hyperparameter set, fixed variables
	// included.
	Variables() *hyper.Vars
}

// MeanData is a mean evaluation handle over one purpose's bound data.
type MeanData interface {
	// Value returns the mean vector over the bound data.
	Value() []float64
	// Gradient returns one partial-derivative vector per free
	// hyperparameter, in declared variable order.
	Gradient() [][]float64
}

// Cov is the covariance-function contract consumed by the regression
// core. Same binding rules as Mean; square purposes must evaluate to a
// symmetric positive-definite matrix.
type Cov interface {
	Data(p hyper.Purpose) CovData
	Variables() *hyper.Vars
}

// CovData is a covariance evaluation handle over one purpose's bound
// data.
type CovData interface {
	// Value returns the covariance matrix over the bound data: square
	// for sample/learn/predict purposes, learn-by-predict rectangular
	// for the learn-predict purpose.
	Value() mat.Matrix
	// Gradient returns one partial-derivative matrix per free
	// hyperparameter, in declared variable order.
	Gradient() []mat.Matrix
}
