package gp

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"

	"github.com/glimix/lim/hyper"
)

const notSymmetric = "gp: sample covariance not symmetric"

// Sampler draws observation vectors y ~ N(m, K) with the mean and
// covariance evaluated under the sample purpose.
type Sampler struct {
	mean Mean
	cov  Cov
}

// NewSampler returns a sampler over the given mean and covariance
// functions. Both must have data bound under the sample purpose before
// Sample is called.
func NewSampler(mean Mean, cov Cov) *Sampler {
	if mean == nil || cov == nil {
		panic(nilFunction)
	}
	return &Sampler{mean: mean, cov: cov}
}

// Sample draws one observation vector using src. A sample covariance
// that is not symmetric positive definite is fatal, matching the learn
// invariant.
func (s *Sampler) Sample(src rand.Source) []float64 {
	m := s.mean.Data(hyper.Sample).Value()
	k := s.cov.Data(hyper.Sample).Value()

	sym, ok := k.(mat.Symmetric)
	if !ok {
		panic(notSymmetric)
	}
	if len(m) != sym.SymmetricDim() {
		panic(badDims)
	}
	normal, ok := distmv.NewNormal(m, sym, src)
	if !ok {
		panic(notPosDef)
	}
	return normal.Rand(nil)
}
