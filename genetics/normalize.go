// Package genetics builds genetic analyses on top of the gp core:
// kinship construction, heritability estimation, and QTL association
// scans over candidate markers.
package genetics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const badShape = "genetics: zero-sized or mismatched matrix"

// Standardize rescales every column of x to zero mean and unit variance
// and stores the result into dst, allocating one when dst is nil.
// Zero-variance columns are centered only. Variance is taken over n,
// not n-1, so a binary marker column keeps its allele-frequency scaling.
func Standardize(dst *mat.Dense, x mat.Matrix) *mat.Dense {
	r, c := x.Dims()
	if r == 0 || c == 0 {
		panic(badShape)
	}
	if dst == nil {
		dst = mat.NewDense(r, c, nil)
	} else if dr, dc := dst.Dims(); dr != r || dc != c {
		panic(badShape)
	}

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, x)
		m := stat.Mean(col, nil)
		sd := math.Sqrt(stat.MomentAbout(2, col, m, nil))
		for i, v := range col {
			v -= m
			if sd > 0 {
				v /= sd
			}
			dst.Set(i, j, v)
		}
	}
	return dst
}

// GowerNormalize rescales k in place so that the trace of the centered
// matrix equals n-1, putting the variance component of a kinship matrix
// on the same scale as iid noise.
func GowerNormalize(k *mat.SymDense) {
	n := k.SymmetricDim()
	if n == 0 {
		panic(badShape)
	}
	c := float64(n-1) / (mat.Trace(k) - mat.Sum(k)/float64(n))
	k.ScaleSym(c, k)
}

// Kinship estimates the realized relationship matrix from an n-by-p
// genotype matrix: markers are standardized column-wise, K = G·Gᵀ/p,
// and the result is Gower normalized.
func Kinship(g mat.Matrix) *mat.SymDense {
	r, p := g.Dims()
	if r == 0 || p == 0 {
		panic(badShape)
	}
	std := Standardize(nil, g)
	k := mat.NewSymDense(r, nil)
	k.SymOuterK(1/float64(p), std)
	GowerNormalize(k)
	return k
}
