package gp_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/glimix/lim/cov"
	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
	"github.com/glimix/lim/mean"
)

// randn fills an n-by-p matrix with standard normal draws.
func randn(rnd *rand.Rand, n, p int) *mat.Dense {
	x := mat.NewDense(n, p, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			x.Set(i, j, rnd.NormFloat64())
		}
	}
	return x
}

func randnVec(rnd *rand.Rand, n int) []float64 {
	y := make([]float64, n)
	for i := range y {
		y[i] = rnd.NormFloat64()
	}
	return y
}

// linearModel is the scenario the upstream suite pins: N samples, a
// 500-column standard normal design, a linear covariance with scale 1
// and an offset mean at 0.5.
func linearModel(n, p int, offsetFixed bool) ([]float64, *mean.Offset, *cov.Linear) {
	rnd := rand.New(rand.NewPCG(94584, 0))
	x := randn(rnd, n, p)
	y := randnVec(rnd, n)

	m := mean.NewOffset(0.5)
	m.SetSize(n, hyper.Learn)
	if offsetFixed {
		m.Variables().Fix("offset")
	}

	c := cov.NewLinear()
	c.SetScale(1.0)
	c.SetData(x, hyper.Learn)
	return y, m, c
}

func TestLMLIdentityCovarianceOracle(t *testing.T) {
	rnd := rand.New(rand.NewPCG(1, 2))
	n := 50
	y := randnVec(rnd, n)

	m := mean.NewOffset(0)
	m.SetSize(n, hyper.Learn)
	m.Variables().Fix("offset")

	c := cov.NewEye()
	c.SetData(cov.Items(n), hyper.Learn)
	c.Variables().Fix("logscale")

	g := gp.New(y, m, c)

	// With K = I and m = 0 the likelihood reduces to the iid standard
	// normal log density.
	var quad float64
	for _, v := range y {
		quad += v * v
	}
	want := -0.5 * (quad + float64(n)*math.Log(2*math.Pi))
	assert.InDelta(t, want, g.LML(), 1e-10)
}

func TestLMLScaledIdentityOracle(t *testing.T) {
	rnd := rand.New(rand.NewPCG(3, 4))
	n := 30
	y := randnVec(rnd, n)
	offset, scale := 0.25, 1.7

	m := mean.NewOffset(offset)
	m.SetSize(n, hyper.Learn)

	c := cov.NewEye()
	c.SetScale(scale)
	c.SetData(cov.Items(n), hyper.Learn)

	g := gp.New(y, m, c)

	var quad float64
	for _, v := range y {
		quad += (v - offset) * (v - offset) / scale
	}
	want := -0.5 * (float64(n)*math.Log(scale) + quad + float64(n)*math.Log(2*math.Pi))
	assert.InDelta(t, want, g.LML(), 1e-10)
}

func TestVariablesOrder(t *testing.T) {
	rnd := rand.New(rand.NewPCG(5, 6))
	n := 20
	x := randn(rnd, n, 5)
	y := randnVec(rnd, n)

	m := mean.NewOffset(0.1)
	m.SetSize(n, hyper.Learn)

	cl := cov.NewLinear()
	cl.SetData(x, hyper.Learn)
	ce := cov.NewEye()
	ce.SetData(cov.Items(n), hyper.Learn)
	c := cov.NewSum(cl, ce)

	g := gp.New(y, m, c)
	require.Equal(t,
		[]string{"mean.offset", "cov.0.logscale", "cov.1.logscale"},
		g.Variables().Names())

	// Fixing on the owner drops the variable from the merged set and
	// from the gradient alike.
	ce.Variables().Fix("logscale")
	require.Equal(t, []string{"mean.offset", "cov.0.logscale"}, g.Variables().Names())
	assert.Len(t, g.LMLGradient(), 2)
}

func TestLMLGradientMatchesFiniteDifferences(t *testing.T) {
	rnd := rand.New(rand.NewPCG(7, 8))
	n := 60
	x := randn(rnd, n, 30)
	y := randnVec(rnd, n)

	m := mean.NewOffset(0.3)
	m.SetSize(n, hyper.Learn)

	cl := cov.NewLinear()
	cl.SetScale(0.8)
	cl.SetData(x, hyper.Learn)
	ce := cov.NewEye()
	ce.SetScale(1.3)
	ce.SetData(cov.Items(n), hyper.Learn)

	g := gp.New(y, m, cov.NewSum(cl, ce))
	vars := g.Variables()
	require.Equal(t, 3, vars.Len())

	x0 := vars.Values()
	analytic := g.LMLGradient()
	require.Len(t, analytic, 3)

	const h = 1e-6
	for i := range x0 {
		xp := append([]float64(nil), x0...)
		xp[i] += h
		vars.SetValues(xp)
		fp := g.LML()

		xm := append([]float64(nil), x0...)
		xm[i] -= h
		vars.SetValues(xm)
		fm := g.LML()

		vars.SetValues(x0)
		numeric := (fp - fm) / (2 * h)
		tol := 1e-4 * math.Max(1, math.Abs(numeric))
		assert.InDelta(t, numeric, analytic[i], tol, "variable %s", vars.Names()[i])
	}
}

func TestLearnNoFreeVariablesIsNoOp(t *testing.T) {
	y, m, c := linearModel(100, 120, true)
	c.Variables().Fix("logscale")

	g := gp.New(y, m, c)
	before := g.LML()
	require.NoError(t, g.Learn())
	assert.Equal(t, before, g.LML())
}

func TestLearnOneFreeVariable(t *testing.T) {
	y, m, c := linearModel(400, 500, true)

	g := gp.New(y, m, c)
	before := g.LML()
	require.NoError(t, g.Learn())
	after := g.LML()

	assert.Greater(t, after, before)
	// The scalar maximizer should sit at a stationary point of the
	// one-dimensional likelihood.
	grad := g.LMLGradient()
	require.Len(t, grad, 1)
	assert.InDelta(t, 0, grad[0], 1e-3)
}

func TestLearnTwoFreeVariables(t *testing.T) {
	yOne, mOne, cOne := linearModel(400, 500, true)
	gOne := gp.New(yOne, mOne, cOne)
	require.NoError(t, gOne.Learn())
	lmlOne := gOne.LML()

	// Freeing the offset as well must reach at least the optimum of
	// the nested one-variable model.
	yTwo, mTwo, cTwo := linearModel(400, 500, false)
	gTwo := gp.New(yTwo, mTwo, cTwo)
	before := gTwo.LML()
	require.NoError(t, gTwo.Learn())
	lmlTwo := gTwo.LML()

	assert.Greater(t, lmlTwo, before)
	assert.GreaterOrEqual(t, lmlTwo, lmlOne-1e-6)
}

func TestLearnIsRepeatable(t *testing.T) {
	y, m, c := linearModel(100, 120, false)
	g := gp.New(y, m, c)

	require.NoError(t, g.Learn())
	first := g.LML()
	// Hyperparameter state lives in the mean and covariance objects,
	// so learning again from the optimum must stay put.
	require.NoError(t, g.Learn())
	assert.InDelta(t, first, g.LML(), 1e-6)
}

func TestPredictRoundTrip(t *testing.T) {
	rnd := rand.New(rand.NewPCG(94584, 1))
	n := 400
	nlearn := n - n/5
	npred := n / 5
	x := randn(rnd, n, 500)

	m := mean.NewOffset(0.5)
	m.SetSize(n, hyper.Sample)
	m.SetSize(nlearn, hyper.Learn)
	m.SetSize(npred, hyper.Predict)

	xlearn := x.Slice(0, nlearn, 0, 500)
	xpred := x.Slice(nlearn, n, 0, 500)

	c := cov.NewLinear()
	c.SetScale(1.0)
	c.SetData(x, hyper.Sample)
	c.SetData(xlearn, hyper.Learn)
	c.SetCrossData(xlearn, xpred, hyper.LearnPredict)
	c.SetData(xpred, hyper.Predict)

	y := gp.NewSampler(m, c).Sample(rand.NewPCG(94584, 2))
	require.Len(t, y, n)

	g := gp.New(y[:nlearn], m, c)
	require.NoError(t, g.Learn())

	ypred := g.Predict()
	require.Len(t, ypred, npred)

	corr := stat.Correlation(ypred, y[nlearn:], nil)
	assert.Greater(t, corr, 0.6)

	// Predict mutates nothing, so a second call reproduces the first.
	again := g.Predict()
	assert.Equal(t, ypred, again)
}

func TestPredictSumCovariance(t *testing.T) {
	rnd := rand.New(rand.NewPCG(11, 12))
	n := 200
	nlearn := n - n/5
	npred := n / 5
	x := randn(rnd, n, 250)
	items := cov.Items(n)

	m := mean.NewOffset(0.5)
	m.SetSize(n, hyper.Sample)
	m.SetSize(nlearn, hyper.Learn)
	m.SetSize(npred, hyper.Predict)

	xlearn := x.Slice(0, nlearn, 0, 250)
	xpred := x.Slice(nlearn, n, 0, 250)

	cl := cov.NewLinear()
	cl.SetScale(1.0)
	cl.SetData(x, hyper.Sample)
	cl.SetData(xlearn, hyper.Learn)
	cl.SetCrossData(xlearn, xpred, hyper.LearnPredict)
	cl.SetData(xpred, hyper.Predict)

	ce := cov.NewEye()
	ce.SetScale(0.2)
	ce.SetData(items, hyper.Sample)
	ce.SetData(items[:nlearn], hyper.Learn)
	ce.SetCrossData(items[:nlearn], items[nlearn:], hyper.LearnPredict)
	ce.SetData(items[nlearn:], hyper.Predict)

	c := cov.NewSum(cl, ce)

	y := gp.NewSampler(m, c).Sample(rand.NewPCG(11, 13))

	g := gp.New(y[:nlearn], m, c)
	cl.SetScale(0.1)
	ce.SetScale(5.0)
	before := g.LML()
	require.NoError(t, g.Learn())
	assert.Greater(t, g.LML(), before)

	ypred := g.Predict()
	require.Len(t, ypred, npred)
	assert.Greater(t, stat.Correlation(ypred, y[nlearn:], nil), 0.5)
}

func TestLMLNotPositiveDefinitePanics(t *testing.T) {
	base := mat.NewSymDense(3, []float64{
		1, 0, 0,
		0, 1, 0,
		0, 0, -0.5,
	})

	m := mean.NewOffset(0)
	m.SetSize(3, hyper.Learn)
	m.Variables().Fix("offset")

	c := cov.NewGiven()
	c.SetData(base, hyper.Learn)

	g := gp.New([]float64{0.3, -0.1, 0.4}, m, c)
	assert.PanicsWithValue(t, "gp: covariance not positive definite", func() { g.LML() })
}

func TestLMLSingularCovariancePanics(t *testing.T) {
	m := mean.NewOffset(0)
	m.SetSize(3, hyper.Learn)
	m.Variables().Fix("offset")

	c := cov.NewGiven()
	c.SetData(mat.NewSymDense(3, nil), hyper.Learn)

	g := gp.New([]float64{0.3, -0.1, 0.4}, m, c)
	assert.PanicsWithValue(t, gp.ErrSingular, func() { g.LML() })
}

func TestDimensionMismatchPanics(t *testing.T) {
	m := mean.NewOffset(0)
	m.SetSize(4, hyper.Learn)

	c := cov.NewEye()
	c.SetData(cov.Items(5), hyper.Learn)

	g := gp.New(randnVec(rand.New(rand.NewPCG(9, 10)), 5), m, c)
	assert.Panics(t, func() { g.LML() })
}

func TestPredictWithoutBindingPanics(t *testing.T) {
	y, m, c := linearModel(20, 10, true)
	g := gp.New(y, m, c)
	assert.Panics(t, func() { g.Predict() })
}

func TestNewPanics(t *testing.T) {
	y, m, c := linearModel(10, 5, true)
	assert.Panics(t, func() { gp.New(nil, m, c) })
	assert.Panics(t, func() { gp.New(y, nil, c) })
	assert.Panics(t, func() { gp.New(y, m, nil) })
}
