package genetics

import (
	"fmt"
	"math"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/glimix/lim/cov"
	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
	"github.com/glimix/lim/mean"
)

const notComputed = "genetics: statistics not computed"

// Scan tests candidate markers for association with a trait. The null
// model y = Mβ + g + e is fitted once with variance components learned;
// each alternative model appends one candidate column to M and refits
// the betas with the variance scales held at the null estimates. The
// likelihood-ratio statistic 2(alt - null) is referred to χ²(1).
type Scan struct {
	y          []float64
	covariates mat.Matrix
	candidates mat.Matrix
	kinship    mat.Symmetric

	threads  int
	logger   *zap.Logger
	progress func(done, total int)

	nullValid bool
	altValid  bool

	nullLML      float64
	nullBetas    []float64
	geneticScale float64
	noiseScale   float64

	altLMLs     []float64
	effectSizes []float64
}

// ScanOptions configures NewScan.
type ScanOptions struct {
	// Covariates is the n-by-c fixed-effect design; nil means an
	// intercept column only.
	Covariates mat.Matrix
	// Threads bounds the candidate workers; nonpositive means
	// GOMAXPROCS.
	Threads int
	// Logger may be nil.
	Logger *zap.Logger
	// Progress, when set, is called after each candidate finishes,
	// always from the calling goroutine of Compute.
	Progress func(done, total int)
}

// NewScan prepares a scan of the candidate markers (n-by-p, one column
// per marker) against the trait y under the given kinship.
func NewScan(y []float64, candidates mat.Matrix, kinship mat.Symmetric, opts ScanOptions) *Scan {
	n := len(y)
	if n == 0 {
		panic(badDims)
	}
	if r, _ := candidates.Dims(); r != n {
		panic(badDims)
	}
	if kinship.SymmetricDim() != n {
		panic(badDims)
	}

	covariates := opts.Covariates
	if covariates == nil {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		covariates = mat.NewDense(n, 1, ones)
	} else if r, _ := covariates.Dims(); r != n {
		panic(badDims)
	}

	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Scan{
		y:          y,
		covariates: covariates,
		candidates: candidates,
		kinship:    kinship,
		threads:    threads,
		logger:     logger,
		progress:   opts.Progress,
	}
}

// SetCandidates replaces the candidate markers. Null-model results are
// kept; alternative-model statistics are invalidated and recomputed on
// the next Compute.
func (s *Scan) SetCandidates(x mat.Matrix) {
	if r, _ := x.Dims(); r != len(s.y) {
		panic(badDims)
	}
	s.candidates = x
	s.altValid = false
}

// Compute fits whatever is stale: the null model first, then the
// alternative model of every current candidate.
func (s *Scan) Compute() error {
	if err := s.computeNull(); err != nil {
		return err
	}
	return s.computeAlt()
}

func (s *Scan) computeNull() error {
	if s.nullValid {
		return nil
	}
	n := len(s.y)
	_, nc := s.covariates.Dims()

	_, variance := stat.MeanVariance(s.y, nil)
	if !(variance > 0) {
		return fmt.Errorf("genetics: null model: %w", ErrZeroVariance)
	}

	m := mean.NewLinear(nc)
	m.SetData(s.covariates, hyper.Learn)

	cg := cov.NewGiven()
	cg.SetScale(variance / 2)
	cg.SetData(s.kinship, hyper.Learn)

	ce := cov.NewEye()
	ce.SetScale(variance / 2)
	ce.SetData(cov.Items(n), hyper.Learn)

	g := gp.New(s.y, m, cov.NewSum(cg, ce))

	start := time.Now()
	if err := g.Learn(); err != nil {
		return fmt.Errorf("genetics: null model: %w", err)
	}

	s.nullLML = g.LML()
	s.nullBetas = m.Betas()
	s.geneticScale = cg.Scale()
	s.noiseScale = ce.Scale()
	s.nullValid = true

	s.logger.Info("null model fitted",
		zap.Float64("lml", s.nullLML),
		zap.Float64("genetic_scale", s.geneticScale),
		zap.Float64("noise_scale", s.noiseScale),
		zap.Duration("took", time.Since(start)))
	return nil
}

type altResult struct {
	idx    int
	lml    float64
	effect float64
	err    error
}

func (s *Scan) computeAlt() error {
	if s.altValid {
		return nil
	}
	_, p := s.candidates.Dims()

	s.altLMLs = make([]float64, p)
	s.effectSizes = make([]float64, p)

	threads := s.threads
	if threads > p {
		threads = p
	}

	start := time.Now()
	s.logger.Info("scanning candidates",
		zap.Int("candidates", p),
		zap.Int("threads", threads))

	jobs := make(chan int)
	out := make(chan altResult)

	// One design buffer and one model triple per worker; candidates
	// within a worker are fitted sequentially against it.
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.scanWorker(jobs, out)
		}()
	}
	go func() {
		for j := 0; j < p; j++ {
			jobs <- j
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(out)
	}()

	done := 0
	for r := range out {
		if r.err != nil {
			s.logger.Warn("candidate fit failed",
				zap.Int("marker", r.idx),
				zap.Error(r.err))
			s.altLMLs[r.idx] = math.NaN()
			s.effectSizes[r.idx] = math.NaN()
		} else {
			s.altLMLs[r.idx] = r.lml
			s.effectSizes[r.idx] = r.effect
		}
		done++
		if s.progress != nil {
			s.progress(done, p)
		}
	}

	s.altValid = true
	s.logger.Info("scan done",
		zap.Int("candidates", p),
		zap.Duration("took", time.Since(start)))
	return nil
}

func (s *Scan) scanWorker(jobs <-chan int, out chan<- altResult) {
	n := len(s.y)
	_, nc := s.covariates.Dims()

	design := mat.NewDense(n, nc+1, nil)
	buf := make([]float64, n)
	for k := 0; k < nc; k++ {
		mat.Col(buf, k, s.covariates)
		design.SetCol(k, buf)
	}

	m := mean.NewLinear(nc + 1)
	m.SetData(design, hyper.Learn)

	cg := cov.NewGiven()
	cg.SetScale(s.geneticScale)
	cg.SetData(s.kinship, hyper.Learn)
	cg.Variables().Fix("logscale")

	ce := cov.NewEye()
	ce.SetScale(s.noiseScale)
	ce.SetData(cov.Items(n), hyper.Learn)
	ce.Variables().Fix("logscale")

	g := gp.New(s.y, m, cov.NewSum(cg, ce))

	// Every candidate starts from the null betas with a zero marker
	// effect, so results do not depend on job order.
	init := make([]float64, nc+1)
	copy(init, s.nullBetas)

	for j := range jobs {
		mat.Col(buf, j, s.candidates)
		design.SetCol(nc, buf)
		m.SetBetas(init)
		if err := g.Learn(); err != nil {
			out <- altResult{idx: j, err: err}
			continue
		}
		out <- altResult{idx: j, lml: g.LML(), effect: m.Betas()[nc]}
	}
}

// NullLML reports the null-model log marginal likelihood. Compute must
// have succeeded first.
func (s *Scan) NullLML() float64 {
	if !s.nullValid {
		panic(notComputed)
	}
	return s.nullLML
}

// AltLMLs reports the per-candidate alternative log marginal
// likelihoods, indexed like the candidate columns. Failed candidates
// hold NaN.
func (s *Scan) AltLMLs() []float64 {
	if !s.altValid {
		panic(notComputed)
	}
	return append([]float64(nil), s.altLMLs...)
}

// EffectSizes reports the fitted effect of each candidate marker, the
// coefficient of its appended design column.
func (s *Scan) EffectSizes() []float64 {
	if !s.altValid {
		panic(notComputed)
	}
	return append([]float64(nil), s.effectSizes...)
}

// PValues reports the χ²(1) survival of the likelihood-ratio statistic
// per candidate, clamped at zero.
func (s *Scan) PValues() []float64 {
	if !s.nullValid || !s.altValid {
		panic(notComputed)
	}
	chi2 := distuv.ChiSquared{K: 1}
	pv := make([]float64, len(s.altLMLs))
	for i, alt := range s.altLMLs {
		pv[i] = chi2.Survival(math.Max(0, 2*(alt-s.nullLML)))
	}
	return pv
}
