package genetics

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/glimix/lim/cov"
	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
	"github.com/glimix/lim/mean"
)

const badDims = "genetics: trait and kinship dimensions mismatch"

// ErrZeroVariance reports a constant trait, which admits no variance
// decomposition.
var ErrZeroVariance = errors.New("genetics: trait has zero variance")

// HeritabilityResult holds the fitted variance decomposition of a trait.
type HeritabilityResult struct {
	// H2 is the narrow-sense heritability estimate, the genetic share
	// of the total variance.
	H2 float64
	// GeneticScale and NoiseScale are the fitted scales of the kinship
	// and identity covariances.
	GeneticScale float64
	NoiseScale   float64
	// Offset is the fitted trait mean.
	Offset float64
	// LML is the log marginal likelihood at the fitted point.
	LML float64
}

// Heritability fits y = offset + g + e, with g drawn from the kinship
// covariance and e iid noise, and reports the genetic fraction of the
// variance. The logger may be nil.
func Heritability(y []float64, kinship mat.Symmetric, logger *zap.Logger) (*HeritabilityResult, error) {
	n := len(y)
	if n == 0 {
		panic(badDims)
	}
	if kinship.SymmetricDim() != n {
		panic(badDims)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	avg, variance := stat.MeanVariance(y, nil)
	if !(variance > 0) {
		return nil, ErrZeroVariance
	}

	m := mean.NewOffset(avg)
	m.SetSize(n, hyper.Learn)

	// Start the split even: half genetic, half noise.
	cg := cov.NewGiven()
	cg.SetScale(variance / 2)
	cg.SetData(kinship, hyper.Learn)

	ce := cov.NewEye()
	ce.SetScale(variance / 2)
	ce.SetData(cov.Items(n), hyper.Learn)

	g := gp.New(y, m, cov.NewSum(cg, ce))

	start := time.Now()
	if err := g.Learn(); err != nil {
		return nil, fmt.Errorf("genetics: heritability fit: %w", err)
	}

	sg, se := cg.Scale(), ce.Scale()
	res := &HeritabilityResult{
		H2:           sg / (sg + se),
		GeneticScale: sg,
		NoiseScale:   se,
		Offset:       m.Offset(),
		LML:          g.LML(),
	}
	logger.Info("heritability estimated",
		zap.Float64("h2", res.H2),
		zap.Float64("genetic_scale", sg),
		zap.Float64("noise_scale", se),
		zap.Float64("lml", res.LML),
		zap.Duration("took", time.Since(start)))
	return res, nil
}

// EstimateOptions configures EstimateAll.
type EstimateOptions struct {
	// Threads bounds the worker pool; nonpositive means GOMAXPROCS.
	Threads int
	// Logger may be nil.
	Logger *zap.Logger
	// Cache, when set, memoizes results per trait index so repeated
	// calls skip refitting.
	Cache *ResultCache[int, *HeritabilityResult]
}

// EstimateAll fits every trait against the same kinship matrix using a
// bounded worker pool. Results are indexed like traits; on failure the
// first failing trait's error is returned and the remaining results are
// still filled in.
func EstimateAll(traits [][]float64, kinship mat.Symmetric, opts EstimateOptions) ([]*HeritabilityResult, error) {
	threads := opts.Threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}
	if threads > len(traits) {
		threads = len(traits)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]*HeritabilityResult, len(traits))
	errs := make([]error, len(traits))

	start := time.Now()
	logger.Info("estimating heritability",
		zap.Int("traits", len(traits)),
		zap.Int("threads", threads))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				fit := func() (*HeritabilityResult, error) {
					return Heritability(traits[i], kinship, logger)
				}
				if opts.Cache != nil {
					results[i], errs[i] = opts.Cache.GetOrCompute(i, fit)
				} else {
					results[i], errs[i] = fit()
				}
			}
		}()
	}
	for i := range traits {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return results, fmt.Errorf("genetics: trait %d: %w", i, err)
		}
	}
	logger.Info("heritability estimates done",
		zap.Int("traits", len(traits)),
		zap.Duration("took", time.Since(start)))
	return results, nil
}
