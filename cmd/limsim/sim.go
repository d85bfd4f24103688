package main

import (
	"bufio"
	"fmt"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/raulk/go-watchdog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/glimix/lim/cov"
	"github.com/glimix/lim/genetics"
	"github.com/glimix/lim/gp"
	"github.com/glimix/lim/hyper"
	"github.com/glimix/lim/mean"
)

var cfgPath string

var simCmd = &cobra.Command{
	Use:   "sim",
	Short: "Simulate a trait and scan every marker for association",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cfgPath)
		if err != nil {
			return err
		}
		logger, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		defer logger.Sync()

		if cfg.MemoryLimitMB > 0 {
			err, stop := watchdog.HeapDriven(uint64(cfg.MemoryLimitMB)<<20, 40, watchdog.NewAdaptivePolicy(0.5))
			if err != nil {
				return fmt.Errorf("watchdog: %w", err)
			}
			defer stop()
		}
		return runSim(cfg, logger)
	},
}

func init() {
	simCmd.Flags().StringVar(&cfgPath, "config", "configs/sim.toml", "path to the TOML simulation config")
	rootCmd.AddCommand(simCmd)
}

func runSim(cfg Config, logger *zap.Logger) error {
	src := newChachaSource(cfg.Seed)
	rnd := rand.New(src)

	logger.Info("simulating genotypes",
		zap.Int("samples", cfg.NumSamples),
		zap.Int("markers", cfg.NumMarkers),
		zap.Int64("seed", cfg.Seed))
	genotypes := simulateGenotypes(rnd, cfg.NumSamples, cfg.NumMarkers)
	kinship := genetics.Kinship(genotypes)

	y := sampleTrait(kinship, cfg.Heritability, src)

	est, err := genetics.Heritability(y, kinship, logger)
	if err != nil {
		return err
	}
	logger.Info("heritability",
		zap.Float64("configured", cfg.Heritability),
		zap.Float64("estimated", est.H2))

	candidates := genetics.Standardize(nil, genotypes)

	bar, err := pterm.DefaultProgressbar.WithTotal(cfg.NumMarkers).WithTitle("scanning").Start()
	if err != nil {
		return err
	}
	scan := genetics.NewScan(y, candidates, kinship, genetics.ScanOptions{
		Threads:  cfg.Threads,
		Logger:   logger,
		Progress: func(done, total int) { bar.Increment() },
	})
	err = scan.Compute()
	if _, serr := bar.Stop(); serr != nil && err == nil {
		err = serr
	}
	if err != nil {
		return err
	}

	path := filepath.Join(cfg.OutDir, "scan.tsv")
	if err := writeScanTSV(path, scan); err != nil {
		return err
	}

	pv := scan.PValues()
	top := floats.MinIdx(pv)
	col := make([]float64, cfg.NumSamples)
	mat.Col(col, top, candidates)
	logger.Info("scan summary",
		zap.String("output", path),
		zap.Int("top_marker", top),
		zap.Float64("top_pvalue", pv[top]),
		zap.Float64("top_effect", scan.EffectSizes()[top]),
		zap.Float64("top_trait_correlation", stat.Correlation(col, y, nil)))
	return nil
}

// sampleTrait draws a zero-mean trait whose genetic and noise variance
// shares are set by h2.
func sampleTrait(kinship mat.Symmetric, h2 float64, src rand.Source) []float64 {
	n := kinship.SymmetricDim()

	m := mean.NewOffset(0)
	m.SetSize(n, hyper.Sample)

	cg := cov.NewGiven()
	cg.SetScale(h2)
	cg.SetData(kinship, hyper.Sample)

	ce := cov.NewEye()
	ce.SetScale(1 - h2)
	ce.SetData(cov.Items(n), hyper.Sample)

	return gp.NewSampler(m, cov.NewSum(cg, ce)).Sample(src)
}

func writeScanTSV(path string, scan *genetics.Scan) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	null := scan.NullLML()
	alts := scan.AltLMLs()
	effects := scan.EffectSizes()
	pv := scan.PValues()

	w := bufio.NewWriter(f)
	fmt.Fprintln(w, "marker\teffect\tlrt\tpvalue")
	for i := range alts {
		lrt := math.Max(0, 2*(alts[i]-null))
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i,
			strconv.FormatFloat(effects[i], 'g', -1, 64),
			strconv.FormatFloat(lrt, 'g', -1, 64),
			strconv.FormatFloat(pv[i], 'g', -1, 64))
	}
	return w.Flush()
}
