package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rankd/internal/extraction"
	"github.com/fyrsmithlabs/rankd/internal/optimizer"
	"github.com/fyrsmithlabs/rankd/internal/tracelog"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

var (
	optimizePairsPath string
	optimizeGridStep  float64
	optimizeK         int
	optimizeMinPairs  int
	optimizeOut       string
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Learn per-intent weight vectors from training pairs",
	Long: `Grid-search per-intent weight vectors maximizing NDCG.

Training pairs are read from --pairs if given, otherwise extracted from
the trace log with the configured quality filter. The learned vectors
are written atomically to the weights artifact, replacing it wholesale.

Examples:
  # Extract from the trace log and optimize in one shot
  rankd optimize

  # Optimize a previously exported pair set
  rankd optimize --pairs data/training/pairs.jsonl --grid-step 0.05`,
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVar(&optimizePairsPath, "pairs", "", "JSONL training pairs file (default: extract from trace log)")
	optimizeCmd.Flags().Float64Var(&optimizeGridStep, "grid-step", 0, "grid resolution in (0,1] (default from config)")
	optimizeCmd.Flags().IntVar(&optimizeK, "k", 0, "NDCG rank cutoff (default from config)")
	optimizeCmd.Flags().IntVar(&optimizeMinPairs, "min-pairs", 0, "minimum pairs per intent (default from config)")
	optimizeCmd.Flags().StringVar(&optimizeOut, "out", "", "weights artifact path (default from config)")
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()
	zl := logger.Underlying()

	gridStep := cfg.Optimizer.GridStep
	if optimizeGridStep > 0 {
		gridStep = optimizeGridStep
	}
	k := cfg.Optimizer.K
	if optimizeK > 0 {
		k = optimizeK
	}
	minPairs := cfg.Optimizer.MinPairsPerIntent
	if optimizeMinPairs > 0 {
		minPairs = optimizeMinPairs
	}
	outPath := cfg.Weights.Path
	if optimizeOut != "" {
		outPath = optimizeOut
	}

	var pairs []extraction.TrainingPair
	if optimizePairsPath != "" {
		pairs, err = extraction.LoadPairs(optimizePairsPath)
		if err != nil {
			return fmt.Errorf("loading pairs: %w", err)
		}
	} else {
		store, err := tracelog.NewStore(cfg.Trace.Path, zl.Named("tracelog"))
		if err != nil {
			return fmt.Errorf("opening trace store: %w", err)
		}
		extractor, err := extraction.NewExtractor(store, zl.Named("extraction"))
		if err != nil {
			return err
		}
		until := time.Now().UTC()
		pairs, err = extractor.ExtractPairs(cmd.Context(), extraction.Options{
			MinQuality: cfg.Extraction.MinQuality,
			Since:      until.Add(-cfg.Extraction.Window.Duration()),
			Until:      until,
		})
		if err != nil {
			return err
		}
	}

	opt := optimizer.New(zl.Named("optimizer"))
	optimized, err := opt.OptimizeAllIntents(pairs, gridStep, k, minPairs)
	if err != nil {
		return err
	}
	if len(optimized) == 0 {
		return fmt.Errorf("no intent reached %d training pairs; nothing to publish", minPairs)
	}

	if err := weights.Save(outPath, optimized); err != nil {
		return fmt.Errorf("saving weights: %w", err)
	}

	fmt.Printf("Optimized %d intent(s) from %d pairs, written to %s\n", len(optimized), len(pairs), outPath)

	intents := make([]string, 0, len(optimized))
	for intent := range optimized {
		intents = append(intents, intent)
	}
	sort.Strings(intents)
	for _, intent := range intents {
		w := optimized[intent]
		fmt.Printf("  %-16s sem=%.2f kw=%.2f rec=%.2f ndcg@%d=%.4f n=%d\n",
			intent, w.SemanticWeight, w.KeywordWeight, w.RecencyWeight, k, w.NDCGAt5, w.NumTrainingPairs)
	}
	return nil
}
