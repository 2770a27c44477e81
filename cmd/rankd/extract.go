package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rankd/internal/extraction"
	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

var (
	extractMinQuality float64
	extractWindow     time.Duration
	extractOut        string
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract training pairs from the trace log",
	Long: `Extract quality-filtered training pairs from reranking trace events.

Each reranking event in the window is scored for quality; events at or
above --min-quality that carry a query, document id, and at least one
retrieval score become labeled training pairs.

Examples:
  # Extract the last 7 days with config defaults
  rankd extract

  # Stricter filter, explicit output file
  rankd extract --min-quality 0.7 --out data/training/pairs.jsonl`,
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().Float64Var(&extractMinQuality, "min-quality", -1, "minimum quality score in [0,1] (default from config)")
	extractCmd.Flags().DurationVar(&extractWindow, "window", 0, "trailing event window, e.g. 168h (default from config)")
	extractCmd.Flags().StringVar(&extractOut, "out", "", "write extracted pairs as JSONL to this path")
}

func runExtract(cmd *cobra.Command, args []string) error {
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

	minQuality := cfg.Extraction.MinQuality
	if extractMinQuality >= 0 {
		minQuality = extractMinQuality
	}
	window := cfg.Extraction.Window.Duration()
	if extractWindow > 0 {
		window = extractWindow
	}

	store, err := tracelog.NewStore(cfg.Trace.Path, zl.Named("tracelog"))
	if err != nil {
		return fmt.Errorf("opening trace store: %w", err)
	}

	extractor, err := extraction.NewExtractor(store, zl.Named("extraction"))
	if err != nil {
		return err
	}

	until := time.Now().UTC()
	pairs, err := extractor.ExtractPairs(cmd.Context(), extraction.Options{
		MinQuality: minQuality,
		Since:      until.Add(-window),
		Until:      until,
		SinkPath:   extractOut,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d training pairs (min quality %.2f, window %s)\n", len(pairs), minQuality, window)
	if extractOut != "" {
		fmt.Printf("Written to %s\n", extractOut)
	}
	return nil
}
