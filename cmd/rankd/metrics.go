package main

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rankd/internal/monitor"
	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

var (
	metricsAPI    string
	metricsWindow time.Duration
)

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Print aggregated pipeline metrics",
	Long: `Print aggregated pipeline metrics for a trailing window.

With --api set, metrics are fetched from a running rankd server.
Otherwise the trace log is aggregated directly.

Examples:
  # Aggregate the local trace log over the last hour
  rankd metrics

  # Query a running server
  rankd metrics --api http://localhost:9190 --window 30m`,
	RunE: runMetrics,
}

func init() {
	metricsCmd.Flags().StringVar(&metricsAPI, "api", "", "base URL of a running rankd server (default: read trace log directly)")
	metricsCmd.Flags().DurationVar(&metricsWindow, "window", time.Hour, "trailing aggregation window")
}

func runMetrics(cmd *cobra.Command, args []string) error {
	var summary monitor.Summary

	if metricsAPI != "" {
		client := monitor.NewClient(metricsAPI)
		s, err := client.FetchSummary(cmd.Context(), metricsWindow)
		if err != nil {
			return err
		}
		summary = s
	} else {
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

		store, err := tracelog.NewStore(cfg.Trace.Path, logger.Underlying().Named("tracelog"))
		if err != nil {
			return fmt.Errorf("opening trace store: %w", err)
		}
		aggregator, err := monitor.NewAggregator(store)
		if err != nil {
			return err
		}
		summary, err = aggregator.Window(cmd.Context(), metricsWindow)
		if err != nil {
			return err
		}
	}

	printSummary(summary, metricsWindow)
	return nil
}

func printSummary(s monitor.Summary, window time.Duration) {
	fmt.Printf("Window: %s\n", window)
	fmt.Printf("Events: %s\n", monitor.FormatCount(s.EventCount))
	fmt.Printf("Latency: mean %s, p95 %s\n", monitor.FormatLatency(s.MeanLatencyMS), monitor.FormatLatency(s.P95LatencyMS))
	fmt.Printf("Tokens: %s\n", monitor.FormatTokens(s.TotalTokens))
	fmt.Printf("Cache hit rate: %s (%s events)\n", monitor.FormatPercentage(s.CacheHitRate), monitor.FormatCount(s.CacheEventCount))

	if len(s.Stages) == 0 {
		return
	}

	stages := make([]tracelog.Stage, 0, len(s.Stages))
	for stage := range s.Stages {
		stages = append(stages, stage)
	}
	sort.Slice(stages, func(i, j int) bool { return stages[i] < stages[j] })

	fmt.Println("Stages:")
	for _, stage := range stages {
		st := s.Stages[stage]
		fmt.Printf("  %-24s %6s events  mean %s\n", stage, monitor.FormatCount(st.Count), monitor.FormatLatency(st.MeanLatencyMS))
	}
}
