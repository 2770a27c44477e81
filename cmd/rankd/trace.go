package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

var (
	traceStage     string
	traceLatency   float64
	traceTokens    int
	traceCacheHit  bool
	traceCacheMiss bool
	traceRequestID string
	traceUserID    string
	traceMeta      []string
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Trace log operations",
}

var traceEmitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Append a trace event to the trace log",
	Long: `Append a single trace event to the trace log.

Useful for smoke-testing the extraction and aggregation path without a
live pipeline. Metadata is given as repeated key=value flags; numeric
and boolean values are coerced.

Examples:
  rankd trace emit --stage reranking --latency 42.5 \
    --meta query="how to deploy" --meta intent=procedural \
    --meta doc_id=doc-123 --meta semantic_score=0.82 \
    --meta keyword_score=0.4 --meta recency_score=0.9 \
    --meta click_through=true --meta dwell_time_seconds=75`,
	RunE: runTraceEmit,
}

func init() {
	traceEmitCmd.Flags().StringVar(&traceStage, "stage", string(tracelog.StageReranking), "pipeline stage")
	traceEmitCmd.Flags().Float64Var(&traceLatency, "latency", 0, "stage latency in milliseconds")
	traceEmitCmd.Flags().IntVar(&traceTokens, "tokens", -1, "tokens used (omit if negative)")
	traceEmitCmd.Flags().BoolVar(&traceCacheHit, "cache-hit", false, "mark the event as a cache hit")
	traceEmitCmd.Flags().BoolVar(&traceCacheMiss, "cache-miss", false, "mark the event as a cache miss")
	traceEmitCmd.Flags().StringVar(&traceRequestID, "request-id", "", "request id (default: random UUID)")
	traceEmitCmd.Flags().StringVar(&traceUserID, "user", "", "user id")
	traceEmitCmd.Flags().StringArrayVar(&traceMeta, "meta", nil, "metadata key=value (repeatable)")

	traceCmd.AddCommand(traceEmitCmd)
}

func runTraceEmit(cmd *cobra.Command, args []string) error {
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

	stage := tracelog.Stage(traceStage)
	if !stage.Valid() {
		return fmt.Errorf("unknown stage %q", traceStage)
	}
	if traceCacheHit && traceCacheMiss {
		return fmt.Errorf("--cache-hit and --cache-miss are mutually exclusive")
	}

	metadata, err := parseMetadata(traceMeta)
	if err != nil {
		return err
	}

	requestID := traceRequestID
	if requestID == "" {
		requestID = uuid.NewString()
	}

	event := tracelog.Event{
		Timestamp: time.Now().UTC(),
		Stage:     stage,
		LatencyMS: traceLatency,
		Metadata:  metadata,
		RequestID: requestID,
		UserID:    traceUserID,
	}
	if traceTokens >= 0 {
		event.TokensUsed = &traceTokens
	}
	if traceCacheHit || traceCacheMiss {
		hit := traceCacheHit
		event.CacheHit = &hit
	}

	store, err := tracelog.NewStore(cfg.Trace.Path, logger.Underlying().Named("tracelog"))
	if err != nil {
		return fmt.Errorf("opening trace store: %w", err)
	}

	store.LogEvent(cmd.Context(), event)

	fmt.Printf("Appended %s event %s to %s\n", stage, requestID, cfg.Trace.Path)
	return nil
}

// parseMetadata converts key=value flags into an event metadata map,
// coercing booleans and numbers.
func parseMetadata(entries []string) (tracelog.Metadata, error) {
	if len(entries) == 0 {
		return nil, nil
	}

	metadata := make(tracelog.Metadata, len(entries))
	for _, entry := range entries {
		key, value, found := strings.Cut(entry, "=")
		if !found || key == "" {
			return nil, fmt.Errorf("metadata must be key=value, got %q", entry)
		}

		switch {
		case value == "true" || value == "false":
			metadata[key] = value == "true"
		default:
			if f, err := strconv.ParseFloat(value, 64); err == nil {
				metadata[key] = f
			} else {
				metadata[key] = value
			}
		}
	}
	return metadata, nil
}
