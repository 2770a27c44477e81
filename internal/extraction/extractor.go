package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

// defaultWindow is the trailing window of events considered when the caller
// does not bound the extraction explicitly.
const defaultWindow = 7 * 24 * time.Hour

// defaultIntent labels pairs whose source event carries no intent; the
// classifier output is opaque and optional upstream.
const defaultIntent = "general"

// Options configures one extraction run.
type Options struct {
	// MinQuality is the minimum quality score; events scoring below it are
	// discarded. Must be in [0,1].
	MinQuality float64
	// Since and Until bound the scan; zero values default to the trailing
	// seven days ending now.
	Since time.Time
	Until time.Time
	// SinkPath, when non-empty, additionally exports every emitted pair as
	// JSONL to that path, creating parent directories as needed.
	SinkPath string
}

// Extractor converts reranking-stage trace events into labeled training
// pairs.
type Extractor struct {
	store  *tracelog.Store
	logger *zap.Logger
}

// NewExtractor creates an extractor over the given trace store.
func NewExtractor(store *tracelog.Store, logger *zap.Logger) (*Extractor, error) {
	if store == nil {
		return nil, fmt.Errorf("extraction: store is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Extractor{store: store, logger: logger}, nil
}

// ExtractPairs scans reranking events in the window and emits one training
// pair per qualifying event.
//
// A missing trace source file is an error: an extraction run over a log that
// does not exist is a misconfiguration, unlike the per-event skips which are
// expected and silent.
func (e *Extractor) ExtractPairs(ctx context.Context, opts Options) ([]TrainingPair, error) {
	if opts.MinQuality < 0 || opts.MinQuality > 1 {
		return nil, fmt.Errorf("extraction: min quality must be in [0,1], got %v", opts.MinQuality)
	}
	if _, err := os.Stat(e.store.Path()); err != nil {
		return nil, fmt.Errorf("extraction: trace source unavailable: %w", err)
	}

	since, until := opts.Since, opts.Until
	if since.IsZero() && until.IsZero() {
		until = time.Now().UTC()
		since = until.Add(-defaultWindow)
	}

	events, err := e.store.Events(ctx, tracelog.Filter{
		Since: since,
		Until: until,
		Stage: tracelog.StageReranking,
	})
	if err != nil {
		return nil, err
	}

	pairs := make([]TrainingPair, 0, len(events))
	skippedQuality := 0
	skippedFields := 0

	for _, ev := range events {
		quality := QualityScore(ev)
		if quality < opts.MinQuality {
			skippedQuality++
			continue
		}

		pair, ok := e.buildPair(ev, quality)
		if !ok {
			skippedFields++
			continue
		}
		pairs = append(pairs, pair)
	}

	e.logger.Info("extraction complete",
		zap.Int("events_scanned", len(events)),
		zap.Int("pairs_emitted", len(pairs)),
		zap.Int("skipped_low_quality", skippedQuality),
		zap.Int("skipped_missing_fields", skippedFields),
		zap.Float64("min_quality", opts.MinQuality))

	if opts.SinkPath != "" {
		if err := WritePairs(opts.SinkPath, pairs); err != nil {
			return nil, err
		}
		e.logger.Info("training pairs exported",
			zap.String("path", opts.SinkPath),
			zap.Int("pairs", len(pairs)))
	}

	return pairs, nil
}

// buildPair assembles a pair from one event, reporting ok=false when a
// required field is absent. Channel scores follow the scorePresent rule:
// zero values count as missing.
func (e *Extractor) buildPair(ev tracelog.Event, quality float64) (TrainingPair, bool) {
	md := ev.Metadata

	semantic, semOK := md.SemanticScore()
	keyword, keyOK := md.KeywordScore()
	recency, recOK := md.RecencyScore()
	if !scorePresent(semantic, semOK) || !scorePresent(keyword, keyOK) || !scorePresent(recency, recOK) {
		return TrainingPair{}, false
	}

	query, ok := md.Query()
	if !ok || query == "" {
		return TrainingPair{}, false
	}
	docID, ok := md.DocID()
	if !ok || docID == "" {
		return TrainingPair{}, false
	}

	intent, ok := md.Intent()
	if !ok || intent == "" {
		intent = defaultIntent
	}

	audit := map[string]any{
		"quality_score": quality,
		"latency_ms":    ev.LatencyMS,
	}
	if ev.CacheHit != nil {
		audit["cache_hit"] = *ev.CacheHit
	}

	return TrainingPair{
		Query:          query,
		Intent:         intent,
		DocID:          docID,
		SemanticScore:  semantic,
		KeywordScore:   keyword,
		RecencyScore:   recency,
		RelevanceLabel: InferRelevance(md),
		Timestamp:      ev.Timestamp,
		Metadata:       audit,
	}, true
}

// ensureParentDir creates the parent directory of path if needed.
func ensureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("extraction: failed to create directory: %w", err)
	}
	return nil
}
