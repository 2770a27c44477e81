// Package extraction mines supervised training pairs from reranking-stage
// trace events. Each qualifying event yields exactly one pair; low-quality
// events are rejected by a heuristic quality gate before a graded relevance
// label is inferred from indirect user-feedback signals.
package extraction

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"
)

// TrainingPair is one supervised example for the weight optimizer. The JSON
// field names form the training-pairs export contract and must not change.
type TrainingPair struct {
	Query          string    `json:"query"`
	Intent         string    `json:"intent"`
	DocID          string    `json:"doc_id"`
	SemanticScore  float64   `json:"semantic_score"`
	KeywordScore   float64   `json:"keyword_score"`
	RecencyScore   float64   `json:"recency_score"`
	RelevanceLabel float64   `json:"relevance_label"`
	Timestamp      time.Time `json:"timestamp"`
	// Metadata carries the extraction quality score and the source event's
	// latency and cache flag for auditability.
	Metadata map[string]any `json:"metadata,omitempty"`
}

// WritePairs exports pairs as JSONL, one record per line, creating parent
// directories as needed.
func WritePairs(path string, pairs []TrainingPair) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("extraction: failed to create export file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	enc := json.NewEncoder(w)
	for _, pair := range pairs {
		if err := enc.Encode(pair); err != nil {
			return fmt.Errorf("extraction: failed to encode pair: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("extraction: failed to flush export file: %w", err)
	}
	return nil
}

// LoadPairs reads a JSONL training-pairs export, for reproducing an
// optimization run from a saved dataset. Unlike trace scanning, a malformed
// line here is an error: exports are produced by this package and corruption
// means the artifact cannot be trusted.
func LoadPairs(path string) ([]TrainingPair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("extraction: failed to open export file: %w", err)
	}
	defer f.Close()

	var pairs []TrainingPair
	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var pair TrainingPair
		if err := json.Unmarshal([]byte(line), &pair); err != nil {
			return nil, fmt.Errorf("extraction: malformed pair at line %d: %w", lineNum, err)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("extraction: failed to scan export file: %w", err)
	}
	return pairs, nil
}
