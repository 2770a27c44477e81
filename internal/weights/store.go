package weights

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Save serializes the per-intent mapping to a single JSON document at path,
// creating parent directories as needed and overwriting any existing file
// wholesale.
//
// The write goes to a temporary file followed by an atomic rename, so a
// concurrently reloading re-ranker can never observe a partially written
// artifact.
func Save(path string, byIntent map[string]Optimized) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("weights: failed to create directory: %w", err)
		}
	}

	doc := make(map[string]Optimized, len(byIntent))
	for intent, v := range byIntent {
		doc[intent] = roundForArtifact(v)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("weights: failed to encode artifact: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp.*")
	if err != nil {
		return fmt.Errorf("weights: failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("weights: failed to write artifact: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("weights: failed to sync artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("weights: failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("weights: failed to finalize artifact: %w", err)
	}
	return nil
}

// Load reads and validates the artifact at path. A missing file is an error;
// this is the explicit, document-facing load. The serving path uses
// Table.Reload, which falls back instead of failing.
//
// Entries that fail validation are rejected with an error here, unlike the
// per-intent skip of the fault-tolerant path.
func Load(path string) (map[string]Optimized, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("weights: failed to read artifact: %w", err)
	}

	var doc map[string]Optimized
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("weights: failed to parse artifact: %w", err)
	}

	byIntent := make(map[string]Optimized, len(doc))
	for intent, v := range doc {
		v.Intent = intent
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("weights: invalid entry for intent %q: %w", intent, err)
		}
		byIntent[intent] = v
	}
	return byIntent, nil
}

// loadLenient parses the artifact, replacing each invalid entry with that
// intent's default instead of failing. Used by the serving-side Table.
func loadLenient(path string, logger *zap.Logger) (map[string]Optimized, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc map[string]Optimized
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	byIntent := make(map[string]Optimized, len(doc))
	for intent, v := range doc {
		v.Intent = intent
		if err := v.Validate(); err != nil {
			logger.Warn("weights: skipping invalid entry, using default",
				zap.String("intent", intent),
				zap.Error(err))
			byIntent[intent] = Default(intent)
			continue
		}
		byIntent[intent] = v
	}
	return byIntent, nil
}

// roundForArtifact rounds for readability; four decimals keeps the simplex
// invariant well inside tolerance.
func roundForArtifact(v Optimized) Optimized {
	v.SemanticWeight = round4(v.SemanticWeight)
	v.KeywordWeight = round4(v.KeywordWeight)
	v.RecencyWeight = round4(v.RecencyWeight)
	v.NDCGAt5 = round4(v.NDCGAt5)
	return v
}

func round4(x float64) float64 {
	return math.Round(x*10000) / 10000
}
