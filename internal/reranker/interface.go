// Package reranker provides document re-ranking functionality for improving search quality.
package reranker

import (
	"context"
)

// Document represents a retrieved document carrying the per-signal scores
// produced by the retrieval pipeline.
type Document struct {
	ID            string  // Unique identifier for the document
	Content       string  // Text content, carried through for the caller
	SemanticScore float64 // Embedding similarity score (0.0-1.0)
	KeywordScore  float64 // Lexical match score (0.0-1.0)
	RecencyScore  float64 // Freshness score (0.0-1.0)
}

// ScoredDocument represents a document with its fused re-ranking score.
type ScoredDocument struct {
	Document
	RerankerScore float64 // Fused score used for the final ordering
	OriginalRank  int     // Original rank position in results (0-indexed)
}

// Reranker provides an interface for document re-ranking algorithms.
type Reranker interface {
	// Rerank re-ranks documents for the given query intent.
	// Returns documents sorted by RerankerScore in descending order,
	// limited to topK results. topK <= 0 means no limit.
	//
	// The caller is responsible for ensuring ctx is not nil.
	Rerank(ctx context.Context, intent string, docs []Document, topK int) ([]ScoredDocument, error)

	// Close closes the reranker and releases any resources.
	// Should be called when the reranker is no longer needed.
	Close() error
}
