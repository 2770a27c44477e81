package reranker

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rankd/internal/weights"
)

// ErrNilContext is returned when a nil context is passed to Rerank.
var ErrNilContext = errors.New("context cannot be nil")

// WeightedReranker fuses the per-signal scores of each document with the
// learned weight vector for the query's intent. The weight table is shared
// and may be reloaded concurrently; each Rerank call reads a single
// consistent vector for its intent.
type WeightedReranker struct {
	table  *weights.Table
	logger *zap.Logger
}

// NewWeightedReranker creates a reranker backed by the given weight table.
func NewWeightedReranker(table *weights.Table, logger *zap.Logger) *WeightedReranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WeightedReranker{table: table, logger: logger}
}

// Rerank orders documents by the weighted combination of their semantic,
// keyword, and recency scores using the weight vector learned for intent.
// Unknown intents fall back to the built-in defaults, so reranking never
// fails for lack of learned weights.
func (r *WeightedReranker) Rerank(ctx context.Context, intent string, docs []Document, topK int) ([]ScoredDocument, error) {
	if ctx == nil {
		return nil, ErrNilContext
	}
	if len(docs) == 0 {
		return []ScoredDocument{}, nil
	}
	if topK <= 0 {
		topK = len(docs)
	}

	vector := r.table.Lookup(intent)

	scored := make([]ScoredDocument, len(docs))
	for i, doc := range docs {
		scored[i] = ScoredDocument{
			Document:      doc,
			RerankerScore: vector.Combine(doc.SemanticScore, doc.KeywordScore, doc.RecencyScore),
			OriginalRank:  i,
		}
	}

	// Stable sort keeps the original order for equal fused scores.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].RerankerScore > scored[j].RerankerScore
	})

	if topK > len(scored) {
		topK = len(scored)
	}
	return scored[:topK], nil
}

// Close closes the reranker. The weight table is owned by the caller and is
// not closed here.
func (r *WeightedReranker) Close() error {
	return nil
}

var _ Reranker = (*WeightedReranker)(nil)
