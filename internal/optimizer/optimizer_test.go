package optimizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rankd/internal/extraction"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

func newTestOptimizer(t *testing.T) *Optimizer {
	t.Helper()
	return New(zap.NewNop())
}

// semanticDominantPairs builds pairs where semantic_score perfectly
// predicts the relevance label while keyword and recency are constant.
func semanticDominantPairs(intent string, n int) []extraction.TrainingPair {
	pairs := make([]extraction.TrainingPair, 0, n)
	for i := 0; i < n; i++ {
		label := float64(i) / float64(n)
		pairs = append(pairs, extraction.TrainingPair{
			Query:          "how to configure the scheduler",
			Intent:         intent,
			DocID:          "doc-" + string(rune('a'+i%26)),
			SemanticScore:  label,
			KeywordScore:   0.5,
			RecencyScore:   0.5,
			RelevanceLabel: label,
		})
	}
	return pairs
}

func assertSimplex(t *testing.T, w weights.Optimized) {
	t.Helper()
	sum := w.SemanticWeight + w.KeywordWeight + w.RecencyWeight
	assert.InDelta(t, 1.0, sum, 0.01)
	for _, v := range []float64{w.SemanticWeight, w.KeywordWeight, w.RecencyWeight} {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestOptimizeWeightsSemanticDominant(t *testing.T) {
	opt := newTestOptimizer(t)
	pairs := semanticDominantPairs("factual", 5)

	result, err := opt.OptimizeWeights(pairs, "factual", 0.1, 5)
	require.NoError(t, err)

	assert.InDelta(t, 1.0, result.NDCGAt5, 1e-9)
	assert.Equal(t, 5, result.NumTrainingPairs)
	assert.Equal(t, "factual", result.Intent)
	assertSimplex(t, result)
}

func TestOptimizeWeightsEmptyPairs(t *testing.T) {
	opt := newTestOptimizer(t)

	_, err := opt.OptimizeWeights(nil, "factual", 0.1, 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no training pairs")
}

func TestOptimizeWeightsInvalidGridStep(t *testing.T) {
	opt := newTestOptimizer(t)
	pairs := semanticDominantPairs("factual", 5)

	for _, step := range []float64{0, -0.1, 1.5} {
		_, err := opt.OptimizeWeights(pairs, "factual", step, 5)
		require.Error(t, err, "grid step %v", step)
	}
}

func TestOptimizeWeightsTieBreakDeterministic(t *testing.T) {
	opt := newTestOptimizer(t)

	// All candidate weightings produce an identical NDCG because every
	// label is the same, so the first candidate visited must win:
	// lowest semantic, then lowest keyword.
	pairs := make([]extraction.TrainingPair, 0, 4)
	for i := 0; i < 4; i++ {
		pairs = append(pairs, extraction.TrainingPair{
			Query:          "q",
			Intent:         "general",
			DocID:          "doc",
			SemanticScore:  0.5,
			KeywordScore:   0.5,
			RecencyScore:   0.5,
			RelevanceLabel: 0.8,
		})
	}

	first, err := opt.OptimizeWeights(pairs, "general", 0.1, 5)
	require.NoError(t, err)
	second, err := opt.OptimizeWeights(pairs, "general", 0.1, 5)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.InDelta(t, 0.0, first.SemanticWeight, 1e-9)
	assert.InDelta(t, 0.0, first.KeywordWeight, 1e-9)
	assert.InDelta(t, 1.0, first.RecencyWeight, 1e-9)
}

func TestOptimizeWeightsSimplexAcrossGridSteps(t *testing.T) {
	opt := newTestOptimizer(t)
	pairs := semanticDominantPairs("general", 10)

	for _, step := range []float64{0.05, 0.1, 0.2, 0.25, 0.5, 1.0} {
		result, err := opt.OptimizeWeights(pairs, "general", step, 5)
		require.NoError(t, err, "grid step %v", step)
		assertSimplex(t, result)
	}
}

func TestOptimizeAllIntentsMinimumPairs(t *testing.T) {
	opt := newTestOptimizer(t)

	var pairs []extraction.TrainingPair
	pairs = append(pairs, semanticDominantPairs("factual", 20)...)
	pairs = append(pairs, semanticDominantPairs("procedural", 15)...)
	pairs = append(pairs, semanticDominantPairs("navigation", 8)...)

	results, err := opt.OptimizeAllIntents(pairs, 0.1, 5, 10)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Contains(t, results, "factual")
	assert.Contains(t, results, "procedural")
	assert.NotContains(t, results, "navigation")

	assert.Equal(t, 20, results["factual"].NumTrainingPairs)
	assert.Equal(t, 15, results["procedural"].NumTrainingPairs)
	for intent, w := range results {
		assert.Equal(t, intent, w.Intent)
		assertSimplex(t, w)
	}
}

func TestOptimizeAllIntentsEmpty(t *testing.T) {
	opt := newTestOptimizer(t)

	_, err := opt.OptimizeAllIntents(nil, 0.1, 5, 10)
	require.Error(t, err)
}

func TestOptimizeAllIntentsInvalidGridStep(t *testing.T) {
	opt := newTestOptimizer(t)
	pairs := semanticDominantPairs("factual", 12)

	_, err := opt.OptimizeAllIntents(pairs, 0, 5, 10)
	require.Error(t, err)
}
