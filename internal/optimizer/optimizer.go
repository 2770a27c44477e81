package optimizer

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/rankd/internal/extraction"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

// simplexTolerance matches the load-time tolerance on the weight sum.
const simplexTolerance = 0.01

// Optimizer runs the constrained grid search. The search is pure CPU work
// with no early exit; callers needing bounded latency choose the grid step
// accordingly — a step of g evaluates at most (1/g + 1)^2 combinations
// before the simplex constraint prunes them.
type Optimizer struct {
	logger *zap.Logger
}

// New creates an optimizer.
func New(logger *zap.Logger) *Optimizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Optimizer{logger: logger}
}

// OptimizeWeights searches the simplex grid for the weight vector maximizing
// NDCG@k over the supplied pairs, treating the full pool as a single query's
// result list.
//
// The grid iterates semantic weight ascending in the outer loop and keyword
// weight ascending in the inner loop, keeping only strictly better scores.
// Exact NDCG ties therefore resolve to the earliest combination found, the
// one with the lowest semantic weight and then the lowest keyword weight.
// The tie-break is deterministic so repeated runs over the same data produce
// identical artifacts.
func (o *Optimizer) OptimizeWeights(pairs []extraction.TrainingPair, intent string, gridStep float64, k int) (weights.Optimized, error) {
	if len(pairs) == 0 {
		return weights.Optimized{}, fmt.Errorf("optimizer: no training pairs for intent %q", intent)
	}
	if gridStep <= 0 || gridStep > 1 {
		return weights.Optimized{}, fmt.Errorf("optimizer: grid step must be in (0,1], got %v", gridStep)
	}
	if k <= 0 {
		k = 5
	}

	relevances := make([]float64, len(pairs))
	for i, p := range pairs {
		relevances[i] = p.RelevanceLabel
	}

	steps := int(math.Floor(1.0/gridStep + 1e-9))
	predicted := make([]float64, len(pairs))

	best := weights.Optimized{}
	bestScore := math.Inf(-1)
	found := false

	for si := 0; si <= steps; si++ {
		semantic := float64(si) * gridStep
		for ki := 0; ki <= steps; ki++ {
			keyword := float64(ki) * gridStep
			recency := 1.0 - semantic - keyword

			// Clamp floating-point drift, then discard combinations
			// outside the simplex.
			if recency < 0 && recency > -1e-9 {
				recency = 0
			}
			if recency < 0 || recency > 1 {
				continue
			}
			if math.Abs(semantic+keyword+recency-1.0) > simplexTolerance {
				continue
			}

			for i, p := range pairs {
				predicted[i] = semantic*p.SemanticScore + keyword*p.KeywordScore + recency*p.RecencyScore
			}

			score, err := NDCGAtK(relevances, predicted, k)
			if err != nil {
				return weights.Optimized{}, err
			}

			if score > bestScore {
				bestScore = score
				best = weights.Optimized{
					Intent:           intent,
					SemanticWeight:   semantic,
					KeywordWeight:    keyword,
					RecencyWeight:    recency,
					NDCGAt5:          score,
					NumTrainingPairs: len(pairs),
				}
				found = true
			}
		}
	}

	if !found {
		// Unreachable with a sane grid, but the contract is explicit:
		// fall back rather than fail.
		o.logger.Warn("optimizer: no valid grid combination, using default weights",
			zap.String("intent", intent),
			zap.Float64("grid_step", gridStep))
		fallback := weights.DefaultFallback(intent)
		fallback.NDCGAt5 = 0.0
		fallback.NumTrainingPairs = len(pairs)
		return fallback, nil
	}

	o.logger.Info("optimizer: weights learned",
		zap.String("intent", intent),
		zap.Int("pairs", len(pairs)),
		zap.Float64("semantic", best.SemanticWeight),
		zap.Float64("keyword", best.KeywordWeight),
		zap.Float64("recency", best.RecencyWeight),
		zap.Float64("ndcg_at_5", best.NDCGAt5))

	return best, nil
}

// OptimizeAllIntents groups pairs by intent and optimizes each group
// independently — no cross-intent regularization or sharing. Intents with
// fewer than minPairsPerIntent pairs are skipped with a warning and omitted
// from the result; that is expected behavior, not an error.
func (o *Optimizer) OptimizeAllIntents(pairs []extraction.TrainingPair, gridStep float64, k, minPairsPerIntent int) (map[string]weights.Optimized, error) {
	if len(pairs) == 0 {
		return nil, fmt.Errorf("optimizer: no training pairs")
	}
	if gridStep <= 0 || gridStep > 1 {
		return nil, fmt.Errorf("optimizer: grid step must be in (0,1], got %v", gridStep)
	}

	byIntent := make(map[string][]extraction.TrainingPair)
	for _, p := range pairs {
		byIntent[p.Intent] = append(byIntent[p.Intent], p)
	}

	// Deterministic processing order for reproducible logs.
	intents := make([]string, 0, len(byIntent))
	for intent := range byIntent {
		intents = append(intents, intent)
	}
	sort.Strings(intents)

	result := make(map[string]weights.Optimized)
	for _, intent := range intents {
		group := byIntent[intent]
		if len(group) < minPairsPerIntent {
			o.logger.Warn("optimizer: skipping intent with insufficient pairs",
				zap.String("intent", intent),
				zap.Int("pairs", len(group)),
				zap.Int("min_required", minPairsPerIntent))
			continue
		}
		optimized, err := o.OptimizeWeights(group, intent, gridStep, k)
		if err != nil {
			return nil, err
		}
		result[intent] = optimized
	}

	return result, nil
}
