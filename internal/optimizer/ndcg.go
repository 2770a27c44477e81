// Package optimizer learns per-intent re-ranking weight vectors from
// extracted training pairs via a constrained grid search over the weight
// simplex, maximizing NDCG@k.
package optimizer

import (
	"fmt"
	"math"
	"sort"
)

// NDCGAtK computes Normalized Discounted Cumulative Gain at rank cutoff k.
//
// relevances and predicted must be parallel lists: predicted[i] is the
// model's score for the item whose true graded relevance is relevances[i].
// Items are ranked by predicted score descending; DCG@k sums rel/log2(i+1)
// over the top k of that order, IDCG@k over the ideal (relevance-descending)
// order, and NDCG is their ratio.
//
// Returns 0.0 for empty inputs or when IDCG is zero (all relevances zero).
// k is clamped to the number of items. Mismatched lengths are a caller
// contract violation and return an error.
func NDCGAtK(relevances, predicted []float64, k int) (float64, error) {
	if len(relevances) != len(predicted) {
		return 0, fmt.Errorf("optimizer: mismatched lengths: %d relevances vs %d predictions",
			len(relevances), len(predicted))
	}
	if len(relevances) == 0 || k <= 0 {
		return 0, nil
	}
	if k > len(relevances) {
		k = len(relevances)
	}

	// Rank by predicted score descending.
	order := make([]int, len(predicted))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return predicted[order[a]] > predicted[order[b]]
	})

	dcg := 0.0
	for i := 0; i < k; i++ {
		dcg += relevances[order[i]] / math.Log2(float64(i)+2)
	}

	// Ideal order: relevance descending.
	ideal := make([]float64, len(relevances))
	copy(ideal, relevances)
	sort.Sort(sort.Reverse(sort.Float64Slice(ideal)))

	idcg := 0.0
	for i := 0; i < k; i++ {
		idcg += ideal[i] / math.Log2(float64(i)+2)
	}

	if idcg == 0 {
		return 0, nil
	}
	return dcg / idcg, nil
}
