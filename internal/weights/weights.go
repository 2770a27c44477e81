// Package weights defines the learned per-intent re-ranking weight vectors,
// their durable JSON artifact, and the runtime table the serving re-ranker
// reads. The artifact is the boundary contract between the offline
// optimization job and the live serving path.
package weights

import (
	"fmt"
	"math"
)

// sumTolerance is the allowed drift of semantic+keyword+recency from 1.0.
// Vectors outside the tolerance are rejected at load time.
const sumTolerance = 0.01

// Optimized is the learned weight vector for one intent, together with the
// audit fields persisted alongside it.
type Optimized struct {
	// Intent is carried in memory only; in the artifact it is the key.
	Intent string `json:"-"`

	SemanticWeight   float64 `json:"semantic_weight"`
	KeywordWeight    float64 `json:"keyword_weight"`
	RecencyWeight    float64 `json:"recency_weight"`
	NDCGAt5          float64 `json:"ndcg_at_5"`
	NumTrainingPairs int     `json:"num_training_pairs"`
}

// Validate checks the simplex invariant: all three weights in [0,1] and
// summing to 1.0 within tolerance.
func (o Optimized) Validate() error {
	for name, w := range map[string]float64{
		"semantic_weight": o.SemanticWeight,
		"keyword_weight":  o.KeywordWeight,
		"recency_weight":  o.RecencyWeight,
	} {
		if w < 0 || w > 1 {
			return fmt.Errorf("weights: %s out of [0,1]: %v", name, w)
		}
	}
	sum := o.SemanticWeight + o.KeywordWeight + o.RecencyWeight
	if math.Abs(sum-1.0) > sumTolerance {
		return fmt.Errorf("weights: vector sums to %v, want 1.0 +/- %v", sum, sumTolerance)
	}
	return nil
}

// Combine computes the weighted linear combination of the three channel
// scores. The serving re-ranker and the optimizer's predicted score must use
// this identical combination for the learned weights to be meaningful.
func (o Optimized) Combine(semantic, keyword, recency float64) float64 {
	return o.SemanticWeight*semantic + o.KeywordWeight*keyword + o.RecencyWeight*recency
}

// defaultVector is the fallback applied to intents with no learned or
// recognizable entry.
var defaultVector = Optimized{
	SemanticWeight: 0.6,
	KeywordWeight:  0.3,
	RecencyWeight:  0.1,
}

// intentDefaults is the hardcoded per-intent fallback table used until an
// optimization run produces learned vectors, and for entries that fail
// validation at load time.
var intentDefaults = map[string]Optimized{
	"factual":        {SemanticWeight: 0.7, KeywordWeight: 0.2, RecencyWeight: 0.1},
	"procedural":     {SemanticWeight: 0.6, KeywordWeight: 0.3, RecencyWeight: 0.1},
	"comparison":     {SemanticWeight: 0.65, KeywordWeight: 0.25, RecencyWeight: 0.1},
	"recommendation": {SemanticWeight: 0.5, KeywordWeight: 0.2, RecencyWeight: 0.3},
	"navigation":     {SemanticWeight: 0.3, KeywordWeight: 0.6, RecencyWeight: 0.1},
	"keyword":        {SemanticWeight: 0.2, KeywordWeight: 0.7, RecencyWeight: 0.1},
	"exploratory":    {SemanticWeight: 0.6, KeywordWeight: 0.2, RecencyWeight: 0.2},
	"general":        defaultVector,
}

// Default returns the fallback vector for an intent. Unknown intents get
// the global default; intent strings are free-form upstream.
func Default(intent string) Optimized {
	if v, ok := intentDefaults[intent]; ok {
		v.Intent = intent
		return v
	}
	v := defaultVector
	v.Intent = intent
	return v
}

// DefaultFallback returns the global default vector used when the optimizer
// finds no valid grid combination.
func DefaultFallback(intent string) Optimized {
	v := defaultVector
	v.Intent = intent
	return v
}

// Defaults returns a copy of the full per-intent fallback table.
func Defaults() map[string]Optimized {
	table := make(map[string]Optimized, len(intentDefaults))
	for intent := range intentDefaults {
		table[intent] = Default(intent)
	}
	return table
}
