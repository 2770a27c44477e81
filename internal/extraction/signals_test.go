package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

func TestQualityScore(t *testing.T) {
	fullMetadata := tracelog.Metadata{
		"semantic_score": 0.9,
		"keyword_score":  0.5,
		"recency_score":  0.3,
		"click_through":  true,
	}

	tests := []struct {
		name string
		ev   tracelog.Event
		want float64
	}{
		{
			name: "all checks pass",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 120,
				CacheHit:  boolPtr(false),
				Metadata:  fullMetadata,
			},
			want: 1.0,
		},
		{
			name: "no metadata at all",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 600,
			},
			want: 0.0,
		},
		{
			name: "cache hit loses the freshness credit",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 120,
				CacheHit:  boolPtr(true),
				Metadata:  fullMetadata,
			},
			want: 0.8,
		},
		{
			name: "missing cache flag earns nothing",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 120,
				Metadata:  fullMetadata,
			},
			want: 0.8,
		},
		{
			name: "slow event loses latency credit",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 500,
				CacheHit:  boolPtr(false),
				Metadata:  fullMetadata,
			},
			want: 0.8,
		},
		{
			name: "incomplete scores lose the score credit",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 120,
				CacheHit:  boolPtr(false),
				Metadata: tracelog.Metadata{
					"semantic_score": 0.9,
					"click_through":  true,
				},
			},
			want: 0.7,
		},
		{
			name: "no feedback signal",
			ev: tracelog.Event{
				Stage:     tracelog.StageReranking,
				LatencyMS: 120,
				CacheHit:  boolPtr(false),
				Metadata: tracelog.Metadata{
					"semantic_score": 0.9,
					"keyword_score":  0.5,
					"recency_score":  0.3,
				},
			},
			want: 0.7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, QualityScore(tt.ev), 1e-9)
		})
	}
}

func TestInferRelevanceEmptyMetadata(t *testing.T) {
	// No signals at all still yields the neutral base, not an error; a 0.5
	// label is indistinguishable from genuinely neutral feedback.
	assert.Equal(t, 0.5, InferRelevance(tracelog.Metadata{}))
}

func TestInferRelevanceExplicitRatingDominates(t *testing.T) {
	five := InferRelevance(tracelog.Metadata{"explicit_rating": 5})
	assert.GreaterOrEqual(t, five, 0.7)
	assert.LessOrEqual(t, five, 1.0)

	one := InferRelevance(tracelog.Metadata{"explicit_rating": 1})
	assert.GreaterOrEqual(t, one, 0.0)
	assert.LessOrEqual(t, one, 0.2)

	// Rating discounts whatever the other signals accumulated.
	rated := InferRelevance(tracelog.Metadata{
		"click_through":      true,
		"dwell_time_seconds": 300.0,
		"explicit_rating":    3,
	})
	// 0.2*(0.5+0.3+0.5) + 0.8*0.5 = 0.26 + 0.4
	assert.InDelta(t, 0.66, rated, 1e-9)
}

func TestInferRelevanceSignalContributions(t *testing.T) {
	assert.InDelta(t, 0.8, InferRelevance(tracelog.Metadata{"click_through": true}), 1e-9)
	assert.InDelta(t, 0.5, InferRelevance(tracelog.Metadata{"click_through": false}), 1e-9)

	// Dwell scales linearly and caps at +0.5.
	assert.InDelta(t, 0.75, InferRelevance(tracelog.Metadata{"dwell_time_seconds": 60.0}), 1e-9)
	assert.InDelta(t, 1.0, InferRelevance(tracelog.Metadata{"dwell_time_seconds": 600.0}), 1e-9)

	assert.InDelta(t, 0.9, InferRelevance(tracelog.Metadata{"citation_used": true}), 1e-9)
	assert.InDelta(t, 0.5, InferRelevance(tracelog.Metadata{"citation_used": false}), 1e-9)

	// Everything positive clamps to 1.0.
	assert.Equal(t, 1.0, InferRelevance(tracelog.Metadata{
		"click_through":      true,
		"dwell_time_seconds": 240.0,
		"citation_used":      true,
	}))
}

func TestScorePresentZeroQuirk(t *testing.T) {
	// Pins the inherited truthiness behavior: a present-but-zero channel
	// score counts as missing. See zeroScoreMeansMissing.
	assert.False(t, scorePresent(0.0, true))
	assert.False(t, scorePresent(0.5, false))
	assert.True(t, scorePresent(0.5, true))
	assert.True(t, scorePresent(-0.1, true))
}
