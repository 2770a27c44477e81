package extraction

import "github.com/fyrsmithlabs/rankd/internal/tracelog"

// Quality-check weights. The four checks are independent; their sum is the
// event's quality score in [0,1].
const (
	qualityAllScores      = 0.3 // all three channel scores present
	qualityFeedbackSignal = 0.3 // at least one user-feedback signal
	qualityLowLatency     = 0.2 // latency under the threshold below
	qualityCacheMiss      = 0.2 // cache_hit explicitly false

	// lowLatencyThresholdMS gates the latency quality check.
	lowLatencyThresholdMS = 500
)

// Relevance-inference constants.
const (
	relevanceBase     = 0.5
	clickBoost        = 0.3
	dwellCap          = 0.5
	dwellFullSeconds  = 120 // dwell time that earns the full cap
	citationBoost     = 0.4
	ratingRunningPart = 0.2
	ratingDirectPart  = 0.8
)

// QualityScore estimates how trustworthy an event is as training signal,
// independent of the relevance label itself.
func QualityScore(ev tracelog.Event) float64 {
	score := 0.0
	md := ev.Metadata

	if _, ok := md.SemanticScore(); ok {
		if _, ok := md.KeywordScore(); ok {
			if _, ok := md.RecencyScore(); ok {
				score += qualityAllScores
			}
		}
	}

	if md.HasFeedbackSignal() {
		score += qualityFeedbackSignal
	}

	if ev.LatencyMS < lowLatencyThresholdMS {
		score += qualityLowLatency
	}

	// A cache hit is penalized: the ideal training signal comes from a
	// fresh, uncached retrieval. Whether a hit should disqualify the event
	// outright rather than just lower its score is an open product
	// question; current behavior only lowers the score.
	if ev.CacheHit != nil && !*ev.CacheHit {
		score += qualityCacheMiss
	}

	return score
}

// InferRelevance infers a graded relevance label in [0,1] from whatever
// feedback signals are present in the metadata.
//
// An explicit 1-5 star rating dominates: the running total contributes only
// 20% and the normalized rating 80%. If no signal is present at all, the
// neutral base 0.5 is returned as-is; callers cannot distinguish "no signal"
// from "genuinely neutral feedback". That ambiguity is inherited from the
// source design and deliberately not resolved here.
func InferRelevance(md tracelog.Metadata) float64 {
	score := relevanceBase

	if click, ok := md.ClickThrough(); ok && click {
		score += clickBoost
	}

	if dwell, ok := md.DwellSeconds(); ok && dwell > 0 {
		contribution := dwell / dwellFullSeconds * dwellCap
		if contribution > dwellCap {
			contribution = dwellCap
		}
		score += contribution
	}

	if rating, ok := md.ExplicitRating(); ok {
		normalized := (rating - 1) / 4
		score = ratingRunningPart*score + ratingDirectPart*normalized
	}

	if cited, ok := md.CitationUsed(); ok && cited {
		score += citationBoost
	}

	return clamp01(score)
}

// scorePresent applies the field-presence rule of the extraction pipeline:
// a channel score counts as present only when it is set AND non-zero.
//
// Treating 0.0 as "missing" is almost certainly an accident of the original
// truthiness-based check rather than deliberate design — a genuinely
// zero-scored channel is dropped. The behavior is preserved on purpose so
// that trained weights stay comparable with the original pipeline's; it is
// pinned by a test and raised as an open question rather than silently
// fixed.
const zeroScoreMeansMissing = true

func scorePresent(value float64, ok bool) bool {
	if !ok {
		return false
	}
	if zeroScoreMeansMissing && value == 0 {
		return false
	}
	return true
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
