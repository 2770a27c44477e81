// Package tracelog provides the append-only trace event log for the RAG
// pipeline. One JSON record is written per pipeline-stage execution; the log
// is the single source of truth for metrics aggregation and training-pair
// extraction.
//
// The JSONL format is a boundary contract with the pipeline stages that emit
// events and with offline analysis tooling, and must be preserved verbatim.
package tracelog

import "time"

// Stage identifies a pipeline stage. The set is closed; unknown stages in
// the log are still iterable but never match a stage filter.
type Stage string

const (
	StageIntentClassification Stage = "intent_classification"
	StageQueryRewriting       Stage = "query_rewriting"
	StageRetrieval            Stage = "retrieval"
	StageReranking            Stage = "reranking"
	StageGeneration           Stage = "generation"
	StageMemoryRetrieval      Stage = "memory_retrieval"
	StageGraphTraversal       Stage = "graph_traversal"
	StageCacheLookup          Stage = "cache_lookup"
)

// Valid reports whether the stage is one of the known pipeline stages.
func (s Stage) Valid() bool {
	switch s {
	case StageIntentClassification, StageQueryRewriting, StageRetrieval,
		StageReranking, StageGeneration, StageMemoryRetrieval,
		StageGraphTraversal, StageCacheLookup:
		return true
	}
	return false
}

// Event is one observation of a pipeline-stage execution. Events are
// immutable once written; the store is append-only.
type Event struct {
	Timestamp  time.Time `json:"timestamp"`
	Stage      Stage     `json:"stage"`
	LatencyMS  float64   `json:"latency_ms"`
	TokensUsed *int      `json:"tokens_used,omitempty"`
	CacheHit   *bool     `json:"cache_hit,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	RequestID  string    `json:"request_id,omitempty"`
	UserID     string    `json:"user_id,omitempty"`
}

// Metadata is the open, stage-specific key/value payload of an event.
// Consumers access well-known fields through the named accessors below so
// that every consumer agrees on field names and types in one place.
type Metadata map[string]any

// Well-known metadata keys written by the pipeline stages.
const (
	keyQuery          = "query"
	keyIntent         = "intent"
	keyDocID          = "doc_id"
	keySemanticScore  = "semantic_score"
	keyKeywordScore   = "keyword_score"
	keyRecencyScore   = "recency_score"
	keyClickThrough   = "click_through"
	keyDwellSeconds   = "dwell_time_seconds"
	keyExplicitRating = "explicit_rating"
	keyCitationUsed   = "citation_used"
)

// Float returns a numeric metadata value. JSON decoding produces float64,
// but events constructed in-process may carry native int values.
func (m Metadata) Float(key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

// Bool returns a boolean metadata value.
func (m Metadata) Bool(key string) (bool, bool) {
	v, ok := m[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// String returns a string metadata value.
func (m Metadata) String(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Named accessors for the fields the learning loop consumes.

func (m Metadata) Query() (string, bool)          { return m.String(keyQuery) }
func (m Metadata) Intent() (string, bool)         { return m.String(keyIntent) }
func (m Metadata) DocID() (string, bool)          { return m.String(keyDocID) }
func (m Metadata) SemanticScore() (float64, bool) { return m.Float(keySemanticScore) }
func (m Metadata) KeywordScore() (float64, bool)  { return m.Float(keyKeywordScore) }
func (m Metadata) RecencyScore() (float64, bool)  { return m.Float(keyRecencyScore) }
func (m Metadata) ClickThrough() (bool, bool)     { return m.Bool(keyClickThrough) }
func (m Metadata) DwellSeconds() (float64, bool)  { return m.Float(keyDwellSeconds) }
func (m Metadata) ExplicitRating() (float64, bool) {
	return m.Float(keyExplicitRating)
}
func (m Metadata) CitationUsed() (bool, bool) { return m.Bool(keyCitationUsed) }

// HasFeedbackSignal reports whether any indirect user-feedback signal is
// present (click-through, dwell time, explicit rating, or citation use).
func (m Metadata) HasFeedbackSignal() bool {
	if _, ok := m[keyClickThrough]; ok {
		return true
	}
	if _, ok := m[keyDwellSeconds]; ok {
		return true
	}
	if _, ok := m[keyExplicitRating]; ok {
		return true
	}
	if _, ok := m[keyCitationUsed]; ok {
		return true
	}
	return false
}
