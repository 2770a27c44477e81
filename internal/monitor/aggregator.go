// Package monitor computes time-windowed statistics over the trace log for
// observability dashboards and ad-hoc queries.
package monitor

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
)

// Summary holds aggregate statistics over a window of trace events.
type Summary struct {
	EventCount    int     `json:"event_count"`
	MeanLatencyMS float64 `json:"mean_latency_ms"`
	P95LatencyMS  float64 `json:"p95_latency_ms"`
	TotalTokens   int     `json:"total_tokens"`
	// CacheHitRate is the fraction of cache-aware events (those carrying a
	// cache_hit flag) that were hits. Events from stages without cache
	// semantics do not dilute the rate.
	CacheHitRate    float64                         `json:"cache_hit_rate"`
	CacheEventCount int                             `json:"cache_event_count"`
	Stages          map[tracelog.Stage]StageSummary `json:"stages"`
}

// StageSummary holds per-stage aggregate statistics.
type StageSummary struct {
	Count         int     `json:"count"`
	MeanLatencyMS float64 `json:"mean_latency_ms"`
	// MeanTokens averages tokens_used over the events that report it;
	// events without the field are excluded from both sum and count.
	MeanTokens float64 `json:"mean_tokens"`
}

// Aggregator reads the trace store and computes summaries. It holds no
// state between calls; every summary is a fresh single-pass scan.
type Aggregator struct {
	store *tracelog.Store
}

// NewAggregator creates an aggregator over the given store.
func NewAggregator(store *tracelog.Store) (*Aggregator, error) {
	if store == nil {
		return nil, fmt.Errorf("monitor: store is required")
	}
	return &Aggregator{store: store}, nil
}

// ComputeMetrics aggregates events in [since, until] in a single pass.
// An empty matching set yields an all-zero Summary with an empty stage map,
// never an error.
func (a *Aggregator) ComputeMetrics(ctx context.Context, since, until time.Time) (Summary, error) {
	events, err := a.store.Events(ctx, tracelog.Filter{Since: since, Until: until})
	if err != nil {
		return Summary{}, err
	}
	return Summarize(events), nil
}

// Window is a convenience for trailing-window summaries ending now.
func (a *Aggregator) Window(ctx context.Context, window time.Duration) (Summary, error) {
	now := time.Now().UTC()
	return a.ComputeMetrics(ctx, now.Add(-window), now)
}

// stageAccum accumulates per-stage sums before the final division.
type stageAccum struct {
	count        int
	latencySum   float64
	tokenSum     int
	tokenReports int
}

// Summarize computes a Summary from an already-filtered event slice.
func Summarize(events []tracelog.Event) Summary {
	summary := Summary{
		Stages: make(map[tracelog.Stage]StageSummary),
	}
	if len(events) == 0 {
		return summary
	}

	latencies := make([]float64, 0, len(events))
	var latencySum float64
	var cacheHits, cacheEvents int
	accums := make(map[tracelog.Stage]*stageAccum)

	for _, ev := range events {
		latencies = append(latencies, ev.LatencyMS)
		latencySum += ev.LatencyMS

		acc := accums[ev.Stage]
		if acc == nil {
			acc = &stageAccum{}
			accums[ev.Stage] = acc
		}
		acc.count++
		acc.latencySum += ev.LatencyMS

		if ev.TokensUsed != nil {
			summary.TotalTokens += *ev.TokensUsed
			acc.tokenSum += *ev.TokensUsed
			acc.tokenReports++
		}

		if ev.CacheHit != nil {
			cacheEvents++
			if *ev.CacheHit {
				cacheHits++
			}
		}
	}

	summary.EventCount = len(events)
	summary.MeanLatencyMS = latencySum / float64(len(events))
	summary.P95LatencyMS = percentile95(latencies)
	summary.CacheEventCount = cacheEvents
	if cacheEvents > 0 {
		summary.CacheHitRate = float64(cacheHits) / float64(cacheEvents)
	}

	for stage, acc := range accums {
		ss := StageSummary{
			Count:         acc.count,
			MeanLatencyMS: acc.latencySum / float64(acc.count),
		}
		if acc.tokenReports > 0 {
			ss.MeanTokens = float64(acc.tokenSum) / float64(acc.tokenReports)
		}
		summary.Stages[stage] = ss
	}

	return summary
}

// percentile95 computes the 95th percentile with the nearest-rank method:
// index = floor(0.95 * N) on the sorted list, clamped to the last element.
func percentile95(latencies []float64) float64 {
	if len(latencies) == 0 {
		return 0
	}
	sorted := make([]float64, len(latencies))
	copy(sorted, latencies)
	sort.Float64s(sorted)

	idx := int(math.Floor(0.95 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
