package monitor

import (
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

func TestNewModel(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)
	assert.Equal(t, "http://localhost:9190", model.baseURL)
	assert.Equal(t, time.Hour, model.window)
	assert.Equal(t, 5*time.Second, model.interval)
	assert.False(t, model.quitting)
}

func TestModel_Init(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)
	cmd := model.Init()

	// Init should return a tick command to start auto-refresh
	assert.NotNil(t, cmd)
}

func TestModel_Update_QuitKey(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.True(t, m.quitting)
	assert.NotNil(t, cmd) // Should return tea.Quit
}

func TestModel_Update_RefreshKey(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	keyMsg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'r'}}
	updatedModel, cmd := model.Update(keyMsg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return poll command
}

func TestModel_Update_TickMsg(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	msg := tickMsg(time.Now())
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.False(t, m.quitting)
	assert.NotNil(t, cmd) // Should return batch command (tick + poll)
}

func TestModel_Update_PollMsg(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	msg := pollMsg{
		summary: Summary{
			EventCount:    120,
			MeanLatencyMS: 82.5,
			P95LatencyMS:  210.0,
			CacheHitRate:  0.4,
		},
		weights: map[string]weights.Optimized{
			"factual": {SemanticWeight: 0.7, KeywordWeight: 0.2, RecencyWeight: 0.1},
		},
	}
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.Equal(t, 120, m.snapshot.Summary.EventCount)
	assert.Equal(t, 82.5, m.snapshot.Summary.MeanLatencyMS)
	assert.Len(t, m.snapshot.EventCountHistory, 1)
	assert.Len(t, m.snapshot.P95LatencyHist, 1)
	assert.False(t, m.lastUpdate.IsZero())
	assert.Nil(t, cmd)
}

func TestModel_Update_HistoryBounded(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	var current tea.Model = model
	for i := 0; i < historySize+10; i++ {
		current, _ = current.(Model).Update(pollMsg{summary: Summary{EventCount: i}})
	}

	m := current.(Model)
	assert.Len(t, m.snapshot.EventCountHistory, historySize)
	// Oldest entries were evicted
	assert.Equal(t, float64(10), m.snapshot.EventCountHistory[0])
}

func TestModel_Update_ErrMsg(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	msg := errMsg(fmt.Errorf("connection refused"))
	updatedModel, cmd := model.Update(msg)

	m := updatedModel.(Model)
	assert.NotNil(t, m.err)
	assert.Contains(t, m.err.Error(), "connection refused")
	assert.Nil(t, cmd)
}

func TestModel_View_WithMetrics(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)
	model.snapshot = Snapshot{
		Summary: Summary{
			EventCount:      340,
			MeanLatencyMS:   95.2,
			P95LatencyMS:    312.7,
			TotalTokens:     15200,
			CacheHitRate:    0.62,
			CacheEventCount: 200,
			Stages: map[tracelog.Stage]StageSummary{
				tracelog.StageReranking: {Count: 120, MeanLatencyMS: 45.0},
			},
		},
		Weights: map[string]weights.Optimized{
			"factual": {SemanticWeight: 0.7, KeywordWeight: 0.2, RecencyWeight: 0.1, NDCGAt5: 0.91, NumTrainingPairs: 42},
		},
	}
	model.lastUpdate = time.Date(2026, 1, 1, 12, 34, 56, 0, time.UTC)

	view := model.View()

	assert.Contains(t, view, "rankd Monitor")
	assert.Contains(t, view, "12:34:56")
	assert.Contains(t, view, "Pipeline")
	assert.Contains(t, view, "95.2ms")
	assert.Contains(t, view, "312.7ms")
	assert.Contains(t, view, "Cache")
	assert.Contains(t, view, "62.0%")
	assert.Contains(t, view, "reranking")
	assert.Contains(t, view, "Served Weights")
	assert.Contains(t, view, "factual")
	assert.Contains(t, view, "ndcg 0.910")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_WithError(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)
	model.err = fmt.Errorf("connection refused")

	view := model.View()

	assert.Contains(t, view, "Cannot connect to rankd")
	assert.Contains(t, view, "connection refused")
	assert.Contains(t, view, "http://localhost:9190")
	assert.Contains(t, view, "[q]")
	assert.Contains(t, view, "[r]")
}

func TestModel_View_NoData(t *testing.T) {
	model := NewModel("http://localhost:9190", time.Hour, 5*time.Second)

	view := model.View()

	assert.Contains(t, view, "rankd Monitor")
	assert.Contains(t, view, "[q]")
}
