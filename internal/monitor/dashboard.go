package monitor

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fyrsmithlabs/rankd/internal/tracelog"
	"github.com/fyrsmithlabs/rankd/internal/weights"
)

const (
	sparklineWidth  = 30
	sparklineHeight = 3
	historySize     = 30
)

// Model represents the BubbleTea dashboard model.
type Model struct {
	baseURL    string
	window     time.Duration
	interval   time.Duration
	lastUpdate time.Time
	snapshot   Snapshot
	err        error
	quitting   bool

	cacheProgress progress.Model
}

// Snapshot holds one poll of the rankd API plus rolling history.
type Snapshot struct {
	Summary Summary
	Weights map[string]weights.Optimized

	// Historical data for sparklines (last N points)
	EventCountHistory []float64
	MeanLatencyHist   []float64
	P95LatencyHist    []float64
	CacheRateHistory  []float64
}

// Lipgloss styles (k9s-inspired color scheme)
var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("51")).
			Bold(true).
			Padding(0, 1)

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true).
			MarginTop(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("45"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("231")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	healthyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("46")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("226")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	containerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(1, 2)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			MarginTop(1)

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51")).
			Bold(true)

	sparklineStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("51"))
)

// NewModel creates a new dashboard model polling the rankd API at baseURL.
func NewModel(baseURL string, window, interval time.Duration) Model {
	cacheProg := progress.New(
		progress.WithGradient("#00ffff", "#ff00ff"),
		progress.WithWidth(40),
	)

	return Model{
		baseURL:       baseURL,
		window:        window,
		interval:      interval,
		cacheProgress: cacheProg,
		snapshot: Snapshot{
			EventCountHistory: make([]float64, 0, historySize),
			MeanLatencyHist:   make([]float64, 0, historySize),
			P95LatencyHist:    make([]float64, 0, historySize),
			CacheRateHistory:  make([]float64, 0, historySize),
		},
	}
}

// getLatencyBadge returns a colored status badge based on latency.
func getLatencyBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("[✓]")
	} else if latencyMS < 500 {
		return warningStyle.Render("[⚠]")
	}
	return errorStyle.Render("[✗]")
}

// getStatusBadge returns the overall system status badge.
func getStatusBadge(latencyMS float64) string {
	if latencyMS < 100 {
		return healthyStyle.Render("✓ HEALTHY")
	} else if latencyMS < 500 {
		return warningStyle.Render("⚠ WARN")
	}
	return errorStyle.Render("✗ ERROR")
}

// appendToHistory appends a value to history, maintaining max size.
func appendToHistory(history []float64, value float64) []float64 {
	history = append(history, value)
	if len(history) > historySize {
		history = history[1:]
	}
	return history
}

// createSparkline creates a sparkline chart from historical data.
func createSparkline(data []float64) string {
	if len(data) == 0 {
		return dimStyle.Render(fmt.Sprintf("%*s", sparklineWidth, "no data"))
	}

	spark := sparkline.New(sparklineWidth, sparklineHeight)
	for _, v := range data {
		spark.Push(v)
	}

	return sparklineStyle.Render(spark.View())
}

// Message types
type tickMsg time.Time
type pollMsg struct {
	summary Summary
	weights map[string]weights.Optimized
}
type errMsg error

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.interval),
		poll(m.baseURL, m.window),
	)
}

// tick creates a tick command for auto-refresh.
func tick(interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// poll fetches the metrics summary and served weights from the rankd API.
func poll(baseURL string, window time.Duration) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		client := NewClient(baseURL)

		summary, err := client.FetchSummary(ctx, window)
		if err != nil {
			return errMsg(err)
		}

		served, err := client.FetchWeights(ctx)
		if err != nil {
			return errMsg(err)
		}

		return pollMsg{summary: summary, weights: served}
	}
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		case "r":
			return m, poll(m.baseURL, m.window)
		}

	case tickMsg:
		return m, tea.Batch(
			tick(m.interval),
			poll(m.baseURL, m.window),
		)

	case pollMsg:
		next := Snapshot{
			Summary: msg.summary,
			Weights: msg.weights,
		}

		next.EventCountHistory = appendToHistory(m.snapshot.EventCountHistory, float64(msg.summary.EventCount))
		next.MeanLatencyHist = appendToHistory(m.snapshot.MeanLatencyHist, msg.summary.MeanLatencyMS)
		next.P95LatencyHist = appendToHistory(m.snapshot.P95LatencyHist, msg.summary.P95LatencyMS)
		next.CacheRateHistory = appendToHistory(m.snapshot.CacheRateHistory, msg.summary.CacheHitRate)

		m.snapshot = next
		m.lastUpdate = time.Now()
		m.err = nil
		return m, nil

	case errMsg:
		m.err = error(msg)
		return m, nil
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.err != nil {
		return m.renderError()
	}

	return m.renderDashboard()
}

// renderError renders the error view.
func (m Model) renderError() string {
	header := headerStyle.Render("rankd Metrics Dashboard")

	var content string
	content += "\n"
	content += errorStyle.Render("⚠ Cannot connect to rankd") + "\n"
	content += "\n"
	content += dimStyle.Render("URL: ") + valueStyle.Render(m.baseURL) + "\n"
	content += dimStyle.Render("Error: ") + errorStyle.Render(m.err.Error()) + "\n"
	content += "\n"
	content += dimStyle.Render("Please ensure:") + "\n"
	content += dimStyle.Render("  1. rankd serve is running") + "\n"
	content += dimStyle.Render("  2. the API address matches --api") + "\n"
	content += "\n"
	content += footerStyle.Render("[q] quit  [r] retry") + "\n"

	return containerStyle.Render(header + "\n" + content)
}

// renderDashboard renders the main dashboard view.
func (m Model) renderDashboard() string {
	var content string
	s := m.snapshot.Summary

	lastUpdateStr := "Never"
	if !m.lastUpdate.IsZero() {
		lastUpdateStr = m.lastUpdate.Format("3:04:05 PM")
	}

	header := headerStyle.Render(" rankd Monitor ")
	statusBadge := getStatusBadge(s.P95LatencyMS)
	headerLine := fmt.Sprintf("%s   %s   %s   %s",
		statusBadge,
		dimStyle.Render("Window:"),
		valueStyle.Render(m.window.String()),
		dimStyle.Render(lastUpdateStr))

	content += header + "\n"
	content += headerLine + "\n"

	// Pipeline section
	content += "\n" + sectionStyle.Render("┃ Pipeline") + "\n"

	eventSparkline := createSparkline(m.snapshot.EventCountHistory)
	content += labelStyle.Render("  Events: ") +
		valueStyle.Render(FormatCount(s.EventCount)) +
		"        " + eventSparkline + "\n"

	meanSparkline := createSparkline(m.snapshot.MeanLatencyHist)
	content += labelStyle.Render("  Latency (mean): ") +
		valueStyle.Render(FormatLatency(s.MeanLatencyMS)) +
		" " + getLatencyBadge(s.MeanLatencyMS) +
		"   " + meanSparkline + "\n"

	p95Sparkline := createSparkline(m.snapshot.P95LatencyHist)
	content += labelStyle.Render("  Latency (p95):  ") +
		valueStyle.Render(FormatLatency(s.P95LatencyMS)) +
		" " + getLatencyBadge(s.P95LatencyMS) +
		"   " + p95Sparkline + "\n"

	content += labelStyle.Render("  Tokens: ") +
		valueStyle.Render(FormatTokens(s.TotalTokens)) + "\n"

	// Cache section
	content += "\n" + sectionStyle.Render("┃ Cache") + "\n"

	content += labelStyle.Render("  Hit rate: ") +
		m.cacheProgress.ViewAs(s.CacheHitRate) +
		" " + dimStyle.Render(FormatPercentage(s.CacheHitRate)) + "\n"
	content += labelStyle.Render("  Tracked: ") +
		valueStyle.Render(FormatCount(s.CacheEventCount)) +
		dimStyle.Render(" events") + "\n"

	// Stages section
	if len(s.Stages) > 0 {
		content += "\n" + sectionStyle.Render("┃ Stages") + "\n"
		for _, stage := range sortedStages(s.Stages) {
			st := s.Stages[stage]
			content += labelStyle.Render(fmt.Sprintf("  %-22s", stage)) +
				valueStyle.Render(FormatCount(st.Count)) +
				dimStyle.Render("  mean ") +
				valueStyle.Render(FormatLatency(st.MeanLatencyMS)) + "\n"
		}
	}

	// Weights section
	if len(m.snapshot.Weights) > 0 {
		content += "\n" + sectionStyle.Render("┃ Served Weights") + "\n"
		for _, intent := range sortedIntents(m.snapshot.Weights) {
			w := m.snapshot.Weights[intent]
			content += labelStyle.Render(fmt.Sprintf("  %-16s", intent)) +
				valueStyle.Render(fmt.Sprintf("sem %.2f  kw %.2f  rec %.2f", w.SemanticWeight, w.KeywordWeight, w.RecencyWeight)) +
				dimStyle.Render(fmt.Sprintf("  ndcg %.3f  n=%d", w.NDCGAt5, w.NumTrainingPairs)) + "\n"
		}
	}

	footer := footerKeyStyle.Render("[q]") + footerStyle.Render(" quit  ") +
		footerKeyStyle.Render("[r]") + footerStyle.Render(" refresh  ") +
		footerStyle.Render(fmt.Sprintf("Auto: %v", m.interval))

	content += "\n" + footer

	return containerStyle.Render(content)
}

func sortedStages(stages map[tracelog.Stage]StageSummary) []tracelog.Stage {
	keys := make([]tracelog.Stage, 0, len(stages))
	for k := range stages {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func sortedIntents(served map[string]weights.Optimized) []string {
	keys := make([]string, 0, len(served))
	for k := range served {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
