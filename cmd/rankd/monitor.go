package main

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/fyrsmithlabs/rankd/internal/monitor"
)

var (
	monitorAPI      string
	monitorWindow   time.Duration
	monitorInterval time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Interactive terminal dashboard for a running rankd server",
	Long: `Interactive terminal dashboard polling a running rankd server.

Shows event throughput, latency sparklines, cache hit rate, per-stage
breakdowns, and the weight vectors currently being served.

Examples:
  rankd monitor
  rankd monitor --api http://localhost:9190 --interval 2s`,
	RunE: runMonitor,
}

func init() {
	monitorCmd.Flags().StringVar(&monitorAPI, "api", "http://localhost:9190", "base URL of the rankd server")
	monitorCmd.Flags().DurationVar(&monitorWindow, "window", time.Hour, "trailing metrics window")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 5*time.Second, "refresh interval")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	model := monitor.NewModel(monitorAPI, monitorWindow, monitorInterval)

	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
