package monitor

import "fmt"

// FormatLatency formats latency in milliseconds as "X.Xms" or "X.Xs"
func FormatLatency(latencyMS float64) string {
	if latencyMS < 1000 {
		return fmt.Sprintf("%.1fms", latencyMS)
	}
	return fmt.Sprintf("%.1fs", latencyMS/1000)
}

// FormatPercentage formats a ratio (0-1) as percentage
func FormatPercentage(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

// FormatRate formats a rate value as "X.X ev/min"
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f ev/min", rate)
}

// FormatCount formats an event count with thousands grouping for counts
// above 10k, plain otherwise.
func FormatCount(n int) string {
	if n < 10000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%.1fk", float64(n)/1000)
}

// FormatTokens formats a token total as "X" or "X.Xk"
func FormatTokens(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	return fmt.Sprintf("%.1fk", float64(n)/1000)
}
