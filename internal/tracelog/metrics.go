// Package tracelog provides Prometheus metrics for trace log health.
package tracelog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// eventsAppended counts successfully appended events by stage.
	eventsAppended = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "rankd",
			Subsystem: "tracelog",
			Name:      "events_appended_total",
			Help:      "Total trace events appended to the log, by stage",
		},
		[]string{"stage"},
	)

	// appendFailures counts dropped events. Every increment is a gap in
	// the training and metrics record.
	appendFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankd",
			Subsystem: "tracelog",
			Name:      "append_failures_total",
			Help:      "Total trace events dropped due to encode or I/O failures",
		},
	)

	// malformedLines counts records skipped during scans.
	malformedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "rankd",
			Subsystem: "tracelog",
			Name:      "malformed_lines_total",
			Help:      "Total malformed JSONL records skipped while reading the trace log",
		},
	)
)
