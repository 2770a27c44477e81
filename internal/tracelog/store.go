package tracelog

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// maxScanTokenSize bounds a single trace record; metadata can carry full
// query text and per-channel score maps.
const maxScanTokenSize = 10 * 1024 * 1024 // 10MB

// Store is the append-only JSONL trace log.
//
// Writes are serialized by an internal mutex and performed as a single
// atomic append-and-flush, so readers always observe a consistent prefix of
// complete lines. Reads re-scan the file from the start on every call; there
// is no cursor state, which keeps Events restartable at the cost of O(file)
// per query. That cost model is deliberate for the bounded trailing windows
// the offline jobs use.
type Store struct {
	path   string
	mu     sync.Mutex // serializes appends
	logger *zap.Logger
}

// NewStore creates a trace store backed by the JSONL file at path, creating
// parent directories as needed.
func NewStore(path string, logger *zap.Logger) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("tracelog: path is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("tracelog: failed to create directory: %w", err)
		}
	}
	return &Store{path: path, logger: logger}, nil
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// LogEvent appends one event to the log.
//
// It never fails the calling pipeline stage: any serialization or I/O error
// is logged, counted, and the record is dropped. Lossy-on-failure is an
// accepted tradeoff to protect pipeline latency.
func (s *Store) LogEvent(ctx context.Context, ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}

	line, err := json.Marshal(ev)
	if err != nil {
		appendFailures.Inc()
		s.logger.Error("tracelog: failed to encode event, dropping",
			zap.String("stage", string(ev.Stage)),
			zap.Error(err))
		return
	}
	line = append(line, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		appendFailures.Inc()
		s.logger.Error("tracelog: failed to open trace log, dropping event",
			zap.String("path", s.path),
			zap.Error(err))
		return
	}
	defer f.Close()

	// Single write call so concurrent readers never see a partial line.
	if _, err := f.Write(line); err != nil {
		appendFailures.Inc()
		s.logger.Error("tracelog: failed to append event, dropping",
			zap.String("path", s.path),
			zap.Error(err))
		return
	}

	eventsAppended.WithLabelValues(string(ev.Stage)).Inc()
}

// Filter restricts an Events scan. Zero-valued fields are unbounded.
type Filter struct {
	// Since and Until bound the event timestamp, inclusive on both ends.
	Since time.Time
	Until time.Time
	// Stage, when non-empty, matches events of that stage only.
	Stage Stage
	// Limit, when positive, caps the number of returned events.
	Limit int
}

func (f Filter) matches(ev Event) bool {
	if !f.Since.IsZero() && ev.Timestamp.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && ev.Timestamp.After(f.Until) {
		return false
	}
	if f.Stage != "" && ev.Stage != f.Stage {
		return false
	}
	return true
}

// Events re-scans the log and returns events matching the filter, in append
// order. Malformed lines are skipped with a warning, never returned as
// errors. A store whose file has not been created yet is simply empty.
func (s *Store) Events(ctx context.Context, filter Filter) ([]Event, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("tracelog: failed to open trace log: %w", err)
	}
	defer f.Close()

	events := make([]Event, 0, 64)
	scanner := bufio.NewScanner(f)
	buf := make([]byte, maxScanTokenSize)
	scanner.Buffer(buf, maxScanTokenSize)

	lineNum := 0
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lineNum++
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		var ev Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			malformedLines.Inc()
			s.logger.Warn("tracelog: skipping malformed record",
				zap.Int("line", lineNum),
				zap.Error(err))
			continue
		}

		if !filter.matches(ev) {
			continue
		}

		events = append(events, ev)
		if filter.Limit > 0 && len(events) >= filter.Limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("tracelog: failed to scan trace log: %w", err)
	}

	return events, nil
}
