package weights

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Table is the serving-side intent-to-weights mapping.
//
// The mapping is an immutable snapshot behind an atomic pointer: Reload
// builds a complete new mapping and swaps the reference, so concurrent
// ranking calls never observe a partially updated table. Lookups take no
// locks.
type Table struct {
	path     string
	logger   *zap.Logger
	snapshot atomic.Pointer[map[string]Optimized]

	watcher *fsnotify.Watcher
	stop    chan struct{}
	stopped atomic.Bool
}

// NewTable creates a table initialized from the hardcoded defaults and then
// attempts a first reload from the artifact at path. NewTable never fails
// on artifact problems; the defaults simply remain in effect.
func NewTable(path string, logger *zap.Logger) *Table {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Table{
		path:   path,
		logger: logger,
		stop:   make(chan struct{}),
	}
	defaults := Defaults()
	t.snapshot.Store(&defaults)
	t.Reload()
	return t
}

// Lookup returns the weight vector for an intent. Unknown intents resolve
// to the global default; intents are free-form strings upstream and the
// table must tolerate any of them.
func (t *Table) Lookup(intent string) Optimized {
	snap := *t.snapshot.Load()
	if v, ok := snap[intent]; ok {
		return v
	}
	return DefaultFallback(intent)
}

// Snapshot returns the current full mapping. The returned map is the live
// snapshot and must not be mutated.
func (t *Table) Snapshot() map[string]Optimized {
	return *t.snapshot.Load()
}

// Reload re-reads the artifact and swaps in a new snapshot.
//
// Reload never returns an error: a missing or unparseable artifact leaves
// the hardcoded defaults in effect, and individual invalid entries fall back
// to that intent's default while valid entries load normally. Partial
// success is expected and correct, not an error state. Reloading an
// unchanged artifact is idempotent.
func (t *Table) Reload() {
	loaded, err := loadLenient(t.path, t.logger)
	if err != nil {
		t.logger.Warn("weights: reload failed, keeping defaults",
			zap.String("path", t.path),
			zap.Error(err))
		defaults := Defaults()
		t.snapshot.Store(&defaults)
		return
	}

	// Intents absent from the artifact still resolve through the default
	// table, so merge defaults underneath the learned entries.
	merged := Defaults()
	for intent, v := range loaded {
		merged[intent] = v
	}
	t.snapshot.Store(&merged)

	t.logger.Info("weights: reloaded artifact",
		zap.String("path", t.path),
		zap.Int("intents", len(loaded)))
}

// Watch reloads the table whenever the artifact is rewritten. The optimizer
// publishes via atomic rename, which arrives as a Create or Rename event on
// the watched directory.
func (t *Table) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("weights: failed to create watcher: %w", err)
	}
	// Watch the directory, not the file: renames replace the inode.
	if err := watcher.Add(filepath.Dir(t.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("weights: failed to watch artifact directory: %w", err)
	}
	t.watcher = watcher

	go t.processEvents(ctx)
	return nil
}

// Close stops the watcher, if one was started.
func (t *Table) Close() error {
	if t.stopped.CompareAndSwap(false, true) {
		close(t.stop)
		if t.watcher != nil {
			return t.watcher.Close()
		}
	}
	return nil
}

func (t *Table) processEvents(ctx context.Context) {
	for {
		select {
		case <-t.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(t.path) {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				t.logger.Debug("weights: artifact changed, reloading",
					zap.String("op", event.Op.String()))
				t.Reload()
			}
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.logger.Warn("weights: watcher error", zap.Error(err))
		}
	}
}
