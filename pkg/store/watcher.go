package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounceInterval is the quiet period after a file event before the
// change callback fires. Editors commonly emit several events per save.
const defaultDebounceInterval = 100 * time.Millisecond

// EnvFileWatcher watches the env file for external edits and reports the new
// value of a single key. Writes made through the EnvFileStore itself are
// recognized and skipped, so the pool is not reloaded with its own state.
type EnvFileWatcher struct {
	store    *EnvFileStore
	key      string
	logger   *slog.Logger
	watcher  *fsnotify.Watcher
	debounce *debouncer
}

// NewEnvFileWatcher creates a watcher for key in the given store's file.
func NewEnvFileWatcher(store *EnvFileStore, key string, logger *slog.Logger) (*EnvFileWatcher, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if key == "" {
		return nil, fmt.Errorf("key cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	return &EnvFileWatcher{
		store:    store,
		key:      key,
		logger:   logger,
		watcher:  watcher,
		debounce: newDebouncer(defaultDebounceInterval),
	}, nil
}

// Watch blocks processing file events until ctx is cancelled, calling
// onChange with the key's new value after each external edit. The containing
// directory is watched rather than the file itself so atomic-rename saves
// (the common editor pattern, and our own write path) are observed.
func (w *EnvFileWatcher) Watch(ctx context.Context, onChange func(value string)) error {
	dir := filepath.Dir(w.store.Path())
	if err := w.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Info("Env file watcher started",
		"path", w.store.Path(),
		"key", w.key,
	)

	defer w.debounce.stop()
	defer w.watcher.Close()

	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Env file watcher stopped")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.debounce.trigger(func() {
				w.handleChange(ctx, onChange)
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error("Env file watcher error", "error", err)
		}
	}
}

func (w *EnvFileWatcher) handleChange(ctx context.Context, onChange func(value string)) {
	value, err := w.store.GetValue(ctx, w.key)
	if err != nil {
		w.logger.Error("Failed to re-read env file after change",
			"path", w.store.Path(),
			"error", err,
		)
		return
	}
	if w.store.wroteValue(w.key, value) {
		return
	}

	w.logger.Info("Env file changed externally, reloading",
		"path", w.store.Path(),
		"key", w.key,
	)
	onChange(value)
}

// debouncer collapses rapid file events into a single callback after a
// quiet period.
type debouncer struct {
	interval time.Duration

	mu    sync.Mutex
	timer *time.Timer
	done  bool
}

func newDebouncer(interval time.Duration) *debouncer {
	return &debouncer{interval: interval}
}

func (d *debouncer) trigger(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.done {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, callback)
}

func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.done = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
