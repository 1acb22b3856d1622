package scanner

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce is how long the watcher waits for further changes before
// triggering a rescan.
const defaultDebounce = 500 * time.Millisecond

// Watcher observes a scan root and triggers a callback after file changes
// settle. Each triggered run executes sequentially; a change arriving during
// a run is queued for the next debounce window.
type Watcher struct {
	opts     Options
	debounce time.Duration
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op
}

// NewWatcher creates a watcher over the scan root described by opts.
func NewWatcher(opts Options, debounce time.Duration, logger *slog.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}

	return &Watcher{
		opts:     opts,
		debounce: debounce,
		watcher:  fsw,
		logger:   logger,
		pending:  make(map[string]fsnotify.Op),
	}, nil
}

// Run watches until the context is cancelled, invoking onChange after each
// debounced batch of relevant file events. The callback runs on the watch
// goroutine, so rescans never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func(context.Context)) error {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return err
	}
	if err := w.addWatchesRecursive(root); err != nil {
		return err
	}
	defer w.watcher.Close()

	w.logger.Info("Watching for changes", "root", root, "debounce", w.debounce)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	scanner := New(w.opts, w.logger)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(scanner, root, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			if w.takePending() {
				onChange(ctx)
			}
		}
	}
}

// handleEvent records relevant events and keeps directory watches current.
func (w *Watcher) handleEvent(s *Scanner, root string, event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
			return
		}
	}

	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}

	rel, err := filepath.Rel(root, event.Name)
	if err != nil {
		rel = event.Name
	}
	if s.excluded(rel) || !s.wantExtension(event.Name) {
		return
	}

	w.pendingMu.Lock()
	w.pending[event.Name] |= event.Op
	w.pendingMu.Unlock()
}

// takePending reports whether changes accumulated since the last tick and
// clears them.
func (w *Watcher) takePending() bool {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()
	if len(w.pending) == 0 {
		return false
	}
	w.pending = make(map[string]fsnotify.Op)
	return true
}

// addWatchesRecursive adds watches on every non-excluded directory.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}

		base := filepath.Base(path)
		if path != root && (strings.HasPrefix(base, ".") || w.excludedDir(root, path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) excludedDir(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	s := New(w.opts, w.logger)
	return s.excluded(rel + string(filepath.Separator))
}
