package ralph

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"
)

// DefaultDebounce is how long a burst of writes must go quiet before the
// document is reloaded.
const DefaultDebounce = 500 * time.Millisecond

// Watcher reloads a Ralph document whenever it changes on disk and hands
// it to OnChange. Unparsable intermediate writes are logged and skipped.
type Watcher struct {
	Path     string
	Debounce time.Duration
	OnChange func(*Document) error

	fs       afero.Fs
	mu       sync.Mutex
	timer    *time.Timer
	lastHash [sha256.Size]byte
	stopped  bool
}

func NewWatcher(fs afero.Fs, path string, onChange func(*Document) error) *Watcher {
	return &Watcher{Path: path, Debounce: DefaultDebounce, OnChange: onChange, fs: fs}
}

// Run blocks until ctx is done. The parent directory is watched rather than
// the file itself because editors and agents often replace it by rename.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.Path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.Path), err)
	}
	defer w.stop()

	target := filepath.Clean(w.Path)
	for {
		select {
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || !event.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch error", "path", w.Path, "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.Debounce, func() { _ = w.Reload() })
}

func (w *Watcher) stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Reload reads the document and calls OnChange if its content differs from
// the last successful reload.
func (w *Watcher) Reload() error {
	data, err := afero.ReadFile(w.fs, w.Path)
	if err != nil {
		slog.Debug("ralph document unreadable", "path", w.Path, "error", err)
		return err
	}
	sum := sha256.Sum256(data)

	w.mu.Lock()
	same := sum == w.lastHash
	w.mu.Unlock()
	if same {
		return nil
	}

	doc, err := Parse(data)
	if err != nil {
		slog.Debug("skipping partial write", "path", w.Path, "error", err)
		return err
	}
	if err := w.OnChange(doc); err != nil {
		slog.Warn("ralph sync failed", "path", w.Path, "error", err)
		return err
	}

	w.mu.Lock()
	w.lastHash = sum
	w.mu.Unlock()
	return nil
}
