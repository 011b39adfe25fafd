// Package watch hands GEDCOM files dropped into a directory to a callback.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dgallion1/gedgraph/internal/gedcom"
)

// DefaultDebounce is how long a file must stay unchanged before it is
// handed on.
const DefaultDebounce = 500 * time.Millisecond

// Handler receives the path of a settled GEDCOM file.
type Handler func(ctx context.Context, path string)

// Watcher watches one directory for GEDCOM files.
type Watcher struct {
	dir      string
	debounce time.Duration
	handle   Handler
	log      *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
}

func New(dir string, debounce time.Duration, handle Handler, log *slog.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Watcher{
		dir:      dir,
		debounce: debounce,
		handle:   handle,
		log:      log,
		timers:   make(map[string]*time.Timer),
	}
}

// Run hands existing files to the handler, then watches for new or
// rewritten ones until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.dir, err)
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return fmt.Errorf("read %s: %w", w.dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() && gedcom.IsSupportedExtension(e.Name()) {
			w.schedule(ctx, filepath.Join(w.dir, e.Name()))
		}
	}
	w.log.Info("watching drop directory", "dir", w.dir)

	defer w.stopTimers()
	for {
		select {
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 && gedcom.IsSupportedExtension(event.Name) {
				w.schedule(ctx, event.Name)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Error("file watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// schedule (re)starts the debounce timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.timers[path]; ok {
		t.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(w.debounce, func() { w.fire(ctx, path, t) })
	w.timers[path] = t
}

// fire hands path to the handler unless t has been replaced by a newer
// timer for the same path, which then owns the file.
func (w *Watcher) fire(ctx context.Context, path string, t *time.Timer) {
	w.mu.Lock()
	if w.timers[path] != t {
		w.mu.Unlock()
		return
	}
	delete(w.timers, path)
	w.mu.Unlock()
	if ctx.Err() != nil {
		return
	}
	w.log.Info("gedcom file settled", "path", path)
	w.handle(ctx, path)
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.timers {
		t.Stop()
		delete(w.timers, path)
	}
}
