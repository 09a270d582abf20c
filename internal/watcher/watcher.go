// Package watcher emits events for PDF files dropped into the documents
// directory while the server runs.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a path must stay quiet before its event
// fires. Uploads and copies produce bursts of writes; ingesting a
// half-written PDF would fail.
const DefaultDebounce = 500 * time.Millisecond

// Event reports one settled PDF file.
type Event struct {
	Path string
}

// Watcher monitors one directory for created or modified PDFs.
type Watcher struct {
	debounce time.Duration
	logger   *zap.Logger
}

// New creates a watcher. A non-positive debounce gets the default.
func New(debounce time.Duration, logger *zap.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{debounce: debounce, logger: logger}
}

// Watch emits debounced events for *.pdf files created or written in dir
// until ctx is cancelled. The channel is closed on shutdown.
func (w *Watcher) Watch(ctx context.Context, dir string) (<-chan Event, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	events := make(chan Event)
	go w.run(ctx, fsw, events)
	return events, nil
}

func (w *Watcher) run(ctx context.Context, fsw *fsnotify.Watcher, events chan<- Event) {
	defer close(events)
	defer fsw.Close()

	var mu sync.Mutex
	timers := make(map[string]*time.Timer)

	defer func() {
		mu.Lock()
		for _, t := range timers {
			t.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(ev.Name), ".pdf") {
				continue
			}

			// Per-path timer: every new write restarts the wait.
			path := ev.Name
			mu.Lock()
			if t, ok := timers[path]; ok {
				t.Reset(w.debounce)
			} else {
				timers[path] = time.AfterFunc(w.debounce, func() {
					mu.Lock()
					delete(timers, path)
					mu.Unlock()
					select {
					case events <- Event{Path: path}:
					case <-ctx.Done():
					}
				})
			}
			mu.Unlock()

		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", zap.Error(err))
		}
	}
}
