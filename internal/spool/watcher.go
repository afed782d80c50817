package spool

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDefault is the debounce interval for file events. Producers
// write then rename, which surfaces as several events per file.
const debounceDefault = 200 * time.Millisecond

// pollDefault is the sweep interval that backstops fsnotify: files
// written before the watcher started, or missed events, get picked up
// on the next poll.
const pollDefault = 5 * time.Second

// Watcher feeds new .json files in the spool directory to a handler.
type Watcher struct {
	dir      string
	handler  func(path string)
	debounce time.Duration
	poll     time.Duration
}

// NewWatcher creates a watcher over dir. Handler is invoked once per
// settled file, from a single goroutine.
func NewWatcher(dir string, poll time.Duration, handler func(path string)) *Watcher {
	if poll <= 0 {
		poll = pollDefault
	}
	return &Watcher{
		dir:      dir,
		handler:  handler,
		debounce: debounceDefault,
		poll:     poll,
	}
}

// Run blocks until ctx is cancelled. Existing spool files are
// processed first, then fsnotify events with a poll fallback.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return err
	}

	// ready accumulates paths that passed debounce; one timer flushes
	// them all, so a burst of files costs one goroutine, not N.
	var mu sync.Mutex
	ready := make(map[string]bool)
	flush := make(chan struct{}, 1)
	var timer *time.Timer

	arm := func(path string) {
		mu.Lock()
		ready[path] = true
		if timer == nil {
			timer = time.AfterFunc(w.debounce, func() {
				select {
				case flush <- struct{}{}:
				default:
				}
			})
		} else {
			timer.Reset(w.debounce)
		}
		mu.Unlock()
	}

	w.sweep()

	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if strings.HasSuffix(ev.Name, ".json") {
				arm(ev.Name)
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

		case <-flush:
			mu.Lock()
			paths := make([]string, 0, len(ready))
			for p := range ready {
				paths = append(paths, p)
			}
			ready = make(map[string]bool)
			timer = nil
			mu.Unlock()
			sort.Strings(paths)
			for _, p := range paths {
				w.handle(p)
			}

		case <-ticker.C:
			w.sweep()
		}
	}
}

// sweep processes any .json files already sitting in the spool.
func (w *Watcher) sweep() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		w.handle(filepath.Join(w.dir, entry.Name()))
	}
}

func (w *Watcher) handle(path string) {
	if _, err := os.Stat(path); err != nil {
		return // already consumed
	}
	w.handler(path)
}
