package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ri0t/isomer/internal/logging"
)

// Watcher revalidates error pages in a directory as they change. Editors
// tend to fire several events per save, so events are debounced before the
// file is checked.
type Watcher struct {
	mu          sync.RWMutex
	watcher     *fsnotify.Watcher
	dir         string
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	onResult    func(path string, err error)

	stats WatcherStats
}

// WatcherStats tracks watcher activity.
type WatcherStats struct {
	FilesChanged  int
	ChecksRun     int
	Failures      int
	LastEventPath string
	LastEventTime time.Time
}

// NewWatcher creates a watcher over dir. onResult is invoked once per
// settled change with the validation outcome; nil means log-only.
func NewWatcher(dir string, onResult func(path string, err error)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if onResult == nil {
		onResult = func(path string, err error) {
			if err != nil {
				logging.Get(logging.EmitterDocs).Error("page %s invalid: %v", path, err)
			} else {
				logging.Get(logging.EmitterDocs).Info("page %s ok", path)
			}
		}
	}
	return &Watcher{
		watcher:     fsw,
		dir:         dir,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		onResult:    onResult,
	}, nil
}

// Start begins watching. Non-blocking; the loop runs until Stop or ctx end.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.watcher.Add(w.dir); err != nil {
		w.mu.Lock()
		w.running = false
		w.mu.Unlock()
		return err
	}
	logging.Get(logging.EmitterDocs).Info("watching %s", w.dir)

	go w.run(ctx)
	return nil
}

// Stop halts the watcher and waits for the loop to exit.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	if err := w.watcher.Close(); err != nil {
		logging.Get(logging.EmitterDocs).Error("error closing watcher: %v", err)
	}
}

// IsWatching reports whether the loop is running.
func (w *Watcher) IsWatching() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Stats returns a snapshot of watcher activity.
func (w *Watcher) Stats() WatcherStats {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.stats
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Get(logging.EmitterDocs).Error("watch error: %v", err)
		case <-ticker.C:
			w.processSettled()
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !strings.HasSuffix(event.Name, ".rst") {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
		return
	}

	w.mu.Lock()
	w.stats.FilesChanged++
	w.stats.LastEventPath = event.Name
	w.stats.LastEventTime = time.Now()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processSettled() {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, at := range w.debounceMap {
		if now.Sub(at) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()

	for _, path := range settled {
		w.check(path)
	}
}

func (w *Watcher) check(path string) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return // deleted before it settled
	}

	err := ValidateFile(path)

	w.mu.Lock()
	w.stats.ChecksRun++
	if err != nil {
		w.stats.Failures++
	}
	w.mu.Unlock()

	w.onResult(path, err)
}

// CheckAll validates every .rst page in the watched directory immediately.
func (w *Watcher) CheckAll() error {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rst") {
			continue
		}
		w.check(filepath.Join(w.dir, entry.Name()))
	}
	return nil
}
