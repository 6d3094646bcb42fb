package scanner

import (
	"sync"

	"poster-browser/internal/logging"
	"poster-browser/internal/metrics"
	"poster-browser/internal/thumbcache"

	"github.com/fsnotify/fsnotify"
)

// Watcher invalidates memory-cached thumbnails when the files they
// were rendered from change. The disk tier needs no help: a changed
// mtime fingerprints to a new cache file name on the next load.
type Watcher struct {
	cache   *thumbcache.Cache
	watcher *fsnotify.Watcher

	mu     sync.Mutex
	closed bool
	done   chan struct{}
}

// NewWatcher starts a watcher feeding invalidations into cache.
func NewWatcher(cache *thumbcache.Cache) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		cache:   cache,
		watcher: fw,
		done:    make(chan struct{}),
	}
	go w.run()
	return w, nil
}

// Add starts watching a folder the user is browsing. Failures are
// logged and counted, not fatal: a missed invalidation only means a
// stale session thumbnail.
func (w *Watcher) Add(folder string) {
	if err := w.watcher.Add(folder); err != nil {
		logging.Warn("watcher: cannot watch %s: %v", folder, err)
		metrics.WatcherErrors.Inc()
	}
}

// Remove stops watching a folder the user has navigated away from.
func (w *Watcher) Remove(folder string) {
	// fsnotify errors on double-remove; the folder may also have been
	// dropped implicitly when it was deleted.
	_ = w.watcher.Remove(folder)
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher: %v", err)
			metrics.WatcherErrors.Inc()
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	metrics.WatcherEventsTotal.WithLabelValues(eventType(event.Op)).Inc()

	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	if removed := w.cache.InvalidateSource(event.Name); removed > 0 {
		logging.Debug("watcher: invalidated %d cached thumbnails for %s", removed, event.Name)
	}
}

func eventType(op fsnotify.Op) string {
	switch {
	case op&fsnotify.Create != 0:
		return "create"
	case op&fsnotify.Write != 0:
		return "write"
	case op&fsnotify.Remove != 0:
		return "remove"
	case op&fsnotify.Rename != 0:
		return "rename"
	case op&fsnotify.Chmod != 0:
		return "chmod"
	default:
		return "unknown"
	}
}

// Close stops the watcher and waits for the event loop to exit.
func (w *Watcher) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.closed = true
	if err := w.watcher.Close(); err != nil {
		logging.Error("watcher: close: %v", err)
	}
	<-w.done
}
