package notes

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/msalah0e/skilltree/internal/graph"
)

// DefaultDebounce collapses bursts of writes to one document into a single
// change.
const DefaultDebounce = 150 * time.Millisecond

// Change reports that the document linked to a node was modified.
type Change struct {
	ID   int
	Path string
}

// Watcher follows the documents linked to nodes. Parent directories are
// watched instead of the files so editors that save by rename keep being
// seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	debounce time.Duration
	log      *slog.Logger
	changes  chan Change
	done     chan struct{}
	wg       sync.WaitGroup

	mu     sync.Mutex
	paths  graph.Keyed[string]
	dirs   map[string]int
	timers map[string]*time.Timer
	closed bool
}

func NewWatcher(debounce time.Duration, log *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = slog.Default()
	}
	w := &Watcher{
		fs:       fw,
		debounce: debounce,
		log:      log,
		changes:  make(chan Change, 64),
		done:     make(chan struct{}),
		dirs:     map[string]int{},
		timers:   map[string]*time.Timer{},
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Changes delivers debounced modifications. Consumers should handle them on
// a single goroutine.
func (w *Watcher) Changes() <-chan Change { return w.changes }

// Watch starts following path on behalf of node id, replacing any previous
// path for that node.
func (w *Watcher) Watch(id int, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.paths.Get(id); ok {
		if prev == abs {
			return nil
		}
		w.releaseDir(filepath.Dir(prev))
	}
	dir := filepath.Dir(abs)
	if w.dirs[dir] == 0 {
		if err := w.fs.Add(dir); err != nil {
			return err
		}
	}
	w.dirs[dir]++
	w.paths.Set(id, abs)
	return nil
}

// Unwatch stops following the document of node id.
func (w *Watcher) Unwatch(id int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if prev, ok := w.paths.Get(id); ok {
		w.paths.Delete(id)
		w.releaseDir(filepath.Dir(prev))
	}
}

// Rekey moves a registration after a node id change.
func (w *Watcher) Rekey(oldID, newID int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if oldID == newID || !w.paths.Has(oldID) {
		return
	}
	if prev, ok := w.paths.Get(newID); ok {
		w.releaseDir(filepath.Dir(prev))
	}
	w.paths.Rekey(oldID, newID)
}

// Watched returns the node ids currently registered.
func (w *Watcher) Watched() []int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.paths.Keys()
}

func (w *Watcher) releaseDir(dir string) {
	w.dirs[dir]--
	if w.dirs[dir] > 0 {
		return
	}
	delete(w.dirs, dir)
	if err := w.fs.Remove(dir); err != nil {
		w.log.Debug("unwatch directory", "dir", dir, "err", err)
	}
}

// Close stops every registration and pending notification.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	for p, t := range w.timers {
		t.Stop()
		delete(w.timers, p)
	}
	w.paths.Clear()
	w.mu.Unlock()

	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				w.schedule(filepath.Clean(ev.Name))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", "err", err)
		}
	}
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if t, ok := w.timers[path]; ok {
		t.Reset(w.debounce)
		return
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() { w.fire(path) })
}

func (w *Watcher) fire(path string) {
	w.mu.Lock()
	delete(w.timers, path)
	if w.closed {
		w.mu.Unlock()
		return
	}
	var hits []Change
	for _, id := range w.paths.Keys() {
		if p, _ := w.paths.Get(id); p == path {
			hits = append(hits, Change{ID: id, Path: path})
		}
	}
	w.mu.Unlock()

	for _, c := range hits {
		select {
		case w.changes <- c:
		case <-w.done:
			return
		}
	}
}
