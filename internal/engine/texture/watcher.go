package texture

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/Faultbox/terrastage/internal/logger"
)

// Watcher reports texture files that changed on disk. Events are collected on
// a background goroutine and handed to the render thread through Drain, which
// never blocks; GPU work stays on the caller's thread.
type Watcher struct {
	fs   *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu      sync.Mutex
	dirs    map[string]bool
	pending map[string]bool
	order   []string
}

// NewWatcher starts watching for file changes.
func NewWatcher() (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fs:      fs,
		done:    make(chan struct{}),
		dirs:    make(map[string]bool),
		pending: make(map[string]bool),
	}
	w.wg.Add(1)
	go w.loop()
	return w, nil
}

// Watch adds the directory containing path to the watch list.
func (w *Watcher) Watch(path string) error {
	dir := filepath.Dir(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dirs[dir] {
		return nil
	}
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.dirs[dir] = true
	logger.Debug("watching texture directory", zap.String("dir", dir))
	return nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Rename) == 0 {
				continue
			}
			w.record(ev.Name)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			logger.Warn("texture watcher error", zap.Error(err))
		case <-w.done:
			return
		}
	}
}

// record queues path for the next Drain. Repeated changes to one file
// before a drain are reported once.
func (w *Watcher) record(path string) {
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.pending[path] {
		return
	}
	w.pending[path] = true
	w.order = append(w.order, path)
}

// Drain returns the distinct paths changed since the last call, in the
// order they first changed.
func (w *Watcher) Drain() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := w.order
	w.order = nil
	clear(w.pending)
	return out
}

// Close stops the watcher and waits for its goroutine.
func (w *Watcher) Close() error {
	close(w.done)
	err := w.fs.Close()
	w.wg.Wait()
	return err
}
