package config

import (
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/hydra/logging"
)

// ErrWatcherClosed is returned when a closed watcher is used.
var ErrWatcherClosed = errors.New("definition watcher closed")

// ReloadFunc receives the freshly loaded definitions whenever the
// watched file changes.
type ReloadFunc func(defs []Definition)

// Watcher reloads a definition file when it changes on disk. Editors
// often replace files on save, so rename and create events on the
// watched path count as changes too.
type Watcher struct {
	mu sync.Mutex

	path    string
	watcher *fsnotify.Watcher
	reload  ReloadFunc
	log     *logging.Logger

	// debounce collapses the event bursts editors produce on save.
	debounce time.Duration

	closed  bool
	closeCh chan struct{}
	done    sync.WaitGroup
}

// NewWatcher starts watching path. The file is loaded once up front
// so a bad file fails construction instead of the first reload.
func NewWatcher(path string, reload ReloadFunc, log *logging.Logger) (*Watcher, error) {
	if log == nil {
		log = logging.Null()
	}
	log = log.WithComponent("config")

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	defs, err := LoadFile(absPath)
	if err != nil {
		return nil, err
	}
	reload(defs)

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	// Watch the directory: save-by-rename replaces the file inode and
	// a watch on the file itself would go stale.
	if err := fsw.Add(filepath.Dir(absPath)); err != nil {
		_ = fsw.Close()
		return nil, err
	}

	w := &Watcher{
		path:     absPath,
		watcher:  fsw,
		reload:   reload,
		log:      log,
		debounce: 100 * time.Millisecond,
		closeCh:  make(chan struct{}),
	}

	w.done.Add(1)
	go w.loop()
	return w, nil
}

// Path returns the watched file path.
func (w *Watcher) Path() string { return w.path }

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.done.Wait()
	return w.watcher.Close()
}

func (w *Watcher) loop() {
	defer w.done.Done()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			defs, err := LoadFile(w.path)
			if err != nil {
				w.log.Warn("reload %s: %v", w.path, err)
				continue
			}
			w.log.Debug("reloaded %d definitions from %s", len(defs), w.path)
			w.reload(defs)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch %s: %v", w.path, err)
		}
	}
}
