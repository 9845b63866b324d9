// Package watch signals changes under a browsed directory tree so the host
// can reload its entry snapshot.
package watch

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a burst of file system events is coalesced
// before one change signal is emitted.
const DefaultDebounce = 100 * time.Millisecond

// defaultSkipNames are directories never descended into. Watching them adds
// thousands of inotify watches for content the browser will not show anyway.
var defaultSkipNames = map[string]struct{}{
	".git":        {},
	"node_modules": {},
	"vendor":      {},
	".next":       {},
	"dist":        {},
	"build":       {},
	"__pycache__": {},
	".venv":       {},
	"venv":        {},
	".idea":       {},
	".vscode":     {},
}

// Options tune a Watcher. The zero value takes the defaults.
type Options struct {
	// Debounce overrides DefaultDebounce when positive.
	Debounce time.Duration
	// SkipNames replaces the default skip set when non-nil.
	SkipNames map[string]struct{}
}

// Watcher emits a signal on Changes whenever anything under the root
// changes. fsnotify does not watch subdirectories on its own, so every
// directory in the tree gets its own watch, including directories created
// while the watcher runs.
type Watcher struct {
	fsw      *fsnotify.Watcher
	root     string
	debounce time.Duration
	skip     map[string]struct{}

	changes chan struct{}
	stop    chan struct{}

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

// New starts watching the tree rooted at root.
func New(root string, opts Options) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		root:     root,
		debounce: opts.Debounce,
		skip:     opts.SkipNames,
		changes:  make(chan struct{}, 1),
		stop:     make(chan struct{}),
	}
	if w.debounce <= 0 {
		w.debounce = DefaultDebounce
	}
	if w.skip == nil {
		w.skip = defaultSkipNames
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.run()
	return w, nil
}

// Changes returns the signal channel. It is closed when the watcher stops.
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Stop shuts the watcher down. Safe to call once.
func (w *Watcher) Stop() {
	close(w.stop)
	w.fsw.Close()
}

// addTree registers dir and every directory below it, skipping hidden and
// skip-listed names. Unreadable subdirectories are tolerated; only a broken
// root is an error.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if _, skip := w.skip[name]; skip {
			return filepath.SkipDir
		}
		if path != dir && strings.HasPrefix(name, ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) run() {
	defer func() {
		w.mu.Lock()
		w.closed = true
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		close(w.changes)
	}()

	for {
		select {
		case <-w.stop:
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.bump()
			// mkdir -p can create a whole subtree in one event.
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					_ = w.addTree(ev.Name)
				}
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// bump restarts the debounce timer; the signal fires once the burst quiets.
func (w *Watcher) bump() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.closed {
			return
		}
		select {
		case w.changes <- struct{}{}:
		default:
		}
	})
}
