// Package watch turns filesystem changes in watched directories into
// debounced wake-up signals for the scheduler.
package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/gobwas/glob"

	"github.com/sdejongh/filerules/internal/platform"
	"github.com/sdejongh/filerules/pkg/logging"
)

// DefaultDebounce is the quiet period used when none is configured
const DefaultDebounce = 500 * time.Millisecond

// ErrInvalidPattern indicates an ignore pattern could not be compiled
var ErrInvalidPattern = errors.New("invalid ignore pattern")

// Notifier watches the direct children of a set of directories. Bursts of
// changes collapse into a single signal once Debounce has passed without
// further changes.
type Notifier struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []glob.Glob
	logger   logging.Logger

	events chan struct{}
	done   chan struct{}

	mu        sync.Mutex
	dirs      map[string]bool
	timer     *time.Timer
	closed    bool
	closeOnce sync.Once
}

// New starts watching dirs. Directories that do not exist are skipped and
// picked up by a later Reset.
func New(dirs []string, debounce time.Duration, ignore []string, logger logging.Logger) (*Notifier, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = logging.NewNullLogger()
	}

	globs := make([]glob.Glob, 0, len(ignore))
	for _, pattern := range ignore {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, errors.Join(ErrInvalidPattern, err)
		}
		globs = append(globs, g)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	n := &Notifier{
		watcher:  watcher,
		debounce: debounce,
		ignore:   globs,
		logger:   logger,
		events:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		dirs:     make(map[string]bool),
	}
	n.Reset(dirs)

	go n.process()
	return n, nil
}

// Events delivers one value per debounced burst of changes. At most one
// signal is pending at a time.
func (n *Notifier) Events() <-chan struct{} {
	return n.events
}

// Reset changes the watched set to dirs
func (n *Notifier) Reset(dirs []string) {
	want := make(map[string]bool, len(dirs))
	for _, dir := range dirs {
		want[platform.NormalizePath(dir)] = true
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	for dir := range n.dirs {
		if !want[dir] {
			n.watcher.Remove(dir)
			delete(n.dirs, dir)
		}
	}
	for dir := range want {
		if n.dirs[dir] {
			continue
		}
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			n.logger.Warn(context.Background(), "Cannot watch directory", logging.Fields{"directory": dir})
			continue
		}
		if err := n.watcher.Add(dir); err != nil {
			n.logger.Warn(context.Background(), "Cannot watch directory", logging.Fields{"directory": dir, "error": err.Error()})
			continue
		}
		n.dirs[dir] = true
	}
}

// Watched returns the directories currently watched, sorted
func (n *Notifier) Watched() []string {
	n.mu.Lock()
	defer n.mu.Unlock()

	dirs := make([]string, 0, len(n.dirs))
	for dir := range n.dirs {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// Close stops watching. No signal is delivered afterwards.
func (n *Notifier) Close() error {
	var err error
	n.closeOnce.Do(func() {
		n.mu.Lock()
		n.closed = true
		n.dirs = make(map[string]bool)
		if n.timer != nil {
			n.timer.Stop()
		}
		n.mu.Unlock()

		err = n.watcher.Close()
		<-n.done
	})
	return err
}

func (n *Notifier) process() {
	defer close(n.done)

	for {
		select {
		case event, ok := <-n.watcher.Events:
			if !ok {
				return
			}
			// Attribute-only changes never alter what rules see
			if event.Op == fsnotify.Chmod {
				continue
			}
			n.changed(event.Name)
		case err, ok := <-n.watcher.Errors:
			if !ok {
				return
			}
			n.logger.Warn(context.Background(), "Watch error", logging.Fields{"error": err.Error()})
		}
	}
}

// changed restarts the quiet period unless name is ignored
func (n *Notifier) changed(name string) {
	base := filepath.Base(name)
	for _, g := range n.ignore {
		if g.Match(base) {
			return
		}
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	if n.timer != nil {
		n.timer.Stop()
	}
	n.timer = time.AfterFunc(n.debounce, n.fire)
}

func (n *Notifier) fire() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}

	select {
	case n.events <- struct{}{}:
	default:
		// A signal is already pending
	}
}
