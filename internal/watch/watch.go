// Package watch re-runs a build whenever a descriptor it depends on
// changes on disk.
package watch

import (
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vermilion00/libhmk/internal/event"
	"github.com/vermilion00/libhmk/internal/hmkerr"
	"github.com/vermilion00/libhmk/internal/logging"
)

// DefaultDebounce is used when no debounce window is configured.
const DefaultDebounce = 200 * time.Millisecond

// Watcher watches descriptor directories and calls a rebuild function after
// changes settle.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	rebuild  func() error
	bus      *event.Bus

	timer   *time.Timer
	changed string
	fireCh  chan struct{}
	stopCh  chan struct{}
	doneCh  chan struct{}
	started bool
	mu      sync.Mutex
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithBus publishes change and build events on bus.
func WithBus(bus *event.Bus) Option {
	return func(w *Watcher) { w.bus = bus }
}

// New creates a watcher over dirs. rebuild runs once per settled burst of
// changes to .json files; its errors are logged and watching continues.
func New(dirs []string, debounce time.Duration, rebuild func() error, opts ...Option) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &hmkerr.IOError{Op: "watch", Err: err}
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, &hmkerr.IOError{Op: "watch", Path: dir, Err: err}
		}
	}

	logging.Info().Strs("dirs", dirs).Dur("debounce", debounce).Msg("watcher initialized")

	watcher := &Watcher{
		watcher:  w,
		debounce: debounce,
		rebuild:  rebuild,
		fireCh:   make(chan struct{}, 1),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(watcher)
	}
	return watcher, nil
}

// Start begins watching for changes.
func (w *Watcher) Start() {
	w.mu.Lock()
	if w.started {
		w.mu.Unlock()
		return
	}
	w.started = true
	w.mu.Unlock()
	go w.run()
}

// run owns every rebuild: builds never overlap, and a change that lands
// during a build schedules the next one.
func (w *Watcher) run() {
	defer close(w.doneCh)

	for {
		select {
		case <-w.stopCh:
			return
		case <-w.fireCh:
			w.fire()
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if relevant(ev) {
				logging.Debug().Str("path", ev.Name).Str("op", ev.Op.String()).Msg("descriptor changed")
				w.schedule(ev.Name)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Error().Err(err).Msg("watcher error")
		}
	}
}

// relevant reports whether ev touches a descriptor. Editors often save by
// renaming a temp file over the target, so Create and Rename count too.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	return strings.EqualFold(filepath.Ext(ev.Name), ".json")
}

func (w *Watcher) schedule(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.changed = path
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.signal)
}

// signal hands a settled burst to run. A pending signal already covers it.
func (w *Watcher) signal() {
	select {
	case w.fireCh <- struct{}{}:
	default:
	}
}

func (w *Watcher) fire() {
	select {
	case <-w.stopCh:
		return
	default:
	}

	w.mu.Lock()
	path := w.changed
	w.mu.Unlock()
	w.publish(event.Event{Type: event.DescriptorChanged, Path: path})

	start := time.Now()
	if err := w.rebuild(); err != nil {
		logging.Error().Err(err).Msg("rebuild failed")
		w.publish(event.Event{Type: event.BuildFailed, Path: path, Error: err.Error(), Duration: time.Since(start)})
		return
	}
	logging.Info().Dur("took", time.Since(start)).Msg("rebuilt")
	w.publish(event.Event{Type: event.BuildSucceeded, Path: path, Duration: time.Since(start)})
}

func (w *Watcher) publish(e event.Event) {
	if w.bus == nil {
		return
	}
	if err := w.bus.Publish(e); err != nil {
		logging.Warn().Err(err).Str("event", string(e.Type)).Msg("publish failed")
	}
}

// Stop stops the watcher. A rebuild in progress finishes first.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	started := w.started
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	// Signal stop
	select {
	case <-w.stopCh:
		// Already stopped
	default:
		close(w.stopCh)
	}

	// Wait for run() to finish if it was started
	if started {
		<-w.doneCh
	}

	return w.watcher.Close()
}
