package resources

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const DefaultDebounce = 250 * time.Millisecond

// Watcher flushes a Loader's cache when files under the resource root change,
// so a replaced background or font is picked up without a restart.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	loader    *Loader
	logger    *slog.Logger
	debounce  time.Duration
	onFlush   func()
	done      chan struct{}
	stopped   chan struct{}
}

type WatcherOption func(*Watcher)

func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// WithFlushHook registers fn to run after every cache flush.
func WithFlushHook(fn func()) WatcherOption {
	return func(w *Watcher) {
		w.onFlush = fn
	}
}

// NewWatcher creates a watcher for loader's root directory and any direct
// subdirectories (fonts live in one).
func NewWatcher(loader *Loader, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	w := &Watcher{
		fsWatcher: fsw,
		loader:    loader,
		logger:    logger,
		debounce:  DefaultDebounce,
		done:      make(chan struct{}),
		stopped:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start begins watching. The watch loop ends when ctx is cancelled or Stop
// is called.
func (w *Watcher) Start(ctx context.Context) error {
	dirs, err := watchDirs(w.loader.Root())
	if err != nil {
		w.abort()
		return err
	}
	for _, dir := range dirs {
		if err := w.fsWatcher.Add(dir); err != nil {
			w.abort()
			return fmt.Errorf("watching directory %s: %w", dir, err)
		}
	}

	go w.loop(ctx)
	return nil
}

// Stop terminates the watcher and waits for the loop to exit.
func (w *Watcher) Stop() error {
	select {
	case <-w.done:
	default:
		close(w.done)
	}
	err := w.fsWatcher.Close()
	<-w.stopped
	return err
}

func (w *Watcher) abort() {
	_ = w.fsWatcher.Close()
	close(w.stopped)
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.stopped)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
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
			w.loader.Flush()
			w.logger.Info("resource cache flushed", "root", w.loader.Root())
			if w.onFlush != nil {
				w.onFlush()
			}

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("resource watcher error", "error", err)

		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}

func watchDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("reading resource root %s: %w", root, err)
	}
	dirs := []string{root}
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(root, e.Name()))
		}
	}
	return dirs, nil
}
