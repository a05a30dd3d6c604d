// Package watcher reports changes to launch descriptor files.
package watcher

import (
	"context"
	"iter"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/stagehand/internal/core/domain"
	"go.trai.ch/stagehand/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.Watcher = (*Watcher)(nil)

// Watcher implements ports.Watcher using fsnotify. It watches the parent
// directory of every file so editors that replace files by rename are still
// noticed, and filters events down to the watched files.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger

	mu    sync.Mutex
	files map[string]struct{}
	dirs  map[string]struct{}
}

// New creates a new descriptor watcher.
func New(logger ports.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(domain.ErrWatcherFailed, err.Error())
	}
	return &Watcher{
		fsWatcher: fsw,
		logger:    logger,
		files:     make(map[string]struct{}),
		dirs:      make(map[string]struct{}),
	}, nil
}

// Watch adds files to the watch set.
func (w *Watcher) Watch(paths ...string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", path)
		}
		if _, ok := w.files[abs]; ok {
			continue
		}

		dir := filepath.Dir(abs)
		if _, ok := w.dirs[dir]; !ok {
			if err := w.fsWatcher.Add(dir); err != nil {
				return zerr.With(zerr.Wrap(domain.ErrWatcherFailed, err.Error()), "path", dir)
			}
			w.dirs[dir] = struct{}{}
		}
		w.files[abs] = struct{}{}
	}
	return nil
}

// Events returns an iterator of changes to watched files.
func (w *Watcher) Events(ctx context.Context) iter.Seq[ports.WatchEvent] {
	return func(yield func(ports.WatchEvent) bool) {
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				ev, ok := w.convertEvent(event)
				if !ok {
					continue
				}
				if !yield(ev) {
					return
				}
			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				if w.logger != nil {
					w.logger.Warn("watcher: " + err.Error())
				}
			}
		}
	}
}

// Close stops watching and releases all resources.
func (w *Watcher) Close() error {
	return w.fsWatcher.Close()
}

func (w *Watcher) convertEvent(event fsnotify.Event) (ports.WatchEvent, bool) {
	path := filepath.Clean(event.Name)

	w.mu.Lock()
	_, watched := w.files[path]
	w.mu.Unlock()
	if !watched {
		return ports.WatchEvent{}, false
	}

	switch {
	case event.Has(fsnotify.Write):
		return ports.WatchEvent{Path: path, Operation: ports.OpWrite}, true
	case event.Has(fsnotify.Create):
		return ports.WatchEvent{Path: path, Operation: ports.OpCreate}, true
	case event.Has(fsnotify.Remove):
		return ports.WatchEvent{Path: path, Operation: ports.OpRemove}, true
	case event.Has(fsnotify.Rename):
		return ports.WatchEvent{Path: path, Operation: ports.OpRename}, true
	default:
		return ports.WatchEvent{}, false
	}
}
