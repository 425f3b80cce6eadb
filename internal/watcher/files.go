package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	mmqerrors "github.com/tahyonline/mismisquote/internal/errors"
)

// FileWatcher watches an explicit set of files through fsnotify and emits
// debounced, coalesced events for them.
//
// It watches the parent directories rather than the files themselves:
// editors that save by renaming a temporary file over the target would
// otherwise silently detach the watch. A path that does not exist yet is
// watched for creation, but its directory must exist.
type FileWatcher struct {
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
	watched   map[string]string // absolute path -> caller-supplied path
	logger    *slog.Logger
	stopCh    chan struct{}
	stopOnce  sync.Once
}

// NewFileWatcher creates a watcher for the given files.
func NewFileWatcher(paths []string, logger *slog.Logger, opts Options) (*FileWatcher, error) {
	if len(paths) == 0 {
		return nil, mmqerrors.ValidationError("watch requires at least one reference file", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts = opts.WithDefaults()

	watched := make(map[string]string, len(paths))
	dirs := make(map[string]struct{})
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, mmqerrors.IOError(fmt.Sprintf("resolve %s failed", path), err)
		}
		watched[abs] = path
		dirs[filepath.Dir(abs)] = struct{}{}
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, mmqerrors.IOError("create file watcher failed", err)
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			_ = fsw.Close()
			return nil, mmqerrors.IOError(fmt.Sprintf("watch %s failed", dir), err)
		}
	}

	return &FileWatcher{
		fsw:       fsw,
		debouncer: NewDebouncer(opts.Debounce),
		watched:   watched,
		logger:    logger,
		stopCh:    make(chan struct{}),
	}, nil
}

// Run consumes raw fsnotify events until the context is cancelled or Stop
// is called. Non-fatal watch errors are logged and watching continues.
func (w *FileWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.Stop()
			return ctx.Err()
		case <-w.stopCh:
			return nil
		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		}
	}
}

// handle filters directory noise down to the watched files and feeds the
// debouncer.
func (w *FileWatcher) handle(event fsnotify.Event) {
	path, ok := w.watched[filepath.Clean(event.Name)]
	if !ok {
		return
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		// A rename away from a watched path means the file is gone. A
		// rename-replace save produces a create next, coalescing to modify.
		op = OpDelete
	default:
		// Chmod and friends do not change content.
		return
	}

	w.debouncer.Add(FileEvent{
		Path:      path,
		Operation: op,
		Timestamp: time.Now(),
	})
}

// Events returns the channel of debounced event batches.
// The channel is closed when the watcher stops.
func (w *FileWatcher) Events() <-chan []FileEvent {
	return w.debouncer.Output()
}

// Stop stops the watcher and releases resources.
// Safe to call multiple times.
func (w *FileWatcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		_ = w.fsw.Close()
		w.debouncer.Stop()
	})
}
