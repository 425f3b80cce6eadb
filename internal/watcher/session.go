package watcher

import (
	"context"
	"log/slog"

	"github.com/tahyonline/mismisquote/pkg/matcher"
)

// Update is one line of watch output: the state of a path after a scan or
// a coalesced file event.
type Update struct {
	// Path is the reference file as the caller supplied it.
	Path string
	// Op is the operation that triggered the update.
	Op Operation
	// Initial marks the startup scan, before any file changed.
	Initial bool
	// Result is the fresh scan outcome, nil when the file is gone.
	Result *matcher.Result
	// Prev is the match count before this update.
	Prev int
	// Err is a scan failure for this path. The session keeps running, the
	// file may come back.
	Err error
}

// Delta is the match count change this update represents.
func (u Update) Delta() int {
	if u.Result == nil {
		return -u.Prev
	}
	return len(u.Result.Matches) - u.Prev
}

// Session ties a compiled matcher to a set of watched reference files.
// Each file is scanned once at startup and rescanned after every
// coalesced change, with updates delivered to a single callback.
type Session struct {
	m        *matcher.Matcher
	fw       *FileWatcher
	paths    []string
	last     map[string]int
	onUpdate func(Update)
	logger   *slog.Logger
}

// NewSession creates a watch session. onUpdate is called from the
// session's goroutine, one update at a time.
func NewSession(m *matcher.Matcher, paths []string, logger *slog.Logger, opts Options, onUpdate func(Update)) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := NewFileWatcher(paths, logger, opts)
	if err != nil {
		return nil, err
	}
	return &Session{
		m:        m,
		fw:       fw,
		paths:    paths,
		last:     make(map[string]int, len(paths)),
		onUpdate: onUpdate,
		logger:   logger,
	}, nil
}

// Run scans every path once, then rescans on coalesced changes until the
// context is cancelled.
func (s *Session) Run(ctx context.Context) error {
	for _, path := range s.paths {
		if err := ctx.Err(); err != nil {
			s.fw.Stop()
			return err
		}
		s.rescan(ctx, path, OpCreate, true)
	}

	watchErr := make(chan error, 1)
	go func() {
		watchErr <- s.fw.Run(ctx)
	}()

	for {
		select {
		case <-ctx.Done():
			s.fw.Stop()
			<-watchErr
			return ctx.Err()
		case err := <-watchErr:
			return err
		case batch, ok := <-s.fw.Events():
			if !ok {
				return nil
			}
			for _, ev := range batch {
				s.handleEvent(ctx, ev)
			}
		}
	}
}

// Stop ends the session. Safe to call multiple times.
func (s *Session) Stop() {
	s.fw.Stop()
}

func (s *Session) handleEvent(ctx context.Context, ev FileEvent) {
	if ev.Operation == OpDelete {
		prev := s.last[ev.Path]
		s.last[ev.Path] = 0
		s.onUpdate(Update{Path: ev.Path, Op: OpDelete, Prev: prev})
		return
	}
	s.rescan(ctx, ev.Path, ev.Operation, false)
}

func (s *Session) rescan(ctx context.Context, path string, op Operation, initial bool) {
	prev := s.last[path]
	res, err := s.m.ScanFile(ctx, path)
	if err != nil {
		s.logger.Warn("rescan failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		s.onUpdate(Update{Path: path, Op: op, Initial: initial, Prev: prev, Err: err})
		return
	}
	s.last[path] = len(res.Matches)
	s.onUpdate(Update{Path: path, Op: op, Initial: initial, Result: res, Prev: prev})
}
