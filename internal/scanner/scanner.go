// Package scanner walks cleanup locations off the caller's goroutine and
// reports what it finds as an ordered stream of types.ScanMessage values.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rahulvramesh/vac/internal/classifier"
	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
	"github.com/rahulvramesh/vac/internal/types"
)

const (
	defaultBuffer   = 256
	defaultDispatch = 4
)

// Engine runs scans and owns the authoritative session generation
type Engine struct {
	classifier *classifier.Classifier
	sizer      *Sizer
	gens       *Generations
	dispatch   int
	buffer     int
	logger     zerolog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithWorkers sets the size of the per-computation sizing pool
func WithWorkers(n int) Option {
	return func(s *Engine) { s.sizer = NewSizer(n) }
}

// WithDispatch bounds how many directory sizes are computed concurrently
func WithDispatch(n int) Option {
	return func(s *Engine) {
		if n > 0 {
			s.dispatch = n
		}
	}
}

// WithBuffer sets the stream channel capacity
func WithBuffer(n int) Option {
	return func(s *Engine) {
		if n >= 0 {
			s.buffer = n
		}
	}
}

// NewEngine creates an engine that resolves root scans through cls
func NewEngine(cls *classifier.Classifier, opts ...Option) *Engine {
	s := &Engine{
		classifier: cls,
		sizer:      NewSizer(0),
		gens:       NewGenerations(),
		dispatch:   defaultDispatch,
		buffer:     defaultBuffer,
		logger:     logging.GetLogger("scanner"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSession supersedes any in-flight scan and returns the new session
func (s *Engine) NewSession() Session {
	session := s.gens.Next()
	s.logger.Debug().Uint64("generation", session.Generation).Msg("Scan session started")
	return session
}

// Cancel supersedes session. Producers notice at their next checkpoint.
func (s *Engine) Cancel(session Session) {
	if s.gens.Cancel(session) {
		s.logger.Debug().Uint64("generation", session.Generation).Msg("Scan session cancelled")
	}
}

// Current reports whether msg belongs to the authoritative generation.
// Receivers drop messages for which it returns false.
func (s *Engine) Current(msg types.ScanMessage) bool {
	return msg.Generation() == s.gens.Current()
}

// Scan starts a new session for target and returns it with its stream
func (s *Engine) Scan(ctx context.Context, target types.ScanTarget) (Session, <-chan types.ScanMessage) {
	session := s.NewSession()
	return session, s.StartScan(ctx, target, session)
}

// StartScan runs target in the background and returns its message stream.
// The stream ends with exactly one Done unless the session is superseded or
// ctx ends first; the channel is closed once every producer has exited.
func (s *Engine) StartScan(ctx context.Context, target types.ScanTarget, session Session) <-chan types.ScanMessage {
	out := make(chan types.ScanMessage, s.buffer)

	go func() {
		defer close(out)

		runCtx, cancel := session.bind(ctx)
		defer cancel()

		em := &emitter{ctx: runCtx, session: session, out: out, start: time.Now()}
		done := logging.LogOperationStart(s.logger, "scan:"+target.Kind.String())
		defer done()

		var ok bool
		switch target.Kind {
		case types.TargetRoot:
			ok = s.scanRoot(runCtx, em, target.Categories)
		case types.TargetListDir:
			ok = s.scanDir(runCtx, em, target.Path, false)
		case types.TargetDiskScan:
			ok = s.scanDisk(runCtx, em, target.Path)
		default:
			ok = em.fail(target.Path, errors.Newf(errors.ErrInvalidInput, "unknown scan target kind %d", target.Kind))
		}

		if !ok {
			s.logger.Debug().Uint64("generation", session.Generation).Msg("Scan stopped before completion")
			return
		}
		em.done()
	}()

	return out
}

// scanRoot walks the category roots in policy order. Each existing root is
// emitted before its size is known; sizes follow as DirEntrySize messages.
func (s *Engine) scanRoot(ctx context.Context, em *emitter, categories []types.Category) bool {
	roots, warnings := s.classifier.Roots(categories...)
	for _, warning := range warnings {
		path, _ := errors.GetErrorDetails(warning)["path"].(string)
		if !em.fail(path, warning) {
			return false
		}
	}

	var g errgroup.Group
	g.SetLimit(s.dispatch)

	for i, root := range roots {
		if !em.emit(types.Progress{Header: em.header(), Path: root.Path, Count: i + 1}) {
			break
		}

		info, err := os.Lstat(root.Path)
		if err != nil {
			if !em.fail(root.Path, errors.FromIO(err, root.Path)) {
				break
			}
			continue
		}

		entry := newEntry(root.Path, info)
		entry.Category = root.Category
		if root.Category != types.CategoryCustom {
			entry.Name = root.Label
		}
		if !em.entry(types.RootItem{Header: em.header(), Entry: entry}, entry) {
			break
		}

		if entry.IsDir() {
			path := root.Path
			g.Go(func() error {
				s.emitSize(ctx, em, path)
				return nil
			})
		}
	}
	_ = g.Wait()

	return !em.stopped()
}

// scanDir lists the immediate children of path. Directories are emitted with
// an unknown size, then sized in parallel once the listing is complete.
func (s *Engine) scanDir(ctx context.Context, em *emitter, path string, disk bool) bool {
	children, err := os.ReadDir(path)
	if err != nil {
		return em.fail(path, errors.FromIO(err, path))
	}

	var dirs []string
	for i, child := range children {
		childPath := filepath.Join(path, child.Name())
		if disk && !em.emit(types.Progress{Header: em.header(), Path: childPath, Count: i + 1}) {
			return false
		}

		// Symlinks and special files are never followed or listed.
		if !child.IsDir() && !child.Type().IsRegular() {
			continue
		}

		info, err := child.Info()
		if err != nil {
			if !em.fail(childPath, errors.FromIO(err, childPath)) {
				return false
			}
			continue
		}

		entry := newEntry(childPath, info)
		entry.Category = s.classifier.Category(childPath)

		var msg types.ScanMessage = types.DirEntry{Header: em.header(), Entry: entry}
		if disk {
			msg = types.RootItem{Header: em.header(), Entry: entry}
		}
		if !em.entry(msg, entry) {
			return false
		}
		if entry.IsDir() {
			dirs = append(dirs, childPath)
		}
	}

	var g errgroup.Group
	g.SetLimit(s.dispatch)
	for _, dir := range dirs {
		if em.stopped() {
			break
		}
		dir := dir
		g.Go(func() error {
			s.emitSize(ctx, em, dir)
			return nil
		})
	}
	_ = g.Wait()

	return !em.stopped()
}

// scanDisk validates an arbitrary caller-supplied path before listing it
func (s *Engine) scanDisk(ctx context.Context, em *emitter, path string) bool {
	if path == "" {
		return em.fail(path, errors.New(errors.ErrInvalidInput, "no path given"))
	}
	info, err := os.Stat(path)
	if err != nil {
		return em.fail(path, errors.FromIO(err, path))
	}
	if !info.IsDir() {
		return em.fail(path, errors.Newf(errors.ErrInvalidInput, "not a directory: %s", path))
	}
	if !em.emit(types.Progress{Header: em.header(), Path: path}) {
		return false
	}
	return s.scanDir(ctx, em, path, true)
}

func (s *Engine) emitSize(ctx context.Context, em *emitter, path string) {
	if em.stopped() {
		return
	}
	result := s.sizer.Compute(ctx, path)
	if result.Cancelled || em.stopped() {
		return
	}
	for _, pe := range result.Errors {
		if !em.fail(pe.Path, pe.Err) {
			return
		}
	}
	em.size(types.DirEntrySize{Header: em.header(), Path: path, Bytes: result.Bytes})
}

func newEntry(path string, info os.FileInfo) types.CleanableEntry {
	mod := info.ModTime()
	entry := types.CleanableEntry{
		Path:       path,
		Name:       filepath.Base(path),
		Kind:       types.File,
		ModifiedAt: &mod,
	}
	if info.IsDir() {
		entry.Kind = types.Directory
	} else {
		entry.SetSize(info.Size())
	}
	return entry
}

// emitter is the single exit point of a session's producers. Every send is
// preceded by a generation check, and a blocked send gives up as soon as the
// session is superseded or the context ends.
type emitter struct {
	ctx     context.Context
	session Session
	out     chan<- types.ScanMessage
	start   time.Time

	entries atomic.Int64
	files   atomic.Int64
	dirs    atomic.Int64
	bytes   atomic.Int64
	errs    atomic.Int64
	halted  atomic.Bool
}

func (em *emitter) header() types.Header {
	return types.Header{Gen: em.session.Generation}
}

func (em *emitter) stopped() bool {
	if em.halted.Load() {
		return true
	}
	if em.session.Stale() || em.ctx.Err() != nil {
		em.halted.Store(true)
		return true
	}
	return false
}

func (em *emitter) emit(msg types.ScanMessage) bool {
	if em.stopped() {
		return false
	}
	select {
	case em.out <- msg:
		return true
	case <-em.ctx.Done():
		em.halted.Store(true)
		return false
	}
}

func (em *emitter) entry(msg types.ScanMessage, entry types.CleanableEntry) bool {
	if !em.emit(msg) {
		return false
	}
	em.entries.Add(1)
	if entry.IsDir() {
		em.dirs.Add(1)
	} else {
		em.files.Add(1)
	}
	em.bytes.Add(entry.SizeOrZero())
	return true
}

func (em *emitter) size(msg types.DirEntrySize) bool {
	if !em.emit(msg) {
		return false
	}
	em.bytes.Add(msg.Bytes)
	return true
}

func (em *emitter) fail(path string, err error) bool {
	ok := em.emit(types.ScanError{
		Header: em.header(),
		Path:   path,
		Reason: errors.Reason(err),
		Code:   errors.GetErrorCode(err),
	})
	if ok {
		em.errs.Add(1)
	}
	return ok
}

func (em *emitter) done() {
	em.emit(types.Done{Header: em.header(), Summary: types.ScanSummary{
		Entries:     int(em.entries.Load()),
		Files:       int(em.files.Load()),
		Directories: int(em.dirs.Load()),
		TotalBytes:  em.bytes.Load(),
		Errors:      int(em.errs.Load()),
		Elapsed:     time.Since(em.start),
	}})
}
