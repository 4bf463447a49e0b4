package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
)

// PathError is a failure recorded against a single path
type PathError struct {
	Path string
	Err  error
}

// SizeResult is the outcome of one subtree size computation
type SizeResult struct {
	Path      string
	Bytes     int64
	Files     int64
	Dirs      int64
	Errors    []PathError
	Cancelled bool
}

// Sizer computes subtree sizes by splitting the first level of children
// across a bounded worker pool. The pool lives for a single Compute call.
type Sizer struct {
	workers int
	logger  zerolog.Logger
}

// NewSizer creates a sizer; workers <= 0 means runtime.NumCPU()
func NewSizer(workers int) *Sizer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Sizer{workers: workers, logger: logging.GetLogger("sizer")}
}

// Compute sums the sizes of all regular files below root. Symlinks are not
// followed. Unreadable subtrees contribute zero and are recorded in Errors.
// The context is checked before entering each directory.
func (s *Sizer) Compute(ctx context.Context, root string) SizeResult {
	result := SizeResult{Path: root}

	info, err := os.Lstat(root)
	if err != nil {
		result.Errors = append(result.Errors, PathError{Path: root, Err: errors.FromIO(err, root)})
		return result
	}
	if !info.IsDir() {
		if info.Mode().IsRegular() {
			result.Bytes = info.Size()
			result.Files = 1
		}
		return result
	}

	if ctx.Err() != nil {
		result.Cancelled = true
		return result
	}

	children, err := os.ReadDir(root)
	if err != nil {
		result.Errors = append(result.Errors, PathError{Path: root, Err: errors.FromIO(err, root)})
		return result
	}

	var (
		bytes, files, dirs atomic.Int64
		mu                 sync.Mutex
		errs               []PathError
	)
	record := func(path string, err error) {
		mu.Lock()
		errs = append(errs, PathError{Path: path, Err: errors.FromIO(err, path)})
		mu.Unlock()
	}

	var g errgroup.Group
	g.SetLimit(s.workers)

	for _, child := range children {
		path := filepath.Join(root, child.Name())
		switch {
		case child.IsDir():
			dirs.Add(1)
			g.Go(func() error {
				b, f, d := walkSubtree(ctx, path, record)
				bytes.Add(b)
				files.Add(f)
				dirs.Add(d)
				return nil
			})
		case child.Type().IsRegular():
			fi, err := child.Info()
			if err != nil {
				record(path, err)
				continue
			}
			bytes.Add(fi.Size())
			files.Add(1)
		}
	}
	_ = g.Wait()

	result.Bytes = bytes.Load()
	result.Files = files.Load()
	result.Dirs = dirs.Load()
	result.Errors = errs
	result.Cancelled = ctx.Err() != nil

	s.logger.Trace().
		Str("path", root).
		Int64("bytes", result.Bytes).
		Int("errors", len(errs)).
		Bool("cancelled", result.Cancelled).
		Msg("Subtree sized")
	return result
}

// walkSubtree sums a subtree on the calling goroutine. Returned dirs excludes
// root itself.
func walkSubtree(ctx context.Context, root string, record func(string, error)) (bytes, files, dirs int64) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			record(path, err)
			return nil
		}
		if d.IsDir() {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}
			if path != root {
				dirs++
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			record(path, err)
			return nil
		}
		bytes += info.Size()
		files++
		return nil
	})
	return bytes, files, dirs
}
