// Package cleaner carries out deletions over a caller-supplied selection.
// Every item is re-validated immediately before it is touched and every
// failure is captured as that item's outcome.
package cleaner

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
	"github.com/rahulvramesh/vac/internal/safety"
	"github.com/rahulvramesh/vac/internal/types"
)

// Result is the full outcome list of one Execute call plus its totals
type Result struct {
	Outcomes []types.DeletionOutcome
	Summary  types.CleanSummary
}

// Executor performs permanent removal, trash relocation or dry-run
// accounting. It holds only immutable policy and is safe to reuse.
type Executor struct {
	validator *safety.Validator
	policy    Policy
	trasher   Trasher
	logger    zerolog.Logger
}

// Option configures an Executor
type Option func(*Executor)

// WithPolicy sets the whole-removal policy
func WithPolicy(p Policy) Option {
	return func(e *Executor) { e.policy = p }
}

// WithTrasher sets the trash facility used in Trash mode
func WithTrasher(t Trasher) Option {
	return func(e *Executor) { e.trasher = t }
}

// NewExecutor creates an executor that screens every action through v
func NewExecutor(v *safety.Validator, opts ...Option) *Executor {
	e := &Executor{
		validator: v,
		policy:    DefaultPolicy(),
		logger:    logging.GetLogger("cleaner"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.trasher == nil {
		e.trasher = NewTrasher(xdg.Home)
	}
	return e
}

// Execute processes the selection in order. It never fails as a whole: each
// item's success or failure is reported in its own outcome.
func (e *Executor) Execute(selection []types.SelectedEntry, mode types.DeleteMode) Result {
	done := logging.LogOperationStart(e.logger, "clean:"+mode.String())
	defer done()

	result := Result{
		Outcomes: make([]types.DeletionOutcome, 0, len(selection)),
		Summary:  types.CleanSummary{Mode: mode, Items: len(selection)},
	}
	for _, item := range selection {
		outcome := e.process(item, mode)
		result.Outcomes = append(result.Outcomes, outcome)

		s := &result.Summary
		if outcome.Success {
			s.Succeeded++
		} else {
			s.Failed++
		}
		s.BytesFreed += outcome.BytesFreed
		s.Files += outcome.Files
		s.Dirs += outcome.Dirs
	}

	e.logger.Info().
		Str("mode", mode.String()).
		Int("items", result.Summary.Items).
		Int("failed", result.Summary.Failed).
		Int64("bytes", result.Summary.BytesFreed).
		Msg("Clean finished")
	return result
}

// DryRun reports what Execute in Permanent mode would remove, using the same
// validation and traversal
func (e *Executor) DryRun(selection []types.SelectedEntry) types.DryRunResult {
	result := e.Execute(selection, types.DryRun)

	dry := types.DryRunResult{Items: make([]types.DryRunItem, 0, len(result.Outcomes))}
	for _, o := range result.Outcomes {
		dry.Items = append(dry.Items, types.DryRunItem{
			Path:   o.Path,
			Files:  o.Files,
			Dirs:   o.Dirs,
			Bytes:  o.BytesFreed,
			Reason: o.Reason,
		})
		dry.TotalFiles += o.Files
		dry.TotalDirs += o.Dirs
		dry.TotalBytes += o.BytesFreed
	}
	return dry
}

func (e *Executor) process(item types.SelectedEntry, mode types.DeleteMode) types.DeletionOutcome {
	out := types.DeletionOutcome{Path: item.Path}

	// The snapshot kind may be stale; act on what is on disk now.
	info, err := os.Lstat(item.Path)
	if err != nil {
		return e.fail(out, errors.FromIO(err, item.Path))
	}

	if info.IsDir() && !e.policy.WholeRemoval(item.Category) {
		return e.clearContents(item.Path, mode, out)
	}

	if err := e.validator.Check(item.Path); err != nil {
		return e.fail(out, err)
	}
	t, err := e.apply(item.Path, mode)
	out = t.addTo(out)
	if err != nil {
		return e.fail(out, err)
	}
	return e.succeed(out)
}

// clearContents removes the children of dir and keeps dir itself
func (e *Executor) clearContents(dir string, mode types.DeleteMode, out types.DeletionOutcome) types.DeletionOutcome {
	if err := e.validator.CheckContainer(dir); err != nil {
		return e.fail(out, err)
	}
	children, err := os.ReadDir(dir)
	if err != nil {
		return e.fail(out, errors.FromIO(err, dir))
	}

	var firstErr error
	for _, child := range children {
		path := filepath.Join(dir, child.Name())

		// A symlink child is unlinked, never followed, so the validated
		// container vouches for it.
		if child.Type()&fs.ModeSymlink == 0 {
			if err := e.validator.Check(path); err != nil {
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
		}

		t, err := e.apply(path, mode)
		out = t.addTo(out)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		return e.fail(out, firstErr)
	}
	return e.succeed(out)
}

// apply acts on one validated path and returns what it freed
func (e *Executor) apply(path string, mode types.DeleteMode) (tally, error) {
	before := measure(path)

	var err error
	switch mode {
	case types.DryRun:
		return before, nil
	case types.Trash:
		err = e.trasher.Trash(path)
	default:
		if rerr := os.RemoveAll(path); rerr != nil {
			err = errors.FromIO(rerr, path)
		}
	}
	if err == nil {
		return before, nil
	}
	// whatever is still in place was not freed
	return before.minus(measure(path)), err
}

func (e *Executor) succeed(out types.DeletionOutcome) types.DeletionOutcome {
	out.Success = true
	e.logger.Debug().Str("path", out.Path).Int64("bytes", out.BytesFreed).Msg("Item cleaned")
	return out
}

func (e *Executor) fail(out types.DeletionOutcome, err error) types.DeletionOutcome {
	out.Success = false
	out.Code = errors.GetErrorCode(err)
	out.Reason = errors.Reason(err)
	e.logger.Warn().Err(err).Str("path", out.Path).Str("code", string(out.Code)).Msg("Item not cleaned")
	return out
}

// tally counts what lives under a path
type tally struct {
	files int
	dirs  int
	bytes int64
}

func (t tally) minus(o tally) tally {
	return tally{files: t.files - o.files, dirs: t.dirs - o.dirs, bytes: t.bytes - o.bytes}
}

func (t tally) addTo(out types.DeletionOutcome) types.DeletionOutcome {
	out.Files += t.files
	out.Dirs += t.dirs
	out.BytesFreed += t.bytes
	return out
}

// measure walks path without following symlinks. Unreadable parts count as
// zero; a missing path measures empty.
func measure(path string) tally {
	var t tally
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d == nil {
			return nil
		}
		if d.IsDir() {
			t.dirs++
			return nil
		}
		t.files++
		if d.Type().IsRegular() {
			if info, err := d.Info(); err == nil {
				t.bytes += info.Size()
			}
		}
		return nil
	})
	return t
}

// Merge folds other into r, as if both selections had run in one call
func (r *Result) Merge(other Result) {
	r.Outcomes = append(r.Outcomes, other.Outcomes...)
	r.Summary.Mode = other.Summary.Mode
	r.Summary.Items += other.Summary.Items
	r.Summary.Succeeded += other.Summary.Succeeded
	r.Summary.Failed += other.Summary.Failed
	r.Summary.BytesFreed += other.Summary.BytesFreed
	r.Summary.Files += other.Summary.Files
	r.Summary.Dirs += other.Summary.Dirs
}
