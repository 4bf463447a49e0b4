package cleaner

import (
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
)

// Trasher relocates a path into a recoverable-deletion facility
type Trasher interface {
	Trash(path string) error
}

// DirTrasher moves items into a trash directory. When info is set it follows
// the freedesktop layout and records a .trashinfo file per item.
type DirTrasher struct {
	files  string
	info   string
	now    func() time.Time
	logger zerolog.Logger
}

// NewTrasher returns the platform trash: ~/.Trash on macOS and
// $XDG_DATA_HOME/Trash elsewhere
func NewTrasher(home string) *DirTrasher {
	if runtime.GOOS == "darwin" {
		return NewTrashAt(filepath.Join(home, ".Trash"), "")
	}
	base := filepath.Join(xdg.DataHome, "Trash")
	return NewTrashAt(filepath.Join(base, "files"), filepath.Join(base, "info"))
}

// NewTrashAt returns a trasher over explicit directories. An empty info
// directory disables .trashinfo bookkeeping.
func NewTrashAt(files, info string) *DirTrasher {
	return &DirTrasher{
		files:  files,
		info:   info,
		now:    time.Now,
		logger: logging.GetLogger("trash"),
	}
}

// Trash moves path into the trash under a name that does not collide with
// anything already there
func (t *DirTrasher) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return errors.FromIO(err, path)
	}
	if _, err := os.Lstat(abs); err != nil {
		return errors.FromIO(err, path)
	}
	if err := os.MkdirAll(t.files, 0o700); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "cannot create trash directory %s", t.files)
	}
	if t.info != "" {
		if err := os.MkdirAll(t.info, 0o700); err != nil {
			return errors.Wrapf(err, errors.ErrIO, "cannot create trash directory %s", t.info)
		}
	}

	name, infoPath, err := t.reserve(abs)
	if err != nil {
		return err
	}
	dest := filepath.Join(t.files, name)

	if err := move(abs, dest); err != nil {
		if infoPath != "" {
			_ = os.Remove(infoPath)
		}
		return errors.FromIO(err, path)
	}

	t.logger.Debug().Str("path", abs).Str("trash", dest).Msg("Moved to trash")
	return nil
}

// reserve picks a free name. For the freedesktop layout the name is claimed
// by exclusively creating its .trashinfo file.
func (t *DirTrasher) reserve(abs string) (string, string, error) {
	base := filepath.Base(abs)
	for i := 1; i < 10000; i++ {
		name := base
		if i > 1 {
			name = fmt.Sprintf("%s.%d", base, i)
		}
		if _, err := os.Lstat(filepath.Join(t.files, name)); err == nil {
			continue
		}
		if t.info == "" {
			return name, "", nil
		}

		infoPath := filepath.Join(t.info, name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if stderrors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", errors.Wrapf(err, errors.ErrIO, "cannot write trash info for %s", abs)
		}
		_, werr := fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
			(&url.URL{Path: abs}).EscapedPath(), t.now().Format("2006-01-02T15:04:05"))
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(infoPath)
			return "", "", errors.Newf(errors.ErrIO, "cannot write trash info for %s", abs)
		}
		return name, infoPath, nil
	}
	return "", "", errors.Newf(errors.ErrIO, "no free trash name for %s", abs)
}

// move renames src to dst, copying across devices when a rename is not
// possible
func move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil || !stderrors.Is(err, syscall.EXDEV) {
		return err
	}
	if err := copyTree(src, dst); err != nil {
		_ = os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)

		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return err
			}
			return os.Symlink(link, target)
		case d.Type().IsRegular():
			return copyFile(path, target, info.Mode().Perm())
		}
		return nil
	})
}

func copyFile(src, dst string, perm fs.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
