package cleaner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/safety"
	"github.com/rahulvramesh/vac/internal/types"
)

type fixture struct {
	home  string
	trash string
	v     *safety.Validator
	exec  *Executor
}

func newFixture(t *testing.T, opts ...Option) fixture {
	t.Helper()
	base := t.TempDir()
	f := fixture{
		home:  filepath.Join(base, "home"),
		trash: filepath.Join(base, "trash"),
	}
	require.NoError(t, os.MkdirAll(f.home, 0o755))
	f.v = safety.New(f.home, safety.WithTempRoots())
	opts = append([]Option{WithTrasher(NewTrashAt(filepath.Join(f.trash, "files"), filepath.Join(f.trash, "info")))}, opts...)
	f.exec = NewExecutor(f.v, opts...)
	return f
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// cacheDir lays out a directory holding 65 bytes in 4 files and 1 subdirectory
func cacheDir(t *testing.T, dir string) {
	t.Helper()
	writeFile(t, filepath.Join(dir, "a"), 10)
	writeFile(t, filepath.Join(dir, "b"), 20)
	writeFile(t, filepath.Join(dir, "c"), 30)
	writeFile(t, filepath.Join(dir, "sub", "d"), 5)
}

func dirSel(path string, cat types.Category) types.SelectedEntry {
	return types.SelectedEntry{Path: path, Kind: types.Directory, Category: cat}
}

func fileSel(path string, size int64) types.SelectedEntry {
	return types.SelectedEntry{Path: path, Kind: types.File, Size: size}
}

func TestContentOnlyKeepsDirectory(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.home, "Library", "Caches", "app")
	cacheDir(t, dir)

	result := f.exec.Execute([]types.SelectedEntry{dirSel(dir, types.CategorySystemCache)}, types.Permanent)

	require.Len(t, result.Outcomes, 1)
	o := result.Outcomes[0]
	assert.True(t, o.Success, o.Reason)
	assert.Equal(t, int64(65), o.BytesFreed)
	assert.Equal(t, 4, o.Files)
	assert.Equal(t, 1, o.Dirs)

	assert.DirExists(t, dir)
	children, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestWholeRemovalDeletesDirectory(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.home, ".npm", "_cacache")
	cacheDir(t, dir)

	result := f.exec.Execute([]types.SelectedEntry{dirSel(dir, types.CategoryNpmCache)}, types.Permanent)

	o := result.Outcomes[0]
	assert.True(t, o.Success, o.Reason)
	assert.Equal(t, int64(65), o.BytesFreed)
	assert.Equal(t, 2, o.Dirs, "the removed directory itself is counted")
	assert.NoDirExists(t, dir)
}

func TestPolicyOverride(t *testing.T) {
	f := newFixture(t, WithPolicy(DefaultPolicy().WithOverrides(
		[]types.Category{types.CategoryLogs},
		[]types.Category{types.CategoryNpmCache},
	)))
	logs := filepath.Join(f.home, "Library", "Logs")
	npm := filepath.Join(f.home, ".npm", "_cacache")
	cacheDir(t, logs)
	cacheDir(t, npm)

	result := f.exec.Execute([]types.SelectedEntry{
		dirSel(logs, types.CategoryLogs),
		dirSel(npm, types.CategoryNpmCache),
	}, types.Permanent)

	assert.Equal(t, 2, result.Summary.Succeeded)
	assert.NoDirExists(t, logs)
	assert.DirExists(t, npm)
}

func TestDryRunMatchesPermanent(t *testing.T) {
	f := newFixture(t)
	content := filepath.Join(f.home, "Library", "Caches", "app")
	whole := filepath.Join(f.home, ".npm", "_cacache")
	file := filepath.Join(f.home, "Downloads", "big.iso")
	cacheDir(t, content)
	cacheDir(t, whole)
	writeFile(t, file, 128)

	selection := []types.SelectedEntry{
		dirSel(content, types.CategorySystemCache),
		dirSel(whole, types.CategoryNpmCache),
		fileSel(file, 128),
	}

	dry := f.exec.DryRun(selection)
	assert.FileExists(t, file)
	assert.DirExists(t, whole)
	assert.FileExists(t, filepath.Join(content, "a"))

	result := f.exec.Execute(selection, types.Permanent)
	require.Equal(t, 3, result.Summary.Succeeded)

	assert.Equal(t, result.Summary.BytesFreed, dry.TotalBytes)
	assert.Equal(t, result.Summary.Files, dry.TotalFiles)
	assert.Equal(t, result.Summary.Dirs, dry.TotalDirs)
	assert.Equal(t, int64(65+65+128), dry.TotalBytes)
	require.Len(t, dry.Items, 3)
	for i, item := range dry.Items {
		assert.Equal(t, result.Outcomes[i].BytesFreed, item.Bytes)
		assert.Empty(t, item.Reason)
	}
}

func TestTrashSingleFile(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(f.home, "Downloads", "old.zip")
	writeFile(t, file, 42)

	result := f.exec.Execute([]types.SelectedEntry{fileSel(file, 42)}, types.Trash)

	o := result.Outcomes[0]
	assert.True(t, o.Success, o.Reason)
	assert.Equal(t, int64(42), o.BytesFreed)
	assert.NoFileExists(t, file)
	assert.FileExists(t, filepath.Join(f.trash, "files", "old.zip"))
	assert.FileExists(t, filepath.Join(f.trash, "info", "old.zip.trashinfo"))
	assert.Equal(t, types.Trash, result.Summary.Mode)
}

func TestTrashContentOnly(t *testing.T) {
	f := newFixture(t)
	dir := filepath.Join(f.home, "Library", "Logs")
	cacheDir(t, dir)

	result := f.exec.Execute([]types.SelectedEntry{dirSel(dir, types.CategoryLogs)}, types.Trash)

	assert.True(t, result.Outcomes[0].Success)
	assert.DirExists(t, dir)
	children, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, children)
	assert.DirExists(t, filepath.Join(f.trash, "files", "sub"))
}

func TestExternallyDeletedItem(t *testing.T) {
	f := newFixture(t)
	a := filepath.Join(f.home, "tmp", "a")
	b := filepath.Join(f.home, "tmp", "b")
	c := filepath.Join(f.home, "tmp", "c")
	writeFile(t, a, 1)
	writeFile(t, b, 2)
	writeFile(t, c, 3)
	selection := []types.SelectedEntry{fileSel(a, 1), fileSel(b, 2), fileSel(c, 3)}

	require.NoError(t, os.Remove(b))
	result := f.exec.Execute(selection, types.Permanent)

	require.Len(t, result.Outcomes, 3)
	assert.True(t, result.Outcomes[0].Success)
	assert.False(t, result.Outcomes[1].Success)
	assert.Equal(t, errors.ErrNotFound, result.Outcomes[1].Code)
	assert.Contains(t, result.Outcomes[1].Reason, "not found")
	assert.True(t, result.Outcomes[2].Success)

	assert.Equal(t, 2, result.Summary.Succeeded)
	assert.Equal(t, 1, result.Summary.Failed)
	assert.Equal(t, int64(4), result.Summary.BytesFreed)
}

func TestHomeDirectoryNeverTouched(t *testing.T) {
	f := newFixture(t)
	keep := filepath.Join(f.home, "Documents", "thesis.tex")
	writeFile(t, keep, 10)

	allowed, rejected := f.v.Filter([]string{f.home})
	assert.Empty(t, allowed)
	require.Len(t, rejected, 1)
	assert.Equal(t, errors.ErrPolicyViolation, rejected[0].Code)

	for _, mode := range []types.DeleteMode{types.DryRun, types.Permanent, types.Trash} {
		result := f.exec.Execute([]types.SelectedEntry{dirSel(f.home, types.CategoryNone)}, mode)
		o := result.Outcomes[0]
		assert.False(t, o.Success)
		assert.Equal(t, errors.ErrPolicyViolation, o.Code)
		assert.Contains(t, o.Reason, "unsafe path")
		assert.Zero(t, o.BytesFreed)
	}
	assert.FileExists(t, keep)
	assert.NoDirExists(t, filepath.Join(f.trash, "files"))
}

func TestOutsideScopeRejected(t *testing.T) {
	f := newFixture(t)
	outside := filepath.Join(t.TempDir(), "elsewhere")
	writeFile(t, outside, 5)

	result := f.exec.Execute([]types.SelectedEntry{fileSel(outside, 5)}, types.Permanent)

	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, errors.ErrPolicyViolation, result.Outcomes[0].Code)
	assert.FileExists(t, outside)
}

func TestProtectedSubtreeNotCleared(t *testing.T) {
	base := t.TempDir()
	home := filepath.Join(base, "home")
	vault := filepath.Join(base, "vault")
	require.NoError(t, os.MkdirAll(home, 0o755))
	cacheDir(t, vault)

	v := safety.New(home, safety.WithTempRoots(base), safety.WithDeny(vault))
	exec := NewExecutor(v, WithTrasher(NewTrashAt(filepath.Join(base, "trash"), "")))

	for _, mode := range []types.DeleteMode{types.Permanent, types.Trash, types.DryRun} {
		result := exec.Execute([]types.SelectedEntry{
			dirSel(vault, types.CategoryNone),
			dirSel(filepath.Join(vault, "sub"), types.CategoryNone),
		}, mode)

		for _, o := range result.Outcomes {
			assert.False(t, o.Success, "%s %s", mode, o.Path)
			assert.Equal(t, errors.ErrPolicyViolation, o.Code)
			assert.Contains(t, o.Reason, "unsafe path")
			assert.Zero(t, o.BytesFreed)
		}
		assert.Zero(t, result.Summary.BytesFreed)
	}

	for _, name := range []string{"a", "b", "c", filepath.Join("sub", "d")} {
		assert.FileExists(t, filepath.Join(vault, name))
	}
}

func TestSystemDirectoryNotClearedUnderAllowedRoot(t *testing.T) {
	home := filepath.Join(t.TempDir(), "home")
	require.NoError(t, os.MkdirAll(home, 0o755))
	v := safety.New(home, safety.WithTempRoots(), safety.WithAllowedRoots("/etc", "/usr"))
	exec := NewExecutor(v)

	dry := exec.DryRun([]types.SelectedEntry{
		dirSel("/etc", types.CategoryNone),
		dirSel("/usr/share", types.CategoryNone),
		fileSel("/etc/passwd", 0),
	})

	require.Len(t, dry.Items, 3)
	for _, item := range dry.Items {
		if _, err := os.Lstat(item.Path); err != nil {
			continue
		}
		assert.Contains(t, item.Reason, "unsafe path", item.Path)
		assert.Zero(t, item.Bytes, item.Path)
	}
	assert.Zero(t, dry.TotalBytes)
}

func TestSymlinkSwapCaughtAtExecution(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	victim := filepath.Join(outside, "precious")
	writeFile(t, victim, 9)

	item := filepath.Join(f.home, "Library", "Caches", "swap")
	writeFile(t, filepath.Join(item, "x"), 1)
	selection := []types.SelectedEntry{dirSel(item, types.CategoryNpmCache)}

	// replaced between selection and execution
	require.NoError(t, os.RemoveAll(item))
	require.NoError(t, os.Symlink(outside, item))

	result := f.exec.Execute(selection, types.Permanent)
	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, errors.ErrPolicyViolation, result.Outcomes[0].Code)
	assert.FileExists(t, victim)
}

func TestContentOnlyUnlinksSymlinkChildren(t *testing.T) {
	f := newFixture(t)
	outside := t.TempDir()
	victim := filepath.Join(outside, "precious")
	writeFile(t, victim, 9)

	dir := filepath.Join(f.home, "Library", "Caches", "app")
	writeFile(t, filepath.Join(dir, "real"), 3)
	require.NoError(t, os.Symlink(outside, filepath.Join(dir, "link")))

	result := f.exec.Execute([]types.SelectedEntry{dirSel(dir, types.CategorySystemCache)}, types.Permanent)

	assert.True(t, result.Outcomes[0].Success, result.Outcomes[0].Reason)
	assert.Equal(t, int64(3), result.Outcomes[0].BytesFreed)
	assert.FileExists(t, victim)
	children, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestPermissionFailureIsolated(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	f := newFixture(t)
	locked := filepath.Join(f.home, "locked")
	writeFile(t, filepath.Join(locked, "inner", "f"), 7)
	require.NoError(t, os.Chmod(locked, 0o500))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })
	free := filepath.Join(f.home, "free")
	writeFile(t, free, 11)

	result := f.exec.Execute([]types.SelectedEntry{
		dirSel(filepath.Join(locked, "inner"), types.CategoryNpmCache),
		fileSel(free, 11),
	}, types.Permanent)

	assert.False(t, result.Outcomes[0].Success)
	assert.Equal(t, errors.ErrPermission, result.Outcomes[0].Code)
	// the file inside was removed before the directory unlink failed
	assert.Equal(t, int64(7), result.Outcomes[0].BytesFreed)
	assert.True(t, result.Outcomes[1].Success)
	assert.Equal(t, int64(18), result.Summary.BytesFreed)
}
