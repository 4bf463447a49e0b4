package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/types"
)

func noEnv(string) string { return "" }

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		require.NoError(t, os.MkdirAll(p, 0o755))
	}
}

func TestRootsFollowPolicyOrder(t *testing.T) {
	home := t.TempDir()
	mkdirs(t,
		filepath.Join(home, ".cargo", "registry", "cache"),
		filepath.Join(home, "Library", "Logs"),
		filepath.Join(home, "Library", "Caches"),
		filepath.Join(home, ".npm", "_cacache"),
	)

	c := New(home, WithEnv(noEnv), WithTempDirs())
	roots, warnings := c.Roots()
	require.Empty(t, warnings)

	var cats []types.Category
	for _, r := range roots {
		cats = append(cats, r.Category)
	}
	assert.Equal(t, []types.Category{
		types.CategorySystemCache,
		types.CategoryLogs,
		types.CategoryNpmCache,
		types.CategoryCargoCache,
	}, cats)
	assert.Equal(t, "System Cache", roots[0].Label)
}

func TestRootsFiltersCategories(t *testing.T) {
	home := t.TempDir()
	mkdirs(t,
		filepath.Join(home, "Library", "Logs"),
		filepath.Join(home, "Downloads"),
	)

	c := New(home, WithEnv(noEnv), WithTempDirs(), WithExtraTargets(filepath.Join(home, "Downloads")))
	roots, _ := c.Roots(types.CategoryDownloads)
	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(home, "Downloads"), roots[0].Path)
	assert.Equal(t, types.CategoryDownloads, roots[0].Category)
}

func TestExtraTargetsExpandedAndMissingSkipped(t *testing.T) {
	home := t.TempDir()
	mkdirs(t, filepath.Join(home, "projects", "cache"))

	c := New(home,
		WithEnv(noEnv),
		WithTempDirs(),
		WithExtraTargets("~/projects/cache", "  ", "/nonexistent_vac_path_12345"),
	)
	roots, warnings := c.Roots(types.CategoryCustom)

	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(home, "projects", "cache"), roots[0].Path)
	assert.Equal(t, types.CategoryCustom, roots[0].Category)

	require.Len(t, warnings, 1)
	assert.True(t, errors.IsErrorCode(warnings[0], errors.ErrConfig))
}

func TestEnvOverrides(t *testing.T) {
	home := t.TempDir()
	cargo := filepath.Join(t.TempDir(), "cargo")
	mkdirs(t, filepath.Join(cargo, "registry", "cache"))

	env := map[string]string{"CARGO_HOME": cargo}
	c := New(home, WithEnv(func(k string) string { return env[k] }), WithTempDirs())
	roots, _ := c.Roots(types.CategoryCargoCache)
	require.Len(t, roots, 1)
	assert.Equal(t, filepath.Join(cargo, "registry", "cache"), roots[0].Path)
}

func TestCategoryLongestPrefix(t *testing.T) {
	home := "/home/u"
	c := New(home, WithEnv(noEnv), WithTempDirs("/tmp"), WithExtraTargets("~/work/cache"))

	assert.Equal(t, types.CategorySystemCache, c.Category("/home/u/.cache/thing"))
	assert.Equal(t, types.CategoryPipCache, c.Category("/home/u/.cache/pip/wheels"))
	assert.Equal(t, types.CategoryTemp, c.Category("/tmp/abc"))
	assert.Equal(t, types.CategoryCustom, c.Category("/home/u/work/cache/x"))
	assert.Equal(t, types.CategoryNone, c.Category("/home/u/Documents/report.pdf"))
}

func TestCategoryTable(t *testing.T) {
	info, ok := Info(types.CategoryNpmCache)
	require.True(t, ok)
	assert.True(t, info.WholeRemoval)

	info, ok = Info(types.CategoryTemp)
	require.True(t, ok)
	assert.False(t, info.WholeRemoval)

	assert.Equal(t, "Trash", Label(types.CategoryTrash))
	assert.Equal(t, "unknown", Label(types.Category("unknown")))
	assert.Equal(t, types.CategorySystemCache, Categories()[0].Category)
}
