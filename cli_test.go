package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rahulvramesh/vac/internal/config"
	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/report"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
}

// batchFixture lays out <tmp>/home and <tmp>/data with 20 bytes of content
func batchFixture(t *testing.T) (home, data string) {
	t.Helper()
	base := t.TempDir()
	home = filepath.Join(base, "home")
	data = filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(home, 0o755))
	writeFile(t, filepath.Join(data, "a.bin"), 10)
	writeFile(t, filepath.Join(data, "cache", "x"), 5)
	writeFile(t, filepath.Join(data, "cache", "y"), 5)
	return home, data
}

func TestParseTarget(t *testing.T) {
	home := "/home/someone"

	target, err := parseTarget("preset", home)
	require.NoError(t, err)
	assert.Equal(t, types.TargetRoot, target.Kind)

	target, err = parseTarget("HOME", home)
	require.NoError(t, err)
	assert.Equal(t, types.DiskScanOf(home), target)

	target, err = parseTarget("~/Downloads", home)
	require.NoError(t, err)
	assert.Equal(t, types.DiskScanOf("/home/someone/Downloads"), target)

	_, err = parseTarget("  ", home)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))

	_, err = parseTarget("home", "")
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestRootCmdFlags(t *testing.T) {
	cmd := newRootCmd()
	for _, name := range []string{"scan", "dry-run", "clean", "trash", "output", "sort", "config", "verbose"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}

	cmd.SetArgs([]string{"--dry-run"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestNewAppSortAndTrash(t *testing.T) {
	home, data := batchFixture(t)
	cfg := config.Default()
	cfg.Safety.MoveToTrash = true

	a := newApp(cfg, home, types.DiskScanOf(data), &cliOptions{sort: "time"})
	assert.Equal(t, utils.SortByTime, a.sort)
	assert.True(t, a.useTrash)

	a = newApp(config.Default(), home, types.DiskScanOf(data), &cliOptions{})
	assert.Equal(t, utils.SortBySize, a.sort)
	assert.False(t, a.useTrash)
}

func TestRunBatchRendersDryRun(t *testing.T) {
	home, data := batchFixture(t)
	opts := &cliOptions{dryRun: true}
	a := newApp(config.Default(), home, types.DiskScanOf(data), opts)

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), &out, a, types.DiskScanOf(data), opts))

	assert.Contains(t, out.String(), "Scan results: 2 items")
	assert.Contains(t, out.String(), "Dry-run preview:")
	assert.FileExists(t, filepath.Join(data, "a.bin"), "dry run must not delete")
}

func TestRunBatchCleanWritesReport(t *testing.T) {
	home, data := batchFixture(t)
	output := filepath.Join(t.TempDir(), "report.json")
	opts := &cliOptions{dryRun: true, clean: true, output: output}
	a := newApp(config.Default(), home, types.DiskScanOf(data), opts)

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), &out, a, types.DiskScanOf(data), opts))
	assert.Contains(t, out.String(), "Report written to")

	raw, err := os.ReadFile(output)
	require.NoError(t, err)
	var rep report.Report
	require.NoError(t, json.Unmarshal(raw, &rep))

	assert.Equal(t, data, rep.ScanTarget)
	assert.Equal(t, 2, rep.TotalItems)
	assert.Equal(t, int64(20), rep.TotalSize)
	require.NotNil(t, rep.DryRun)
	assert.Equal(t, int64(20), rep.DryRun.TotalSize)
	require.NotNil(t, rep.Clean)
	assert.True(t, rep.Clean.Success)
	assert.Equal(t, int64(20), rep.Clean.FreedSpace)

	assert.NoFileExists(t, filepath.Join(data, "a.bin"))
	assert.DirExists(t, filepath.Join(data, "cache"), "content-only directories keep their shell")
	children, err := os.ReadDir(filepath.Join(data, "cache"))
	require.NoError(t, err)
	assert.Empty(t, children)
}

func TestRunBatchMissingTarget(t *testing.T) {
	home, data := batchFixture(t)
	missing := filepath.Join(data, "nope")
	opts := &cliOptions{}
	a := newApp(config.Default(), home, types.DiskScanOf(missing), opts)

	err := runBatch(context.Background(), &bytes.Buffer{}, a, types.DiskScanOf(missing), opts)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound))
}

func TestScanTargetInsideSystemLocationNotCleanable(t *testing.T) {
	home, _ := batchFixture(t)
	for _, target := range []string{"/etc", "/usr"} {
		a := newApp(config.Default(), home, types.DiskScanOf(target), &cliOptions{})

		dry := a.executor.DryRun([]types.SelectedEntry{
			{Path: "/etc/passwd", Kind: types.File},
			{Path: "/usr/share", Kind: types.Directory},
		})
		for _, item := range dry.Items {
			if _, err := os.Lstat(item.Path); err != nil {
				continue
			}
			assert.Contains(t, item.Reason, "unsafe path", "%s via --scan %s", item.Path, target)
		}
		assert.Zero(t, dry.TotalBytes)
	}
}
