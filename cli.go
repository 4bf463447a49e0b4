package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rahulvramesh/vac/internal/classifier"
	"github.com/rahulvramesh/vac/internal/cleaner"
	"github.com/rahulvramesh/vac/internal/config"
	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
	"github.com/rahulvramesh/vac/internal/report"
	"github.com/rahulvramesh/vac/internal/safety"
	"github.com/rahulvramesh/vac/internal/scanner"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/ui"
	"github.com/rahulvramesh/vac/internal/utils"
)

type cliOptions struct {
	scan      string
	dryRun    bool
	clean     bool
	trash     bool
	output    string
	sort      string
	config    string
	verbosity int
}

// app is the wired core shared by the TUI and batch mode
type app struct {
	home     string
	engine   *scanner.Engine
	executor *cleaner.Executor
	useTrash bool
	sort     utils.SortOrder
}

func newRootCmd() *cobra.Command {
	opts := &cliOptions{}

	cmd := &cobra.Command{
		Use:   "vac",
		Short: "Find and clean up disk space",
		Long: `vac scans well-known cache, log and temp locations (or any directory)
and reports how much space they use. Without --scan it starts an interactive
terminal UI; with --scan it runs once and prints or writes a report.`,
		Example: `  vac
  vac --scan preset --dry-run
  vac --scan ~/Downloads --sort time --output report.yaml
  vac --scan preset --clean --trash`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.scan, "scan", "", "Scan without the UI: preset, home or a directory path")
	flags.BoolVar(&opts.dryRun, "dry-run", false, "Report what cleaning the scan results would remove")
	flags.BoolVar(&opts.clean, "clean", false, "Delete everything the scan found")
	flags.BoolVar(&opts.trash, "trash", false, "Move to the trash instead of deleting permanently")
	flags.StringVarP(&opts.output, "output", "o", "", "Write the report to a .json, .yaml or .toml file")
	flags.StringVar(&opts.sort, "sort", "", "Sort order: name, size or time")
	flags.StringVar(&opts.config, "config", "", "Config file (default $XDG_CONFIG_HOME/vac/config.toml)")
	flags.CountVarP(&opts.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	return cmd
}

func run(cmd *cobra.Command, opts *cliOptions) error {
	interactive := opts.scan == ""
	logging.SetupLogger(opts.verbosity, !interactive)
	logger := logging.GetLogger("cli")
	logger.Debug().Str("scan", opts.scan).Bool("interactive", interactive).Msg("Command started")

	if interactive && (opts.dryRun || opts.clean || opts.output != "") {
		return errors.New(errors.ErrInvalidInput, "--dry-run, --clean and --output need --scan")
	}

	cfg := loadConfig(opts.config, logger)
	home := xdg.Home

	var target types.ScanTarget
	if !interactive {
		var err error
		if target, err = parseTarget(opts.scan, home); err != nil {
			return err
		}
	}

	a := newApp(cfg, home, target, opts)

	if interactive {
		if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
			return errors.New(errors.ErrInvalidInput, "no terminal attached; use --scan for non-interactive mode")
		}
		p := tea.NewProgram(ui.New(ui.Options{
			Engine:   a.engine,
			Executor: a.executor,
			Home:     a.home,
			UseTrash: a.useTrash,
			Sort:     a.sort,
		}), tea.WithAltScreen())
		_, err := p.Run()
		return err
	}

	return runBatch(cmd.Context(), cmd.OutOrStdout(), a, target, opts)
}

func loadConfig(path string, logger zerolog.Logger) *config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn().Err(err).Msg("Using default configuration")
		return config.Default()
	}
	return cfg
}

// parseTarget maps the --scan value to a scan target
func parseTarget(raw, home string) (types.ScanTarget, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return types.ScanTarget{}, errors.New(errors.ErrInvalidInput, "empty scan target")
	case "preset":
		return types.RootScan(), nil
	case "home":
		if home == "" {
			return types.ScanTarget{}, errors.New(errors.ErrInvalidInput, "home directory unknown")
		}
		return types.DiskScanOf(home), nil
	}

	path, err := filepath.Abs(utils.ExpandTilde(strings.TrimSpace(raw), home))
	if err != nil {
		return types.ScanTarget{}, errors.Wrapf(err, errors.ErrInvalidInput, "invalid scan path %q", raw)
	}
	return types.DiskScanOf(path), nil
}

// newApp wires the core from config and flags. An explicit scan path becomes
// an allowed root so its contents can be cleaned.
func newApp(cfg *config.Config, home string, target types.ScanTarget, opts *cliOptions) *app {
	cls := classifier.New(home, classifier.WithExtraTargets(cfg.ExpandedExtraTargets(home)...))
	engine := scanner.NewEngine(cls,
		scanner.WithWorkers(cfg.Scan.Workers),
		scanner.WithDispatch(cfg.Scan.Dispatch),
	)

	roots := cfg.ExpandedAllowedRoots(home)
	if target.Kind == types.TargetDiskScan && target.Path != "" {
		roots = append(roots, target.Path)
	}
	validator := safety.New(home, safety.WithAllowedRoots(roots...))

	policy := cleaner.DefaultPolicy().WithOverrides(cfg.WholeRemoval(), cfg.ContentOnly())
	executor := cleaner.NewExecutor(validator, cleaner.WithPolicy(policy))

	sort := cfg.SortOrder()
	if opts.sort != "" {
		sort = utils.ParseSortOrder(opts.sort)
	}

	return &app{
		home:     home,
		engine:   engine,
		executor: executor,
		useTrash: opts.trash || cfg.Safety.MoveToTrash,
		sort:     sort,
	}
}

// runBatch scans target to completion, optionally previews and cleans every
// entry found, then writes or prints the report
func runBatch(ctx context.Context, w io.Writer, a *app, target types.ScanTarget, opts *cliOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	logger := logging.GetLogger("cli")

	entries, scanErrors, err := collect(ctx, a.engine, target)
	if err != nil {
		return err
	}
	utils.SortEntries(entries, a.sort)

	in := report.Input{
		Target:  describeTarget(target),
		Sort:    a.sort,
		Entries: entries,
		Errors:  scanErrors,
	}

	selection := make([]types.SelectedEntry, 0, len(entries))
	for _, e := range entries {
		selection = append(selection, types.Select(e))
	}

	if opts.dryRun {
		result := a.executor.DryRun(selection)
		in.DryRun = &result
	}

	if opts.clean {
		mode := types.Permanent
		if a.useTrash {
			mode = types.Trash
		}
		result := a.executor.Execute(selection, mode)
		in.Clean = &result
		logger.Info().
			Int("succeeded", result.Summary.Succeeded).
			Int("failed", result.Summary.Failed).
			Int64("freed", result.Summary.BytesFreed).
			Msg("Clean finished")
	}

	rep := report.Build(in)
	if opts.output != "" {
		if err := report.Write(opts.output, rep); err != nil {
			return err
		}
		fmt.Fprintf(w, "Report written to %s\n", opts.output)
	} else {
		report.Render(w, rep)
	}

	if in.Clean != nil && in.Clean.Summary.Failed > 0 {
		return errors.Newf(errors.ErrIO, "%d of %d items could not be cleaned",
			in.Clean.Summary.Failed, in.Clean.Summary.Items)
	}
	return nil
}

// collect drains a scan stream, backfilling directory sizes as they arrive
func collect(ctx context.Context, engine *scanner.Engine, target types.ScanTarget) ([]types.CleanableEntry, []types.ScanError, error) {
	_, stream := engine.Scan(ctx, target)

	var (
		entries    []types.CleanableEntry
		scanErrors []types.ScanError
		done       bool
	)
	index := make(map[string]int)
	add := func(e types.CleanableEntry) {
		index[e.Path] = len(entries)
		entries = append(entries, e)
	}

	for msg := range stream {
		switch msg := msg.(type) {
		case types.RootItem:
			add(msg.Entry)
		case types.DirEntry:
			add(msg.Entry)
		case types.DirEntrySize:
			if i, ok := index[msg.Path]; ok {
				entries[i].SetSize(msg.Bytes)
			}
		case types.ScanError:
			scanErrors = append(scanErrors, msg)
		case types.Done:
			done = true
		}
	}

	if !done {
		if err := ctx.Err(); err != nil {
			return nil, nil, errors.Wrap(err, errors.ErrCancelled, "scan interrupted")
		}
		return nil, nil, errors.New(errors.ErrCancelled, "scan ended without completing")
	}

	// A target that failed validation reports nothing but its error.
	if len(entries) == 0 && len(scanErrors) > 0 && target.Kind == types.TargetDiskScan && scanErrors[0].Path == target.Path {
		first := scanErrors[0]
		return nil, nil, errors.Newf(first.Code, "cannot scan %s: %s", first.Path, first.Reason)
	}
	return entries, scanErrors, nil
}

func describeTarget(t types.ScanTarget) string {
	if t.Kind == types.TargetRoot {
		return "preset"
	}
	return t.Path
}
