package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rahulvramesh/vac/internal/utils"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	sizeStyle    = lipgloss.NewStyle().Width(10).Align(lipgloss.Right)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("46"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
)

// Render prints a human readable summary of r
func Render(w io.Writer, r *Report) {
	rule := dimStyle.Render(strings.Repeat("─", 70))

	fmt.Fprintln(w)
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Scan results: %d items | Total size: %s", r.TotalItems, r.TotalSizeDisplay)))
	fmt.Fprintln(w, rule)
	for _, e := range r.Entries {
		icon := "📄"
		if e.Kind == "directory" {
			icon = "📁"
		}
		line := fmt.Sprintf("  %s %s  %s", icon, sizeStyle.Render(e.SizeDisplay), utils.TruncatePath(e.Name, 40))
		if e.ModifiedAt != "" {
			line += dimStyle.Render("  " + e.ModifiedAt)
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w, rule)

	if len(r.Errors) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%d paths could not be read:", len(r.Errors))))
		for _, e := range r.Errors {
			fmt.Fprintf(w, "  ! %s: %s\n", e.Path, e.Reason)
		}
	}

	if d := r.DryRun; d != nil {
		fmt.Fprintln(w)
		fmt.Fprintln(w, headerStyle.Render("Dry-run preview:"))
		fmt.Fprintf(w, "  Total: %d files / %d dirs / %s\n", d.TotalFiles, d.TotalDirs, d.TotalSizeDisplay)
		for _, item := range d.Items {
			if item.Reason != "" {
				fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  ✗ %s: %s", item.Path, item.Reason)))
				continue
			}
			fmt.Fprintf(w, "  • %s: %d files / %d dirs / %s\n", item.Path, item.FileCount, item.DirCount, item.SizeDisplay)
		}
	}

	if c := r.Clean; c != nil {
		fmt.Fprintln(w)
		action := "Deleted"
		if c.Mode == "trash" {
			action = "Moved to trash"
		}
		if c.Success {
			fmt.Fprintln(w, successStyle.Render(fmt.Sprintf("%s: %s (%d items)", action, c.FreedSpaceDisplay, c.ItemCount)))
		} else {
			fmt.Fprintln(w, warningStyle.Render(fmt.Sprintf("%s: %s (%d of %d items), some items failed:",
				action, c.FreedSpaceDisplay, c.Succeeded, c.ItemCount)))
			for _, o := range c.Outcomes {
				if !o.Success {
					fmt.Fprintln(w, errorStyle.Render(fmt.Sprintf("  ✗ %s: %s", o.Path, o.Reason)))
				}
			}
		}
	}
	fmt.Fprintln(w)
}
