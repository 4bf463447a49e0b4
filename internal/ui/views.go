package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/rahulvramesh/vac/internal/classifier"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

// View renders the UI
func (m Model) View() string {
	var s strings.Builder

	header := TitleStyle.Render("🧹 vac")
	s.WriteString("\n")
	s.WriteString(lipgloss.PlaceHorizontal(m.width, lipgloss.Center, header))
	s.WriteString("\n\n\n")

	var content string
	switch m.state {
	case stateMenu:
		content = m.renderMenu()
	case stateScanning:
		content = m.renderScanning()
	case stateResults:
		content = m.renderResults()
	case stateConfirm:
		content = m.renderConfirm()
	case stateCleaning:
		content = m.renderCleaning()
	}
	s.WriteString(lipgloss.NewStyle().Padding(0, 3).Render(content))

	if m.err != nil {
		s.WriteString("\n\n")
		errMsg := lipgloss.NewStyle().Padding(0, 3).Render(ErrorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		s.WriteString(errMsg)
	}

	s.WriteString("\n\n")
	return s.String()
}

func (m Model) renderMenu() string {
	var s strings.Builder

	items := []string{
		"🔍 Scan cleanup locations",
		"🏠 Scan home directory",
		"❌ Exit",
	}

	s.WriteString(HeaderStyle.Render("Main Menu"))
	s.WriteString("\n\n\n")

	for i, item := range items {
		cursor := "  "
		style := lipgloss.NewStyle()
		if m.menuChoice == i {
			cursor = "▸ "
			style = SelectedStyle
		}
		s.WriteString("  " + cursor + style.Render(item) + "\n\n")
	}

	s.WriteString("\n\n")
	s.WriteString(DimStyle.Render("Use ↑/↓ or j/k to navigate, Enter to select, q to quit"))
	return s.String()
}

func (m Model) renderScanning() string {
	var s strings.Builder

	s.WriteString(HeaderStyle.Render(m.title()))
	s.WriteString("\n\n")

	if n := len(m.entries); n > 0 {
		var total int64
		for _, e := range m.entries {
			total += e.SizeOrZero()
		}
		stats := fmt.Sprintf("🔍 Found %d items | %s so far", n, utils.FormatFileSize(total))
		s.WriteString("  " + SuccessStyle.Render(stats))
		s.WriteString("\n\n")
	}

	msg := "Scanning..."
	if m.scanCount > 0 {
		msg = fmt.Sprintf("Scanning (%d)...", m.scanCount)
	}
	s.WriteString("  " + m.spinner.View() + " " + msg)
	s.WriteString("\n\n")
	if m.scanPath != "" {
		s.WriteString("     " + DimStyle.Render(utils.TruncatePath(m.scanPath, 60)))
		s.WriteString("\n\n")
	}
	if len(m.scanErrors) > 0 {
		s.WriteString("  " + WarningStyle.Render(fmt.Sprintf("%d paths could not be read", len(m.scanErrors))))
		s.WriteString("\n\n")
	}

	s.WriteString(DimStyle.Render("ESC to cancel"))
	return s.String()
}

func (m Model) renderResults() string {
	var s strings.Builder

	s.WriteString(HeaderStyle.Render(m.title()))
	s.WriteString("\n\n")
	if m.status != "" {
		s.WriteString("  " + SuccessStyle.Render(m.status))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	if len(m.entries) == 0 {
		s.WriteString("  " + WarningStyle.Render("No cleanable files found"))
		s.WriteString("\n\n")
		s.WriteString(DimStyle.Render("Backspace: Back • r: Rescan • ESC: Menu"))
		return s.String()
	}

	viewportHeight := m.viewportHeight()
	startIdx := m.offset
	endIdx := min(startIdx+viewportHeight, len(m.entries))

	if len(m.entries) > viewportHeight {
		scrollInfo := fmt.Sprintf("[%d-%d of %d items]", startIdx+1, endIdx, len(m.entries))
		s.WriteString("  " + DimStyle.Render(scrollInfo))
		if startIdx > 0 {
			s.WriteString(DimStyle.Render(" ↑"))
		}
		if endIdx < len(m.entries) {
			s.WriteString(DimStyle.Render(" ↓"))
		}
		s.WriteString("\n\n")
	}

	nameWidth := max(20, min(45, m.width-45))
	for i := startIdx; i < endIdx; i++ {
		e := m.entries[i]
		cursor := "  "
		style := lipgloss.NewStyle()
		if m.choice == i {
			cursor = "▸ "
			style = SelectedStyle
		}

		checkbox := "☐"
		if m.marked[e.Path] {
			checkbox = "☑"
		}
		icon := "📄"
		if e.IsDir() {
			icon = "📁"
		}
		size := fmt.Sprintf("%10s", utils.FormatOptionalSize(e.Size))
		if e.Size == nil {
			size = PendingStyle.Render(size)
		}
		detail := categoryLabel(e.Category)
		if detail == "" && e.ModifiedAt != nil {
			detail = utils.FormatTime(*e.ModifiedAt, false)
		}

		line := fmt.Sprintf("%s %s %-*s", checkbox, icon, nameWidth, utils.TruncatePath(e.Name, nameWidth))
		s.WriteString("  " + cursor + style.Render(line) + " " + size + "  " + DimStyle.Render(detail) + "\n")
	}

	var total, markedSize int64
	for _, e := range m.entries {
		total += e.SizeOrZero()
		if m.marked[e.Path] {
			markedSize += e.SizeOrZero()
		}
	}
	s.WriteString("\n")
	s.WriteString("  " + DimStyle.Render(fmt.Sprintf("Total: %s • Sort: %s", utils.FormatFileSize(total), m.sort)))
	if len(m.marked) > 0 {
		s.WriteString(" • ")
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Marked: %d items (%s)", len(m.marked), utils.FormatFileSize(markedSize))))
	}
	if len(m.scanErrors) > 0 {
		s.WriteString(" • ")
		s.WriteString(WarningStyle.Render(fmt.Sprintf("%d unreadable", len(m.scanErrors))))
	}
	s.WriteString("\n\n")

	s.WriteString(DimStyle.Render("↑/↓ Navigate • Enter: Open • Backspace: Back • Space: Mark • Shift+A: Mark All • Shift+N: Unmark All • s: Sort • d: Delete • r: Rescan • ESC: Menu"))
	return s.String()
}

func (m Model) renderConfirm() string {
	var s strings.Builder

	action := "Delete"
	if m.useTrash {
		action = "Move to trash"
	}
	s.WriteString(HeaderStyle.Render(fmt.Sprintf("%s %d items?", action, len(m.selection))))
	s.WriteString("\n\n\n")

	if m.preview == nil {
		s.WriteString("  " + m.spinner.View() + " Calculating...")
		return s.String()
	}

	s.WriteString(m.table.View())
	s.WriteString("\n\n")
	summary := fmt.Sprintf("Would free %s in %d files and %d directories",
		utils.FormatFileSize(m.preview.TotalBytes), m.preview.TotalFiles, m.preview.TotalDirs)
	s.WriteString("  " + WarningStyle.Render(summary))
	s.WriteString("\n\n")
	s.WriteString(DimStyle.Render("Enter/y: Confirm • ESC/n: Cancel"))
	return s.String()
}

func (m Model) renderCleaning() string {
	var s strings.Builder

	s.WriteString(HeaderStyle.Render("Cleaning Files..."))
	s.WriteString("\n\n\n")
	done := len(m.selection) - len(m.pending)
	s.WriteString(fmt.Sprintf("  %s Removing selected files (%d/%d)...", m.spinner.View(), done, len(m.selection)))
	s.WriteString("\n\n\n")
	s.WriteString(m.progress.View())
	return s.String()
}

// title names what is being shown
func (m Model) title() string {
	switch m.target.Kind {
	case types.TargetRoot:
		return "Cleanup Locations"
	default:
		return "📁 " + utils.TruncatePath(m.target.Path, 60)
	}
}

func previewTable(result types.DryRunResult, width int) table.Model {
	pathWidth := max(30, min(60, width-50))
	columns := []table.Column{
		{Title: "Path", Width: pathWidth},
		{Title: "Files", Width: 7},
		{Title: "Dirs", Width: 6},
		{Title: "Size", Width: 10},
		{Title: "Status", Width: 24},
	}

	rows := make([]table.Row, 0, len(result.Items))
	for _, item := range result.Items {
		status := "ok"
		if item.Reason != "" {
			status = item.Reason
		}
		rows = append(rows, table.Row{
			utils.TruncatePath(item.Path, pathWidth),
			strconv.Itoa(item.Files),
			strconv.Itoa(item.Dirs),
			utils.FormatFileSize(item.Bytes),
			status,
		})
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(false),
		table.WithHeight(min(len(rows)+1, 15)),
	)
	t.SetStyles(tableStyles())
	return t
}

// categoryLabel is the display name for an entry's category
func categoryLabel(c types.Category) string {
	if c == types.CategoryNone {
		return ""
	}
	return classifier.Label(c)
}
