package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/rahulvramesh/vac/internal/cleaner"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

const menuItems = 3

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = max(20, min(60, msg.Width-10))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progress.FrameMsg:
		pm, cmd := m.progress.Update(msg)
		m.progress = pm.(progress.Model)
		return m, cmd

	case types.ScanMessage:
		return m.handleScan(msg)

	case scanClosedMsg:
		// a stream that ends without Done was cancelled or superseded
		if msg.stream == m.stream && m.state == stateScanning {
			m.finishScan()
		}
		return m, nil

	case previewMsg:
		if m.state == stateConfirm {
			result := msg.result
			m.preview = &result
			m.table = previewTable(result, m.width)
		}
		return m, nil

	case cleanStepMsg:
		return m.handleCleanStep(msg)
	}

	return m, nil
}

func (m Model) handleScan(msg types.ScanMessage) (tea.Model, tea.Cmd) {
	// Stale generations are dropped without re-arming their stream.
	if !m.engine.Current(msg) {
		return m, nil
	}

	switch msg := msg.(type) {
	case types.Progress:
		m.scanCount = msg.Count
		m.scanPath = msg.Path
	case types.RootItem:
		m.addEntry(msg.Entry)
	case types.DirEntry:
		m.addEntry(msg.Entry)
	case types.DirEntrySize:
		if i, ok := m.index[msg.Path]; ok {
			m.entries[i].SetSize(msg.Bytes)
		}
	case types.ScanError:
		m.scanErrors = append(m.scanErrors, msg)
	case types.Done:
		summary := msg.Summary
		m.summary = &summary
		m.finishScan()
	}
	return m, waitForScan(m.stream)
}

func (m *Model) addEntry(e types.CleanableEntry) {
	m.index[e.Path] = len(m.entries)
	m.entries = append(m.entries, e)
	m.scanPath = e.Path
}

func (m *Model) finishScan() {
	m.resort()
	m.state = stateResults
	m.choice = 0
	m.offset = 0
}

// resort orders the entries and rebuilds the path index
func (m *Model) resort() {
	utils.SortEntries(m.entries, m.sort)
	m.index = make(map[string]int, len(m.entries))
	for i, e := range m.entries {
		m.index[e.Path] = i
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.cancelScan()
		return m, tea.Quit
	}

	switch m.state {
	case stateMenu:
		return m.handleMenuKey(key)
	case stateScanning:
		if key == "esc" || key == "q" {
			m.cancelScan()
			m.status = "Scan cancelled"
			m.finishScan()
		}
	case stateResults:
		return m.handleResultsKey(key)
	case stateConfirm:
		return m.handleConfirmKey(key)
	}
	return m, nil
}

func (m Model) handleMenuKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.menuChoice > 0 {
			m.menuChoice--
		}
	case "down", "j":
		if m.menuChoice < menuItems-1 {
			m.menuChoice++
		}
	case "enter":
		m.history = nil
		m.status = ""
		m.err = nil
		switch m.menuChoice {
		case 0:
			return m, m.startScan(types.RootScan())
		case 1:
			return m, m.startScan(types.DiskScanOf(m.home))
		default:
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m Model) handleResultsKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit

	case "up", "k":
		if m.choice > 0 {
			m.choice--
			if m.choice < m.offset {
				m.offset = m.choice
			}
		}

	case "down", "j":
		if m.choice < len(m.entries)-1 {
			m.choice++
			if m.choice >= m.offset+m.viewportHeight() {
				m.offset = m.choice - m.viewportHeight() + 1
			}
		}

	case "pgup":
		m.choice = max(0, m.choice-m.viewportHeight())
		m.offset = max(0, m.offset-m.viewportHeight())

	case "pgdown":
		if len(m.entries) > 0 {
			m.choice = min(len(m.entries)-1, m.choice+m.viewportHeight())
			m.offset = min(max(0, len(m.entries)-m.viewportHeight()), m.offset+m.viewportHeight())
		}

	case "enter":
		if m.choice < len(m.entries) && m.entries[m.choice].IsDir() {
			m.history = append(m.history, m.target)
			return m, m.startScan(types.ListDirScan(m.entries[m.choice].Path))
		}

	case "backspace":
		if n := len(m.history); n > 0 {
			prev := m.history[n-1]
			m.history = m.history[:n-1]
			return m, m.startScan(prev)
		}

	case "esc":
		m.state = stateMenu
		m.menuChoice = 0

	case " ":
		if m.choice < len(m.entries) {
			path := m.entries[m.choice].Path
			if m.marked[path] {
				delete(m.marked, path)
			} else {
				m.marked[path] = true
			}
		}

	case "A":
		for _, e := range m.entries {
			m.marked[e.Path] = true
		}

	case "N":
		m.marked = make(map[string]bool)

	case "s":
		var current string
		if m.choice < len(m.entries) {
			current = m.entries[m.choice].Path
		}
		m.sort = m.sort.Next()
		m.resort()
		if i, ok := m.index[current]; ok {
			m.choice = i
			m.offset = max(0, i-m.viewportHeight()+1)
		}

	case "r":
		return m, m.startScan(m.target)

	case "d", "D":
		m.selection = m.selected()
		if len(m.selection) == 0 {
			return m, nil
		}
		m.preview = nil
		m.state = stateConfirm
		return m, dryRun(m.executor, m.selection)
	}
	return m, nil
}

func (m Model) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "n":
		m.state = stateResults
	case "enter", "y":
		m.pending = m.selection
		m.cleaned = cleaner.Result{}
		m.state = stateCleaning
		return m, tea.Batch(
			m.spinner.Tick,
			m.progress.SetPercent(0),
			cleanItem(m.executor, m.pending[0], m.deleteMode()),
		)
	}
	return m, nil
}

func (m Model) handleCleanStep(msg cleanStepMsg) (tea.Model, tea.Cmd) {
	if m.state != stateCleaning || len(m.pending) == 0 {
		return m, nil
	}
	m.cleaned.Merge(msg.result)
	m.pending = m.pending[1:]

	total := len(m.selection)
	pct := m.progress.SetPercent(float64(total-len(m.pending)) / float64(total))
	if len(m.pending) > 0 {
		return m, tea.Batch(pct, cleanItem(m.executor, m.pending[0], m.deleteMode()))
	}

	s := m.cleaned.Summary
	m.status = fmt.Sprintf("✅ Cleaned %d items (%s)", s.Succeeded, utils.FormatFileSize(s.BytesFreed))
	m.err = nil
	if s.Failed > 0 {
		m.status = fmt.Sprintf("Cleaned %d of %d items (%s)", s.Succeeded, s.Items, utils.FormatFileSize(s.BytesFreed))
		for _, o := range m.cleaned.Outcomes {
			if !o.Success {
				m.err = fmt.Errorf("%s: %s", o.Path, o.Reason)
				break
			}
		}
	}
	return m, tea.Batch(pct, m.startScan(m.target))
}

// selected snapshots the marked entries, or the entry under the cursor when
// nothing is marked
func (m Model) selected() []types.SelectedEntry {
	var out []types.SelectedEntry
	for _, e := range m.entries {
		if m.marked[e.Path] {
			out = append(out, types.Select(e))
		}
	}
	if len(out) == 0 && m.choice < len(m.entries) {
		out = append(out, types.Select(m.entries[m.choice]))
	}
	return out
}
