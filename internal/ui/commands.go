package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rahulvramesh/vac/internal/cleaner"
	"github.com/rahulvramesh/vac/internal/types"
)

// scanClosedMsg reports that a scan stream has no more messages
type scanClosedMsg struct {
	stream <-chan types.ScanMessage
}

type previewMsg struct {
	result types.DryRunResult
}

type cleanStepMsg struct {
	result cleaner.Result
}

// waitForScan delivers the next message of stream to Update
func waitForScan(stream <-chan types.ScanMessage) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-stream
		if !ok {
			return scanClosedMsg{stream: stream}
		}
		return msg
	}
}

func dryRun(exec *cleaner.Executor, selection []types.SelectedEntry) tea.Cmd {
	return func() tea.Msg {
		return previewMsg{result: exec.DryRun(selection)}
	}
}

// cleanItem runs one selected item so the progress bar can advance per item
func cleanItem(exec *cleaner.Executor, item types.SelectedEntry, mode types.DeleteMode) tea.Cmd {
	return func() tea.Msg {
		return cleanStepMsg{result: exec.Execute([]types.SelectedEntry{item}, mode)}
	}
}

// startScan supersedes any running scan and starts target
func (m *Model) startScan(target types.ScanTarget) tea.Cmd {
	m.session, m.stream = m.engine.Scan(context.Background(), target)
	m.target = target
	m.state = stateScanning
	m.scanCount = 0
	m.scanPath = ""
	m.scanErrors = nil
	m.summary = nil
	m.entries = nil
	m.index = make(map[string]int)
	m.marked = make(map[string]bool)
	m.choice = 0
	m.offset = 0
	return tea.Batch(m.spinner.Tick, waitForScan(m.stream))
}

// cancelScan supersedes the running scan; its remaining messages are dropped
func (m *Model) cancelScan() {
	if m.stream != nil {
		m.engine.Cancel(m.session)
	}
}
