package ui

import (
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rahulvramesh/vac/internal/cleaner"
	"github.com/rahulvramesh/vac/internal/scanner"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

const (
	stateMenu     = "menu"
	stateScanning = "scanning"
	stateResults  = "results"
	stateConfirm  = "confirm"
	stateCleaning = "cleaning"
)

// Options wires the model to the core
type Options struct {
	Engine   *scanner.Engine
	Executor *cleaner.Executor
	Home     string
	UseTrash bool
	Sort     utils.SortOrder
}

// Model represents the application state
type Model struct {
	engine   *scanner.Engine
	executor *cleaner.Executor
	home     string
	useTrash bool

	state      string
	menuChoice int
	spinner    spinner.Model
	progress   progress.Model
	width      int
	height     int
	err        error
	status     string

	// Scan session
	session    scanner.Session
	stream     <-chan types.ScanMessage
	target     types.ScanTarget
	history    []types.ScanTarget // targets to go back to
	scanCount  int
	scanPath   string
	scanErrors []types.ScanError
	summary    *types.ScanSummary

	// Entries of the current listing
	entries []types.CleanableEntry
	index   map[string]int
	sort    utils.SortOrder
	choice  int
	offset  int // scroll offset
	marked  map[string]bool

	// Confirmation and cleaning
	selection []types.SelectedEntry
	preview   *types.DryRunResult
	table     table.Model
	pending   []types.SelectedEntry
	cleaned   cleaner.Result
}

// New creates the model in the menu state
func New(opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	sort := opts.Sort
	if sort == "" {
		sort = utils.SortBySize
	}

	return Model{
		engine:   opts.Engine,
		executor: opts.Executor,
		home:     opts.Home,
		useTrash: opts.UseTrash,
		state:    stateMenu,
		spinner:  s,
		progress: progress.New(progress.WithDefaultGradient()),
		sort:     sort,
		index:    make(map[string]int),
		marked:   make(map[string]bool),
	}
}

// Init starts the spinner
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) deleteMode() types.DeleteMode {
	if m.useTrash {
		return types.Trash
	}
	return types.Permanent
}

// viewportHeight is the number of entry rows that fit on screen
func (m Model) viewportHeight() int {
	h := m.height - 15
	if h < 5 {
		h = 5
	}
	return h
}
