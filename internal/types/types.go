package types

import (
	"time"

	"github.com/rahulvramesh/vac/internal/errors"
)

// EntryKind distinguishes files from directories
type EntryKind int

const (
	File EntryKind = iota
	Directory
)

func (k EntryKind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Category labels a well-known cleanup location
type Category string

const (
	CategoryNone             Category = ""
	CategorySystemCache      Category = "system_cache"
	CategoryLogs             Category = "logs"
	CategoryTemp             Category = "temp"
	CategoryDownloads        Category = "downloads"
	CategoryTrash            Category = "trash"
	CategoryXcodeDerivedData Category = "xcode_derived_data"
	CategoryHomebrewCache    Category = "homebrew_cache"
	CategoryCocoaPods        Category = "cocoapods"
	CategoryNpmCache         Category = "npm_cache"
	CategoryYarnCache        Category = "yarn_cache"
	CategoryPipCache         Category = "pip_cache"
	CategoryGoBuildCache     Category = "go_build_cache"
	CategoryGradleCache      Category = "gradle_cache"
	CategoryDockerData       Category = "docker_data"
	CategoryCargoCache       Category = "cargo_cache"
	CategoryCustom           Category = "custom"
)

// CleanableEntry represents a single file or directory found by a scan.
// Size and ModifiedAt are nil until known.
type CleanableEntry struct {
	Path       string
	Name       string
	Kind       EntryKind
	Size       *int64
	ModifiedAt *time.Time
	Category   Category
}

// IsDir reports whether the entry is a directory
func (e CleanableEntry) IsDir() bool { return e.Kind == Directory }

// SizeOrZero returns the known size, or 0
func (e CleanableEntry) SizeOrZero() int64 {
	if e.Size == nil {
		return 0
	}
	return *e.Size
}

// SetSize backfills the entry size
func (e *CleanableEntry) SetSize(bytes int64) {
	e.Size = &bytes
}

// SelectedEntry is an immutable snapshot of an entry taken when the user
// selected it. Later rescans never change it.
type SelectedEntry struct {
	Path     string
	Kind     EntryKind
	Size     int64
	Category Category
}

// Select snapshots an entry for deletion
func Select(e CleanableEntry) SelectedEntry {
	return SelectedEntry{
		Path:     e.Path,
		Kind:     e.Kind,
		Size:     e.SizeOrZero(),
		Category: e.Category,
	}
}

// TargetKind selects the traversal mode of a scan
type TargetKind int

const (
	TargetRoot TargetKind = iota
	TargetListDir
	TargetDiskScan
)

func (k TargetKind) String() string {
	switch k {
	case TargetListDir:
		return "list"
	case TargetDiskScan:
		return "disk"
	default:
		return "root"
	}
}

// ScanTarget describes what a scan should traverse
type ScanTarget struct {
	Kind       TargetKind
	Path       string
	Categories []Category
}

// RootScan targets the well-known cleanup locations. No categories means all.
func RootScan(categories ...Category) ScanTarget {
	return ScanTarget{Kind: TargetRoot, Categories: categories}
}

// ListDirScan lists the immediate children of path
func ListDirScan(path string) ScanTarget {
	return ScanTarget{Kind: TargetListDir, Path: path}
}

// DiskScanOf scans the top level of an arbitrary path
func DiskScanOf(path string) ScanTarget {
	return ScanTarget{Kind: TargetDiskScan, Path: path}
}

// ScanSummary is carried by the Done message
type ScanSummary struct {
	Entries     int
	Files       int
	Directories int
	TotalBytes  int64
	Errors      int
	Elapsed     time.Duration
}

// ScanMessage is one element of a scan stream. The set of implementations is
// closed: Progress, RootItem, DirEntry, DirEntrySize, Done and ScanError.
type ScanMessage interface {
	Generation() uint64
	scanMessage()
}

// Header carries the session generation of a message
type Header struct {
	Gen uint64
}

func (h Header) Generation() uint64 { return h.Gen }
func (Header) scanMessage()         {}

type Progress struct {
	Header
	Path  string
	Count int
}

type RootItem struct {
	Header
	Entry CleanableEntry
}

type DirEntry struct {
	Header
	Entry CleanableEntry
}

// DirEntrySize backfills the size of the entry with the exact same path
type DirEntrySize struct {
	Header
	Path  string
	Bytes int64
}

type Done struct {
	Header
	Summary ScanSummary
}

type ScanError struct {
	Header
	Path   string
	Reason string
	Code   errors.ErrorCode
}

// DeleteMode selects how the executor acts on a selection
type DeleteMode int

const (
	Permanent DeleteMode = iota
	Trash
	DryRun
)

func (m DeleteMode) String() string {
	switch m {
	case Trash:
		return "trash"
	case DryRun:
		return "dry-run"
	default:
		return "permanent"
	}
}

// DeletionOutcome is the result for one selected item
type DeletionOutcome struct {
	Path       string
	Success    bool
	Code       errors.ErrorCode
	Reason     string
	BytesFreed int64
	Files      int
	Dirs       int
}

// CleanSummary aggregates a list of outcomes
type CleanSummary struct {
	Mode       DeleteMode
	Items      int
	Succeeded  int
	Failed     int
	BytesFreed int64
	Files      int
	Dirs       int
}

// DryRunItem is the would-be effect on a single selected item
type DryRunItem struct {
	Path   string
	Files  int
	Dirs   int
	Bytes  int64
	Reason string
}

// DryRunResult totals what a deletion would remove
type DryRunResult struct {
	TotalFiles int
	TotalDirs  int
	TotalBytes int64
	Items      []DryRunItem
}
