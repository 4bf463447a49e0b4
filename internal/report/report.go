// Package report turns a finished scan, dry run or clean into a serializable
// document for non-interactive use.
package report

import (
	"github.com/rahulvramesh/vac/internal/cleaner"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

type Report struct {
	ScanTarget       string      `json:"scan_target" yaml:"scan_target" toml:"scan_target"`
	SortOrder        string      `json:"sort_order" yaml:"sort_order" toml:"sort_order"`
	TotalItems       int         `json:"total_items" yaml:"total_items" toml:"total_items"`
	TotalSize        int64       `json:"total_size" yaml:"total_size" toml:"total_size"`
	TotalSizeDisplay string      `json:"total_size_display" yaml:"total_size_display" toml:"total_size_display"`
	Entries          []Entry     `json:"entries" yaml:"entries" toml:"entries"`
	Errors           []ScanError `json:"errors,omitempty" yaml:"errors,omitempty" toml:"errors,omitempty"`
	DryRun           *DryRun     `json:"dry_run,omitempty" yaml:"dry_run,omitempty" toml:"dry_run,omitempty"`
	Clean            *Clean      `json:"clean_result,omitempty" yaml:"clean_result,omitempty" toml:"clean_result,omitempty"`
}

type Entry struct {
	Path        string `json:"path" yaml:"path" toml:"path"`
	Name        string `json:"name" yaml:"name" toml:"name"`
	Kind        string `json:"kind" yaml:"kind" toml:"kind"`
	Category    string `json:"category,omitempty" yaml:"category,omitempty" toml:"category,omitempty"`
	Size        *int64 `json:"size,omitempty" yaml:"size,omitempty" toml:"size,omitempty"`
	SizeDisplay string `json:"size_display" yaml:"size_display" toml:"size_display"`
	ModifiedAt  string `json:"modified_at,omitempty" yaml:"modified_at,omitempty" toml:"modified_at,omitempty"`
}

type ScanError struct {
	Path   string `json:"path" yaml:"path" toml:"path"`
	Code   string `json:"code" yaml:"code" toml:"code"`
	Reason string `json:"reason" yaml:"reason" toml:"reason"`
}

type DryRun struct {
	TotalFiles       int          `json:"total_files" yaml:"total_files" toml:"total_files"`
	TotalDirs        int          `json:"total_dirs" yaml:"total_dirs" toml:"total_dirs"`
	TotalSize        int64        `json:"total_size" yaml:"total_size" toml:"total_size"`
	TotalSizeDisplay string       `json:"total_size_display" yaml:"total_size_display" toml:"total_size_display"`
	Items            []DryRunItem `json:"items" yaml:"items" toml:"items"`
}

type DryRunItem struct {
	Path        string `json:"path" yaml:"path" toml:"path"`
	FileCount   int    `json:"file_count" yaml:"file_count" toml:"file_count"`
	DirCount    int    `json:"dir_count" yaml:"dir_count" toml:"dir_count"`
	Size        int64  `json:"size" yaml:"size" toml:"size"`
	SizeDisplay string `json:"size_display" yaml:"size_display" toml:"size_display"`
	Reason      string `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`
}

type Clean struct {
	Mode              string    `json:"mode" yaml:"mode" toml:"mode"`
	Success           bool      `json:"success" yaml:"success" toml:"success"`
	ItemCount         int       `json:"item_count" yaml:"item_count" toml:"item_count"`
	Succeeded         int       `json:"succeeded" yaml:"succeeded" toml:"succeeded"`
	Failed            int       `json:"failed" yaml:"failed" toml:"failed"`
	FreedSpace        int64     `json:"freed_space" yaml:"freed_space" toml:"freed_space"`
	FreedSpaceDisplay string    `json:"freed_space_display" yaml:"freed_space_display" toml:"freed_space_display"`
	Outcomes          []Outcome `json:"outcomes" yaml:"outcomes" toml:"outcomes"`
}

type Outcome struct {
	Path       string `json:"path" yaml:"path" toml:"path"`
	Success    bool   `json:"success" yaml:"success" toml:"success"`
	Code       string `json:"code,omitempty" yaml:"code,omitempty" toml:"code,omitempty"`
	Reason     string `json:"reason,omitempty" yaml:"reason,omitempty" toml:"reason,omitempty"`
	BytesFreed int64  `json:"bytes_freed" yaml:"bytes_freed" toml:"bytes_freed"`
}

// Input collects everything a non-interactive run produced
type Input struct {
	Target  string
	Sort    utils.SortOrder
	Entries []types.CleanableEntry
	Errors  []types.ScanError
	DryRun  *types.DryRunResult
	Clean   *cleaner.Result
}

// Build assembles the report. Entries keep the order they were given in.
func Build(in Input) *Report {
	r := &Report{
		ScanTarget: in.Target,
		SortOrder:  string(in.Sort),
		TotalItems: len(in.Entries),
		Entries:    make([]Entry, 0, len(in.Entries)),
	}

	for _, e := range in.Entries {
		entry := Entry{
			Path:        e.Path,
			Name:        e.Name,
			Kind:        e.Kind.String(),
			Category:    string(e.Category),
			Size:        e.Size,
			SizeDisplay: utils.FormatOptionalSize(e.Size),
		}
		if e.ModifiedAt != nil {
			entry.ModifiedAt = utils.FormatTime(*e.ModifiedAt, true)
		}
		r.TotalSize += e.SizeOrZero()
		r.Entries = append(r.Entries, entry)
	}
	r.TotalSizeDisplay = utils.FormatFileSize(r.TotalSize)

	for _, e := range in.Errors {
		r.Errors = append(r.Errors, ScanError{Path: e.Path, Code: string(e.Code), Reason: e.Reason})
	}

	if in.DryRun != nil {
		d := &DryRun{
			TotalFiles:       in.DryRun.TotalFiles,
			TotalDirs:        in.DryRun.TotalDirs,
			TotalSize:        in.DryRun.TotalBytes,
			TotalSizeDisplay: utils.FormatFileSize(in.DryRun.TotalBytes),
			Items:            make([]DryRunItem, 0, len(in.DryRun.Items)),
		}
		for _, item := range in.DryRun.Items {
			d.Items = append(d.Items, DryRunItem{
				Path:        item.Path,
				FileCount:   item.Files,
				DirCount:    item.Dirs,
				Size:        item.Bytes,
				SizeDisplay: utils.FormatFileSize(item.Bytes),
				Reason:      item.Reason,
			})
		}
		r.DryRun = d
	}

	if in.Clean != nil {
		s := in.Clean.Summary
		c := &Clean{
			Mode:              s.Mode.String(),
			Success:           s.Failed == 0,
			ItemCount:         s.Items,
			Succeeded:         s.Succeeded,
			Failed:            s.Failed,
			FreedSpace:        s.BytesFreed,
			FreedSpaceDisplay: utils.FormatFileSize(s.BytesFreed),
			Outcomes:          make([]Outcome, 0, len(in.Clean.Outcomes)),
		}
		for _, o := range in.Clean.Outcomes {
			c.Outcomes = append(c.Outcomes, Outcome{
				Path:       o.Path,
				Success:    o.Success,
				Code:       string(o.Code),
				Reason:     o.Reason,
				BytesFreed: o.BytesFreed,
			})
		}
		r.Clean = c
	}

	return r
}
