package utils

import (
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/rahulvramesh/vac/internal/types"
)

// SortOrder selects how entry lists are ordered for display
type SortOrder string

const (
	SortByName SortOrder = "name"
	SortBySize SortOrder = "size"
	SortByTime SortOrder = "time"
)

// ParseSortOrder maps a config or flag value to a SortOrder, defaulting to size
func ParseSortOrder(s string) SortOrder {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case SortByName:
		return SortByName
	case SortByTime:
		return SortByTime
	default:
		return SortBySize
	}
}

// Next cycles name -> size -> time -> name
func (o SortOrder) Next() SortOrder {
	switch o {
	case SortByName:
		return SortBySize
	case SortBySize:
		return SortByTime
	default:
		return SortByName
	}
}

// SortEntries orders entries in place. Name order puts directories first;
// size and time orders are descending with unknown values last.
func SortEntries(entries []types.CleanableEntry, order SortOrder) {
	switch order {
	case SortByName:
		sort.SliceStable(entries, func(i, j int) bool {
			if entries[i].Kind != entries[j].Kind {
				return entries[i].Kind == types.Directory
			}
			return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
		})
	case SortByTime:
		sort.SliceStable(entries, func(i, j int) bool {
			a, b := entries[i].ModifiedAt, entries[j].ModifiedAt
			if a == nil || b == nil {
				return a != nil && b == nil
			}
			return a.After(*b)
		})
	default:
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].SizeOrZero() > entries[j].SizeOrZero()
		})
	}
}

// TruncatePath truncates a path if it's too long, keeping the tail
func TruncatePath(path string, maxLen int) string {
	if len(path) <= maxLen || maxLen < 4 {
		return path
	}
	return "..." + path[len(path)-(maxLen-3):]
}

// FormatFileSize formats file size using humanize
func FormatFileSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.Bytes(uint64(size))
}

// FormatOptionalSize renders an unknown size as "…"
func FormatOptionalSize(size *int64) string {
	if size == nil {
		return "…"
	}
	return FormatFileSize(*size)
}

// FormatTime renders a timestamp as "2006-01-02 15:04:05" in local time
func FormatTime(t time.Time, withClock bool) string {
	if withClock {
		return t.Local().Format("2006-01-02 15:04:05")
	}
	return t.Local().Format("2006-01-02")
}

// ExpandTilde replaces a leading ~ with home
func ExpandTilde(raw, home string) string {
	if home == "" || !strings.HasPrefix(raw, "~") {
		return raw
	}
	if raw == "~" {
		return home
	}
	if strings.HasPrefix(raw, "~/") {
		return filepath.Join(home, raw[2:])
	}
	return raw
}
