// Package classifier resolves abstract scan targets into concrete root paths
// with their cleanup category.
package classifier

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
	"github.com/rahulvramesh/vac/internal/types"
	"github.com/rahulvramesh/vac/internal/utils"
)

// RootTarget is a concrete, existing location to scan
type RootTarget struct {
	Path     string
	Category types.Category
	Label    string
}

// Classifier maps categories to locations under a home directory
type Classifier struct {
	home     string
	extra    []string
	tempDirs []string
	lookup   func(string) string
	logger   zerolog.Logger
}

// Option configures a Classifier
type Option func(*Classifier)

// WithExtraTargets adds externally supplied targets (~ is expanded)
func WithExtraTargets(paths ...string) Option {
	return func(c *Classifier) {
		c.extra = append(c.extra, paths...)
	}
}

// WithEnv replaces the environment lookup used for CARGO_HOME, GOCACHE and
// the XDG directories
func WithEnv(lookup func(string) string) Option {
	return func(c *Classifier) {
		c.lookup = lookup
	}
}

// WithTempDirs overrides the temp locations of the temp category
func WithTempDirs(dirs ...string) Option {
	return func(c *Classifier) {
		c.tempDirs = append([]string{}, dirs...)
	}
}

// New creates a classifier rooted at the user's home directory
func New(home string, opts ...Option) *Classifier {
	c := &Classifier{
		home:   filepath.Clean(home),
		lookup: os.Getenv,
		logger: logging.GetLogger("classifier"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Home returns the home directory the classifier resolves against
func (c *Classifier) Home() string { return c.home }

// ExtraTargets returns the expanded extra targets, existing or not
func (c *Classifier) ExtraTargets() []string {
	out := make([]string, 0, len(c.extra))
	for _, raw := range c.extra {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		out = append(out, filepath.Clean(utils.ExpandTilde(raw, c.home)))
	}
	return out
}

// Roots returns the existing roots for the requested categories in policy
// order, followed by the extra targets. No categories means all of them.
// Extra targets that cannot be used are skipped and returned as
// configuration warnings.
func (c *Classifier) Roots(categories ...types.Category) ([]RootTarget, []error) {
	want := make(map[types.Category]bool, len(categories))
	for _, cat := range categories {
		want[cat] = true
	}
	all := len(want) == 0

	var roots []RootTarget
	seen := make(map[string]bool)

	for _, info := range policy {
		if info.Category == types.CategoryCustom || (!all && !want[info.Category]) {
			continue
		}
		for _, path := range c.paths(info.Category) {
			if seen[path] || !isDir(path) {
				continue
			}
			seen[path] = true
			roots = append(roots, RootTarget{Path: path, Category: info.Category, Label: info.Label})
		}
	}

	var warnings []error
	if all || want[types.CategoryCustom] {
		for _, path := range c.ExtraTargets() {
			if seen[path] {
				continue
			}
			if err := readable(path); err != nil {
				warning := errors.Wrapf(err, errors.ErrConfig, "extra target skipped: %s", path).
					WithDetail("path", path)
				c.logger.Warn().Err(err).Str("path", path).Msg("Skipping extra scan target")
				warnings = append(warnings, warning)
				continue
			}
			seen[path] = true
			roots = append(roots, RootTarget{Path: path, Category: types.CategoryCustom, Label: filepath.Base(path)})
		}
	}

	return roots, warnings
}

// Category returns the category whose root is the longest prefix of path
func (c *Classifier) Category(path string) types.Category {
	path = filepath.Clean(path)
	best, bestLen := types.CategoryNone, -1

	consider := func(root string, cat types.Category) {
		if len(root) > bestLen && within(root, path) {
			best, bestLen = cat, len(root)
		}
	}
	for _, info := range policy {
		for _, root := range c.paths(info.Category) {
			consider(root, info.Category)
		}
	}
	for _, root := range c.ExtraTargets() {
		consider(root, types.CategoryCustom)
	}
	return best
}

func (c *Classifier) paths(cat types.Category) []string {
	if cat == types.CategoryTemp && c.tempDirs != nil {
		return c.tempDirs
	}
	return c.candidates(cat)
}

func within(root, path string) bool {
	if root == path {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func readable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	return f.Close()
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
