// Package safety decides whether a path may be deleted. Every check works on
// the canonical location of the path, so a symlink cannot alias a protected
// target. The policy is default-deny: a path must sit strictly below an
// allowed root and must not be, or contain, a protected location.
package safety

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rahulvramesh/vac/internal/errors"
	"github.com/rahulvramesh/vac/internal/logging"
)

// systemDenyList holds critical locations that are never deleted, nor any of
// their ancestors. Apart from the entries in sharedRoots, nothing below them
// is deleted either unless it sits under home or a temp root.
var systemDenyList = []string{
	"/",
	"/System",
	"/Library",
	"/Applications",
	"/Users",
	"/bin",
	"/sbin",
	"/usr",
	"/var",
	"/etc",
	"/private",
	"/opt",
	"/lib",
	"/lib64",
	"/boot",
	"/dev",
	"/proc",
	"/sys",
	"/home",
}

// sharedRoots contain user homes, so only the entries themselves and their
// ancestors are protected
var sharedRoots = map[string]bool{
	"/":      true,
	"/Users": true,
	"/home":  true,
}

// DefaultTempRoots are the temp locations deletions may happen under
func DefaultTempRoots() []string {
	return []string{"/tmp", "/var/tmp", "/private/tmp", "/private/var/tmp", os.TempDir()}
}

// Rejection records why a path was refused
type Rejection struct {
	Path   string
	Code   errors.ErrorCode
	Reason string
	Err    error
}

// Validator enforces the deletion policy. It is immutable after New and safe
// for concurrent use.
type Validator struct {
	home    string
	deny    []string
	system  []string // protected subtrees, home and temp roots excepted
	custom  []string // protected subtrees without exceptions
	carve   []string
	allowed []string
	logger  zerolog.Logger
}

type options struct {
	tempRoots []string
	extra     []string
	deny      []string
}

// Option configures a Validator
type Option func(*options)

// WithAllowedRoots adds roots deletions may happen under, typically the
// explicitly supplied scan targets
func WithAllowedRoots(paths ...string) Option {
	return func(o *options) {
		o.extra = append(o.extra, paths...)
	}
}

// WithTempRoots replaces the default temp roots
func WithTempRoots(paths ...string) Option {
	return func(o *options) {
		o.tempRoots = append([]string{}, paths...)
	}
}

// WithDeny adds protected locations to the deny list
func WithDeny(paths ...string) Option {
	return func(o *options) {
		o.deny = append(o.deny, paths...)
	}
}

// New builds a validator for the given home directory
func New(home string, opts ...Option) *Validator {
	o := &options{tempRoots: DefaultTempRoots()}
	for _, opt := range opts {
		opt(o)
	}

	v := &Validator{logger: logging.GetLogger("safety")}
	if home != "" {
		v.home = absClean(home)
	}

	deny := append([]string{}, systemDenyList...)
	if v.home != "" {
		deny = append(deny, v.home, filepath.Join(v.home, "Library"))
	}
	deny = append(deny, o.deny...)
	v.deny = expand(deny)

	var system []string
	for _, p := range systemDenyList {
		if !sharedRoots[p] {
			system = append(system, p)
		}
	}
	v.system = expand(system)
	v.custom = expand(o.deny)

	var roots []string
	if v.home != "" {
		roots = append(roots, v.home)
	}
	roots = append(roots, o.tempRoots...)
	for _, root := range roots {
		if root == "" {
			continue
		}
		resolved, err := canonical(root)
		if err != nil {
			continue
		}
		v.allowed = appendUnique(v.allowed, resolved)
	}
	v.carve = append(expand(roots), expand([]string{os.TempDir()})...)

	for _, root := range o.extra {
		if root == "" {
			continue
		}
		resolved, err := canonical(root)
		if err != nil {
			continue
		}
		if protected, ok := v.covers(absClean(root), resolved); ok {
			v.logger.Warn().Str("root", root).Str("protected", protected).
				Msg("Ignoring allowed root inside a protected location")
			continue
		}
		v.allowed = appendUnique(v.allowed, resolved)
	}

	v.logger.Debug().
		Strs("allowed", v.allowed).
		Int("denied", len(v.deny)).
		Msg("Safety policy loaded")
	return v
}

// AllowedRoots returns the canonical allowed roots
func (v *Validator) AllowedRoots() []string {
	return append([]string(nil), v.allowed...)
}

// DenyList returns the protected locations in raw and canonical form
func (v *Validator) DenyList() []string {
	return append([]string(nil), v.deny...)
}

// Resolve returns the canonical real location of path
func (v *Validator) Resolve(path string) (string, error) {
	return canonical(path)
}

// IsSafeToDelete reports whether path may be removed as a whole
func (v *Validator) IsSafeToDelete(path string) bool {
	return v.Check(path) == nil
}

// Check validates a path that is about to be removed or relocated. The
// canonical path must be a strict descendant of an allowed root.
func (v *Validator) Check(path string) error {
	return v.check(path, true)
}

// CheckContainer validates a directory whose children are about to be
// removed while the directory itself is kept. The directory may be an
// allowed root itself; each child still needs Check.
func (v *Validator) CheckContainer(path string) error {
	return v.check(path, false)
}

// Filter splits paths into allowed and rejected, keeping input order
func (v *Validator) Filter(paths []string) ([]string, []Rejection) {
	var allowed []string
	var rejected []Rejection
	for _, path := range paths {
		if err := v.Check(path); err != nil {
			rejected = append(rejected, Rejection{
				Path:   path,
				Code:   errors.GetErrorCode(err),
				Reason: errors.Reason(err),
				Err:    err,
			})
			continue
		}
		allowed = append(allowed, path)
	}
	return allowed, rejected
}

func (v *Validator) check(path string, strict bool) error {
	if strings.TrimSpace(path) == "" {
		return errors.New(errors.ErrInvalidInput, "empty path")
	}

	resolved, err := canonical(path)
	if err != nil {
		return err
	}

	for _, candidate := range []string{absClean(path), resolved} {
		for _, protected := range v.deny {
			if candidate == protected || isAncestor(candidate, protected) {
				return v.reject(path, resolved, protected)
			}
		}
	}

	inScope := false
	for _, root := range v.allowed {
		if isAncestor(root, resolved) || (!strict && root == resolved) {
			inScope = true
			break
		}
	}
	if !inScope {
		v.logger.Warn().Str("path", path).Str("resolved", resolved).Msg("Rejected path outside allowed roots")
		return errors.Newf(errors.ErrPolicyViolation, "unsafe path: %s is outside the allowed scope", path).
			WithDetail("path", path).
			WithDetail("resolved", resolved)
	}

	if protected, ok := v.protects(absClean(path), resolved); ok {
		return v.reject(path, resolved, protected)
	}
	return nil
}

// protects reports the protected location that any of paths lies inside.
// System locations do not cover paths under home or a temp root.
func (v *Validator) protects(paths ...string) (string, bool) {
	for _, p := range paths {
		for _, protected := range v.custom {
			if p == protected || isAncestor(protected, p) {
				return protected, true
			}
		}
		if v.carved(p) {
			continue
		}
		for _, protected := range v.system {
			if p == protected || isAncestor(protected, p) {
				return protected, true
			}
		}
	}
	return "", false
}

// covers extends protects to locations that contain a deny-list entry
func (v *Validator) covers(paths ...string) (string, bool) {
	for _, p := range paths {
		for _, protected := range v.deny {
			if p == protected || isAncestor(p, protected) {
				return protected, true
			}
		}
	}
	return v.protects(paths...)
}

func (v *Validator) carved(path string) bool {
	for _, root := range v.carve {
		if root == path || isAncestor(root, path) {
			return true
		}
	}
	return false
}

func (v *Validator) reject(path, resolved, protected string) error {
	v.logger.Warn().Str("path", path).Str("resolved", resolved).Str("protected", protected).
		Msg("Rejected protected location")
	return errors.Newf(errors.ErrPolicyViolation, "unsafe path: %s is a protected location", path).
		WithDetail("path", path).
		WithDetail("resolved", resolved).
		WithDetail("protected", protected)
}

func canonical(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", errors.FromIO(err, path)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", errors.FromIO(err, path)
	}
	return filepath.Clean(resolved), nil
}

func absClean(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return abs
}

// expand returns every path in raw and canonical form
func expand(paths []string) []string {
	var out []string
	for _, p := range paths {
		out = appendUnique(out, absClean(p))
		if resolved, err := canonical(p); err == nil {
			out = appendUnique(out, resolved)
		}
	}
	return out
}

// isAncestor reports whether parent strictly contains child
func isAncestor(parent, child string) bool {
	if parent == child {
		return false
	}
	rel, err := filepath.Rel(parent, child)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func appendUnique(list []string, s string) []string {
	for _, existing := range list {
		if existing == s {
			return list
		}
	}
	return append(list, s)
}
