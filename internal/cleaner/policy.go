package cleaner

import (
	"github.com/rahulvramesh/vac/internal/classifier"
	"github.com/rahulvramesh/vac/internal/types"
)

// Policy decides whether a selected directory is removed as a whole or only
// cleared of its contents. It is immutable once built.
type Policy struct {
	whole map[types.Category]bool
}

// DefaultPolicy takes the whole-removal flags from the category table
func DefaultPolicy() Policy {
	p := Policy{whole: make(map[types.Category]bool)}
	for _, info := range classifier.Categories() {
		if info.WholeRemoval {
			p.whole[info.Category] = true
		}
	}
	return p
}

// WithOverrides returns a copy of p where the given categories are forced to
// whole removal or content-only clearing. Content-only wins when a category
// appears in both lists.
func (p Policy) WithOverrides(whole, contentOnly []types.Category) Policy {
	out := Policy{whole: make(map[types.Category]bool, len(p.whole)+len(whole))}
	for c, v := range p.whole {
		out.whole[c] = v
	}
	for _, c := range whole {
		out.whole[c] = true
	}
	for _, c := range contentOnly {
		delete(out.whole, c)
	}
	return out
}

// WholeRemoval reports whether directories of category c are removed
// including the directory itself
func (p Policy) WholeRemoval(c types.Category) bool {
	return p.whole[c]
}
