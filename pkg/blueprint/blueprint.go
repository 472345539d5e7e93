package blueprint

import (
	"fmt"
	"path"
	"slices"
	"strings"
)

// Blueprint is an ordered sequence of top-level entries.
// Order is significant: it drives creation order and round-trip output.
type Blueprint struct {
	Entries []*Entry
}

// New creates a blueprint from top-level entries, normalizing their depths to 0.
func New(entries ...*Entry) *Blueprint {
	bp := &Blueprint{}
	for _, e := range entries {
		bp.Add(e)
	}
	return bp
}

// Add appends a top-level entry.
func (bp *Blueprint) Add(e *Entry) {
	if bp == nil || e == nil {
		return
	}
	e.setDepth(0)
	bp.Entries = append(bp.Entries, e)
}

// Len returns the number of top-level entries.
func (bp *Blueprint) Len() int {
	if bp == nil {
		return 0
	}
	return len(bp.Entries)
}

// WalkFunc is called for each entry during Walk. rel is the slash-separated
// path of the entry relative to the blueprint root.
// Returning false skips the entry's children.
type WalkFunc func(rel string, e *Entry) bool

// Walk visits every entry depth-first in pre-order, preserving sibling order.
func (bp *Blueprint) Walk(fn WalkFunc) {
	if bp == nil {
		return
	}
	type frame struct {
		prefix string
		entry  *Entry
	}

	stack := make([]frame, 0, len(bp.Entries))
	for i := len(bp.Entries) - 1; i >= 0; i-- {
		stack = append(stack, frame{entry: bp.Entries[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		rel := path.Join(f.prefix, f.entry.Name)
		if !fn(rel, f.entry) {
			continue
		}
		for i := len(f.entry.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{prefix: rel, entry: f.entry.Children[i]})
		}
	}
}

// Paths returns the relative path of every entry in pre-order.
// Directories carry a trailing slash.
func (bp *Blueprint) Paths() []string {
	var paths []string
	bp.Walk(func(rel string, e *Entry) bool {
		if e.IsDir() {
			rel += "/"
		}
		paths = append(paths, rel)
		return true
	})
	return paths
}

// Counts returns the number of directories and files in the blueprint.
func (bp *Blueprint) Counts() (dirs, files int) {
	bp.Walk(func(_ string, e *Entry) bool {
		if e.IsDir() {
			dirs++
		} else {
			files++
		}
		return true
	})
	return dirs, files
}

// Clone returns a deep copy.
func (bp *Blueprint) Clone() *Blueprint {
	if bp == nil {
		return nil
	}
	c := &Blueprint{Entries: make([]*Entry, len(bp.Entries))}
	for i, e := range bp.Entries {
		c.Entries[i] = e.clone()
	}
	return c
}

// Sorted returns a deep copy with siblings ordered by name at every level,
// which is the order the reverse exporter produces.
func (bp *Blueprint) Sorted() *Blueprint {
	c := bp.Clone()
	if c == nil {
		return nil
	}
	sortEntries(c.Entries)
	c.Walk(func(_ string, e *Entry) bool {
		sortEntries(e.Children)
		return true
	})
	return c
}

func sortEntries(entries []*Entry) {
	slices.SortStableFunc(entries, func(a, b *Entry) int {
		return strings.Compare(a.Name, b.Name)
	})
}

// Equal reports whether two blueprints have the same names, kinds and nesting.
// Source lines are ignored.
func (bp *Blueprint) Equal(other *Blueprint) bool {
	if bp.Len() != other.Len() {
		return false
	}
	if bp.Len() == 0 {
		return true
	}
	return entriesEqual(bp.Entries, other.Entries)
}

func entriesEqual(a, b []*Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.Name != y.Name || x.Kind != y.Kind || x.Depth != y.Depth {
			return false
		}
		if !entriesEqual(x.Children, y.Children) {
			return false
		}
	}
	return true
}

// Validate checks the model invariants: valid names, child depth equal to
// parent depth plus one, and no children under files.
func (bp *Blueprint) Validate() error {
	if bp == nil {
		return nil
	}
	for _, e := range bp.Entries {
		if e.Depth != 0 {
			return fmt.Errorf("top-level entry %q has depth %d", e.Name, e.Depth)
		}
	}

	var err error
	bp.Walk(func(rel string, e *Entry) bool {
		if err != nil {
			return false
		}
		if nameErr := ValidateName(e.Name); nameErr != nil {
			err = fmt.Errorf("%s: %w", rel, nameErr)
			return false
		}
		if e.Kind == File && len(e.Children) > 0 {
			err = fmt.Errorf("%s: file has children", rel)
			return false
		}
		for _, c := range e.Children {
			if c.Depth != e.Depth+1 {
				err = fmt.Errorf("%s: child %q has depth %d, want %d", rel, c.Name, c.Depth, e.Depth+1)
				return false
			}
		}
		return true
	})
	return err
}
