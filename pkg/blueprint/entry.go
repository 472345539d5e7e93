// Package blueprint models, parses and serializes scaffold blueprints.
//
// A blueprint is an ordered tree of entries (directories and files). It is
// read from an indentation-based text format, or from JSON/YAML documents,
// and rendered back to any of those formats.
//
// # Text format
//
//	src/
//	  main.py
//	  utils/
//	    helpers.py
//	README.md
//
// Leading whitespace determines depth. A trailing separator marks a
// directory; anything else is a file.
package blueprint

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the type of a blueprint entry.
type Kind int

const (
	// File is a regular (empty) file.
	File Kind = iota
	// Directory is a directory that may hold children.
	Directory
)

// String returns the name used in documents and diagnostics.
func (k Kind) String() string {
	if k == Directory {
		return "directory"
	}
	return "file"
}

// Entry is one node of a blueprint tree.
type Entry struct {
	Name     string
	Kind     Kind
	Depth    int
	Line     int // 1-based source line for text blueprints, 0 otherwise
	Children []*Entry
}

// NewDir creates a directory entry at depth 0.
func NewDir(name string, children ...*Entry) *Entry {
	e := &Entry{Name: name, Kind: Directory}
	for _, c := range children {
		e.Add(c)
	}
	return e
}

// NewFile creates a file entry at depth 0.
func NewFile(name string) *Entry {
	return &Entry{Name: name, Kind: File}
}

// IsDir reports whether the entry is a directory.
func (e *Entry) IsDir() bool {
	return e != nil && e.Kind == Directory
}

// Add appends child to e and re-bases the depth of the child's subtree.
// Adding to a file is a no-op.
func (e *Entry) Add(child *Entry) {
	if e == nil || child == nil || e.Kind != Directory {
		return
	}
	child.setDepth(e.Depth + 1)
	e.Children = append(e.Children, child)
}

func (e *Entry) setDepth(depth int) {
	stack := []*Entry{e}
	depths := []int{depth}
	for len(stack) > 0 {
		n := len(stack) - 1
		cur, d := stack[n], depths[n]
		stack, depths = stack[:n], depths[:n]
		cur.Depth = d
		for _, c := range cur.Children {
			stack = append(stack, c)
			depths = append(depths, d+1)
		}
	}
}

// String renders the entry in the compact form used by tests and logs,
// e.g. Dir(src,0) or File(main.py,1).
func (e *Entry) String() string {
	if e == nil {
		return "<nil>"
	}
	if e.Kind == Directory {
		return fmt.Sprintf("Dir(%s,%d)", e.Name, e.Depth)
	}
	return fmt.Sprintf("File(%s,%d)", e.Name, e.Depth)
}

// clone returns a deep copy of e.
func (e *Entry) clone() *Entry {
	c := &Entry{Name: e.Name, Kind: e.Kind, Depth: e.Depth, Line: e.Line}
	if len(e.Children) > 0 {
		c.Children = make([]*Entry, len(e.Children))
		for i, child := range e.Children {
			c.Children[i] = child.clone()
		}
	}
	return c
}

// ValidateName checks that name is a single path segment: not empty,
// not "." or "..", no separators and not absolute.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidName)
	}
	if name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("%w: %q contains a path separator", ErrInvalidName, name)
	}
	if filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return fmt.Errorf("%w: %q is absolute", ErrInvalidName, name)
	}
	return nil
}

// ValidateRenderable checks that name survives a render and parse round
// trip: on top of ValidateName, parsers trim surrounding whitespace and the
// text format is line based.
func ValidateRenderable(name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if strings.TrimSpace(name) != name {
		return fmt.Errorf("%w: %q has leading or trailing whitespace", ErrInvalidName, name)
	}
	if strings.ContainsAny(name, "\n\r") {
		return fmt.Errorf("%w: %q contains a line break", ErrInvalidName, name)
	}
	return nil
}

// splitKind strips a trailing separator from raw and reports whether it
// marked a directory.
func splitKind(raw string) (string, Kind) {
	if strings.HasSuffix(raw, "/") || strings.HasSuffix(raw, string(filepath.Separator)) {
		return strings.TrimRight(raw, `/`+string(filepath.Separator)), Directory
	}
	return raw, File
}
