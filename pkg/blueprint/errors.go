package blueprint

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedEntry indicates an entry whose depth or shape cannot be placed in the tree.
	ErrMalformedEntry = errors.New("malformed entry")

	// ErrInvalidName indicates a name that is not a single path segment.
	ErrInvalidName = errors.New("invalid name")

	// ErrUnknownType indicates a document node with an unrecognized type tag.
	ErrUnknownType = errors.New("unknown entry type")

	// ErrSyntax indicates that a JSON or YAML document could not be decoded.
	ErrSyntax = errors.New("syntax error")

	// ErrDestinationExists indicates that a blueprint file already exists and no conflict policy applies.
	ErrDestinationExists = errors.New("destination already exists")

	// ErrKindConflict indicates that merging found the same name as a file on one side and a directory on the other.
	ErrKindConflict = errors.New("conflicting entry kinds")
)

// ParseError reports a blueprint that cannot be parsed under the active policy.
// Line is set for text blueprints, Path (a document path like "[0].children[1]")
// for JSON and YAML.
type ParseError struct {
	Source string // file name, if known
	Line   int
	Path   string
	Name   string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	var where string
	switch {
	case e.Line > 0:
		where = fmt.Sprintf("line %d", e.Line)
	case e.Path != "":
		where = e.Path
	}
	if e.Source != "" {
		if where != "" {
			where = e.Source + ":" + where
		} else {
			where = e.Source
		}
	}

	msg := e.Err.Error()
	if e.Name != "" {
		msg = fmt.Sprintf("entry %q: %s", e.Name, msg)
	}
	if where == "" {
		return "parse: " + msg
	}
	return fmt.Sprintf("parse %s: %s", where, msg)
}

// Unwrap supports errors.Is/As.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// SerializeError reports a failure to write a blueprint to its destination.
type SerializeError struct {
	Op   string // "render", "merge", "write"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *SerializeError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%s blueprint: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s blueprint %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap supports errors.Is/As.
func (e *SerializeError) Unwrap() error {
	return e.Err
}
