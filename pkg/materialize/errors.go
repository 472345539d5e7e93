package materialize

import (
	"errors"
	"fmt"
)

var (
	// ErrPathConflict indicates that a path exists with the wrong kind, e.g. a
	// file where the blueprint wants a directory.
	ErrPathConflict = errors.New("path conflict")

	// ErrOutsideRoot indicates an entry whose path would escape the target root.
	ErrOutsideRoot = errors.New("path escapes target root")
)

// Error reports a failure to materialize one path.
type Error struct {
	Op   string // "mkdir", "create", "stat", "join"
	Path string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap supports errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}
