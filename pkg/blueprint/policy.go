package blueprint

import (
	"fmt"
	"strings"
)

// BadEntryPolicy decides what the parser does with a malformed entry.
type BadEntryPolicy int

const (
	// Strict fails the whole parse on the first malformed entry.
	Strict BadEntryPolicy = iota
	// SkipBadEntries drops malformed entries and keeps parsing.
	SkipBadEntries
	// FixBadEntries moves malformed entries to the nearest valid depth.
	FixBadEntries
)

// String returns the policy name as used by flags and config files.
func (p BadEntryPolicy) String() string {
	switch p {
	case SkipBadEntries:
		return "skip-bad-entries"
	case FixBadEntries:
		return "fix-bad-entries"
	default:
		return "strict"
	}
}

// ParseBadEntryPolicy parses a policy name. "skip" and "fix" are accepted as
// short forms; the empty string means Strict.
func ParseBadEntryPolicy(s string) (BadEntryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "strict":
		return Strict, nil
	case "skip", "skip-bad-entries":
		return SkipBadEntries, nil
	case "fix", "fix-bad-entries":
		return FixBadEntries, nil
	}
	return Strict, fmt.Errorf("unknown bad-entry policy %q (want strict, skip-bad-entries or fix-bad-entries)", s)
}

// ConflictPolicy decides what happens when a blueprint destination already exists.
type ConflictPolicy int

const (
	// NoPolicy fails when the destination exists.
	NoPolicy ConflictPolicy = iota
	// Merge unions the existing blueprint with the new one.
	Merge
	// Overwrite replaces the destination.
	Overwrite
	// RenameIfExists writes to the first free numbered sibling.
	RenameIfExists
)

// String returns the policy name as used by flags and config files.
func (p ConflictPolicy) String() string {
	switch p {
	case Merge:
		return "merge"
	case Overwrite:
		return "overwrite"
	case RenameIfExists:
		return "rename-if-exists"
	default:
		return "none"
	}
}

// ParseConflictPolicy parses a policy name; the empty string means NoPolicy.
func ParseConflictPolicy(s string) (ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return NoPolicy, nil
	case "merge":
		return Merge, nil
	case "overwrite":
		return Overwrite, nil
	case "rename", "rename-if-exists":
		return RenameIfExists, nil
	}
	return NoPolicy, fmt.Errorf("unknown conflict policy %q (want merge, overwrite or rename-if-exists)", s)
}
