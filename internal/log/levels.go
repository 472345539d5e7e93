// Package log provides structured logging with verbosity levels for scaffold.
// It wraps log/slog and follows kubectl/klog patterns: -v=N picks the level,
// and V(n) gates a message on the verbosity itself.
package log

import "log/slog"

// LevelTrace is a custom trace level (more verbose than debug).
const LevelTrace = slog.Level(-8)

// Verbosity level constants for documentation and reference.
const (
	VerbosityError = 0 // Errors only (quiet)
	VerbosityWarn  = 1 // + Warnings (skipped or fixed blueprint entries)
	VerbosityInfo  = 2 // + Info (parse, build and generate summaries)
	VerbosityDebug = 3 // + Debug (every planned operation, skipped export entries, config files)
	VerbosityTrace = 4 // + Trace (path resolution, parsed blueprint paths)
)

// VerbosityToLevel maps -v=N to a slog level.
func VerbosityToLevel(v int) slog.Level {
	switch {
	case v <= 0:
		return slog.LevelError
	case v == 1:
		return slog.LevelWarn
	case v == 2:
		return slog.LevelInfo
	case v == 3:
		return slog.LevelDebug
	default:
		return LevelTrace
	}
}

// LevelName returns the name for a slog level, including custom levels.
func LevelName(l slog.Level) string {
	if l == LevelTrace {
		return "TRACE"
	}
	return l.String()
}
