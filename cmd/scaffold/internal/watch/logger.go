package watch

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/term"

	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/materialize"
)

// ChangeType represents the type of blueprint file change.
type ChangeType string

const (
	ChangeAdded    ChangeType = "+"
	ChangeModified ChangeType = "~"
	ChangeDeleted  ChangeType = "-"
)

// Logger handles watch mode output formatting.
type Logger struct {
	mu      sync.Mutex
	writer  io.Writer
	isTTY   bool
	verbose bool
	noColor bool
	jsonOut bool

	stats Stats
}

// Stats tracks statistics for the watch session.
type Stats struct {
	Builds    int
	Unchanged int
	Errors    int
	StartTime time.Time
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	Writer  io.Writer
	Verbose bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a new logger with the given configuration.
func NewLogger(cfg LoggerConfig) *Logger {
	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	isTTY := false
	if f, ok := writer.(*os.File); ok {
		isTTY = term.IsTerminal(int(f.Fd()))
	}

	return &Logger{
		writer:  writer,
		isTTY:   isTTY,
		verbose: cfg.Verbose,
		noColor: cfg.NoColor,
		jsonOut: cfg.JSON,
		stats:   Stats{StartTime: time.Now()},
	}
}

// Ready logs the initial ready message.
func (l *Logger) Ready(blueprintPath, target string) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "ready",
			"blueprint": blueprintPath,
			"target":    target,
		})
		return
	}

	l.printf("scaffold: watching %s\n", blueprintPath)
	l.printf("scaffold: target %s\n", target)
	l.printf("scaffold: ready\n\n")
}

// FileChanged logs a change to the blueprint file.
func (l *Logger) FileChanged(path string, change ChangeType) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "file_changed",
			"path":   path,
			"change": string(change),
			"time":   time.Now().Format(time.RFC3339),
		})
		return
	}

	if l.verbose {
		l.printf("[%s] %s %s\n", l.timestamp(), l.colorize(string(change), change), path)
	}
}

// Diagnostic logs a malformed entry the parser skipped or fixed.
func (l *Logger) Diagnostic(d blueprint.Diagnostic) {
	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":  "diagnostic",
			"line":   d.Line,
			"path":   d.Path,
			"name":   d.Name,
			"action": string(d.Action),
			"reason": d.Reason,
		})
		return
	}
	l.printf("[%s] %s %s\n", l.timestamp(), l.colorize("!", ChangeModified), d)
}

// Built logs a completed build.
func (l *Logger) Built(res *materialize.Result) {
	l.mu.Lock()
	l.stats.Builds++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":   "built",
			"created": res.Created,
			"skipped": res.Skipped,
			"time":    time.Now().Format(time.RFC3339),
		})
		return
	}

	checkmark := l.colorize("✓", ChangeAdded)
	l.printf("[%s] %s built: %d created, %d existing\n", l.timestamp(), checkmark, res.Created, res.Skipped)
	if l.verbose {
		for _, op := range res.Ops {
			if op.Kind != materialize.OpSkipExisting {
				l.printf("           %s\n", op)
			}
		}
	}
}

// Unchanged logs a change event whose content matched the last build.
func (l *Logger) Unchanged(path string) {
	l.mu.Lock()
	l.stats.Unchanged++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "unchanged",
			"path":  path,
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}
	if l.verbose {
		l.printf("[%s] %s unchanged, skipping build\n", l.timestamp(), path)
	}
}

// Error logs an error.
func (l *Logger) Error(err error) {
	l.mu.Lock()
	l.stats.Errors++
	l.mu.Unlock()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event": "error",
			"error": err.Error(),
			"time":  time.Now().Format(time.RFC3339),
		})
		return
	}

	xmark := l.colorize("✗", ChangeDeleted)
	l.printf("[%s] %s error: %v\n", l.timestamp(), xmark, err)
}

// Shutdown logs the shutdown message with statistics.
func (l *Logger) Shutdown() {
	stats := l.Stats()

	if l.jsonOut {
		l.writeJSON(map[string]any{
			"event":     "shutdown",
			"builds":    stats.Builds,
			"unchanged": stats.Unchanged,
			"errors":    stats.Errors,
			"duration":  time.Since(stats.StartTime).String(),
		})
		return
	}

	l.printf("\nscaffold: shutting down (%d builds, %d errors)\n", stats.Builds, stats.Errors)
}

// Stats returns the current watch statistics.
func (l *Logger) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.stats
}

func (l *Logger) timestamp() string {
	return time.Now().Format("15:04:05")
}

// colorize applies ANSI color codes based on change type.
func (l *Logger) colorize(s string, change ChangeType) string {
	if l.noColor || !l.isTTY {
		return s
	}

	var color string
	switch change {
	case ChangeAdded:
		color = "\033[32m" // green
	case ChangeModified:
		color = "\033[33m" // yellow
	case ChangeDeleted:
		color = "\033[31m" // red
	default:
		return s
	}
	return color + s + "\033[0m"
}

func (l *Logger) writeJSON(v any) {
	data, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		l.printf("%s\n", `{"event":"internal_error","error":"json marshal failed"}`)
		return
	}
	l.printf("%s\n", data)
}

// printf writes to the output; write errors are ignored.
func (l *Logger) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(l.writer, format, args...)
}
