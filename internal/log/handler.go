package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// HandlerOptions configures the log handler.
type HandlerOptions struct {
	Level  slog.Leveler
	Format string // "text" or "json"
	Output io.Writer
}

// NewHandler creates the handler for the given format. Output defaults to
// stderr so logs never mix with blueprints or plans printed on stdout.
//
// Text records carry no timestamp and print string slices (such as blueprint
// path lists) space-separated; JSON records keep both as structured values.
func NewHandler(opts HandlerOptions) slog.Handler {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}

	if opts.Format == "json" {
		return slog.NewJSONHandler(opts.Output, &slog.HandlerOptions{
			Level:       opts.Level,
			ReplaceAttr: replaceLevel,
		})
	}
	return slog.NewTextHandler(opts.Output, &slog.HandlerOptions{
		Level:       opts.Level,
		ReplaceAttr: replaceTextAttr,
	})
}

// replaceLevel prints custom levels by name (TRACE rather than DEBUG-4).
func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey && len(groups) == 0 {
		if l, ok := a.Value.Any().(slog.Level); ok {
			a.Value = slog.StringValue(LevelName(l))
		}
	}
	return a
}

func replaceTextAttr(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	if paths, ok := a.Value.Any().([]string); ok {
		a.Value = slog.StringValue(strings.Join(paths, " "))
	}
	return replaceLevel(groups, a)
}
