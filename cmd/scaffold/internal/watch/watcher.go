package watch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/materialize"
)

// DefaultDebounce is used when Config.Debounce is not positive.
const DefaultDebounce = 300 * time.Millisecond

// Config configures the watcher.
type Config struct {
	Blueprint string // blueprint file to watch
	Target    string // directory the scaffold is built in
	Parse     blueprint.ParseOptions
	Debounce  time.Duration
	Verbose   bool
	NoColor   bool
	JSON      bool
	Output    io.Writer
}

// Watcher rebuilds the target whenever the blueprint file's content changes.
// The blueprint's directory is watched rather than the file itself so that
// editors which save by renaming a temporary file are picked up.
type Watcher struct {
	config    Config
	path      string // absolute blueprint path
	fsWatcher *fsnotify.Watcher
	debouncer *Debouncer
	logger    *Logger

	// buildMu serializes builds; lastHash is the content hash of the last
	// successful build.
	buildMu  sync.Mutex
	lastHash string
}

// New creates a new watcher with the given configuration.
func New(cfg Config) (*Watcher, error) {
	path, err := filepath.Abs(cfg.Blueprint)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve blueprint path: %w", err)
	}
	if cfg.Target == "" {
		cfg.Target = "."
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		config:    cfg,
		path:      path,
		fsWatcher: fsWatcher,
		logger: NewLogger(LoggerConfig{
			Writer:  cfg.Output,
			Verbose: cfg.Verbose,
			NoColor: cfg.NoColor,
			JSON:    cfg.JSON,
		}),
	}, nil
}

// Run builds once, then watches until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.debouncer = NewDebouncer(w.config.Debounce, func() { _, _ = w.Build() })
	defer w.debouncer.Stop()

	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		if isWatchLimitError(err) {
			return fmt.Errorf("%w for %s: %v", ErrWatchLimitReached, dir, err)
		}
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	w.logger.Ready(w.path, w.config.Target)
	_, _ = w.Build()

	for {
		select {
		case <-ctx.Done():
			w.logger.Shutdown()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error(err)
		}
	}
}

// handleEvent filters directory events down to the blueprint file.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Clean(event.Name) != w.path {
		return
	}

	var change ChangeType
	switch {
	case event.Has(fsnotify.Create):
		change = ChangeAdded
	case event.Has(fsnotify.Write):
		change = ChangeModified
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		// A replacement, if any, arrives as a Create.
		w.logger.FileChanged(w.path, ChangeDeleted)
		return
	default:
		return
	}

	w.logger.FileChanged(w.path, change)
	log.Component("watch").Debug("blueprint changed", "path", w.path, "change", string(change))
	w.debouncer.Trigger()
}

// Build parses the blueprint and materializes it into the target. It returns
// a nil result without error when the content matches the last build.
func (w *Watcher) Build() (*materialize.Result, error) {
	w.buildMu.Lock()
	defer w.buildMu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		w.logger.Error(err)
		return nil, err
	}

	hash := blueprint.HashBytes(data)
	if hash == w.lastHash {
		w.logger.Unchanged(w.path)
		return nil, nil
	}

	opts := w.config.Parse
	if opts.Source == "" {
		opts.Source = w.path
	}
	bp, diags, err := blueprint.Parse(data, opts)
	if err != nil {
		w.logger.Error(err)
		return nil, err
	}
	for _, d := range diags {
		w.logger.Diagnostic(d)
	}

	res, err := materialize.Materialize(bp, w.config.Target, materialize.Options{})
	if err != nil {
		w.logger.Error(err)
		return res, err
	}

	w.lastHash = hash
	w.logger.Built(res)
	return res, nil
}

// Stats returns the session statistics.
func (w *Watcher) Stats() Stats {
	return w.logger.Stats()
}

// Close closes the watcher and releases resources.
func (w *Watcher) Close() error {
	if w.fsWatcher != nil {
		return w.fsWatcher.Close()
	}
	return nil
}

// isWatchLimitError checks if an error is due to inotify watch limits.
func isWatchLimitError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "no space left on device") ||
		strings.Contains(errStr, "too many open files")
}

// ErrWatchLimitReached is returned when the OS watch limit is exceeded.
var ErrWatchLimitReached = errors.New("filesystem watch limit reached")
