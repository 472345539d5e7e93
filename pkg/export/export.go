// Package export derives a blueprint from an existing directory tree.
package export

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/blueprint"
)

// ErrNotDirectory indicates that the export root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Options configures Export.
type Options struct {
	// IncludeHidden keeps entries whose name starts with a dot.
	IncludeHidden bool
	// Exclude holds doublestar patterns. A pattern matches an entry when it
	// matches either its slash-separated path relative to the root or its
	// base name. Excluded directories are not descended into.
	Exclude []string
}

// Export walks root and returns a blueprint mirroring it. Entries within a
// directory are ordered by name. Symlinks and other non-directories become
// file entries; links are never followed. Entries whose names a blueprint
// cannot carry (see blueprint.ValidateRenderable) are skipped with a warning.
func Export(root string, opts Options) (*blueprint.Blueprint, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}

	root = filepath.Clean(root)
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to stat export root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("export root %s: %w", root, ErrNotDirectory)
	}

	logger := log.Component("export")
	bp := &blueprint.Blueprint{}

	type frame struct {
		rel    string
		parent *blueprint.Entry
	}
	stack := []frame{{}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		dir := filepath.Join(root, filepath.FromSlash(f.rel))
		// ReadDir returns entries sorted by file name.
		dirents, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
		}

		var subdirs []frame
		for _, d := range dirents {
			name := d.Name()
			rel := path.Join(f.rel, name)

			if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
				logger.Debug("skipping hidden entry", "path", rel)
				continue
			}
			if excluded(opts.Exclude, rel, name) {
				logger.Debug("skipping excluded entry", "path", rel)
				continue
			}
			if err := blueprint.ValidateRenderable(name); err != nil {
				logger.Warn("skipping entry that cannot be described by a blueprint", "path", rel, "error", err)
				continue
			}

			e := &blueprint.Entry{Name: name, Kind: blueprint.File}
			// DirEntry.IsDir does not follow symlinks.
			if d.IsDir() {
				e.Kind = blueprint.Directory
				subdirs = append(subdirs, frame{rel: rel, parent: e})
			}

			if f.parent == nil {
				bp.Entries = append(bp.Entries, e)
			} else {
				e.Depth = f.parent.Depth + 1
				f.parent.Children = append(f.parent.Children, e)
			}
		}

		for i := len(subdirs) - 1; i >= 0; i-- {
			stack = append(stack, subdirs[i])
		}
	}

	dirs, files := bp.Counts()
	logger.Debug("exported tree", "root", root, "dirs", dirs, "files", files)
	return bp, nil
}

func excluded(patterns []string, rel, name string) bool {
	for _, pattern := range patterns {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
