package blueprint

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// WriteAction is what Write did at the destination.
type WriteAction string

const (
	ActionCreated     WriteAction = "created"
	ActionOverwritten WriteAction = "overwritten"
	ActionMerged      WriteAction = "merged"
	ActionRenamed     WriteAction = "renamed"
	ActionUnchanged   WriteAction = "unchanged"
)

// WriteOptions configures Write.
type WriteOptions struct {
	// Format of the output. FormatAuto picks it from the destination's
	// extension, falling back to text.
	Format      Format
	Policy      ConflictPolicy
	// IndentWidth is used both to render and to read back an existing text
	// destination under Merge; TabWidth only for reading it back.
	IndentWidth int
	TabWidth    int
	// DryRun resolves the destination and renders the content without
	// touching the filesystem.
	DryRun bool
}

// WriteResult reports where the blueprint went and what was done.
type WriteResult struct {
	Path    string
	Action  WriteAction
	Format  Format
	Content []byte
}

// Write renders bp and writes it to dest under the conflict policy.
// Files are replaced atomically via a temporary sibling and rename.
func Write(dest string, bp *Blueprint, opts WriteOptions) (*WriteResult, error) {
	format := opts.Format
	if format == FormatAuto {
		format = FormatFromPath(dest)
	}
	if format == FormatAuto {
		format = FormatText
	}
	res := &WriteResult{Path: dest, Format: format}

	info, err := os.Stat(dest)
	exists := err == nil
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &SerializeError{Op: "write", Path: dest, Err: err}
	}
	if exists && info.IsDir() {
		return nil, &SerializeError{Op: "write", Path: dest, Err: errors.New("destination is a directory")}
	}

	if !exists {
		res.Action = ActionCreated
		if err := res.render(bp, opts, true); err != nil {
			return nil, err
		}
		return res, nil
	}

	switch opts.Policy {
	case Overwrite:
		if err := res.render(bp, opts, false); err != nil {
			return nil, err
		}
		return res.replace(dest, opts.DryRun, ActionOverwritten)

	case Merge:
		existing, err := readExisting(dest, opts)
		if err != nil {
			return nil, err
		}
		merged, err := MergeBlueprints(existing, bp)
		if err != nil {
			return nil, &SerializeError{Op: "merge", Path: dest, Err: err}
		}
		if err := res.render(merged, opts, false); err != nil {
			return nil, err
		}
		return res.replace(dest, opts.DryRun, ActionMerged)

	case RenameIfExists:
		free, err := NextFreeName(dest)
		if err != nil {
			return nil, &SerializeError{Op: "write", Path: dest, Err: err}
		}
		res.Path = free
		res.Action = ActionRenamed
		if err := res.render(bp, opts, true); err != nil {
			return nil, err
		}
		return res, nil

	default:
		return nil, &SerializeError{Op: "write", Path: dest, Err: ErrDestinationExists}
	}
}

// render fills Content and, when write is set and this is not a dry run,
// writes it to res.Path.
func (res *WriteResult) render(bp *Blueprint, opts WriteOptions, write bool) error {
	data, err := Render(bp, res.Format, opts.IndentWidth)
	if err != nil {
		var serr *SerializeError
		if errors.As(err, &serr) {
			serr.Path = res.Path
		}
		return err
	}
	res.Content = data
	if !write || opts.DryRun {
		return nil
	}
	return atomicWrite(res.Path, data)
}

// replace writes Content over an existing destination unless the bytes are
// already identical.
func (res *WriteResult) replace(dest string, dryRun bool, action WriteAction) (*WriteResult, error) {
	current, err := HashFile(dest)
	if err != nil {
		return nil, &SerializeError{Op: "write", Path: dest, Err: err}
	}
	if current == HashBytes(res.Content) {
		res.Action = ActionUnchanged
		return res, nil
	}
	res.Action = action
	if dryRun {
		return res, nil
	}
	if err := atomicWrite(dest, res.Content); err != nil {
		return nil, err
	}
	return res, nil
}

// readExisting parses the destination strictly, with the same indentation
// settings it was rendered with.
func readExisting(dest string, opts WriteOptions) (*Blueprint, error) {
	data, err := os.ReadFile(dest)
	if err != nil {
		return nil, &SerializeError{Op: "merge", Path: dest, Err: err}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Blueprint{}, nil
	}
	bp, _, err := Parse(data, ParseOptions{
		Format:      DetectFormat(dest, data),
		IndentWidth: opts.IndentWidth,
		TabWidth:    opts.TabWidth,
		Source:      dest,
	})
	if err != nil {
		return nil, &SerializeError{Op: "merge", Path: dest, Err: err}
	}
	return bp, nil
}

// atomicWrite writes data to a temporary sibling of path and renames it into place.
func atomicWrite(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &SerializeError{Op: "write", Path: path, Err: fmt.Errorf("failed to create temp file: %w", err)}
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return &SerializeError{Op: "write", Path: path, Err: fmt.Errorf("failed to write temp file: %w", err)}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return &SerializeError{Op: "write", Path: path, Err: fmt.Errorf("failed to close temp file: %w", err)}
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return &SerializeError{Op: "write", Path: path, Err: err}
	}

	// Rename is atomic on POSIX.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return &SerializeError{Op: "write", Path: path, Err: fmt.Errorf("failed to rename temp file: %w", err)}
	}
	return nil
}

// NextFreeName returns the first sibling of path named <stem>_N<ext>, N >= 1,
// that does not exist. A dotfile without a further extension keeps its whole
// name as the stem, so .scaffold becomes .scaffold_1.
func NextFreeName(path string) (string, error) {
	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		stem, ext = base, ""
	}

	for n := 1; ; n++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
		_, err := os.Lstat(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}
