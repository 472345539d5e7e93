// Package materialize creates the directories and files a blueprint describes.
//
// The walk is depth-first in pre-order with parents before children and
// siblings in blueprint order. Existing paths of the right kind are left
// alone; existing files are never truncated.
package materialize

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/blueprint"
)

// Permissions for created directories and files, before umask.
const (
	DirPerm  os.FileMode = 0o755
	FilePerm os.FileMode = 0o644
)

// OpKind identifies a planned or performed operation.
type OpKind string

const (
	OpCreateDir    OpKind = "create-dir"
	OpCreateFile   OpKind = "create-file"
	OpSkipExisting OpKind = "skip-existing"
)

// Op is one step of a materialization. Path is slash-separated and relative
// to the target root.
type Op struct {
	Kind      OpKind         `json:"op"`
	Path      string         `json:"path"`
	EntryKind blueprint.Kind `json:"-"`
}

// String renders the op the way dry-run plans are printed.
func (o Op) String() string {
	p := o.Path
	if o.EntryKind == blueprint.Directory {
		p += "/"
	}
	return fmt.Sprintf("%-13s %s", o.Kind, p)
}

// Options configures Materialize.
type Options struct {
	// DryRun validates and plans without touching the filesystem.
	DryRun bool
}

// Result is the ordered list of operations plus summary counts.
type Result struct {
	Root    string
	DryRun  bool
	Ops     []Op
	Created int
	Skipped int
}

func (r *Result) record(kind OpKind, rel string, ek blueprint.Kind) {
	r.Ops = append(r.Ops, Op{Kind: kind, Path: rel, EntryKind: ek})
	if kind == OpSkipExisting {
		r.Skipped++
	} else {
		r.Created++
	}
}

// Materialize creates bp under root. On error the ops performed so far are
// returned along with it; nothing is rolled back.
func Materialize(bp *blueprint.Blueprint, root string, opts Options) (*Result, error) {
	m := &materializer{
		root:    filepath.Clean(root),
		dryRun:  opts.DryRun,
		planned: make(map[string]blueprint.Kind),
		logger:  log.Component("materialize"),
	}
	res := &Result{Root: m.root, DryRun: opts.DryRun}

	if err := m.ensureRoot(); err != nil {
		return res, err
	}
	if bp == nil {
		return res, nil
	}

	type frame struct {
		prefix string
		entry  *blueprint.Entry
	}
	stack := make([]frame, 0, len(bp.Entries))
	for i := len(bp.Entries) - 1; i >= 0; i-- {
		stack = append(stack, frame{entry: bp.Entries[i]})
	}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e := f.entry

		rel := path.Join(f.prefix, e.Name)
		target, err := m.join(rel)
		if err != nil {
			return res, err
		}

		var kind OpKind
		if e.IsDir() {
			kind, err = m.ensureDir(target, rel)
		} else {
			kind, err = m.ensureFile(target, rel)
		}
		if err != nil {
			return res, err
		}
		res.record(kind, rel, e.Kind)
		m.logger.Debug("materialized entry", "op", kind, "path", rel, "dry_run", m.dryRun)

		for i := len(e.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{prefix: rel, entry: e.Children[i]})
		}
	}
	return res, nil
}

type materializer struct {
	root   string
	dryRun bool
	// planned holds paths a dry run would have created, so later entries see
	// them exactly as a live run would.
	planned map[string]blueprint.Kind
	logger  *slog.Logger
}

func (m *materializer) ensureRoot() error {
	info, err := os.Stat(m.root)
	switch {
	case err == nil && info.IsDir():
		return nil
	case err == nil:
		return &Error{Op: "mkdir", Path: m.root, Err: fmt.Errorf("%w: target root is not a directory", ErrPathConflict)}
	case errors.Is(err, fs.ErrNotExist):
		if m.dryRun {
			return nil
		}
		if err := os.MkdirAll(m.root, DirPerm); err != nil {
			return &Error{Op: "mkdir", Path: m.root, Err: err}
		}
		return nil
	default:
		return &Error{Op: "stat", Path: m.root, Err: err}
	}
}

// join resolves rel under the root and rejects anything that escapes it.
func (m *materializer) join(rel string) (string, error) {
	p := filepath.Join(m.root, filepath.FromSlash(rel))
	r, err := filepath.Rel(m.root, p)
	if err != nil {
		return "", &Error{Op: "join", Path: rel, Err: err}
	}
	r = filepath.ToSlash(r)
	if r == ".." || strings.HasPrefix(r, "../") || r == "." {
		return "", &Error{Op: "join", Path: rel, Err: ErrOutsideRoot}
	}
	m.logger.Log(context.Background(), log.LevelTrace, "resolved path", "rel", rel, "target", p)
	return p, nil
}

// lookup reports what exists at target, consulting the dry-run overlay first.
func (m *materializer) lookup(target string) (exists, isDir bool, err error) {
	if k, ok := m.planned[target]; ok {
		return true, k == blueprint.Directory, nil
	}
	info, err := os.Lstat(target)
	switch {
	case err == nil:
		return true, info.IsDir(), nil
	case errors.Is(err, fs.ErrNotExist):
		return false, false, nil
	default:
		return false, false, err
	}
}

func (m *materializer) ensureDir(target, rel string) (OpKind, error) {
	exists, isDir, err := m.lookup(target)
	switch {
	case err != nil:
		return "", &Error{Op: "stat", Path: target, Err: err}
	case exists && isDir:
		return OpSkipExisting, nil
	case exists:
		return "", &Error{Op: "mkdir", Path: target, Err: fmt.Errorf("%w: %s exists and is not a directory", ErrPathConflict, rel)}
	}

	if m.dryRun {
		m.planned[target] = blueprint.Directory
		return OpCreateDir, nil
	}
	if err := os.Mkdir(target, DirPerm); err != nil {
		return "", &Error{Op: "mkdir", Path: target, Err: err}
	}
	return OpCreateDir, nil
}

func (m *materializer) ensureFile(target, rel string) (OpKind, error) {
	exists, isDir, err := m.lookup(target)
	switch {
	case err != nil:
		return "", &Error{Op: "stat", Path: target, Err: err}
	case exists && isDir:
		return "", &Error{Op: "create", Path: target, Err: fmt.Errorf("%w: %s is a directory", ErrPathConflict, rel)}
	case exists:
		return OpSkipExisting, nil
	}

	if m.dryRun {
		m.planned[target] = blueprint.File
		return OpCreateFile, nil
	}
	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, FilePerm)
	if err != nil {
		return "", &Error{Op: "create", Path: target, Err: err}
	}
	if err := f.Close(); err != nil {
		return "", &Error{Op: "create", Path: target, Err: err}
	}
	return OpCreateFile, nil
}
