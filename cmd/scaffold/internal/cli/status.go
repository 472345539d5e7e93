package cli

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/export"
)

var statusFlags struct {
	extra bool
	json  bool
}

var statusCmd = &cobra.Command{
	Use:   "status [target]",
	Short: "Compare the blueprint with the tree on disk",
	Long: `Compares the blueprint with [target] (default ".") and reports entries
that are missing and entries whose kind differs on disk (a file where the
blueprint has a directory, or the other way round).

The --extra flag also lists paths on disk the blueprint does not describe.
The --json flag outputs the result as JSON for scripting.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVar(&statusFlags.extra, "extra", false,
		"Also list paths on disk that the blueprint does not describe")
	statusCmd.Flags().BoolVar(&statusFlags.json, "json", false,
		"Output as JSON")

	rootCmd.AddCommand(statusCmd)
}

// StatusOutput is the JSON output format for scaffold status.
type StatusOutput struct {
	UpToDate  bool     `json:"up_to_date"`
	Missing   []string `json:"missing"`
	Conflicts []string `json:"conflicts"`
	Extra     []string `json:"extra,omitempty"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	target := targetArg(args)

	bp, err := loadBlueprint()
	if err != nil {
		return err
	}

	status, err := compareTree(bp, target)
	if err != nil {
		return err
	}
	if statusFlags.extra {
		status.Extra, err = extraPaths(bp, target, status.Conflicts)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if statusFlags.json {
		data, err := sonic.ConfigStd.MarshalIndent(status, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		_, _ = fmt.Fprintln(out, string(data))
		return nil
	}

	if status.UpToDate && len(status.Extra) == 0 {
		_, _ = fmt.Fprintln(out, "Tree matches the blueprint")
		return nil
	}
	printSection(out, "Missing", "+", status.Missing)
	printSection(out, "Conflicts", "!", status.Conflicts)
	printSection(out, "Not in blueprint", "?", status.Extra)
	return nil
}

func printSection(out io.Writer, title, mark string, paths []string) {
	if len(paths) == 0 {
		return
	}
	_, _ = fmt.Fprintf(out, "%s (%d):\n", title, len(paths))
	for _, p := range paths {
		_, _ = fmt.Fprintf(out, "  %s %s\n", mark, p)
	}
}

// compareTree checks every blueprint entry against the filesystem. Entries
// under a missing or conflicting directory are all reported missing.
func compareTree(bp *blueprint.Blueprint, target string) (*StatusOutput, error) {
	status := &StatusOutput{Missing: []string{}, Conflicts: []string{}}
	var walkErr error

	bp.Walk(func(rel string, e *blueprint.Entry) bool {
		if walkErr != nil {
			return false
		}
		display := rel
		if e.IsDir() {
			display += "/"
		}

		info, err := os.Lstat(filepath.Join(target, filepath.FromSlash(rel)))
		switch {
		case errors.Is(err, fs.ErrNotExist):
			status.Missing = append(status.Missing, display)
			return true
		case err != nil:
			walkErr = err
			return false
		}

		if info.IsDir() != e.IsDir() {
			status.Conflicts = append(status.Conflicts, display)
			// Children cannot exist under a file; list them as missing.
			sub := &blueprint.Blueprint{Entries: e.Children}
			for _, p := range sub.Paths() {
				status.Missing = append(status.Missing, rel+"/"+p)
			}
			return false
		}
		return true
	})
	if walkErr != nil {
		return nil, walkErr
	}

	status.UpToDate = len(status.Missing) == 0 && len(status.Conflicts) == 0
	return status, nil
}

// extraPaths lists paths in target that the blueprint does not describe,
// leaving out conflicting paths and everything under them. Only the top of
// an undescribed subtree is listed.
func extraPaths(bp *blueprint.Blueprint, target string, conflicts []string) ([]string, error) {
	if _, err := os.Stat(target); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}

	tree, err := export.Export(target, exportOptions(target, false, nil))
	if err != nil {
		return nil, err
	}

	known := make(map[string]bool)
	for _, p := range bp.Paths() {
		known[p] = true
	}
	conflicting := make(map[string]bool)
	for _, c := range conflicts {
		conflicting[strings.TrimSuffix(c, "/")] = true
	}

	var extra []string
	tree.Walk(func(rel string, e *blueprint.Entry) bool {
		if conflicting[rel] {
			return false
		}
		p := rel
		if e.IsDir() {
			p += "/"
		}
		if known[p] {
			return true
		}
		extra = append(extra, p)
		return false
	})
	slices.Sort(extra)
	return extra, nil
}
