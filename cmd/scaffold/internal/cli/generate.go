package cli

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/export"
)

var generateFlags struct {
	output    string
	merge     bool
	overwrite bool
	rename    bool
	dryRun    bool
	check     bool
	noHidden  bool
	exclude   []string
}

var generateCmd = &cobra.Command{
	Use:     "generate [dir]",
	Aliases: []string{"generate-scaffold"},
	Short:   "Write a blueprint file describing an existing tree",
	Long: `Walks [dir] (default ".") and writes a blueprint describing it to
--output (default: the blueprint file name inside [dir]). The output format
follows --format, or the output file's extension when --format is auto.

When the output file already exists one of these decides what happens:
  --merge             union the existing blueprint with the tree
  --overwrite         replace the existing blueprint
  --rename-if-exists  write to the first free numbered sibling (.scaffold_1, ...)
Without one, an existing file is an error.

Use --check to verify that the existing blueprint describes the tree (useful
for CI). Use --dry-run to preview the result without writing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateFlags.output, "output", "o", "",
		"Blueprint file to write")
	f.BoolVar(&generateFlags.merge, "merge", false,
		"Merge into an existing blueprint")
	f.BoolVar(&generateFlags.overwrite, "overwrite", false,
		"Overwrite an existing blueprint")
	f.BoolVar(&generateFlags.rename, "rename-if-exists", false,
		"Write to a numbered sibling when the blueprint exists")
	f.BoolVar(&generateFlags.dryRun, "dry-run", false,
		"Show what would be written without writing it")
	f.BoolVar(&generateFlags.check, "check", false,
		"Check that the existing blueprint describes the tree (exit 1 if not)")
	f.BoolVar(&generateFlags.noHidden, "no-hidden", false,
		"Leave out entries whose name starts with a dot")
	f.StringSliceVar(&generateFlags.exclude, "exclude", nil,
		"Glob patterns to leave out (doublestar syntax, repeatable)")
	generateCmd.MarkFlagsMutuallyExclusive("merge", "overwrite", "rename-if-exists")
	generateCmd.MarkFlagsMutuallyExclusive("check", "dry-run")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := targetArg(args)

	dest := generateFlags.output
	if dest == "" {
		dest = filepath.Join(dir, filepath.Base(settings.Blueprint.File))
	}

	opts := exportOptions(dir, generateFlags.noHidden, generateFlags.exclude)
	opts.Exclude = append(opts.Exclude, selfExclude(dir, dest)...)
	bp, err := export.Export(dir, opts)
	if err != nil {
		return err
	}

	if generateFlags.check {
		return runGenerateCheck(cmd.OutOrStdout(), dest, dir, bp)
	}

	policy, err := conflictPolicy()
	if err != nil {
		return err
	}
	format, _ := blueprint.ParseFormat(settings.Blueprint.Format)

	res, err := blueprint.Write(dest, bp, blueprint.WriteOptions{
		Format:      format,
		Policy:      policy,
		IndentWidth: settings.Blueprint.IndentWidth,
		TabWidth:    settings.Blueprint.TabWidth,
		DryRun:      generateFlags.dryRun,
	})
	if err != nil {
		if errors.Is(err, blueprint.ErrDestinationExists) {
			return fmt.Errorf("%w (use --merge, --overwrite or --rename-if-exists)", err)
		}
		return err
	}

	out := cmd.OutOrStdout()
	if generateFlags.dryRun {
		_, _ = fmt.Fprintf(out, "Would write %s (%s, %s):\n", res.Path, res.Action, res.Format)
		_, _ = out.Write(res.Content)
		return nil
	}

	dirs, files := bp.Counts()
	_, _ = fmt.Fprintf(out, "Wrote %s (%s)\n", res.Path, res.Action)
	log.Info("generated blueprint", "path", res.Path, "action", string(res.Action), "dirs", dirs, "files", files)
	return nil
}

// conflictPolicy resolves the policy from flags, then configuration.
func conflictPolicy() (blueprint.ConflictPolicy, error) {
	switch {
	case generateFlags.merge:
		return blueprint.Merge, nil
	case generateFlags.overwrite:
		return blueprint.Overwrite, nil
	case generateFlags.rename:
		return blueprint.RenameIfExists, nil
	}
	return blueprint.ParseConflictPolicy(settings.Generate.Conflict)
}

// runGenerateCheck compares the blueprint at dest with the exported tree.
func runGenerateCheck(out io.Writer, dest, dir string, tree *blueprint.Blueprint) error {
	opts := settings.ParseOptions()
	existing, diags, err := blueprint.ParseFile(dest, opts)
	if err != nil {
		return err
	}
	for _, d := range diags {
		log.Warn("malformed blueprint entry", "file", dest, "detail", d.String())
	}

	if existing.Sorted().Equal(tree.Sorted()) {
		_, _ = fmt.Fprintf(out, "%s is up to date\n", dest)
		return nil
	}

	want := existing.Paths()
	have := tree.Paths()
	_, _ = fmt.Fprintf(out, "%s does not match %s:\n", dest, dir)
	for _, p := range want {
		if !slices.Contains(have, p) {
			_, _ = fmt.Fprintf(out, "  - %s\n", p)
		}
	}
	for _, p := range have {
		if !slices.Contains(want, p) {
			_, _ = fmt.Fprintf(out, "  + %s\n", p)
		}
	}
	return fmt.Errorf("blueprint %s is out of date; run 'scaffold generate --overwrite' to update it", dest)
}
