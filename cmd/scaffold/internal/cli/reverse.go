package cli

import (
	"slices"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/export"
)

var reverseFlags struct {
	noHidden bool
	exclude  []string
}

var reverseCmd = &cobra.Command{
	Use:   "reverse [dir]",
	Short: "Print a blueprint describing an existing tree",
	Long: `Walks [dir] (default ".") and prints a blueprint describing it to
standard output, in --format (text unless json or yaml is given).

Entries are ordered by name within each directory. Symlinks are listed as
files and never followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReverse,
}

func init() {
	reverseCmd.Flags().BoolVar(&reverseFlags.noHidden, "no-hidden", false,
		"Leave out entries whose name starts with a dot")
	reverseCmd.Flags().StringSliceVar(&reverseFlags.exclude, "exclude", nil,
		"Glob patterns to leave out (doublestar syntax, repeatable)")

	rootCmd.AddCommand(reverseCmd)
}

func runReverse(cmd *cobra.Command, args []string) error {
	dir := targetArg(args)

	bp, err := export.Export(dir, exportOptions(dir, reverseFlags.noHidden, reverseFlags.exclude))
	if err != nil {
		return err
	}

	data, err := blueprint.Render(bp, outputFormat(), settings.Blueprint.IndentWidth)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}

// exportOptions combines configured and command-line export settings. The
// configured blueprint file is always excluded.
func exportOptions(dir string, noHidden bool, exclude []string) export.Options {
	patterns := slices.Concat(settings.Generate.Exclude, exclude, selfExclude(dir, settings.Blueprint.File))
	return export.Options{
		IncludeHidden: settings.IncludeHidden() && !noHidden,
		Exclude:       patterns,
	}
}
