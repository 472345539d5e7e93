package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/materialize"
)

var buildFlags struct {
	dryRun bool
}

var buildCmd = &cobra.Command{
	Use:   "build [target]",
	Short: "Create the tree described by the blueprint",
	Long: `Parses the blueprint file and creates every directory and file it
describes under [target] (default "."). Files are created empty; entries
that already exist are left untouched.

Use --dry-run to print the plan without touching the filesystem.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().BoolVar(&buildFlags.dryRun, "dry-run", false,
		"Print the plan without applying it")

	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	target := targetArg(args)

	bp, err := loadBlueprint()
	if err != nil {
		return err
	}

	res, err := materialize.Materialize(bp, target, materialize.Options{DryRun: buildFlags.dryRun})
	out := cmd.OutOrStdout()
	if buildFlags.dryRun && res != nil {
		for _, op := range res.Ops {
			_, _ = fmt.Fprintln(out, op)
		}
	}
	if err != nil {
		if res != nil && res.Created > 0 && !res.DryRun {
			log.Warn("build stopped part way", "created", res.Created)
		}
		return err
	}

	if buildFlags.dryRun {
		_, _ = fmt.Fprintf(out, "\nWould create %d entries in %s (%d already exist)\n", res.Created, res.Root, res.Skipped)
		return nil
	}
	_, _ = fmt.Fprintf(out, "Created %d entries in %s (%d already existed)\n", res.Created, res.Root, res.Skipped)
	log.Info("build complete", "target", res.Root, "created", res.Created, "skipped", res.Skipped)
	return nil
}
