package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/cmd/scaffold/internal/watch"
	"github.com/albertocavalcante/scaffold/internal/log"
)

var watchFlags struct {
	debounce int
	verbose  bool
	json     bool
	noColor  bool
}

var watchCmd = &cobra.Command{
	Use:   "watch [target]",
	Short: "Rebuild the tree whenever the blueprint changes",
	Long: `Builds [target] (default ".") from the blueprint, then watches the
blueprint file and builds again whenever its content changes. Saves that
leave the content as it was do not trigger a build.

Example output:

  $ scaffold watch

  scaffold: watching /path/to/project/.scaffold
  scaffold: target .
  scaffold: ready

  [14:32:15] ✓ built: 4 created, 0 existing
  [14:32:40] ✓ built: 1 created, 4 existing

Press Ctrl+C to stop watching.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVar(&watchFlags.debounce, "debounce", 300,
		"Debounce window in milliseconds")
	watchCmd.Flags().BoolVar(&watchFlags.verbose, "verbose", false,
		"Show blueprint changes and created paths (implied by -v 3 and above)")
	watchCmd.Flags().BoolVar(&watchFlags.json, "json", false,
		"Stream JSON events (for tooling integration)")
	watchCmd.Flags().BoolVar(&watchFlags.noColor, "no-color", false,
		"Disable colored output")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	target := targetArg(args)
	if info, err := os.Stat(target); err == nil && !info.IsDir() {
		return fmt.Errorf("target must be a directory: %s", target)
	}

	// Setup signal handling for graceful shutdown
	// Include SIGHUP to handle terminal hangup
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer cancel()

	w, err := watch.New(watch.Config{
		Blueprint: settings.Blueprint.File,
		Target:    target,
		Parse:     settings.ParseOptions(),
		Debounce:  time.Duration(watchFlags.debounce) * time.Millisecond,
		Verbose:   watchFlags.verbose || log.Verbosity() >= log.VerbosityDebug,
		NoColor:   watchFlags.noColor,
		JSON:      watchFlags.json,
		Output:    cmd.OutOrStdout(),
	})
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	return w.Run(ctx)
}

