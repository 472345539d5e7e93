// Package cli implements the scaffold command-line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/albertocavalcante/scaffold/internal/log"
	"github.com/albertocavalcante/scaffold/pkg/blueprint"
	"github.com/albertocavalcante/scaffold/pkg/config"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	GitCommit = "unknown"
)

// globalFlags holds persistent flags that apply to all commands
var globalFlags struct {
	verbosity int
	logFormat string
	file      string
	format    string
	skipBad   bool
	fixBad    bool
	indent    int
}

// rootFlags keeps the single-command interface working: `scaffold --reverse`
// and `scaffold --generate-scaffold --merge` behave like the subcommands.
var rootFlags struct {
	reverse   bool
	generate  bool
	dryRun    bool
	merge     bool
	overwrite bool
	rename    bool
}

// settings is the effective configuration for the running command, loaded
// before any command runs.
var settings = config.NewConfig()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scaffold [target]",
	Short: "Build directory trees from blueprint files",
	Long: `Scaffold reads a blueprint describing a tree of files and directories
and creates it on disk. Files are created empty and existing entries are
left alone, so running it again is safe.

A text blueprint nests entries by indentation; names ending in "/" are
directories:

  src/
    main.py
    utils/
      helpers.py
  README.md

JSON and YAML blueprints are read as well. Use 'scaffold generate' to write
a blueprint describing an existing tree.

Without a subcommand, scaffold builds into [target] (default ".").`,
	Args:              cobra.MaximumNArgs(1),
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
	RunE:              runRoot,
}

// versionCmd shows version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "scaffold %s (%s)\n", Version, GitCommit)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)

	// Global flags (persistent across all commands)
	pf := rootCmd.PersistentFlags()
	pf.IntVarP(&globalFlags.verbosity, "verbosity", "v", 1,
		"Verbosity level (0=error, 1=warn, 2=info, 3=debug, 4=trace)")
	pf.StringVar(&globalFlags.logFormat, "log-format", "text",
		"Log format (text, json)")
	pf.StringVarP(&globalFlags.file, "file", "f", blueprint.DefaultFileName,
		"Blueprint file")
	pf.StringVar(&globalFlags.format, "format", "auto",
		"Blueprint format (auto, text, json, yaml)")
	pf.BoolVar(&globalFlags.skipBad, "skip-bad-entries", false,
		"Drop malformed blueprint entries instead of failing")
	pf.BoolVar(&globalFlags.fixBad, "fix-bad-entries", false,
		"Repair malformed blueprint entries instead of failing")
	pf.IntVar(&globalFlags.indent, "indent", blueprint.DefaultIndentWidth,
		"Columns per nesting level in text blueprints")
	rootCmd.MarkFlagsMutuallyExclusive("skip-bad-entries", "fix-bad-entries")

	f := rootCmd.Flags()
	f.BoolVar(&rootFlags.reverse, "reverse", false,
		"Print a blueprint of the target instead of building it")
	f.BoolVar(&rootFlags.generate, "generate-scaffold", false,
		"Write a blueprint file describing the target")
	f.BoolVar(&rootFlags.dryRun, "dry-run", false,
		"Show what would change without applying")
	f.BoolVar(&rootFlags.merge, "merge", false,
		"With --generate-scaffold, merge into an existing blueprint")
	f.BoolVar(&rootFlags.overwrite, "overwrite", false,
		"With --generate-scaffold, overwrite an existing blueprint")
	f.BoolVar(&rootFlags.rename, "rename-if-exists", false,
		"With --generate-scaffold, write to a numbered sibling of an existing blueprint")
	rootCmd.MarkFlagsMutuallyExclusive("reverse", "generate-scaffold")
	rootCmd.MarkFlagsMutuallyExclusive("merge", "overwrite", "rename-if-exists")
}

func runRoot(cmd *cobra.Command, args []string) error {
	switch {
	case rootFlags.reverse:
		return runReverse(cmd, args)
	case rootFlags.generate:
		generateFlags.dryRun = rootFlags.dryRun
		generateFlags.merge = rootFlags.merge
		generateFlags.overwrite = rootFlags.overwrite
		generateFlags.rename = rootFlags.rename
		return runGenerate(cmd, args)
	case rootFlags.merge || rootFlags.overwrite || rootFlags.rename:
		return errors.New("--merge, --overwrite and --rename-if-exists require --generate-scaffold")
	}
	buildFlags.dryRun = rootFlags.dryRun
	return runBuild(cmd, args)
}

// loadSettings layers CLI flags over the loaded configuration and initializes
// logging. It runs after flags are parsed but before command execution.
func loadSettings(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log.InitWithOutput(cfg.Verbosity(), cfg.Log.Format, cmd.ErrOrStderr())
	for _, src := range cfg.Sources {
		log.V(log.VerbosityDebug).Info("loaded config", "path", src)
	}
	settings = cfg
	return nil
}

// applyFlags overrides cfg with the flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if flagChanged(cmd, "verbosity") {
		v := globalFlags.verbosity
		cfg.Log.Verbosity = &v
	}
	if flagChanged(cmd, "log-format") {
		cfg.Log.Format = globalFlags.logFormat
	}
	if flagChanged(cmd, "file") {
		cfg.Blueprint.File = globalFlags.file
	}
	if flagChanged(cmd, "format") {
		cfg.Blueprint.Format = globalFlags.format
	}
	if flagChanged(cmd, "indent") {
		cfg.Blueprint.IndentWidth = globalFlags.indent
	}
	switch {
	case globalFlags.skipBad:
		cfg.Blueprint.BadEntries = blueprint.SkipBadEntries.String()
	case globalFlags.fixBad:
		cfg.Blueprint.BadEntries = blueprint.FixBadEntries.String()
	}
}

func flagChanged(cmd *cobra.Command, name string) bool {
	f := cmd.Flag(name)
	return f != nil && f.Changed
}

// targetArg returns the directory argument, defaulting to the working directory.
func targetArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

// loadBlueprint parses the configured blueprint file, logging every entry the
// bad-entry policy skipped or fixed.
func loadBlueprint() (*blueprint.Blueprint, error) {
	path := settings.Blueprint.File
	bp, diags, err := blueprint.ParseFile(path, settings.ParseOptions())
	if err != nil {
		if recoverable(err) {
			return nil, fmt.Errorf("%w (Tip: run with --skip-bad-entries or --fix-bad-entries)", err)
		}
		return nil, err
	}
	for _, d := range diags {
		log.Warn("malformed blueprint entry", "file", path, "detail", d.String())
	}
	dirs, files := bp.Counts()
	log.Info("parsed blueprint", "file", path, "dirs", dirs, "files", files)
	log.Trace("blueprint entries", "file", path, "paths", bp.Paths())
	return bp, nil
}

// recoverable reports whether a strict parse failure would have been skipped
// or repaired under a lenient bad-entry policy.
func recoverable(err error) bool {
	return errors.Is(err, blueprint.ErrMalformedEntry) ||
		errors.Is(err, blueprint.ErrInvalidName) ||
		errors.Is(err, blueprint.ErrUnknownType)
}

// outputFormat resolves the configured format for printed blueprints,
// defaulting to text.
func outputFormat() blueprint.Format {
	f, _ := blueprint.ParseFormat(settings.Blueprint.Format)
	if f == blueprint.FormatAuto {
		return blueprint.FormatText
	}
	return f
}

// selfExclude returns exclude patterns for a blueprint file and its numbered
// siblings when they live inside dir, so exported trees never describe the
// blueprint itself.
func selfExclude(dir, file string) []string {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return nil
	}
	rel, err := filepath.Rel(absDir, absFile)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return nil
	}
	rel = filepath.ToSlash(rel)
	if strings.ContainsAny(rel, `*?[]{}\`) {
		return nil
	}
	ext := filepath.Ext(rel)
	stem := strings.TrimSuffix(rel, ext)
	if stem == "" || strings.HasSuffix(stem, "/") {
		// Dotfile such as .scaffold: the whole name is the stem.
		stem, ext = rel, ""
	}
	return []string{rel, stem + "_*" + ext}
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd returns the root command for testing.
func RootCmd() *cobra.Command {
	return rootCmd
}
