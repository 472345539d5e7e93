package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/albertocavalcante/scaffold/pkg/config"
)

// ============================================================================
// Helpers
// ============================================================================

// resetFlags restores every flag of cmd and its subcommands to its default.
// Command state is package-global and survives between Execute calls.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

// workspace creates an isolated working directory and changes into it.
// The .git marker stops the upward config search.
func workspace(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, ".git"), 0o755); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	return dir
}

// execute runs the root command with args and returns what it printed to stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	stdout, _, err := executeWithLogs(t, args...)
	return stdout, err
}

// executeWithLogs is execute that also returns stderr, where logs go.
func executeWithLogs(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := RootCmd()
	resetFlags(root)
	settings = config.NewConfig()

	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func assertExists(t *testing.T, path string, dir bool) {
	t.Helper()
	info, err := os.Stat(path)
	if err != nil {
		t.Errorf("expected %s to exist: %v", path, err)
		return
	}
	if info.IsDir() != dir {
		t.Errorf("%s: IsDir() = %v, want %v", path, info.IsDir(), dir)
	}
}

func assertMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected %s to be absent, got err=%v", path, err)
	}
}

const sampleBlueprint = "src/\n  main.py\n  utils/\n    helpers.py\nREADME.md\n"

// ============================================================================
// Flag Tests
// ============================================================================

func TestGenerateCmd_FlagDefaults(t *testing.T) {
	cmd := findCommand(RootCmd(), "generate")
	if cmd == nil {
		t.Fatal("generate command not found")
	}

	tests := []struct {
		flagName     string
		wantDefault  string
		wantShortcut string
	}{
		{"output", "", "o"},
		{"merge", "false", ""},
		{"overwrite", "false", ""},
		{"rename-if-exists", "false", ""},
		{"dry-run", "false", ""},
		{"check", "false", ""},
		{"no-hidden", "false", ""},
		{"exclude", "[]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.flagName, func(t *testing.T) {
			flag := cmd.Flags().Lookup(tt.flagName)
			if flag == nil {
				t.Fatalf("flag %q not found on generate command", tt.flagName)
			}
			if flag.DefValue != tt.wantDefault {
				t.Errorf("flag %q default = %q, want %q", tt.flagName, flag.DefValue, tt.wantDefault)
			}
			if flag.Shorthand != tt.wantShortcut {
				t.Errorf("flag %q shorthand = %q, want %q", tt.flagName, flag.Shorthand, tt.wantShortcut)
			}
		})
	}
}

func TestGenerateCmd_Alias(t *testing.T) {
	cmd := findCommand(RootCmd(), "generate")
	if cmd == nil {
		t.Fatal("generate command not found")
	}
	if !slices.Contains(cmd.Aliases, "generate-scaffold") {
		t.Errorf("expected generate-scaffold alias, got %v", cmd.Aliases)
	}
}

func TestWatchCmd_FlagDefaults(t *testing.T) {
	cmd := findCommand(RootCmd(), "watch")
	if cmd == nil {
		t.Fatal("watch command not found")
	}

	for name, want := range map[string]string{
		"debounce": "300",
		"verbose":  "false",
		"json":     "false",
		"no-color": "false",
	} {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("flag %q not found on watch command", name)
			continue
		}
		if flag.DefValue != want {
			t.Errorf("flag %q default = %q, want %q", name, flag.DefValue, want)
		}
	}
}

func TestCommands_UseAndShort(t *testing.T) {
	for _, cmd := range RootCmd().Commands() {
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			continue
		}
		if cmd.Short == "" {
			t.Errorf("command %q has no short description", cmd.Name())
		}
	}
}

// ============================================================================
// Version Command Tests
// ============================================================================

func TestVersionCmd(t *testing.T) {
	workspace(t)

	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version failed: %v", err)
	}
	if !strings.HasPrefix(out, "scaffold "+Version) {
		t.Errorf("unexpected version output: %q", out)
	}
}

// ============================================================================
// Build Command Tests
// ============================================================================

func TestBuildCmd_CreatesTree(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), sampleBlueprint)

	out, err := execute(t, "build", "out")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}

	assertExists(t, filepath.Join(dir, "out", "src"), true)
	assertExists(t, filepath.Join(dir, "out", "src", "main.py"), false)
	assertExists(t, filepath.Join(dir, "out", "src", "utils", "helpers.py"), false)
	assertExists(t, filepath.Join(dir, "out", "README.md"), false)
	if !strings.Contains(out, "Created 5 entries") {
		t.Errorf("unexpected output: %q", out)
	}

	// A second run only finds existing entries.
	out, err = execute(t, "build", "out")
	if err != nil {
		t.Fatalf("second build failed: %v", err)
	}
	if !strings.Contains(out, "Created 0 entries") || !strings.Contains(out, "5 already existed") {
		t.Errorf("unexpected output on rebuild: %q", out)
	}
}

func TestBuildCmd_DryRun(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), sampleBlueprint)

	out, err := execute(t, "build", "--dry-run", "out")
	if err != nil {
		t.Fatalf("dry-run failed: %v", err)
	}

	assertMissing(t, filepath.Join(dir, "out"))
	for _, want := range []string{"create-dir", "src/utils/", "create-file", "src/utils/helpers.py", "Would create 5 entries"} {
		if !strings.Contains(out, want) {
			t.Errorf("dry-run output missing %q:\n%s", want, out)
		}
	}
}

func TestRootCmd_DefaultsToBuild(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, "layout.txt"), "docs/\n  index.md\n")

	if _, err := execute(t, "-f", "layout.txt", "out"); err != nil {
		t.Fatalf("root build failed: %v", err)
	}
	assertExists(t, filepath.Join(dir, "out", "docs", "index.md"), false)
}

func TestBuildCmd_SyntaxErrorHasNoPolicyHint(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold.json"), `{"src": [`)

	_, err := execute(t, "build", "--file", ".scaffold.json", "out")
	if err == nil {
		t.Fatal("expected a syntax error")
	}
	if strings.Contains(err.Error(), "--skip-bad-entries") {
		t.Errorf("syntax errors cannot be skipped, got hint: %v", err)
	}
}

func TestBuildCmd_BadEntryPolicies(t *testing.T) {
	const bad = "a/\n        deep.txt\nb.txt\n"

	t.Run("strict", func(t *testing.T) {
		dir := workspace(t)
		writeFile(t, filepath.Join(dir, ".scaffold"), bad)

		_, err := execute(t, "build", "out")
		if err == nil {
			t.Fatal("expected strict parse to fail")
		}
		if !strings.Contains(err.Error(), "line 2") {
			t.Errorf("error should name the line: %v", err)
		}
		if !strings.Contains(err.Error(), "--skip-bad-entries or --fix-bad-entries") {
			t.Errorf("error should suggest a lenient policy: %v", err)
		}
		assertMissing(t, filepath.Join(dir, "out"))
	})

	t.Run("skip", func(t *testing.T) {
		dir := workspace(t)
		writeFile(t, filepath.Join(dir, ".scaffold"), bad)

		if _, err := execute(t, "build", "--skip-bad-entries", "out"); err != nil {
			t.Fatalf("build failed: %v", err)
		}
		assertExists(t, filepath.Join(dir, "out", "a"), true)
		assertExists(t, filepath.Join(dir, "out", "b.txt"), false)
		assertMissing(t, filepath.Join(dir, "out", "a", "deep.txt"))
	})

	t.Run("fix", func(t *testing.T) {
		dir := workspace(t)
		writeFile(t, filepath.Join(dir, ".scaffold"), bad)

		if _, err := execute(t, "build", "--fix-bad-entries", "out"); err != nil {
			t.Fatalf("build failed: %v", err)
		}
		assertExists(t, filepath.Join(dir, "out", "a", "deep.txt"), false)
	})

	t.Run("exclusive", func(t *testing.T) {
		dir := workspace(t)
		writeFile(t, filepath.Join(dir, ".scaffold"), bad)

		if _, err := execute(t, "build", "--skip-bad-entries", "--fix-bad-entries", "out"); err == nil {
			t.Error("expected an error for conflicting policies")
		}
	})
}

func TestBuildCmd_VerbosityLogging(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), sampleBlueprint)
	writeFile(t, filepath.Join(dir, ".scaffold.toml"), "[blueprint]\nindent_width = 2\n")

	_, logs, err := executeWithLogs(t, "build", "--dry-run", "out")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	if logs != "" {
		t.Errorf("default verbosity should log nothing for a clean build, got:\n%s", logs)
	}

	_, logs, err = executeWithLogs(t, "-v", "4", "build", "--dry-run", "out")
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	for _, want := range []string{
		"loaded config",
		"level=TRACE",
		`paths="src/ src/main.py src/utils/ src/utils/helpers.py README.md"`,
		"resolved path",
	} {
		if !strings.Contains(logs, want) {
			t.Errorf("trace logs missing %q:\n%s", want, logs)
		}
	}
}

func TestBuildCmd_ConfigFile(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold.toml"), "[blueprint]\nfile = \"layout.txt\"\nindent_width = 4\n")
	writeFile(t, filepath.Join(dir, "layout.txt"), "pkg/\n    api.go\n")

	if _, err := execute(t, "build", "out"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	assertExists(t, filepath.Join(dir, "out", "pkg", "api.go"), false)
}

func TestBuildCmd_InvalidConfig(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold.toml"), "[blueprint]\nformat = \"xml\"\n")

	_, err := execute(t, "build")
	if err == nil || !strings.Contains(err.Error(), "blueprint.format") {
		t.Errorf("expected invalid configuration error, got %v", err)
	}
}

func TestBuildCmd_Conflict(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), "src/\n  main.py\n")
	writeFile(t, filepath.Join(dir, "out", "src"), "")

	if _, err := execute(t, "build", "out"); err == nil {
		t.Fatal("expected a conflict error when a file is in the way")
	}
}

// ============================================================================
// Reverse Command Tests
// ============================================================================

func makeTree(t *testing.T, root string) {
	t.Helper()
	writeFile(t, filepath.Join(root, "a", "b.txt"), "")
	writeFile(t, filepath.Join(root, "c.txt"), "")
}

func TestReverseCmd_Text(t *testing.T) {
	dir := workspace(t)
	makeTree(t, filepath.Join(dir, "tree"))

	out, err := execute(t, "reverse", "tree")
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if want := "a/\n  b.txt\nc.txt\n"; out != want {
		t.Errorf("reverse output = %q, want %q", out, want)
	}
}

func TestReverseCmd_JSON(t *testing.T) {
	dir := workspace(t)
	makeTree(t, filepath.Join(dir, "tree"))

	out, err := execute(t, "reverse", "--format", "json", "tree")
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	var nodes []struct {
		Name     string `json:"name"`
		Type     string `json:"type"`
		Children []any  `json:"children"`
	}
	if err := json.Unmarshal([]byte(out), &nodes); err != nil {
		t.Fatalf("invalid JSON output: %v\n%s", err, out)
	}
	if len(nodes) != 2 || nodes[0].Name != "a" || nodes[0].Type != "directory" || len(nodes[0].Children) != 1 {
		t.Errorf("unexpected nodes: %+v", nodes)
	}
}

func TestReverseCmd_RootFlag(t *testing.T) {
	dir := workspace(t)
	makeTree(t, filepath.Join(dir, "tree"))
	writeFile(t, filepath.Join(dir, "tree", ".hidden"), "")

	out, err := execute(t, "--reverse", "tree")
	if err != nil {
		t.Fatalf("scaffold --reverse failed: %v", err)
	}
	if !strings.Contains(out, ".hidden") {
		t.Errorf("hidden files are included by default:\n%s", out)
	}

	out, err = execute(t, "reverse", "--no-hidden", "--exclude", "*.txt", "tree")
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if out != "a/\n" {
		t.Errorf("reverse output = %q, want %q", out, "a/\n")
	}
}

// ============================================================================
// Generate Command Tests
// ============================================================================

func TestGenerateCmd_ConflictPolicies(t *testing.T) {
	dir := workspace(t)
	tree := filepath.Join(dir, "tree")
	makeTree(t, tree)
	const want = "a/\n  b.txt\nc.txt\n"

	out, err := execute(t, "generate", "tree")
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if got := readFile(t, filepath.Join(tree, ".scaffold")); got != want {
		t.Errorf("blueprint = %q, want %q", got, want)
	}
	if !strings.Contains(out, "(created)") {
		t.Errorf("unexpected output: %q", out)
	}

	// Existing destination without a policy.
	if _, err := execute(t, "generate", "tree"); err == nil || !strings.Contains(err.Error(), "--merge") {
		t.Errorf("expected destination-exists error, got %v", err)
	}

	// The written blueprints never describe themselves.
	if _, err := execute(t, "generate", "--rename-if-exists", "tree"); err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if _, err := execute(t, "generate-scaffold", "--rename-if-exists", "tree"); err != nil {
		t.Fatalf("rename via alias failed: %v", err)
	}
	if got := readFile(t, filepath.Join(tree, ".scaffold_2")); got != want {
		t.Errorf(".scaffold_2 = %q, want %q", got, want)
	}

	out, err = execute(t, "generate", "--merge", "tree")
	if err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if !strings.Contains(out, "(unchanged)") {
		t.Errorf("merging an identical tree should be unchanged: %q", out)
	}
}

func TestGenerateCmd_MergeKeepsExistingEntries(t *testing.T) {
	dir := workspace(t)
	tree := filepath.Join(dir, "tree")
	makeTree(t, tree)
	writeFile(t, filepath.Join(tree, ".scaffold"), "planned/\nc.txt\n")

	if _, err := execute(t, "--generate-scaffold", "--merge", "tree"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got, want := readFile(t, filepath.Join(tree, ".scaffold")), "planned/\nc.txt\na/\n  b.txt\n"; got != want {
		t.Errorf("merged blueprint = %q, want %q", got, want)
	}
}

func TestGenerateCmd_MergeWithCustomIndent(t *testing.T) {
	dir := workspace(t)
	tree := filepath.Join(dir, "tree")
	makeTree(t, tree)
	writeFile(t, filepath.Join(tree, ".scaffold"), "planned/\n    notes.md\n")

	if _, err := execute(t, "generate", "--indent", "4", "--merge", "tree"); err != nil {
		t.Fatalf("merge failed: %v", err)
	}
	if got, want := readFile(t, filepath.Join(tree, ".scaffold")), "planned/\n    notes.md\na/\n    b.txt\n"; got != want {
		t.Errorf("merged blueprint = %q, want %q", got, want)
	}
}

func TestGenerateCmd_OutputFormatAndDryRun(t *testing.T) {
	dir := workspace(t)
	makeTree(t, filepath.Join(dir, "tree"))

	out, err := execute(t, "generate", "--dry-run", "-o", "layout.yaml", "tree")
	if err != nil {
		t.Fatalf("dry-run failed: %v", err)
	}
	assertMissing(t, filepath.Join(dir, "layout.yaml"))
	if !strings.Contains(out, "Would write layout.yaml (created, yaml)") || !strings.Contains(out, "name: b.txt") {
		t.Errorf("unexpected dry-run output:\n%s", out)
	}

	if _, err := execute(t, "generate", "-o", "layout.json", "tree"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	var nodes []map[string]any
	if err := json.Unmarshal([]byte(readFile(t, filepath.Join(dir, "layout.json"))), &nodes); err != nil {
		t.Fatalf("expected JSON blueprint: %v", err)
	}
}

func TestGenerateCmd_Check(t *testing.T) {
	dir := workspace(t)
	tree := filepath.Join(dir, "tree")
	makeTree(t, tree)

	if _, err := execute(t, "generate", "tree"); err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	out, err := execute(t, "generate", "--check", "tree")
	if err != nil {
		t.Fatalf("check failed on a fresh blueprint: %v", err)
	}
	if !strings.Contains(out, "up to date") {
		t.Errorf("unexpected check output: %q", out)
	}

	writeFile(t, filepath.Join(tree, "d.txt"), "")
	out, err = execute(t, "generate", "--check", "tree")
	if err == nil {
		t.Fatal("expected check to fail after the tree changed")
	}
	if !strings.Contains(out, "+ d.txt") {
		t.Errorf("check output should list the new file:\n%s", out)
	}
}

// ============================================================================
// Status Command Tests
// ============================================================================

func TestStatusCmd_JSON(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), sampleBlueprint)
	writeFile(t, filepath.Join(dir, "out", "src", "main.py"), "")
	writeFile(t, filepath.Join(dir, "out", "README.md", "keep"), "")
	writeFile(t, filepath.Join(dir, "out", "notes.txt"), "")

	out, err := execute(t, "status", "--json", "--extra", "out")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}

	var status StatusOutput
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	if status.UpToDate {
		t.Error("expected tree to be out of date")
	}
	if want := []string{"src/utils/", "src/utils/helpers.py"}; !slices.Equal(status.Missing, want) {
		t.Errorf("Missing = %v, want %v", status.Missing, want)
	}
	if want := []string{"README.md"}; !slices.Equal(status.Conflicts, want) {
		t.Errorf("Conflicts = %v, want %v", status.Conflicts, want)
	}
	if want := []string{"notes.txt"}; !slices.Equal(status.Extra, want) {
		t.Errorf("Extra = %v, want %v", status.Extra, want)
	}
}

func TestStatusCmd_UpToDate(t *testing.T) {
	dir := workspace(t)
	writeFile(t, filepath.Join(dir, ".scaffold"), sampleBlueprint)

	if _, err := execute(t, "build", "out"); err != nil {
		t.Fatalf("build failed: %v", err)
	}
	out, err := execute(t, "status", "out")
	if err != nil {
		t.Fatalf("status failed: %v", err)
	}
	if !strings.Contains(out, "Tree matches the blueprint") {
		t.Errorf("unexpected status output: %q", out)
	}
}

// ============================================================================
// Helper Tests
// ============================================================================

func TestSelfExclude(t *testing.T) {
	tests := []struct {
		name string
		dir  string
		file string
		want []string
	}{
		{"dotfile", "tree", "tree/.scaffold", []string{".scaffold", ".scaffold_*"}},
		{"extension", "tree", "tree/layout.yaml", []string{"layout.yaml", "layout_*.yaml"}},
		{"nested", "tree", "tree/conf/.scaffold", []string{"conf/.scaffold", "conf/.scaffold_*"}},
		{"outside", "tree", "other/.scaffold", nil},
		{"metacharacters", "tree", "tree/[x].txt", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := selfExclude(tt.dir, tt.file); !slices.Equal(got, tt.want) {
				t.Errorf("selfExclude(%q, %q) = %v, want %v", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}
