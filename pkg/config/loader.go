package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Project-level config file names, checked in this order in each directory.
const (
	HiddenConfigFileName = ".scaffold.toml"
	ConfigFileName       = "scaffold.toml"
)

// GlobalConfigDir is the name of the global config directory inside the user's config dir.
const GlobalConfigDir = "scaffold"

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "SCAFFOLD"

// Load loads configuration from all layers in order of precedence:
//  1. Built-in defaults
//  2. Global user config (~/.config/scaffold/config.toml)
//  3. Project config (.scaffold.toml or scaffold.toml)
//  4. Environment variables (SCAFFOLD_*)
//
// CLI flags are applied separately after Load() returns.
func Load() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return LoadFrom(wd)
}

// LoadFrom loads configuration, searching for project config starting at dir.
func LoadFrom(dir string) (*Config, error) {
	cfg := NewConfig()

	// Layer 2: Global user config
	if path := GetGlobalConfigPath(); path != "" {
		globalCfg, err := loadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.Merge(globalCfg)
	}

	// Layer 3: Project config
	projectCfg, err := loadProjectConfigFrom(dir)
	if err != nil {
		return nil, err
	}
	cfg.Merge(projectCfg)

	// Layer 4: Environment variables
	if err := applyEnvironmentVariables(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadProjectConfigFrom looks for project configuration starting from the
// given directory and walking up to the repository root.
func loadProjectConfigFrom(dir string) (*Config, error) {
	current, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	for {
		for _, path := range GetProjectConfigPaths(current) {
			cfg, err := loadConfigFile(path)
			if err != nil {
				return nil, err
			}
			if cfg != nil {
				return cfg, nil
			}
		}

		// Stop at filesystem root or repository root
		if isRepositoryRoot(current) {
			break
		}

		parent := filepath.Dir(current)
		if parent == current {
			break
		}
		current = parent
	}

	return nil, nil
}

// isRepositoryRoot checks if the directory holds a .git entry.
func isRepositoryRoot(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// loadConfigFile loads a configuration from a TOML file. A missing file
// yields nil without error; a malformed one is an error.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var cfg Config
	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	cfg.Sources = []string{path}
	return &cfg, nil
}

// envOverrides mirrors the settings that can be set from SCAFFOLD_*
// variables. Pointer and zero-valued fields mean "not set".
type envOverrides struct {
	File          string   `envconfig:"FILE"`
	Format        string   `envconfig:"FORMAT"`
	IndentWidth   int      `envconfig:"INDENT_WIDTH"`
	TabWidth      int      `envconfig:"TAB_WIDTH"`
	BadEntries    string   `envconfig:"BAD_ENTRIES"`
	Conflict      string   `envconfig:"CONFLICT"`
	IncludeHidden *bool    `envconfig:"INCLUDE_HIDDEN"`
	Exclude       []string `envconfig:"EXCLUDE"`
	Verbosity     *int     `envconfig:"VERBOSITY"`
	LogFormat     string   `envconfig:"LOG_FORMAT"`
}

// applyEnvironmentVariables applies SCAFFOLD_* environment variables to the config.
func applyEnvironmentVariables(cfg *Config) error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to read environment: %w", err)
	}

	cfg.Merge(&Config{
		Blueprint: BlueprintConfig{
			File:        env.File,
			Format:      env.Format,
			IndentWidth: env.IndentWidth,
			TabWidth:    env.TabWidth,
			BadEntries:  env.BadEntries,
		},
		Generate: GenerateConfig{
			Conflict:      env.Conflict,
			IncludeHidden: env.IncludeHidden,
			Exclude:       env.Exclude,
		},
		Log: LogConfig{
			Verbosity: env.Verbosity,
			Format:    env.LogFormat,
		},
	})
	return nil
}

// GetGlobalConfigPath returns the path to the global config file.
func GetGlobalConfigPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(configDir, GlobalConfigDir, "config.toml")
}

// GetProjectConfigPaths returns potential project config paths for a given directory.
func GetProjectConfigPaths(dir string) []string {
	return []string{
		filepath.Join(dir, HiddenConfigFileName),
		filepath.Join(dir, ConfigFileName),
	}
}
