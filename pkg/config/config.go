// Package config provides configuration management for scaffold.
// It supports multi-layer configuration with precedence:
//  1. Built-in defaults (lowest priority)
//  2. Global user config (~/.config/scaffold/config.toml)
//  3. Project config (.scaffold.toml or scaffold.toml)
//  4. Environment variables (SCAFFOLD_*)
//  5. CLI flags (highest priority)
package config

import (
	"errors"
	"fmt"

	"github.com/albertocavalcante/scaffold/pkg/blueprint"
)

// Config is the main configuration struct for scaffold.
type Config struct {
	// Blueprint configures where blueprints are read from and how they are parsed.
	Blueprint BlueprintConfig `toml:"blueprint"`

	// Generate configures reverse export into a blueprint file.
	Generate GenerateConfig `toml:"generate"`

	// Log configures logging.
	Log LogConfig `toml:"log"`

	// Sources lists the config files that were loaded, in merge order.
	Sources []string `toml:"-"`
}

// BlueprintConfig holds blueprint file settings.
type BlueprintConfig struct {
	// File is the blueprint path, relative to the working directory.
	File string `toml:"file"`

	// Format is "auto", "text", "json" or "yaml".
	Format string `toml:"format"`

	// IndentWidth is the number of columns per depth level in text blueprints.
	IndentWidth int `toml:"indent_width"`

	// TabWidth is the number of columns a leading tab counts for.
	TabWidth int `toml:"tab_width"`

	// BadEntries is "strict", "skip-bad-entries" or "fix-bad-entries".
	BadEntries string `toml:"bad_entries"`
}

// GenerateConfig holds settings for generating blueprints from a tree.
type GenerateConfig struct {
	// Conflict is "none", "merge", "overwrite" or "rename-if-exists".
	Conflict string `toml:"conflict"`

	// IncludeHidden keeps dotfiles in generated blueprints.
	IncludeHidden *bool `toml:"include_hidden"`

	// Exclude lists doublestar patterns left out of generated blueprints.
	Exclude []string `toml:"exclude"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Verbosity is 0 (errors) through 4 (trace).
	Verbosity *int `toml:"verbosity"`

	// Format is "text" or "json".
	Format string `toml:"format"`
}

// NewConfig creates a new Config with built-in defaults.
func NewConfig() *Config {
	trueVal := true
	verbosity := 1
	return &Config{
		Blueprint: BlueprintConfig{
			File:        blueprint.DefaultFileName,
			Format:      "auto",
			IndentWidth: blueprint.DefaultIndentWidth,
			TabWidth:    blueprint.DefaultTabWidth,
			BadEntries:  blueprint.Strict.String(),
		},
		Generate: GenerateConfig{
			Conflict:      blueprint.NoPolicy.String(),
			IncludeHidden: &trueVal,
		},
		Log: LogConfig{
			Verbosity: &verbosity,
			Format:    "text",
		},
	}
}

// Merge merges another config into this one (other takes precedence).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Merge blueprint config
	if other.Blueprint.File != "" {
		c.Blueprint.File = other.Blueprint.File
	}
	if other.Blueprint.Format != "" {
		c.Blueprint.Format = other.Blueprint.Format
	}
	if other.Blueprint.IndentWidth != 0 {
		c.Blueprint.IndentWidth = other.Blueprint.IndentWidth
	}
	if other.Blueprint.TabWidth != 0 {
		c.Blueprint.TabWidth = other.Blueprint.TabWidth
	}
	if other.Blueprint.BadEntries != "" {
		c.Blueprint.BadEntries = other.Blueprint.BadEntries
	}

	// Merge generate config
	if other.Generate.Conflict != "" {
		c.Generate.Conflict = other.Generate.Conflict
	}
	if other.Generate.IncludeHidden != nil {
		c.Generate.IncludeHidden = other.Generate.IncludeHidden
	}
	if len(other.Generate.Exclude) > 0 {
		c.Generate.Exclude = append(c.Generate.Exclude, other.Generate.Exclude...)
	}

	// Merge log config
	if other.Log.Verbosity != nil {
		c.Log.Verbosity = other.Log.Verbosity
	}
	if other.Log.Format != "" {
		c.Log.Format = other.Log.Format
	}

	c.Sources = append(c.Sources, other.Sources...)
}

// Validate rejects unknown enum values and out-of-range numbers.
func (c *Config) Validate() error {
	var errs []error
	if c.Blueprint.File == "" {
		errs = append(errs, errors.New("blueprint.file must not be empty"))
	}
	if _, err := blueprint.ParseFormat(c.Blueprint.Format); err != nil {
		errs = append(errs, fmt.Errorf("blueprint.format: %w", err))
	}
	if c.Blueprint.IndentWidth < 1 {
		errs = append(errs, fmt.Errorf("blueprint.indent_width must be at least 1, got %d", c.Blueprint.IndentWidth))
	}
	if c.Blueprint.TabWidth < 1 {
		errs = append(errs, fmt.Errorf("blueprint.tab_width must be at least 1, got %d", c.Blueprint.TabWidth))
	}
	if _, err := blueprint.ParseBadEntryPolicy(c.Blueprint.BadEntries); err != nil {
		errs = append(errs, fmt.Errorf("blueprint.bad_entries: %w", err))
	}
	if _, err := blueprint.ParseConflictPolicy(c.Generate.Conflict); err != nil {
		errs = append(errs, fmt.Errorf("generate.conflict: %w", err))
	}
	if v := c.Log.Verbosity; v != nil && (*v < 0 || *v > 4) {
		errs = append(errs, fmt.Errorf("log.verbosity must be between 0 and 4, got %d", *v))
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// ParseOptions returns blueprint parse options for the configured settings.
// Call Validate first; invalid enum values fall back to their defaults.
func (c *Config) ParseOptions() blueprint.ParseOptions {
	format, _ := blueprint.ParseFormat(c.Blueprint.Format)
	policy, _ := blueprint.ParseBadEntryPolicy(c.Blueprint.BadEntries)
	return blueprint.ParseOptions{
		Format:      format,
		BadEntries:  policy,
		IndentWidth: c.Blueprint.IndentWidth,
		TabWidth:    c.Blueprint.TabWidth,
	}
}

// IncludeHidden reports whether generated blueprints keep dotfiles.
func (c *Config) IncludeHidden() bool {
	return c.Generate.IncludeHidden == nil || *c.Generate.IncludeHidden
}

// Verbosity returns the configured log verbosity.
func (c *Config) Verbosity() int {
	if c.Log.Verbosity == nil {
		return 1
	}
	return *c.Log.Verbosity
}
