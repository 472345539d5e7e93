package blueprint

import (
	"fmt"
	"os"
)

// Default indentation settings for the text format.
const (
	DefaultIndentWidth = 2
	DefaultTabWidth    = 2
)

// ParseOptions configures a parse. The zero value parses text with default
// indentation under the strict policy, auto-detecting the format.
type ParseOptions struct {
	Format      Format
	BadEntries  BadEntryPolicy
	IndentWidth int // columns per depth level (text only)
	TabWidth    int // columns per leading tab (text only)
	Source      string
}

func (o ParseOptions) withDefaults() ParseOptions {
	if o.IndentWidth <= 0 {
		o.IndentWidth = DefaultIndentWidth
	}
	if o.TabWidth <= 0 {
		o.TabWidth = DefaultTabWidth
	}
	return o
}

// Action is what the parser did with a malformed entry.
type Action string

const (
	ActionSkipped Action = "skipped"
	ActionFixed   Action = "fixed"
)

// Diagnostic describes a malformed entry the parser recovered from.
type Diagnostic struct {
	Line   int
	Path   string
	Name   string
	Action Action
	Reason string
}

// String formats the diagnostic the way the CLI reports it.
func (d Diagnostic) String() string {
	where := d.Path
	if d.Line > 0 {
		where = fmt.Sprintf("line %d", d.Line)
	}
	return fmt.Sprintf("%s: %s %q: %s", where, d.Action, d.Name, d.Reason)
}

// Parse decodes a blueprint. With FormatAuto, text is assumed unless the
// content sniffs as JSON.
func Parse(data []byte, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	opts = opts.withDefaults()
	switch ResolveFormat(opts.Format, opts.Source, data) {
	case FormatJSON:
		return parseJSON(data, opts)
	case FormatYAML:
		return parseYAML(data, opts)
	default:
		return parseText(data, opts)
	}
}

// ParseFile reads and parses the blueprint at path.
func ParseFile(path string, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read blueprint: %w", err)
	}
	if opts.Source == "" {
		opts.Source = path
	}
	return Parse(data, opts)
}

// recoverer applies a BadEntryPolicy and records what was recovered.
type recoverer struct {
	opts        ParseOptions
	diagnostics []Diagnostic
}

// fail builds the strict-mode error for a malformed entry.
func (r *recoverer) fail(line int, path, name string, err error) error {
	return &ParseError{Source: r.opts.Source, Line: line, Path: path, Name: name, Err: err}
}

func (r *recoverer) note(line int, path, name string, action Action, reason string) {
	r.diagnostics = append(r.diagnostics, Diagnostic{
		Line:   line,
		Path:   path,
		Name:   name,
		Action: action,
		Reason: reason,
	})
}
