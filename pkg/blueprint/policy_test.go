package blueprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBadEntryPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want BadEntryPolicy
	}{
		{"", Strict},
		{"strict", Strict},
		{"skip", SkipBadEntries},
		{"skip-bad-entries", SkipBadEntries},
		{"FIX", FixBadEntries},
		{"fix-bad-entries", FixBadEntries},
	}
	for _, tt := range tests {
		got, err := ParseBadEntryPolicy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseBadEntryPolicy("lenient")
	assert.Error(t, err)
}

func TestParseConflictPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want ConflictPolicy
	}{
		{"", NoPolicy},
		{"merge", Merge},
		{"overwrite", Overwrite},
		{"rename", RenameIfExists},
		{"rename-if-exists", RenameIfExists},
	}
	for _, tt := range tests {
		got, err := ParseConflictPolicy(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		if tt.in != "" && tt.in != "rename" {
			assert.Equal(t, tt.in, got.String())
		}
	}

	_, err := ParseConflictPolicy("append")
	assert.Error(t, err)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{".scaffold", FormatText},
		{"/work/.scaffold_2", FormatText},
		{"tree.json", FormatJSON},
		{"tree.YAML", FormatYAML},
		{"tree.yml", FormatYAML},
		{"layout.txt", FormatText},
		{"layout", FormatAuto},
		{"layout.md", FormatAuto},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestDetectFormat(t *testing.T) {
	assert.Equal(t, FormatJSON, DetectFormat("layout", []byte(`[{"name": "src", "type": "directory"}]`)))
	assert.Equal(t, FormatText, DetectFormat("layout", []byte("src/\n  main.py\n")))
	assert.Equal(t, FormatYAML, DetectFormat("layout.yaml", []byte("- a\n")))
	assert.Equal(t, FormatText, DetectFormat("layout", nil))
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatAuto, "auto": FormatAuto, "text": FormatText, "json": FormatJSON, "yml": FormatYAML} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseFormat("toml")
	assert.Error(t, err)
}
