package blueprint

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultFileName is the blueprint file used when none is given.
const DefaultFileName = ".scaffold"

// Format selects a blueprint encoding.
type Format int

const (
	// FormatAuto picks the format from the file name or content.
	FormatAuto Format = iota
	// FormatText is the indentation-based plain text format.
	FormatText
	// FormatJSON is a JSON document.
	FormatJSON
	// FormatYAML is a YAML document.
	FormatYAML
)

// String returns the format name.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "auto"
	}
}

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return FormatAuto, nil
	case "text", "txt", "scaffold":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return FormatAuto, fmt.Errorf("unknown format %q (want auto, text, json or yaml)", s)
}

// FormatFromPath maps a file extension to a format. It returns FormatAuto
// when the extension says nothing (no extension, or an unknown one).
func FormatFromPath(path string) Format {
	base := filepath.Base(path)
	if base == DefaultFileName || strings.HasPrefix(base, DefaultFileName+"_") {
		return FormatText
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".scaffold", ".txt", ".tree":
		return FormatText
	}
	return FormatAuto
}

// DetectFormat resolves the format of a blueprint. The extension wins; for
// files without a telling extension the content is sniffed and JSON is
// recognized, everything else is treated as text.
func DetectFormat(path string, data []byte) Format {
	if f := FormatFromPath(path); f != FormatAuto {
		return f
	}
	if len(data) > 0 && mimetype.Detect(data).Is("application/json") {
		return FormatJSON
	}
	return FormatText
}

// ResolveFormat returns f unless it is FormatAuto, in which case the format
// is detected from path and data.
func ResolveFormat(f Format, path string, data []byte) Format {
	if f != FormatAuto {
		return f
	}
	return DetectFormat(path, data)
}
