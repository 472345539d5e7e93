package blueprint

import (
	"strings"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
)

// docNode is the document form of an entry in JSON and YAML output.
type docNode struct {
	Name     string     `json:"name" yaml:"name"`
	Type     string     `json:"type" yaml:"type"`
	Children []*docNode `json:"children,omitempty" yaml:"children,omitempty"`
}

func toDocNodes(entries []*Entry) []*docNode {
	nodes := make([]*docNode, 0, len(entries))
	for _, e := range entries {
		n := &docNode{Name: e.Name, Type: e.Kind.String()}
		if e.Kind == Directory && len(e.Children) > 0 {
			n.Children = toDocNodes(e.Children)
		}
		nodes = append(nodes, n)
	}
	return nodes
}

// Render encodes bp in format f. indent is the number of spaces per level;
// values below 1 use DefaultIndentWidth. FormatAuto renders text.
func Render(bp *Blueprint, f Format, indent int) ([]byte, error) {
	if indent < 1 {
		indent = DefaultIndentWidth
	}
	if bp == nil {
		bp = &Blueprint{}
	}

	switch f {
	case FormatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(toDocNodes(bp.Entries), "", strings.Repeat(" ", indent))
		if err != nil {
			return nil, &SerializeError{Op: "render", Err: err}
		}
		return append(data, '\n'), nil
	case FormatYAML:
		data, err := yaml.MarshalWithOptions(toDocNodes(bp.Entries), yaml.Indent(indent), yaml.IndentSequence(true))
		if err != nil {
			return nil, &SerializeError{Op: "render", Err: err}
		}
		return data, nil
	default:
		return renderText(bp, indent), nil
	}
}

// renderText writes one entry per line, indent spaces per depth level, with
// directories suffixed by a slash.
func renderText(bp *Blueprint, indent int) []byte {
	var sb strings.Builder
	bp.Walk(func(rel string, e *Entry) bool {
		sb.WriteString(strings.Repeat(" ", indent*strings.Count(rel, "/")))
		sb.WriteString(e.Name)
		if e.IsDir() {
			sb.WriteByte('/')
		}
		sb.WriteByte('\n')
		return true
	})
	return []byte(sb.String())
}
