package blueprint

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// docItem and docMap hold a decoded mapping with its key order intact.
// Both JSON and YAML documents are normalized to docMap, []any and scalars
// before entries are built from them.
type docItem struct {
	Key   string
	Value any
}

type docMap []docItem

func (m docMap) get(key string) (any, bool) {
	for _, item := range m {
		if item.Key == key {
			return item.Value, true
		}
	}
	return nil, false
}

// Keys recognized on node objects.
const (
	keyName     = "name"
	keyType     = "type"
	keyChildren = "children"
)

func parseYAML(data []byte, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	var raw any
	if err := yaml.UnmarshalWithOptions(data, &raw, yaml.UseOrderedMap()); err != nil {
		return nil, nil, &ParseError{Source: opts.Source, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}
	return buildDocument(normalizeYAML(raw), opts)
}

func parseJSON(data []byte, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	raw, err := decodeJSON(data)
	if err != nil {
		return nil, nil, &ParseError{Source: opts.Source, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}
	return buildDocument(raw, opts)
}

// decodeJSON decodes a JSON document through the token stream so that object
// keys keep their order; map-based decoders lose it.
func decodeJSON(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := decodeJSONValue(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("unexpected data after top-level value")
	}
	return v, nil
}

func decodeJSONValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			m := docMap{}
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := kt.(string)
				if !ok {
					return nil, fmt.Errorf("object key is %T, not a string", kt)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				m = append(m, docItem{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return m, nil
		case '[':
			list := []any{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				list = append(list, val)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return list, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", t)
	case json.Number:
		return t.String(), nil
	default:
		return t, nil
	}
}

// normalizeYAML converts goccy ordered maps into docMap recursively.
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case yaml.MapSlice:
		m := make(docMap, 0, len(t))
		for _, item := range t {
			m = append(m, docItem{Key: scalarString(item.Key), Value: normalizeYAML(item.Value)})
		}
		return m
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		m := make(docMap, 0, len(t))
		for _, k := range keys {
			m = append(m, docItem{Key: k, Value: normalizeYAML(t[k])})
		}
		return m
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeYAML(item)
		}
		return out
	default:
		return t
	}
}

func scalarString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

// docBuilder turns a normalized document into entries, applying the
// bad-entry policy with document paths as context.
type docBuilder struct {
	recoverer
}

func buildDocument(raw any, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	b := &docBuilder{recoverer: recoverer{opts: opts}}
	entries, err := b.items(raw, "", 0)
	if err != nil {
		return nil, nil, err
	}
	return &Blueprint{Entries: entries}, b.diagnostics, nil
}

// items builds the entries held by a value: a sequence of items, a node
// object, a name-keyed mapping or a bare name.
func (b *docBuilder) items(v any, path string, depth int) ([]*Entry, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []any:
		var out []*Entry
		for i, item := range t {
			itemPath := fmt.Sprintf("%s[%d]", path, i)
			if item == nil {
				if err := b.reject(itemPath, "", fmt.Errorf("%w: empty item", ErrMalformedEntry)); err != nil {
					return nil, err
				}
				continue
			}
			entries, err := b.items(item, itemPath, depth)
			if err != nil {
				return nil, err
			}
			out = append(out, entries...)
		}
		return out, nil
	case docMap:
		if isNodeObject(t) {
			e, err := b.node(t, path, depth)
			if err != nil || e == nil {
				return nil, err
			}
			return []*Entry{e}, nil
		}
		var out []*Entry
		for _, item := range t {
			e, err := b.keyed(item.Key, item.Value, fmt.Sprintf("%s[%q]", path, item.Key), depth)
			if err != nil {
				return nil, err
			}
			if e != nil {
				out = append(out, e)
			}
		}
		return out, nil
	default:
		e, err := b.leaf(scalarString(t), path, depth)
		if err != nil || e == nil {
			return nil, err
		}
		return []*Entry{e}, nil
	}
}

// leaf builds an entry from a bare name such as "README.md" or "docs/".
func (b *docBuilder) leaf(raw, path string, depth int) (*Entry, error) {
	name, kind := splitKind(strings.TrimSpace(raw))
	if err := ValidateName(name); err != nil {
		return nil, b.reject(path, raw, err)
	}
	return &Entry{Name: name, Kind: kind, Depth: depth}, nil
}

// keyed builds an entry from the shorthand form "name: value" where value is
// null, a type tag, or the directory's children.
func (b *docBuilder) keyed(key string, value any, path string, depth int) (*Entry, error) {
	name, kind := splitKind(strings.TrimSpace(key))
	if err := ValidateName(name); err != nil {
		return nil, b.reject(path, key, err)
	}
	e := &Entry{Name: name, Kind: kind, Depth: depth}

	switch t := value.(type) {
	case nil:
		return e, nil
	case docMap, []any:
		e.Kind = Directory
		children, err := b.items(t, path, depth+1)
		if err != nil {
			return nil, err
		}
		e.Children = children
		return e, nil
	default:
		tag := scalarString(t)
		if tag == "" {
			return e, nil
		}
		k, ok := parseKindTag(tag)
		if !ok {
			return b.retype(e, path, fmt.Errorf("%w: %q", ErrUnknownType, tag))
		}
		if k == File && kind == Directory {
			return b.retype(e, path, fmt.Errorf("%w: type file conflicts with trailing separator", ErrMalformedEntry))
		}
		e.Kind = k
		return e, nil
	}
}

// node builds an entry from an explicit {name, type, children} object.
func (b *docBuilder) node(m docMap, path string, depth int) (*Entry, error) {
	rawName, _ := m.get(keyName)
	name, kind := splitKind(strings.TrimSpace(scalarString(rawName)))
	if err := ValidateName(name); err != nil {
		return nil, b.reject(path, scalarString(rawName), err)
	}
	e := &Entry{Name: name, Kind: kind, Depth: depth}

	children, hasChildren := m.get(keyChildren)
	if hasChildren {
		e.Kind = Directory
	}

	if rawType, ok := m.get(keyType); ok && rawType != nil {
		k, known := parseKindTag(scalarString(rawType))
		switch {
		case !known:
			fixed, err := b.retype(e, path, fmt.Errorf("%w: %q", ErrUnknownType, scalarString(rawType)))
			if err != nil || fixed == nil {
				return nil, err
			}
		case k == File && (kind == Directory || hasNonEmpty(children)):
			reason := "file has children"
			if kind == Directory {
				reason = "type file conflicts with trailing separator"
			}
			if err := b.malformed(path, name, reason, "promoted to directory"); err != nil {
				return nil, err
			}
			if b.opts.BadEntries == SkipBadEntries {
				return nil, nil
			}
			e.Kind = Directory
		default:
			e.Kind = k
		}
	}

	if e.Kind == Directory && children != nil {
		kids, err := b.items(children, path+".children", depth+1)
		if err != nil {
			return nil, err
		}
		e.Children = kids
	}
	return e, nil
}

// reject handles an entry that cannot be repaired: strict fails, skip and
// fix both drop it. A nil return means the caller should drop the entry.
func (b *docBuilder) reject(path, name string, err error) error {
	if b.opts.BadEntries == Strict {
		return b.fail(0, path, name, err)
	}
	b.note(0, path, name, ActionSkipped, err.Error())
	return nil
}

// malformed handles a repairable entry: strict fails, skip records a skip,
// fix records the repair described by fix.
func (b *docBuilder) malformed(path, name, reason, fix string) error {
	switch b.opts.BadEntries {
	case Strict:
		return b.fail(0, path, name, fmt.Errorf("%w: %s", ErrMalformedEntry, reason))
	case SkipBadEntries:
		b.note(0, path, name, ActionSkipped, reason)
	default:
		b.note(0, path, name, ActionFixed, reason+"; "+fix)
	}
	return nil
}

// retype handles an unusable type tag. Under fix the kind falls back to what
// the name suffix and children imply; under skip the entry is dropped.
func (b *docBuilder) retype(e *Entry, path string, cause error) (*Entry, error) {
	switch b.opts.BadEntries {
	case Strict:
		return nil, b.fail(0, path, e.Name, cause)
	case SkipBadEntries:
		b.note(0, path, e.Name, ActionSkipped, cause.Error())
		return nil, nil
	default:
		b.note(0, path, e.Name, ActionFixed, fmt.Sprintf("%v; kept as %s", cause, e.Kind))
		return e, nil
	}
}

// isNodeObject reports whether m is an explicit node: a scalar "name" and no
// keys other than name, type and children.
func isNodeObject(m docMap) bool {
	name, ok := m.get(keyName)
	if !ok || name == nil {
		return false
	}
	switch name.(type) {
	case docMap, []any:
		return false
	}
	for _, item := range m {
		switch item.Key {
		case keyName, keyType, keyChildren:
		default:
			return false
		}
	}
	return true
}

func hasNonEmpty(v any) bool {
	switch t := v.(type) {
	case docMap:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return v != nil
}

// parseKindTag maps a type tag to a Kind.
func parseKindTag(tag string) (Kind, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "file", "f":
		return File, true
	case "directory", "dir", "folder", "d":
		return Directory, true
	}
	return File, false
}
