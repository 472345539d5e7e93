package blueprint

import (
	"fmt"
	"path"
)

// MergeBlueprints returns the union of existing and incoming. Entries are matched by
// name at each level; existing entries keep their position and incoming-only
// entries follow in their own order. Matching directories are merged
// recursively. A name that is a file on one side and a directory on the other
// fails with ErrKindConflict. Neither input is modified.
func MergeBlueprints(existing, incoming *Blueprint) (*Blueprint, error) {
	var base, add []*Entry
	if existing != nil {
		base = existing.Entries
	}
	if incoming != nil {
		add = incoming.Entries
	}

	entries, err := mergeEntries(base, add, "")
	if err != nil {
		return nil, err
	}
	out := &Blueprint{}
	for _, e := range entries {
		out.Add(e)
	}
	return out, nil
}

func mergeEntries(base, add []*Entry, prefix string) ([]*Entry, error) {
	out := make([]*Entry, 0, len(base)+len(add))
	index := make(map[string]int, len(base))
	for _, e := range base {
		if _, dup := index[e.Name]; !dup {
			index[e.Name] = len(out)
		}
		out = append(out, e.clone())
	}

	for _, e := range add {
		i, ok := index[e.Name]
		if !ok {
			index[e.Name] = len(out)
			out = append(out, e.clone())
			continue
		}

		cur := out[i]
		rel := path.Join(prefix, e.Name)
		if cur.Kind != e.Kind {
			return nil, fmt.Errorf("entry %s is a %s in the existing blueprint and a %s in the new one: %w",
				rel, cur.Kind, e.Kind, ErrKindConflict)
		}
		if cur.Kind == Directory {
			children, err := mergeEntries(cur.Children, e.Children, rel)
			if err != nil {
				return nil, err
			}
			cur.Children = children
		}
	}
	return out, nil
}
