package blueprint

import (
	"bufio"
	"bytes"
	"fmt"
	"strings"
)

// textFrame is an open directory on the depth stack. rawDepth is the depth
// the source line was written at, which differs from entry.Depth once an
// ancestor has been moved by the fix policy.
type textFrame struct {
	entry    *Entry
	rawDepth int
}

// parseText reads the indentation-based format with an explicit depth stack.
// Every line is compared against the innermost open directory: shallower
// lines pop, one level deeper is a child, anything deeper is malformed.
func parseText(data []byte, opts ParseOptions) (*Blueprint, []Diagnostic, error) {
	r := &recoverer{opts: opts}
	bp := &Blueprint{}

	var (
		stack     []textFrame
		last      *textFrame // last accepted entry, file or directory
		dropDepth = -1       // descendants of a skipped entry are skipped too
	)

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNum := 0
	for sc.Scan() {
		lineNum++
		raw := strings.TrimRight(sc.Text(), " \t\r")
		if lineNum == 1 {
			raw = strings.TrimPrefix(raw, "\ufeff")
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}

		cols, rest := leadingColumns(raw, opts.TabWidth)
		depth := cols / opts.IndentWidth
		name, kind := splitKind(rest)

		if dropDepth >= 0 {
			if depth > dropDepth {
				r.note(lineNum, "", rest, ActionSkipped, "parent entry was skipped")
				continue
			}
			dropDepth = -1
		}

		if err := ValidateName(name); err != nil {
			if opts.BadEntries == Strict {
				return nil, nil, r.fail(lineNum, "", rest, err)
			}
			r.note(lineNum, "", rest, ActionSkipped, err.Error())
			dropDepth = depth
			continue
		}

		if cols%opts.IndentWidth != 0 {
			reason := fmt.Sprintf("indentation of %d columns is not a multiple of %d", cols, opts.IndentWidth)
			switch opts.BadEntries {
			case Strict:
				return nil, nil, r.fail(lineNum, "", rest, fmt.Errorf("%w: %s", ErrMalformedEntry, reason))
			case SkipBadEntries:
				r.note(lineNum, "", rest, ActionSkipped, reason)
				dropDepth = depth
				continue
			default:
				r.note(lineNum, "", rest, ActionFixed, fmt.Sprintf("%s; rounded down to depth %d", reason, depth))
			}
		}

		for len(stack) > 0 && stack[len(stack)-1].rawDepth >= depth {
			stack = stack[:len(stack)-1]
		}

		want := 0
		if len(stack) > 0 {
			want = stack[len(stack)-1].rawDepth + 1
		}
		if depth > want {
			reason := fmt.Sprintf("depth %d skips levels (expected at most %d)", depth, want)
			if last != nil && last.entry.Kind == File && last.rawDepth == depth-1 {
				reason = fmt.Sprintf("parent %q is a file", last.entry.Name)
			}
			switch opts.BadEntries {
			case Strict:
				return nil, nil, r.fail(lineNum, "", rest, fmt.Errorf("%w: %s", ErrMalformedEntry, reason))
			case SkipBadEntries:
				r.note(lineNum, "", rest, ActionSkipped, reason)
				dropDepth = depth
				continue
			default:
				r.note(lineNum, "", rest, ActionFixed, fmt.Sprintf("%s; moved to depth %d", reason, len(stack)))
			}
		}

		e := &Entry{Name: name, Kind: kind, Depth: len(stack), Line: lineNum}
		if len(stack) == 0 {
			bp.Entries = append(bp.Entries, e)
		} else {
			parent := stack[len(stack)-1].entry
			parent.Children = append(parent.Children, e)
		}

		frame := textFrame{entry: e, rawDepth: depth}
		if kind == Directory {
			stack = append(stack, frame)
		}
		last = &frame
	}
	if err := sc.Err(); err != nil {
		return nil, nil, &ParseError{Source: opts.Source, Line: lineNum + 1, Err: fmt.Errorf("%w: %v", ErrSyntax, err)}
	}

	return bp, r.diagnostics, nil
}

// leadingColumns measures the indentation of line in columns, counting a tab
// as tabWidth columns, and returns the remainder of the line.
func leadingColumns(line string, tabWidth int) (int, string) {
	cols := 0
	for i, c := range line {
		switch c {
		case ' ':
			cols++
		case '\t':
			cols += tabWidth
		default:
			return cols, line[i:]
		}
	}
	return cols, ""
}
