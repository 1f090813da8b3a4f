package diag

import (
	"cmp"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"formula/internal/source"
)

// shortLine is one row of the short format.
type shortLine struct {
	label   string
	code    string
	path    string
	line    uint32
	col     uint32
	message string
}

// FormatShort prints one diagnostic per line,
//
//	error SEM3004 content/hero.toml[formulas.hit]:1:5 message
//
// with 1-based positions, ordered by location then code. Real files are
// shown relative to the file set base dir; virtual ones (inline
// expressions, content formulas) by name. Notes get their own "note" rows.
func FormatShort(diags []Diagnostic, fs *source.FileSet, withNotes bool) string {
	if fs == nil {
		return ""
	}
	var rows []shortLine
	for i := range diags {
		d := &diags[i]
		rows = appendShort(rows, fs, strings.ToLower(d.Severity.String()), d.Code, d.Primary, d.Message)
		if withNotes {
			for _, n := range d.Notes {
				rows = appendShort(rows, fs, "note", d.Code, n.Span, n.Msg)
			}
		}
	}
	slices.SortStableFunc(rows, func(a, b shortLine) int {
		return cmp.Or(
			cmp.Compare(a.path, b.path),
			cmp.Compare(a.line, b.line),
			cmp.Compare(a.col, b.col),
			cmp.Compare(a.code, b.code),
			cmp.Compare(a.message, b.message),
		)
	})
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = fmt.Sprintf("%s %s %s:%d:%d %s", r.label, r.code, r.path, r.line, r.col, r.message)
	}
	return strings.Join(out, "\n")
}

func appendShort(rows []shortLine, fs *source.FileSet, label string, code Code, span source.Span, msg string) []shortLine {
	f := fs.Get(span.File)
	if f == nil {
		return rows
	}
	start, _ := fs.Resolve(span)
	path := f.Path
	if f.Flags&source.FileVirtual == 0 {
		path = strings.TrimPrefix(filepath.ToSlash(f.FormatPath("relative", fs.BaseDir())), "./")
	}
	return append(rows, shortLine{
		label:   label,
		code:    code.ID(),
		path:    path,
		line:    start.Line,
		col:     start.Col,
		message: strings.Join(strings.Fields(msg), " "),
	})
}
