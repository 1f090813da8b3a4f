package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"formula/internal/diag"
	"formula/internal/source"
)

type palette struct {
	err, warn, info, note, code, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		err:    color.New(color.FgRed, color.Bold),
		warn:   color.New(color.FgYellow, color.Bold),
		info:   color.New(color.FgCyan, color.Bold),
		note:   color.New(color.FgBlue, color.Bold),
		code:   color.New(color.Bold),
		gutter: color.New(color.FgBlue),
		caret:  color.New(color.FgGreen, color.Bold),
	}
	for _, c := range []*color.Color{p.err, p.warn, p.info, p.note, p.code, p.gutter, p.caret} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) severity(s diag.Severity) *color.Color {
	switch s {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Для каждой диагностики:
//
//	<path>:<line>:<col>: ERROR SEM3004: <message>
//	   1 | 1 + true
//	     |     ^~~~
//
// затем заметки в том же формате, если включены.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		f := fs.Get(d.Primary.File)
		start, _ := fs.Resolve(d.Primary)
		fmt.Fprintf(w, "%s:%d:%d: %s %s: %s\n",
			displayPath(f, fs, opts.PathMode), start.Line, start.Col,
			pal.severity(d.Severity).Sprint(d.Severity.String()),
			pal.code.Sprint(d.Code.ID()), d.Message)
		writeSnippet(w, f, d.Primary, opts.Context, pal, pal.caret)

		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			nf := fs.Get(n.Span.File)
			ns, _ := fs.Resolve(n.Span)
			fmt.Fprintf(w, "  %s %s:%d:%d: %s\n", pal.note.Sprint("note:"),
				displayPath(nf, fs, opts.PathMode), ns.Line, ns.Col, n.Msg)
			writeSnippet(w, nf, n.Span, 0, pal, pal.note)
		}
	}
}

// writeSnippet prints the line holding span with context lines before it
// and a caret run under the span. Columns are counted in terminal cells.
func writeSnippet(w io.Writer, f *source.File, span source.Span, context int8, pal palette, caret *color.Color) {
	if f == nil {
		return
	}
	pos := f.Position(span.Start)
	first := uint32(1)
	if uint32(max(context, 0)) < pos.Line {
		first = pos.Line - uint32(max(context, 0))
	}
	gutterWidth := len(fmt.Sprint(pos.Line))

	for ln := first; ln <= pos.Line; ln++ {
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", gutterWidth+2, ln), f.GetLine(ln))
	}

	line := f.GetLine(pos.Line)
	col := min(int(pos.Col-1), len(line))
	pad := runewidth.StringWidth(strings.Map(tabToSpace, line[:col]))

	text := f.Text(span)
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[:nl]
	}
	width := max(runewidth.StringWidth(text), 1)

	marker := "^" + strings.Repeat("~", width-1)
	fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", gutterWidth+2, ""),
		strings.Repeat(" ", pad), caret.Sprint(marker))
}

func tabToSpace(r rune) rune {
	if r == '\t' {
		return ' '
	}
	return r
}
