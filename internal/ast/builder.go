package ast

import (
	"strings"

	"formula/internal/source"
)

type Hints struct{ Exprs uint }

// Builder owns every node of one parsed formula together with the interned
// identifier text the nodes point at.
type Builder struct {
	Exprs   *Exprs
	Strings *source.Interner
}

func NewBuilder(hints Hints, strings *source.Interner) *Builder {
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Builder{
		Exprs:   NewExprs(hints.Exprs),
		Strings: strings,
	}
}

// Name resolves an interned identifier.
func (b *Builder) Name(id source.StringID) string {
	s, _ := b.Strings.Lookup(id)
	return s
}

// RefPath returns the reference segments as plain strings.
func (b *Builder) RefPath(data *ExprRefData) []string {
	out := make([]string, len(data.Segments))
	for i, seg := range data.Segments {
		out[i] = b.Name(seg)
	}
	return out
}

// DottedPath joins the first n segments with dots; n<=0 means all.
func (b *Builder) DottedPath(data *ExprRefData, n int) string {
	if n <= 0 || n > len(data.Segments) {
		n = len(data.Segments)
	}
	return strings.Join(b.RefPath(data)[:n], ".")
}
