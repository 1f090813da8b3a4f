package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"formula/internal/ast"
	"formula/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed formula:
// 1) every node span is non-empty, points at sf and stays within its content
// 2) every child span is contained in its parent span
// 3) a group span strictly covers its inner expression (the parentheses)
func CheckSpanInvariants(b *ast.Builder, root ast.ExprID, sf *source.File) error {
	if b == nil || sf == nil {
		return fmt.Errorf("nil builder or file")
	}
	if !root.IsValid() {
		return fmt.Errorf("invalid root")
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	return checkNode(b, root, sf.ID, lenContent, nil)
}

func checkNode(b *ast.Builder, id ast.ExprID, file source.FileID, limit uint32, parent *ast.Expr) error {
	e := b.Exprs.Get(id)
	if e == nil {
		return fmt.Errorf("nil expr for id=%d", id)
	}
	sp := e.Span
	if sp.End <= sp.Start {
		return fmt.Errorf("%s: empty span %v", e.Kind, sp)
	}
	if sp.File != file {
		return fmt.Errorf("%s: span file mismatch: got=%d want=%d", e.Kind, sp.File, file)
	}
	if sp.End > limit {
		return fmt.Errorf("%s: span end beyond content: %d > %d", e.Kind, sp.End, limit)
	}
	if parent != nil {
		if !parent.Span.Contains(sp) {
			return fmt.Errorf("%s span %v is outside parent %s span %v", e.Kind, sp, parent.Kind, parent.Span)
		}
		if parent.Kind == ast.ExprGroup && (sp.Start <= parent.Span.Start || sp.End >= parent.Span.End) {
			return fmt.Errorf("group span %v does not enclose inner %v", parent.Span, sp)
		}
	}
	for _, child := range b.Exprs.Children(id) {
		if err := checkNode(b, child, file, limit, e); err != nil {
			return err
		}
	}
	return nil
}
