package diagfmt

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"formula/internal/ast"
	"formula/internal/source"
	"formula/internal/types"
)

// ErrNoRoot is returned when there is no tree to print.
var ErrNoRoot = errors.New("diagfmt: no root expression")

// TypeSource gives the inferred type of a node. sema.TypeTable satisfies it.
type TypeSource interface {
	Of(id ast.ExprID) types.PrimaryType
}

type ASTNodeOutput struct {
	Type     string          `json:"type"`
	Kind     string          `json:"kind,omitempty"`
	Span     source.Span     `json:"span"`
	Text     string          `json:"text,omitempty"`
	Result   string          `json:"result,omitempty"`
	Children []ASTNodeOutput `json:"children,omitempty"`
}

// FormatASTPretty печатает дерево с отступами:
//
//	Binary + [Number] (1:1-1:6)
//	├─ Literal 1 [Number] (1:1-1:2)
//	└─ Literal 2 [Number] (1:5-1:6)
func FormatASTPretty(w io.Writer, b *ast.Builder, root ast.ExprID, fs *source.FileSet, ts TypeSource) error {
	if b == nil || !root.IsValid() {
		return ErrNoRoot
	}
	var sb strings.Builder
	writePretty(&sb, b, root, fs, ts, "", "")
	_, err := io.WriteString(w, sb.String())
	return err
}

func writePretty(sb *strings.Builder, b *ast.Builder, id ast.ExprID, fs *source.FileSet, ts TypeSource, head, indent string) {
	sb.WriteString(head)
	sb.WriteString(nodeLabel(b, id, ts))
	if e := b.Exprs.Get(id); e != nil {
		fmt.Fprintf(sb, " (%s)", formatSpan(e.Span, fs))
	}
	sb.WriteByte('\n')

	children := b.Exprs.Children(id)
	for i, child := range children {
		if i == len(children)-1 {
			writePretty(sb, b, child, fs, ts, indent+"└─ ", indent+"   ")
		} else {
			writePretty(sb, b, child, fs, ts, indent+"├─ ", indent+"│  ")
		}
	}
}

// FormatASTJSON выводит дерево в JSON.
func FormatASTJSON(w io.Writer, b *ast.Builder, root ast.ExprID, ts TypeSource) error {
	if b == nil || !root.IsValid() {
		return ErrNoRoot
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(buildJSON(b, root, ts))
}

func buildJSON(b *ast.Builder, id ast.ExprID, ts TypeSource) ASTNodeOutput {
	e := b.Exprs.Get(id)
	if e == nil {
		return ASTNodeOutput{Type: "<nil>"}
	}
	out := ASTNodeOutput{
		Type: e.Kind.String(),
		Kind: nodeDetail(b, id),
		Span: e.Span,
	}
	if lit, ok := b.Exprs.Literal(id); ok {
		out.Text = b.Name(lit.Text)
	}
	if ts != nil {
		if t := ts.Of(id); t != types.Invalid {
			out.Result = t.String()
		}
	}
	for _, child := range b.Exprs.Children(id) {
		out.Children = append(out.Children, buildJSON(b, child, ts))
	}
	return out
}

// FormatASTTree рисует дерево сверху вниз в ASCII.
func FormatASTTree(w io.Writer, b *ast.Builder, root ast.ExprID) error {
	if b == nil || !root.IsValid() {
		return ErrNoRoot
	}
	for _, line := range layoutTree(b, root).lines {
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

// nodeDetail is the operator, literal text, call name or dotted path.
func nodeDetail(b *ast.Builder, id ast.ExprID) string {
	e := b.Exprs.Get(id)
	if e == nil {
		return ""
	}
	switch e.Kind {
	case ast.ExprTernary:
		return "?:"
	case ast.ExprLogical:
		d, _ := b.Exprs.Logical(id)
		return d.Op.String()
	case ast.ExprBinary:
		d, _ := b.Exprs.Binary(id)
		return d.Op.String()
	case ast.ExprUnary:
		d, _ := b.Exprs.Unary(id)
		return d.Op.String()
	case ast.ExprLit:
		d, _ := b.Exprs.Literal(id)
		if text := b.Name(d.Text); text != "" {
			return text
		}
		if d.Kind == ast.ExprLitBool {
			return strconv.FormatBool(d.Bool)
		}
		return strconv.FormatFloat(d.Number, 'g', -1, 64)
	case ast.ExprCall:
		d, _ := b.Exprs.Call(id)
		return b.Name(d.Name) + "()"
	case ast.ExprRef:
		d, _ := b.Exprs.Ref(id)
		return b.DottedPath(d, 0)
	case ast.ExprGroup:
		return "()"
	}
	return ""
}

func nodeLabel(b *ast.Builder, id ast.ExprID, ts TypeSource) string {
	e := b.Exprs.Get(id)
	if e == nil {
		return "<nil>"
	}
	label := e.Kind.String()
	if detail := nodeDetail(b, id); detail != "" && e.Kind != ast.ExprGroup {
		label += " " + detail
	}
	if ts != nil {
		if t := ts.Of(id); t != types.Invalid {
			label += " [" + t.String() + "]"
		}
	}
	return label
}

func formatSpan(span source.Span, fs *source.FileSet) string {
	if fs != nil {
		start, end := fs.Resolve(span)
		return fmt.Sprintf("%d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
	}
	return fmt.Sprintf("span(%d-%d)", span.Start, span.End)
}
