package parser_test

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/lexer"
	"formula/internal/parser"
	"formula/internal/source"
)

func parseInput(t testing.TB, input string) (*ast.Builder, parser.Result, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	file := fs.Get(fs.AddVirtual("test", []byte(input)))
	bag := diag.NewBag(diag.DefaultMax)
	rep := diag.BagReporter{Bag: bag, File: file}
	toks := lexer.Tokenize(file, lexer.Options{Reporter: rep})
	if bag.HasErrors() {
		t.Fatalf("%q: lexer diagnostics: %s", input, diagnosticsSummary(bag))
	}
	b := ast.NewBuilder(ast.Hints{}, nil)
	return b, parser.Parse(toks, b, parser.Options{Reporter: rep}), bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

// sexpr renders the tree fully parenthesised so tests can assert shape.
func sexpr(b *ast.Builder, id ast.ExprID) string {
	e := b.Exprs.Get(id)
	switch e.Kind {
	case ast.ExprTernary:
		d, _ := b.Exprs.Ternary(id)
		return fmt.Sprintf("(? %s %s %s)", sexpr(b, d.Cond), sexpr(b, d.Then), sexpr(b, d.Else))
	case ast.ExprLogical:
		d, _ := b.Exprs.Logical(id)
		return fmt.Sprintf("(%s %s %s)", d.Op, sexpr(b, d.Left), sexpr(b, d.Right))
	case ast.ExprBinary:
		d, _ := b.Exprs.Binary(id)
		return fmt.Sprintf("(%s %s %s)", d.Op, sexpr(b, d.Left), sexpr(b, d.Right))
	case ast.ExprUnary:
		d, _ := b.Exprs.Unary(id)
		return fmt.Sprintf("(%s %s)", d.Op, sexpr(b, d.Operand))
	case ast.ExprLit:
		d, _ := b.Exprs.Literal(id)
		if d.Kind == ast.ExprLitBool {
			return strconv.FormatBool(d.Bool)
		}
		return strconv.FormatFloat(d.Number, 'g', -1, 64)
	case ast.ExprCall:
		d, _ := b.Exprs.Call(id)
		parts := []string{b.Name(d.Name)}
		for _, a := range d.Args {
			parts = append(parts, sexpr(b, a))
		}
		return "(call " + strings.Join(parts, " ") + ")"
	case ast.ExprRef:
		d, _ := b.Exprs.Ref(id)
		return b.DottedPath(d, 0)
	case ast.ExprGroup:
		d, _ := b.Exprs.Group(id)
		return "[" + sexpr(b, d.Inner) + "]"
	}
	return "?"
}
