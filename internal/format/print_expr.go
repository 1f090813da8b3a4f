package format

import (
	"fmt"

	"formula/internal/ast"
)

// printExpr prints id in a slot that needs at least strength min. Outside
// Minimal mode the tree already carries every parenthesis it needs.
func (p *printer) printExpr(id ast.ExprID, min int) {
	if p.opt.Minimal {
		id = p.builder.Exprs.Unparen(id)
		if p.prec(id) < min {
			_ = p.writer.WriteByte('(')
			p.printNode(id)
			_ = p.writer.WriteByte(')')
			return
		}
	}
	p.printNode(id)
}

func (p *printer) printNode(id ast.ExprID) {
	w := p.writer
	expr := p.builder.Exprs.Get(id)
	switch expr.Kind {
	case ast.ExprLit:
		lit, _ := p.builder.Exprs.Literal(id)
		if lit.Kind == ast.ExprLitNumber {
			w.WriteString(formatNumber(lit.Number))
		} else if lit.Bool {
			w.WriteString("true")
		} else {
			w.WriteString("false")
		}

	case ast.ExprRef:
		ref, _ := p.builder.Exprs.Ref(id)
		for i, seg := range ref.Segments {
			if i > 0 {
				_ = w.WriteByte('.')
			}
			w.WriteString(p.builder.Name(seg))
		}

	case ast.ExprGroup:
		g, _ := p.builder.Exprs.Group(id)
		_ = w.WriteByte('(')
		p.printExpr(g.Inner, 0)
		_ = w.WriteByte(')')

	case ast.ExprUnary:
		u, _ := p.builder.Exprs.Unary(id)
		w.WriteString(u.Op.String())
		p.printExpr(u.Operand, precUnary)

	case ast.ExprBinary:
		bin, _ := p.builder.Exprs.Binary(id)
		prec := binaryPrec(bin.Op)
		p.printExpr(bin.Left, prec)
		w.Op(bin.Op.String(), p.opt.Compact)
		p.printExpr(bin.Right, prec+1)

	case ast.ExprLogical:
		lg, _ := p.builder.Exprs.Logical(id)
		prec := precAnd
		if lg.Op == ast.ExprLogicalOr {
			prec = precOr
		}
		p.printExpr(lg.Left, prec)
		w.Op(lg.Op.String(), p.opt.Compact)
		p.printExpr(lg.Right, prec+1)

	case ast.ExprTernary:
		t, _ := p.builder.Exprs.Ternary(id)
		p.printExpr(t.Cond, precOr)
		w.Op("?", p.opt.Compact)
		p.printExpr(t.Then, 0)
		w.Op(":", p.opt.Compact)
		p.printExpr(t.Else, 0)

	case ast.ExprCall:
		call, _ := p.builder.Exprs.Call(id)
		w.WriteString(p.builder.Name(call.Name))
		_ = w.WriteByte('(')
		for i, arg := range call.Args {
			if i > 0 {
				w.WriteString(", ")
			}
			p.printExpr(arg, 0)
		}
		_ = w.WriteByte(')')

	default:
		panic(fmt.Sprintf("format: unexpected expression kind %v", expr.Kind))
	}
}
