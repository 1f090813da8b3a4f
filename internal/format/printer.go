package format

import (
	"errors"
	"strconv"

	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/frontend"
)

type Options struct {
	// Compact drops the spaces around binary operators.
	Compact bool
	// Minimal drops parentheses written in the source and adds back only
	// the ones the grammar needs.
	Minimal bool
}

type printer struct {
	builder *ast.Builder
	writer  *Writer
	opt     Options
}

// Expr prints the tree under id.
func Expr(b *ast.Builder, id ast.ExprID, opt Options) string {
	p := printer{builder: b, writer: NewWriter(64), opt: opt}
	p.printExpr(id, 0)
	return p.writer.String()
}

// ErrInvalid is returned by Source when the text does not parse.
var ErrInvalid = errors.New("format: formula does not parse")

// Source parses src and prints it. On a syntax error the diagnostics are
// returned with ErrInvalid.
func Source(src string, opt Options) (string, *diag.Bag, error) {
	res := frontend.Analyze(src, frontend.Options{Stage: frontend.StageSyntax})
	if !res.Ok() {
		return "", res.Bag, ErrInvalid
	}
	return Expr(res.Builder, res.Root, opt), res.Bag, nil
}

// binding strengths, loosest first
const (
	precTernary = iota + 1
	precOr
	precAnd
	precEquality
	precComparison
	precAdditive
	precMultiplicative
	precPower
	precUnary
	precPrimary
)

func binaryPrec(op ast.ExprBinaryOp) int {
	switch op {
	case ast.ExprBinaryAdd, ast.ExprBinarySub:
		return precAdditive
	case ast.ExprBinaryMul, ast.ExprBinaryDiv, ast.ExprBinaryMod:
		return precMultiplicative
	case ast.ExprBinaryPow:
		return precPower
	case ast.ExprBinaryEq, ast.ExprBinaryNotEq:
		return precEquality
	default:
		return precComparison
	}
}

// prec is the binding strength of the node as printed.
func (p *printer) prec(id ast.ExprID) int {
	if p.opt.Minimal {
		id = p.builder.Exprs.Unparen(id)
	}
	switch expr := p.builder.Exprs.Get(id); expr.Kind {
	case ast.ExprTernary:
		return precTernary
	case ast.ExprLogical:
		lg, _ := p.builder.Exprs.Logical(id)
		if lg.Op == ast.ExprLogicalOr {
			return precOr
		}
		return precAnd
	case ast.ExprBinary:
		bin, _ := p.builder.Exprs.Binary(id)
		return binaryPrec(bin.Op)
	case ast.ExprUnary:
		return precUnary
	default:
		return precPrimary
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
