package frontend

import (
	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/diag"
	"formula/internal/schema"
	"formula/internal/sema"
	"formula/internal/types"
)

// TestResult is what authoring tools need to know about a formula without
// compiling it.
type TestResult struct {
	IsValid   bool
	IsLiteral bool
	Type      types.PrimaryType
	Bag       *diag.Bag
}

// Test validates and type-checks src. When expected is not Invalid the
// result type must satisfy it, with the same SemReturnMismatch a compiler
// would report.
func Test(src string, sch *schema.Node, table *builtins.Table, expected types.PrimaryType) TestResult {
	return TestWith(src, expected, Options{Schema: sch, Builtins: table})
}

// TestWith is Test with full control over the analysis options.
func TestWith(src string, expected types.PrimaryType, opts Options) TestResult {
	opts.Stage = StageAll
	res := Analyze(src, opts)
	out := TestResult{Type: res.Type, Bag: res.Bag}
	if res.Builder != nil && res.Root.IsValid() {
		out.IsLiteral = IsLiteral(res.Builder, res.Root)
	}
	if !res.Ok() {
		return out
	}
	reporter := diag.BagReporter{Bag: res.Bag, File: res.File}
	sema.CheckResult(res.Builder, res.Root, res.Type, expected, reporter)
	out.IsValid = !res.Bag.HasErrors()
	return out
}

// IsLiteral reports whether the formula is a constant: after stripping
// parentheses, a literal or a minus applied to a numeric literal.
func IsLiteral(b *ast.Builder, root ast.ExprID) bool {
	id := b.Exprs.Unparen(root)
	expr := b.Exprs.Get(id)
	if expr == nil {
		return false
	}
	switch expr.Kind {
	case ast.ExprLit:
		return true
	case ast.ExprUnary:
		un, _ := b.Exprs.Unary(id)
		if un.Op != ast.ExprUnaryNeg {
			return false
		}
		lit, ok := b.Exprs.Literal(b.Exprs.Unparen(un.Operand))
		return ok && lit.Kind == ast.ExprLitNumber
	default:
		return false
	}
}
