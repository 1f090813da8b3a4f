package sema

import (
	"fmt"

	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/types"
)

// Check infers the type of every node under root. It must only run on a
// tree that passed Validate. Every mismatch is reported; the returned
// table is filled even when errors were found.
func Check(b *ast.Builder, root ast.ExprID, opts Options) (*TypeTable, bool) {
	tc := typeChecker{builder: b, opts: opts, table: newTypeTable(b)}
	tc.typeExpr(root)
	return tc.table, tc.errors == 0
}

type typeChecker struct {
	builder *ast.Builder
	opts    Options
	table   *TypeTable
	errors  int
}

func (tc *typeChecker) typeExpr(id ast.ExprID) types.PrimaryType {
	t := tc.infer(id)
	tc.table.set(id, t)
	return t
}

func (tc *typeChecker) infer(id ast.ExprID) types.PrimaryType {
	expr := tc.builder.Exprs.Get(id)
	switch expr.Kind {
	case ast.ExprLit:
		lit, _ := tc.builder.Exprs.Literal(id)
		if lit.Kind == ast.ExprLitNumber {
			return types.Number
		}
		return types.Boolean

	case ast.ExprRef:
		ref, _ := tc.builder.Exprs.Ref(id)
		if tc.opts.Schema == nil {
			return types.Invalid
		}
		t, _, _ := tc.opts.Schema.Resolve(tc.builder.RefPath(ref))
		return t

	case ast.ExprGroup:
		g, _ := tc.builder.Exprs.Group(id)
		return tc.typeExpr(g.Inner)

	case ast.ExprUnary:
		u, _ := tc.builder.Exprs.Unary(id)
		rule := types.UnaryRuleFor(u.Op)
		operand := tc.typeExpr(u.Operand)
		if rule.Operand != types.Invalid {
			tc.expect(u.Operand, operand, rule.Operand, fmt.Sprintf("operator '%s'", u.Op), "operand")
		}
		return rule.Result

	case ast.ExprBinary:
		bin, _ := tc.builder.Exprs.Binary(id)
		rule := types.BinaryRuleFor(bin.Op)
		left := tc.typeExpr(bin.Left)
		right := tc.typeExpr(bin.Right)
		if rule.Operand != types.Invalid {
			what := fmt.Sprintf("operator '%s'", bin.Op)
			tc.expect(bin.Left, left, rule.Operand, what, "left operand")
			tc.expect(bin.Right, right, rule.Operand, what, "right operand")
		}
		return rule.Result

	case ast.ExprLogical:
		l, _ := tc.builder.Exprs.Logical(id)
		return types.Join(tc.typeExpr(l.Left), tc.typeExpr(l.Right))

	case ast.ExprTernary:
		t, _ := tc.builder.Exprs.Ternary(id)
		// тип условия не важен: истинность
		tc.typeExpr(t.Cond)
		return types.Join(tc.typeExpr(t.Then), tc.typeExpr(t.Else))

	case ast.ExprCall:
		call, _ := tc.builder.Exprs.Call(id)
		name := tc.builder.Name(call.Name)
		fn, ok := lookupBuiltin(tc.opts.Builtins, name)
		for i, arg := range call.Args {
			at := tc.typeExpr(arg)
			if ok && i < fn.Sig.Arity() {
				tc.expect(arg, at, fn.Sig.Args[i], fmt.Sprintf("function '%s'", name), fmt.Sprintf("argument %d", i+1))
			}
		}
		if !ok {
			return types.Invalid
		}
		return fn.Sig.Return
	}
	panic(fmt.Sprintf("sema: unexpected expression kind %v", expr.Kind))
}

// expect reports when got does not satisfy want. Invalid means the node was
// already reported elsewhere and is not blamed twice.
func (tc *typeChecker) expect(id ast.ExprID, got, want types.PrimaryType, what, position string) {
	if got == types.Invalid || got.Matches(want) {
		return
	}
	span := tc.builder.Exprs.Get(id).Span
	diag.ReportError(tc.opts.Reporter, diag.SemTypeMismatch, span,
		fmt.Sprintf("%s expects %s as %s, got %s", what, want, position, got)).Emit()
	tc.errors++
}
