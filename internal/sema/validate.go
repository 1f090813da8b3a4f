package sema

import (
	"fmt"
	"strings"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/diag"
)

// Validate checks every reference against the schema and every call against
// the builtin table (name and arity). It returns false when anything was
// reported. Argument types are left to Check.
func Validate(b *ast.Builder, root ast.ExprID, opts Options) bool {
	v := validator{builder: b, opts: opts}
	b.Exprs.Walk(root, v.visit)
	return v.errors == 0
}

type validator struct {
	builder *ast.Builder
	opts    Options
	errors  int
}

func (v *validator) visit(id ast.ExprID, expr *ast.Expr) bool {
	switch expr.Kind {
	case ast.ExprRef:
		data, _ := v.builder.Exprs.Ref(id)
		v.checkRef(data)
	case ast.ExprCall:
		data, _ := v.builder.Exprs.Call(id)
		v.checkCall(expr, data)
	case ast.ExprTernary, ast.ExprLogical, ast.ExprBinary, ast.ExprUnary, ast.ExprLit, ast.ExprGroup:
	}
	return true
}

func (v *validator) checkRef(data *ast.ExprRefData) {
	matched := 0
	if v.opts.Schema != nil {
		var ok bool
		if _, matched, ok = v.opts.Schema.Resolve(v.builder.RefPath(data)); ok {
			return
		}
	}
	full := v.builder.DottedPath(data, 0)
	span := data.Spans[0].Cover(data.Spans[len(data.Spans)-1])
	note := fmt.Sprintf("'%s' is not defined", v.builder.Name(data.Segments[0]))
	if matched > 0 {
		note = fmt.Sprintf("'%s' has no member '%s'",
			v.builder.DottedPath(data, matched), v.builder.Name(data.Segments[matched]))
	}
	diag.ReportError(v.opts.Reporter, diag.SemUnknownReference, span,
		fmt.Sprintf("unknown reference '%s'", full)).
		WithNote(data.Spans[matched], note).
		Emit()
	v.errors++
}

func (v *validator) checkCall(expr *ast.Expr, data *ast.ExprCallData) {
	name := v.builder.Name(data.Name)
	fn, ok := lookupBuiltin(v.opts.Builtins, name)
	if !ok {
		b := diag.ReportError(v.opts.Reporter, diag.SemUnknownFunction, data.NameSpan, fmt.Sprintf("unknown function '%s'", name))
		if v.opts.Builtins != nil {
			b.WithNote(data.NameSpan, "known functions: "+strings.Join(v.opts.Builtins.Names(), ", "))
		}
		b.Emit()
		v.errors++
		return
	}
	if want, got := fn.Sig.Arity(), len(data.Args); want != got {
		diag.ReportError(v.opts.Reporter, diag.SemArityMismatch, expr.Span,
			fmt.Sprintf("function '%s' expects %d %s, got %d", name, want, plural(want, "argument"), got)).
			WithNote(data.NameSpan, "signature: "+fn.Sig.String()).
			Emit()
		v.errors++
	}
}

func lookupBuiltin(t *builtins.Table, name string) (*builtins.Builtin, bool) {
	if t == nil {
		return nil, false
	}
	return t.Lookup(name)
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
