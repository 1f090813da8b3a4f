package sema

import (
	"fmt"

	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/types"
)

// CheckResult reports SemReturnMismatch when the formula's type does not
// satisfy want. want == Invalid disables the check.
func CheckResult(b *ast.Builder, root ast.ExprID, got, want types.PrimaryType, r diag.Reporter) bool {
	if want == types.Invalid || got.Matches(want) {
		return true
	}
	span := b.Exprs.Get(root).Span
	diag.ReportError(r, diag.SemReturnMismatch, span,
		fmt.Sprintf("formula must produce %s, got %s", want, got)).Emit()
	return false
}
