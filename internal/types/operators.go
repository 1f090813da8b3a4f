package types

import "formula/internal/ast"

// BinaryRule describes what an operator accepts and yields.
type BinaryRule struct {
	// Operand is the type both sides must match; Invalid means any type.
	Operand PrimaryType
	Result  PrimaryType
}

// BinaryRuleFor returns the typing rule for a binary operator.
func BinaryRuleFor(op ast.ExprBinaryOp) BinaryRule {
	switch {
	case op.IsEquality():
		return BinaryRule{Operand: Invalid, Result: Boolean}
	case op.IsArithmetic():
		return BinaryRule{Operand: Number, Result: Number}
	default:
		return BinaryRule{Operand: Number, Result: Boolean}
	}
}

// UnaryRuleFor returns the typing rule for a unary operator. '!' accepts any
// operand through truthiness.
func UnaryRuleFor(op ast.ExprUnaryOp) BinaryRule {
	if op == ast.ExprUnaryNot {
		return BinaryRule{Operand: Invalid, Result: Boolean}
	}
	return BinaryRule{Operand: Number, Result: Number}
}
