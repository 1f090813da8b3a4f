package value

import (
	"math"

	"formula/internal/ast"
)

// BinaryFn is a pre-resolved binary operator.
type BinaryFn func(l, r Value) Value

// BinaryFunc resolves op once so compiled code does not switch per call.
// Operands are projected to numbers, so booleans arriving through a
// NumberOrBoolean join count as 0/1. Unknown operators panic.
func BinaryFunc(op ast.ExprBinaryOp) BinaryFn {
	switch op {
	case ast.ExprBinaryAdd:
		return func(l, r Value) Value { return Number(l.Num() + r.Num()) }
	case ast.ExprBinarySub:
		return func(l, r Value) Value { return Number(l.Num() - r.Num()) }
	case ast.ExprBinaryMul:
		return func(l, r Value) Value { return Number(l.Num() * r.Num()) }
	case ast.ExprBinaryDiv:
		return func(l, r Value) Value { return Number(l.Num() / r.Num()) }
	case ast.ExprBinaryMod:
		return func(l, r Value) Value { return Number(math.Mod(l.Num(), r.Num())) }
	case ast.ExprBinaryPow:
		return func(l, r Value) Value { return Number(math.Pow(l.Num(), r.Num())) }
	case ast.ExprBinaryEq:
		return func(l, r Value) Value { return Bool(l.Equal(r)) }
	case ast.ExprBinaryNotEq:
		return func(l, r Value) Value { return Bool(!l.Equal(r)) }
	case ast.ExprBinaryLess:
		return func(l, r Value) Value { return Bool(l.Num() < r.Num()) }
	case ast.ExprBinaryLessEq:
		return func(l, r Value) Value { return Bool(l.Num() <= r.Num()) }
	case ast.ExprBinaryGreater:
		return func(l, r Value) Value { return Bool(l.Num() > r.Num()) }
	case ast.ExprBinaryGreaterEq:
		return func(l, r Value) Value { return Bool(l.Num() >= r.Num()) }
	}
	panic("value: unsupported binary operator " + op.String())
}

// Binary applies op directly; used by the tree-walking interpreter.
func Binary(op ast.ExprBinaryOp, l, r Value) Value {
	return BinaryFunc(op)(l, r)
}

// Unary applies ! or unary minus.
func Unary(op ast.ExprUnaryOp, v Value) Value {
	switch op {
	case ast.ExprUnaryNot:
		return Bool(!v.Truthy())
	case ast.ExprUnaryNeg:
		return Number(-v.Num())
	}
	panic("value: unsupported unary operator " + op.String())
}

// Logical evaluates && / || with operand-returning short-circuit: the right
// side is only computed when needed.
func Logical(op ast.ExprLogicalOp, l Value, right func() Value) Value {
	switch op {
	case ast.ExprLogicalAnd:
		if !l.Truthy() {
			return l
		}
		return right()
	case ast.ExprLogicalOr:
		if l.Truthy() {
			return l
		}
		return right()
	}
	panic("value: unsupported logical operator " + op.String())
}
