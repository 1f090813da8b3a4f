package ast

import (
	"formula/internal/source"
)

// ExprKind enumerates the closed set of expression nodes. Every consumer
// switches over all eight kinds.
type ExprKind uint8

const (
	// ExprTernary is cond ? then : else.
	ExprTernary ExprKind = iota
	// ExprLogical is a short-circuit && or ||.
	ExprLogical
	// ExprBinary covers arithmetic, equality and relational operators.
	ExprBinary
	// ExprUnary is ! or unary minus.
	ExprUnary
	// ExprLit is a number or boolean literal.
	ExprLit
	// ExprCall is a builtin call name(args).
	ExprCall
	// ExprRef is a dotted reference a.b.c.
	ExprRef
	// ExprGroup is a parenthesised expression.
	ExprGroup
)

func (k ExprKind) String() string {
	switch k {
	case ExprTernary:
		return "Ternary"
	case ExprLogical:
		return "Logical"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprLit:
		return "Literal"
	case ExprCall:
		return "Call"
	case ExprRef:
		return "Reference"
	case ExprGroup:
		return "Group"
	}
	return "Unknown"
}

// Expr represents an expression node in the AST.
type Expr struct {
	Kind    ExprKind
	Span    source.Span
	Payload PayloadID
}

// ExprBinaryOp enumerates binary operator kinds.
type ExprBinaryOp uint8

const (
	// Арифметические
	ExprBinaryAdd ExprBinaryOp = iota
	ExprBinarySub
	ExprBinaryMul
	ExprBinaryDiv
	ExprBinaryMod
	ExprBinaryPow

	// Сравнения
	ExprBinaryEq
	ExprBinaryNotEq
	ExprBinaryLess
	ExprBinaryLessEq
	ExprBinaryGreater
	ExprBinaryGreaterEq
)

// String returns the symbol representation of a binary operator.
func (op ExprBinaryOp) String() string {
	switch op {
	case ExprBinaryAdd:
		return "+"
	case ExprBinarySub:
		return "-"
	case ExprBinaryMul:
		return "*"
	case ExprBinaryDiv:
		return "/"
	case ExprBinaryMod:
		return "%"
	case ExprBinaryPow:
		return "^"
	case ExprBinaryEq:
		return "=="
	case ExprBinaryNotEq:
		return "!="
	case ExprBinaryLess:
		return "<"
	case ExprBinaryLessEq:
		return "<="
	case ExprBinaryGreater:
		return ">"
	case ExprBinaryGreaterEq:
		return ">="
	}
	return "?"
}

// IsArithmetic reports Number x Number -> Number operators.
func (op ExprBinaryOp) IsArithmetic() bool {
	return op <= ExprBinaryPow
}

// IsEquality reports == and !=, which accept operands of any type.
func (op ExprBinaryOp) IsEquality() bool {
	return op == ExprBinaryEq || op == ExprBinaryNotEq
}

// ExprLogicalOp enumerates short-circuit operators.
type ExprLogicalOp uint8

const (
	ExprLogicalAnd ExprLogicalOp = iota
	ExprLogicalOr
)

func (op ExprLogicalOp) String() string {
	if op == ExprLogicalAnd {
		return "&&"
	}
	return "||"
}

// ExprUnaryOp enumerates unary operator kinds.
type ExprUnaryOp uint8

const (
	ExprUnaryNot ExprUnaryOp = iota
	ExprUnaryNeg
)

func (op ExprUnaryOp) String() string {
	if op == ExprUnaryNot {
		return "!"
	}
	return "-"
}

// ExprLitKind distinguishes literal payloads.
type ExprLitKind uint8

const (
	ExprLitNumber ExprLitKind = iota
	ExprLitBool
)

type ExprTernaryData struct {
	Cond ExprID
	Then ExprID
	Else ExprID
}

type ExprLogicalData struct {
	Op    ExprLogicalOp
	Left  ExprID
	Right ExprID
}

type ExprBinaryData struct {
	Op    ExprBinaryOp
	Left  ExprID
	Right ExprID
}

type ExprUnaryData struct {
	Op      ExprUnaryOp
	Operand ExprID
}

// ExprLiteralData keeps the lexeme so printing reproduces what was written.
type ExprLiteralData struct {
	Kind   ExprLitKind
	Number float64
	Bool   bool
	Text   source.StringID
}

type ExprCallData struct {
	Name     source.StringID
	NameSpan source.Span
	Args     []ExprID
}

// ExprRefData holds the dotted path; Spans[i] covers Segments[i].
type ExprRefData struct {
	Segments []source.StringID
	Spans    []source.Span
}

type ExprGroupData struct {
	Inner ExprID
}
