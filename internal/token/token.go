package token

import (
	"formula/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Value float64 // только для Number
	Line  uint32  // 0-based
	Col   uint32  // 0-based
}

// IsLiteral reports whether the token is a numeric or boolean literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsPunctOrOp reports whether the token is a punctuation or operator.
func (t Token) IsPunctOrOp() bool {
	switch t.Kind {
	case Question, Colon, Minus, Plus, Slash, Star, Caret, Percent, LParen, RParen,
		Comma, Dot, OrOr, AndAnd, BangEq, EqEq, GtEq, LtEq, Gt, Lt, Bang:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a keyword.
func (t Token) IsKeyword() bool {
	return t.Kind == KwTrue || t.Kind == KwFalse
}

// IsIdent reports whether the token is an identifier.
func (t Token) IsIdent() bool { return t.Kind == Ident }
