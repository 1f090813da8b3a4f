package parser

import (
	"formula/internal/ast"
	"formula/internal/token"
)

// Таблица приоритетов для бинарных операторов.
// Чем больше число, тем выше приоритет. Все уровни левоассоциативны;
// тернарный оператор ниже всех и разбирается отдельно.
const (
	precLogicalOr      = 2 // ||
	precLogicalAnd     = 3 // &&
	precEquality       = 4 // == !=
	precComparison     = 5 // < <= > >=
	precAdditive       = 6 // + -
	precMultiplicative = 7 // * / %
	precPower          = 8 // ^
)

// getBinaryOperatorPrec возвращает приоритет оператора или -1.
func getBinaryOperatorPrec(kind token.Kind) int {
	switch kind {
	case token.OrOr:
		return precLogicalOr
	case token.AndAnd:
		return precLogicalAnd
	case token.EqEq, token.BangEq:
		return precEquality
	case token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precComparison
	case token.Plus, token.Minus:
		return precAdditive
	case token.Star, token.Slash, token.Percent:
		return precMultiplicative
	case token.Caret:
		return precPower
	default:
		return -1
	}
}

func tokenKindToLogicalOp(kind token.Kind) (ast.ExprLogicalOp, bool) {
	switch kind {
	case token.AndAnd:
		return ast.ExprLogicalAnd, true
	case token.OrOr:
		return ast.ExprLogicalOr, true
	}
	return 0, false
}

// tokenKindToBinaryOp преобразует токен в тип бинарного оператора
func tokenKindToBinaryOp(kind token.Kind) ast.ExprBinaryOp {
	switch kind {
	case token.Plus:
		return ast.ExprBinaryAdd
	case token.Minus:
		return ast.ExprBinarySub
	case token.Star:
		return ast.ExprBinaryMul
	case token.Slash:
		return ast.ExprBinaryDiv
	case token.Percent:
		return ast.ExprBinaryMod
	case token.Caret:
		return ast.ExprBinaryPow
	case token.EqEq:
		return ast.ExprBinaryEq
	case token.BangEq:
		return ast.ExprBinaryNotEq
	case token.Lt:
		return ast.ExprBinaryLess
	case token.LtEq:
		return ast.ExprBinaryLessEq
	case token.Gt:
		return ast.ExprBinaryGreater
	case token.GtEq:
		return ast.ExprBinaryGreaterEq
	}
	panic("parser: token " + kind.String() + " is not a binary operator")
}

func getUnaryOperator(kind token.Kind) (ast.ExprUnaryOp, bool) {
	switch kind {
	case token.Bang:
		return ast.ExprUnaryNot, true
	case token.Minus:
		return ast.ExprUnaryNeg, true
	}
	return 0, false
}
