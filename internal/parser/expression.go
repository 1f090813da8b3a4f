package parser

import (
	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/source"
	"formula/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений
func (p *Parser) parseExpr() (ast.ExprID, bool) {
	cond, ok := p.parseBinaryExpr(precLogicalOr)
	if !ok {
		return ast.NoExprID, false
	}
	if p.at(token.Question) {
		return p.parseTernaryExpr(cond)
	}
	return cond, true
}

// parseTernaryExpr parses: condition ? then : else
// Обе ветки снова разбираются как полное выражение, отсюда правая ассоциативность.
func (p *Parser) parseTernaryExpr(cond ast.ExprID) (ast.ExprID, bool) {
	p.advance() // '?'

	thenExpr, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' in ternary expression"); !ok {
		return ast.NoExprID, false
	}
	elseExpr, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}

	span := p.span(cond).Cover(p.span(elseExpr))
	return p.arenas.Exprs.NewTernary(span, cond, thenExpr, elseExpr), true
}

// parseBinaryExpr реализует Pratt parsing для бинарных операторов
// minPrec - минимальный приоритет для текущего уровня
func (p *Parser) parseBinaryExpr(minPrec int) (ast.ExprID, bool) {
	left, ok := p.parseUnaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	for {
		prec := getBinaryOperatorPrec(p.peek().Kind)
		if prec < minPrec {
			return left, true
		}
		opTok := p.advance()

		// все уровни левоассоциативны
		right, ok := p.parseBinaryExpr(prec + 1)
		if !ok {
			return ast.NoExprID, false
		}

		span := p.span(left).Cover(p.span(right))
		if op, isLogical := tokenKindToLogicalOp(opTok.Kind); isLogical {
			left = p.arenas.Exprs.NewLogical(span, op, left, right)
		} else {
			left = p.arenas.Exprs.NewBinary(span, tokenKindToBinaryOp(opTok.Kind), left, right)
		}
	}
}

// parseUnaryExpr: ('!'|'-') unary | primary
func (p *Parser) parseUnaryExpr() (ast.ExprID, bool) {
	type prefixOp struct {
		op   ast.ExprUnaryOp
		span source.Span
	}

	var prefixes []prefixOp
	for {
		op, ok := getUnaryOperator(p.peek().Kind)
		if !ok {
			break
		}
		opTok := p.advance()
		prefixes = append(prefixes, prefixOp{op: op, span: opTok.Span})
	}

	expr, ok := p.parsePrimaryExpr()
	if !ok {
		return ast.NoExprID, false
	}

	// Применяем префиксы справа налево
	for i := len(prefixes) - 1; i >= 0; i-- {
		span := prefixes[i].span.Cover(p.span(expr))
		expr = p.arenas.Exprs.NewUnary(span, prefixes[i].op, expr)
	}
	return expr, true
}

// parsePrimaryExpr парсит основные (атомарные) выражения
func (p *Parser) parsePrimaryExpr() (ast.ExprID, bool) {
	tok := p.peek()
	switch tok.Kind {
	case token.KwTrue, token.KwFalse:
		p.advance()
		return p.arenas.Exprs.NewBool(tok.Span, tok.Kind == token.KwTrue, p.arenas.Strings.Intern(tok.Text)), true

	case token.Number:
		p.advance()
		return p.arenas.Exprs.NewNumber(tok.Span, tok.Value, p.arenas.Strings.Intern(tok.Text)), true

	case token.LParen:
		return p.parseParenExpr()

	case token.Ident:
		if p.pos+1 < len(p.toks) && p.toks[p.pos+1].Kind == token.LParen {
			return p.parseCallExpr()
		}
		return p.parseRefExpr()

	default:
		p.err(diag.SynExpectExpression, "expected expression, found "+describe(tok))
		return ast.NoExprID, false
	}
}

func (p *Parser) parseParenExpr() (ast.ExprID, bool) {
	open := p.advance()
	inner, ok := p.parseExpr()
	if !ok {
		return ast.NoExprID, false
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' to close '('")
	if !ok {
		return ast.NoExprID, false
	}
	return p.arenas.Exprs.NewGroup(open.Span.Cover(closeTok.Span), inner), true
}

// parseCallExpr: IDENT '(' (expression (',' expression)*)? ')'
func (p *Parser) parseCallExpr() (ast.ExprID, bool) {
	name := p.advance()
	p.advance() // '('

	var args []ast.ExprID
	if !p.at(token.RParen) {
		for {
			arg, ok := p.parseExpr()
			if !ok {
				return ast.NoExprID, false
			}
			args = append(args, arg)
			if !p.at(token.Comma) {
				break
			}
			p.advance()
		}
	}
	closeTok, ok := p.expect(token.RParen, diag.SynUnclosedParen, "expected ')' after arguments of '"+name.Text+"'")
	if !ok {
		return ast.NoExprID, false
	}
	id := p.arenas.Strings.Intern(name.Text)
	return p.arenas.Exprs.NewCall(name.Span.Cover(closeTok.Span), id, name.Span, args), true
}

// parseRefExpr: IDENT ('.' IDENT)*
func (p *Parser) parseRefExpr() (ast.ExprID, bool) {
	first := p.advance()
	segments := []source.StringID{p.arenas.Strings.Intern(first.Text)}
	spans := []source.Span{first.Span}

	for p.at(token.Dot) {
		p.advance()
		seg, ok := p.expect(token.Ident, diag.SynExpectIdentifier, "expected identifier after '.'")
		if !ok {
			return ast.NoExprID, false
		}
		segments = append(segments, p.arenas.Strings.Intern(seg.Text))
		spans = append(spans, seg.Span)
	}
	return p.arenas.Exprs.NewRef(first.Span.Cover(spans[len(spans)-1]), segments, spans), true
}

func (p *Parser) span(id ast.ExprID) source.Span {
	return p.arenas.Exprs.Get(id).Span
}
