package lexer

import (
	"fmt"
	"unicode/utf8"

	"formula/internal/diag"
	"formula/internal/token"
)

// Жадность: сначала 2-символьные, затем 1-символьные.
// Одиночные '|', '&', '=' это незавершённый оператор.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	switch {
	case lx.try2('|', '|'):
		return emit(token.OrOr)
	case lx.try2('&', '&'):
		return emit(token.AndAnd)
	case lx.try2('!', '='):
		return emit(token.BangEq)
	case lx.try2('=', '='):
		return emit(token.EqEq)
	case lx.try2('>', '='):
		return emit(token.GtEq)
	case lx.try2('<', '='):
		return emit(token.LtEq)
	}

	ch := lx.cursor.Bump()
	switch ch {
	case '?':
		return emit(token.Question)
	case ':':
		return emit(token.Colon)
	case '-':
		return emit(token.Minus)
	case '+':
		return emit(token.Plus)
	case '/':
		return emit(token.Slash)
	case '*':
		return emit(token.Star)
	case '^':
		return emit(token.Caret)
	case '%':
		return emit(token.Percent)
	case '(':
		return emit(token.LParen)
	case ')':
		return emit(token.RParen)
	case ',':
		return emit(token.Comma)
	case '.':
		return emit(token.Dot)
	case '>':
		return emit(token.Gt)
	case '<':
		return emit(token.Lt)
	case '!':
		return emit(token.Bang)
	case '|', '&', '=':
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexIncompleteOperator, sp,
			fmt.Sprintf("incomplete operator '%c', did you mean '%c%c'?", ch, ch, ch))
		return emit(token.Invalid)
	default:
		// неизвестный символ: съедаем руну целиком, чтобы не резать UTF-8
		if ch >= utf8.RuneSelf {
			lx.cursor.Off = uint32(start)
			_, sz := utf8.DecodeRune(lx.file.Content[lx.cursor.Off:])
			for range sz {
				lx.cursor.Bump()
			}
		}
		sp := lx.cursor.SpanFrom(start)
		lx.report(diag.LexUnknownChar, sp, fmt.Sprintf("unknown character %q", lx.text(sp)))
		return emit(token.Invalid)
	}
}
