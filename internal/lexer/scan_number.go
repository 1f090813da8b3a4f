package lexer

import (
	"strconv"

	"formula/internal/token"
)

// Форма: digits ('.' digits?)?
// Без экспоненты, без знака, без разделителей: "1." допустимо, ".5" это Dot + Number.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	for isDec(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	if lx.cursor.Peek() == '.' {
		lx.cursor.Bump()
		for isDec(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
	}

	sp := lx.cursor.SpanFrom(start)
	text := lx.text(sp)
	// лексема состоит только из цифр и одной точки, ParseFloat не может упасть
	// кроме переполнения, которое даёт ±Inf
	v, _ := strconv.ParseFloat(text, 64)
	return token.Token{Kind: token.Number, Span: sp, Text: text, Value: v}
}
