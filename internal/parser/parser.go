package parser

import (
	"slices"

	"formula/internal/ast"
	"formula/internal/diag"
	"formula/internal/source"
	"formula/internal/token"
)

type Options struct {
	Reporter diag.Reporter
}

// Result is the outcome of one Parse call. Root is NoExprID when the parse
// aborted; the reason is already with the reporter.
type Result struct {
	Root ast.ExprID
	Ok   bool
}

// Parser: состояние парсера на одну формулу
type Parser struct {
	toks     []token.Token
	pos      int
	arenas   *ast.Builder
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
}

// Parse builds the tree for one formula from its token stream. toks must end
// with EOF, as lexer.Tokenize guarantees. The first grammar violation is
// reported and aborts the parse; there is no resynchronisation.
func Parse(toks []token.Token, arenas *ast.Builder, opts Options) Result {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(slices.Clip(toks), token.Token{Kind: token.EOF})
	}
	p := Parser{
		toks:     toks,
		arenas:   arenas,
		opts:     opts,
		lastSpan: source.Span{File: toks[0].Span.File},
	}

	root, ok := p.parseExpr()
	if !ok {
		return Result{}
	}
	if !p.at(token.EOF) {
		p.err(diag.SynExpectSingleExpr, "expected single expression, found "+describe(p.peek()))
		return Result{}
	}
	return Result{Root: root, Ok: true}
}

func (p *Parser) peek() token.Token {
	return p.toks[p.pos]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

// advance: съедает следующий токен и обновляет lastSpan. EOF не съедается.
func (p *Parser) advance() token.Token {
	tok := p.toks[p.pos]
	if tok.Kind != token.EOF {
		p.pos++
		p.lastSpan = tok.Span
	}
	return tok
}

// expect: ожидаем конкретный токен. Если нет: репортим и возвращаем false.
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.err(code, msg+", found "+describe(p.peek()))
	return token.Token{}, false
}

// getDiagnosticSpan: для EOF указываем на позицию сразу после последнего токена.
func (p *Parser) getDiagnosticSpan() source.Span {
	peek := p.peek()
	if peek.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return peek.Span
}

func (p *Parser) err(code diag.Code, msg string) {
	if p.opts.Reporter != nil {
		p.opts.Reporter.Report(code, diag.SevError, p.getDiagnosticSpan(), msg, nil)
	}
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of input"
	case token.Ident:
		return "identifier '" + tok.Text + "'"
	case token.Number:
		return "number " + tok.Text
	}
	return "'" + tok.Text + "'"
}
