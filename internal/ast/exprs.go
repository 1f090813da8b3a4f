package ast

import (
	"formula/internal/source"
)

// Exprs manages allocation of expressions. Each kind keeps its payload in a
// dedicated arena; Expr.Payload indexes into it.
type Exprs struct {
	Arena     *Arena[Expr]
	Ternaries *Arena[ExprTernaryData]
	Logicals  *Arena[ExprLogicalData]
	Binaries  *Arena[ExprBinaryData]
	Unaries   *Arena[ExprUnaryData]
	Literals  *Arena[ExprLiteralData]
	Calls     *Arena[ExprCallData]
	Refs      *Arena[ExprRefData]
	Groups    *Arena[ExprGroupData]
}

func NewExprs(capHint uint) *Exprs {
	if capHint == 0 {
		capHint = 1 << 5
	}
	small := capHint/4 + 1
	return &Exprs{
		Arena:     NewArena[Expr](capHint),
		Ternaries: NewArena[ExprTernaryData](small),
		Logicals:  NewArena[ExprLogicalData](small),
		Binaries:  NewArena[ExprBinaryData](capHint),
		Unaries:   NewArena[ExprUnaryData](small),
		Literals:  NewArena[ExprLiteralData](capHint),
		Calls:     NewArena[ExprCallData](small),
		Refs:      NewArena[ExprRefData](capHint),
		Groups:    NewArena[ExprGroupData](small),
	}
}

func (e *Exprs) new(kind ExprKind, span source.Span, payload uint32) ExprID {
	return ExprID(e.Arena.Allocate(Expr{
		Kind:    kind,
		Span:    span,
		Payload: PayloadID(payload),
	}))
}

// Get returns the expression with the given ID.
func (e *Exprs) Get(id ExprID) *Expr {
	return e.Arena.Get(uint32(id))
}

func (e *Exprs) payload(id ExprID, kind ExprKind) (uint32, bool) {
	expr := e.Get(id)
	if expr == nil || expr.Kind != kind {
		return 0, false
	}
	return uint32(expr.Payload), true
}

func (e *Exprs) NewTernary(span source.Span, cond, then, els ExprID) ExprID {
	payload := e.Ternaries.Allocate(ExprTernaryData{Cond: cond, Then: then, Else: els})
	return e.new(ExprTernary, span, payload)
}

func (e *Exprs) Ternary(id ExprID) (*ExprTernaryData, bool) {
	p, ok := e.payload(id, ExprTernary)
	if !ok {
		return nil, false
	}
	return e.Ternaries.Get(p), true
}

func (e *Exprs) NewLogical(span source.Span, op ExprLogicalOp, left, right ExprID) ExprID {
	payload := e.Logicals.Allocate(ExprLogicalData{Op: op, Left: left, Right: right})
	return e.new(ExprLogical, span, payload)
}

func (e *Exprs) Logical(id ExprID) (*ExprLogicalData, bool) {
	p, ok := e.payload(id, ExprLogical)
	if !ok {
		return nil, false
	}
	return e.Logicals.Get(p), true
}

func (e *Exprs) NewBinary(span source.Span, op ExprBinaryOp, left, right ExprID) ExprID {
	payload := e.Binaries.Allocate(ExprBinaryData{Op: op, Left: left, Right: right})
	return e.new(ExprBinary, span, payload)
}

func (e *Exprs) Binary(id ExprID) (*ExprBinaryData, bool) {
	p, ok := e.payload(id, ExprBinary)
	if !ok {
		return nil, false
	}
	return e.Binaries.Get(p), true
}

func (e *Exprs) NewUnary(span source.Span, op ExprUnaryOp, operand ExprID) ExprID {
	payload := e.Unaries.Allocate(ExprUnaryData{Op: op, Operand: operand})
	return e.new(ExprUnary, span, payload)
}

func (e *Exprs) Unary(id ExprID) (*ExprUnaryData, bool) {
	p, ok := e.payload(id, ExprUnary)
	if !ok {
		return nil, false
	}
	return e.Unaries.Get(p), true
}

func (e *Exprs) NewNumber(span source.Span, value float64, text source.StringID) ExprID {
	payload := e.Literals.Allocate(ExprLiteralData{Kind: ExprLitNumber, Number: value, Text: text})
	return e.new(ExprLit, span, payload)
}

func (e *Exprs) NewBool(span source.Span, value bool, text source.StringID) ExprID {
	payload := e.Literals.Allocate(ExprLiteralData{Kind: ExprLitBool, Bool: value, Text: text})
	return e.new(ExprLit, span, payload)
}

func (e *Exprs) Literal(id ExprID) (*ExprLiteralData, bool) {
	p, ok := e.payload(id, ExprLit)
	if !ok {
		return nil, false
	}
	return e.Literals.Get(p), true
}

func (e *Exprs) NewCall(span source.Span, name source.StringID, nameSpan source.Span, args []ExprID) ExprID {
	payload := e.Calls.Allocate(ExprCallData{Name: name, NameSpan: nameSpan, Args: args})
	return e.new(ExprCall, span, payload)
}

func (e *Exprs) Call(id ExprID) (*ExprCallData, bool) {
	p, ok := e.payload(id, ExprCall)
	if !ok {
		return nil, false
	}
	return e.Calls.Get(p), true
}

func (e *Exprs) NewRef(span source.Span, segments []source.StringID, spans []source.Span) ExprID {
	payload := e.Refs.Allocate(ExprRefData{Segments: segments, Spans: spans})
	return e.new(ExprRef, span, payload)
}

func (e *Exprs) Ref(id ExprID) (*ExprRefData, bool) {
	p, ok := e.payload(id, ExprRef)
	if !ok {
		return nil, false
	}
	return e.Refs.Get(p), true
}

func (e *Exprs) NewGroup(span source.Span, inner ExprID) ExprID {
	payload := e.Groups.Allocate(ExprGroupData{Inner: inner})
	return e.new(ExprGroup, span, payload)
}

func (e *Exprs) Group(id ExprID) (*ExprGroupData, bool) {
	p, ok := e.payload(id, ExprGroup)
	if !ok {
		return nil, false
	}
	return e.Groups.Get(p), true
}
