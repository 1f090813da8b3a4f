package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/value"
)

// lowerer turns a checked tree into a closure tree and writes the canonical
// body of what it built. Groups leave no trace in either.
type lowerer[A any] struct {
	ctx     Context[A]
	builder *ast.Builder
	rand    builtins.Rand
	body    strings.Builder
}

// refError is a reference the context could not read. It is reported as a
// diagnostic; anything else that goes wrong while lowering is a bug.
type refError struct {
	id  ast.ExprID
	err error
}

func (e *refError) Error() string { return e.err.Error() }
func (e *refError) Unwrap() error { return e.err }

func (l *lowerer[A]) lower(id ast.ExprID) (Node[A], error) {
	expr := l.builder.Exprs.Get(id)
	switch expr.Kind {
	case ast.ExprLit:
		lit, _ := l.builder.Exprs.Literal(id)
		var v value.Value
		if lit.Kind == ast.ExprLitNumber {
			v = value.Number(lit.Number)
			l.body.WriteString(strconv.FormatFloat(lit.Number, 'g', -1, 64))
		} else {
			v = value.Bool(lit.Bool)
			l.body.WriteString(strconv.FormatBool(lit.Bool))
		}
		return func(A) value.Value { return v }, nil

	case ast.ExprRef:
		data, _ := l.builder.Exprs.Ref(id)
		ref, err := l.ctx.Reference(l.builder.RefPath(data))
		if err != nil {
			return nil, &refError{id: id, err: err}
		}
		l.body.WriteString(ref.Key)
		return ref.Get, nil

	case ast.ExprGroup:
		g, _ := l.builder.Exprs.Group(id)
		return l.lower(g.Inner)

	case ast.ExprUnary:
		u, _ := l.builder.Exprs.Unary(id)
		l.open(u.Op.String())
		operand, err := l.lower(u.Operand)
		if err != nil {
			return nil, err
		}
		l.close()
		switch u.Op {
		case ast.ExprUnaryNot:
			return func(a A) value.Value { return value.Bool(!operand(a).Truthy()) }, nil
		case ast.ExprUnaryNeg:
			return func(a A) value.Value { return value.Number(-operand(a).Num()) }, nil
		}
		panic(fmt.Sprintf("compiler: unsupported unary operator %v", u.Op))

	case ast.ExprBinary:
		bin, _ := l.builder.Exprs.Binary(id)
		fn := value.BinaryFunc(bin.Op)
		left, right, err := l.pair(bin.Op.String(), bin.Left, bin.Right)
		if err != nil {
			return nil, err
		}
		return func(a A) value.Value { return fn(left(a), right(a)) }, nil

	case ast.ExprLogical:
		lg, _ := l.builder.Exprs.Logical(id)
		left, right, err := l.pair(lg.Op.String(), lg.Left, lg.Right)
		if err != nil {
			return nil, err
		}
		switch lg.Op {
		case ast.ExprLogicalAnd:
			return func(a A) value.Value {
				if v := left(a); !v.Truthy() {
					return v
				}
				return right(a)
			}, nil
		case ast.ExprLogicalOr:
			return func(a A) value.Value {
				if v := left(a); v.Truthy() {
					return v
				}
				return right(a)
			}, nil
		}
		panic(fmt.Sprintf("compiler: unsupported logical operator %v", lg.Op))

	case ast.ExprTernary:
		t, _ := l.builder.Exprs.Ternary(id)
		l.open("?:")
		cond, err := l.lower(t.Cond)
		if err != nil {
			return nil, err
		}
		l.body.WriteByte(' ')
		then, err := l.lower(t.Then)
		if err != nil {
			return nil, err
		}
		l.body.WriteByte(' ')
		els, err := l.lower(t.Else)
		if err != nil {
			return nil, err
		}
		l.close()
		return func(a A) value.Value {
			if cond(a).Truthy() {
				return then(a)
			}
			return els(a)
		}, nil

	case ast.ExprCall:
		call, _ := l.builder.Exprs.Call(id)
		name := l.builder.Name(call.Name)
		l.body.WriteByte('(')
		l.body.WriteString(name)
		args := make([]Node[A], len(call.Args))
		for i, arg := range call.Args {
			l.body.WriteByte(' ')
			n, err := l.lower(arg)
			if err != nil {
				return nil, err
			}
			args[i] = n
		}
		l.close()
		node, err := l.ctx.Lower(Call[A]{Name: name, Args: args, Rand: l.rand})
		if err != nil {
			panic(fmt.Sprintf("compiler: context %q cannot lower %s: %v", l.ctx.Kind(), name, err))
		}
		return node, nil
	}
	panic(fmt.Sprintf("compiler: unexpected expression kind %v", expr.Kind))
}

func (l *lowerer[A]) pair(op string, a, b ast.ExprID) (Node[A], Node[A], error) {
	l.open(op)
	left, err := l.lower(a)
	if err != nil {
		return nil, nil, err
	}
	l.body.WriteByte(' ')
	right, err := l.lower(b)
	if err != nil {
		return nil, nil, err
	}
	l.close()
	return left, right, nil
}

func (l *lowerer[A]) open(op string) {
	l.body.WriteByte('(')
	l.body.WriteString(op)
	l.body.WriteByte(' ')
}

func (l *lowerer[A]) close() { l.body.WriteByte(')') }
