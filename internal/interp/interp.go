// Package interp evaluates a parsed formula by walking its tree. It is the
// slow reference path used to cross-check compiled units, never the path
// the simulation takes.
package interp

import (
	"errors"
	"fmt"
	"strings"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/value"
)

var (
	ErrUnknownReference = errors.New("unknown reference")
	ErrUnknownFunction  = errors.New("unknown function")
	ErrArity            = errors.New("wrong number of arguments")
)

// Environment resolves references and builtin calls at evaluation time.
type Environment interface {
	Lookup(path []string) (value.Value, error)
	Call(name string, args []value.Value) (value.Value, error)
}

// Eval evaluates the tree under root against env.
func Eval(b *ast.Builder, root ast.ExprID, env Environment) (value.Value, error) {
	in := interpreter{b: b, env: env}
	return in.eval(root)
}

type interpreter struct {
	b   *ast.Builder
	env Environment
}

func (in *interpreter) eval(id ast.ExprID) (value.Value, error) {
	expr := in.b.Exprs.Get(id)
	if expr == nil {
		return value.Value{}, fmt.Errorf("interp: invalid node %d", id)
	}
	switch expr.Kind {
	case ast.ExprLit:
		lit, _ := in.b.Exprs.Literal(id)
		if lit.Kind == ast.ExprLitNumber {
			return value.Number(lit.Number), nil
		}
		return value.Bool(lit.Bool), nil

	case ast.ExprRef:
		ref, _ := in.b.Exprs.Ref(id)
		return in.env.Lookup(in.b.RefPath(ref))

	case ast.ExprGroup:
		g, _ := in.b.Exprs.Group(id)
		return in.eval(g.Inner)

	case ast.ExprUnary:
		u, _ := in.b.Exprs.Unary(id)
		v, err := in.eval(u.Operand)
		if err != nil {
			return value.Value{}, err
		}
		return value.Unary(u.Op, v), nil

	case ast.ExprBinary:
		bin, _ := in.b.Exprs.Binary(id)
		l, err := in.eval(bin.Left)
		if err != nil {
			return value.Value{}, err
		}
		r, err := in.eval(bin.Right)
		if err != nil {
			return value.Value{}, err
		}
		return value.Binary(bin.Op, l, r), nil

	case ast.ExprLogical:
		lg, _ := in.b.Exprs.Logical(id)
		l, err := in.eval(lg.Left)
		if err != nil {
			return value.Value{}, err
		}
		var rerr error
		v := value.Logical(lg.Op, l, func() value.Value {
			r, err := in.eval(lg.Right)
			rerr = err
			return r
		})
		return v, rerr

	case ast.ExprTernary:
		t, _ := in.b.Exprs.Ternary(id)
		c, err := in.eval(t.Cond)
		if err != nil {
			return value.Value{}, err
		}
		if c.Truthy() {
			return in.eval(t.Then)
		}
		return in.eval(t.Else)

	case ast.ExprCall:
		call, _ := in.b.Exprs.Call(id)
		args := make([]value.Value, len(call.Args))
		for i, a := range call.Args {
			v, err := in.eval(a)
			if err != nil {
				return value.Value{}, err
			}
			args[i] = v
		}
		return in.env.Call(in.b.Name(call.Name), args)
	}
	panic(fmt.Sprintf("interp: unexpected expression kind %v", expr.Kind))
}

// MapEnv is an Environment over a flat map of dotted paths, with the
// builtins of Table.
type MapEnv struct {
	Values map[string]value.Value
	Table  *builtins.Table
	Rand   builtins.Rand
}

// NewMapEnv returns an environment using the standard builtins.
func NewMapEnv(values map[string]value.Value) *MapEnv {
	if values == nil {
		values = map[string]value.Value{}
	}
	return &MapEnv{Values: values, Table: builtins.Standard(), Rand: builtins.DefaultRand}
}

// Set binds a dotted path.
func (e *MapEnv) Set(path string, v value.Value) *MapEnv {
	e.Values[path] = v
	return e
}

func (e *MapEnv) Lookup(path []string) (value.Value, error) {
	key := strings.Join(path, ".")
	v, ok := e.Values[key]
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownReference, key)
	}
	return v, nil
}

func (e *MapEnv) Call(name string, args []value.Value) (value.Value, error) {
	table := e.Table
	if table == nil {
		table = builtins.Standard()
	}
	fn, ok := table.Lookup(name)
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if len(args) != fn.Sig.Arity() {
		return value.Value{}, fmt.Errorf("%w: %s expects %d, got %d", ErrArity, name, fn.Sig.Arity(), len(args))
	}
	rnd := e.Rand
	if rnd == nil {
		rnd = builtins.DefaultRand
	}
	return fn.Eval(rnd, args), nil
}
