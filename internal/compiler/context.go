package compiler

import (
	"errors"
	"fmt"

	"formula/internal/builtins"
	"formula/internal/schema"
	"formula/internal/types"
	"formula/internal/value"
)

// ErrNoAccessor is returned by a Context that has a schema entry for a path
// but no way to read it from its argument.
var ErrNoAccessor = errors.New("no accessor for reference")

// ErrNoLowering is returned when a builtin has no implementation.
var ErrNoLowering = errors.New("no lowering for builtin")

// Node is one lowered subtree: a pure function of the formula argument.
type Node[A any] func(arg A) value.Value

// Ref is a resolved reference. Key is the canonical spelling used in
// unit bodies, so aliases like s.x and self.x share a key.
type Ref[A any] struct {
	Get Node[A]
	Key string
}

// Call is a builtin call with its arguments already lowered.
type Call[A any] struct {
	Name string
	Args []Node[A]
	Rand builtins.Rand
}

// Context specializes the compiler for one argument shape. Implementations
// are values, not subclasses; the compiler drives all traversal.
type Context[A any] interface {
	// Kind names the context for diagnostics and cache reports.
	Kind() string
	Schema() *schema.Node
	Builtins() *builtins.Table
	// ReturnType is the type every formula of this kind must produce.
	ReturnType() types.PrimaryType
	// Reference maps a validated dotted path to an accessor.
	Reference(path []string) (Ref[A], error)
	// Lower turns a validated builtin call into a Node.
	Lower(call Call[A]) (Node[A], error)
}

// LowerBuiltin lowers call through table. Contexts without special
// builtins delegate their Lower to it.
func LowerBuiltin[A any](table *builtins.Table, call Call[A]) (Node[A], error) {
	fn, ok := table.Lookup(call.Name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLowering, call.Name)
	}
	eval, rnd, args := fn.Eval, call.Rand, call.Args
	if rnd == nil {
		rnd = builtins.DefaultRand
	}
	switch len(args) {
	case 0:
		return func(A) value.Value { return eval(rnd, nil) }, nil
	case 1:
		a0 := args[0]
		return func(a A) value.Value {
			return eval(rnd, []value.Value{a0(a)})
		}, nil
	case 2:
		a0, a1 := args[0], args[1]
		return func(a A) value.Value {
			return eval(rnd, []value.Value{a0(a), a1(a)})
		}, nil
	case 3:
		a0, a1, a2 := args[0], args[1], args[2]
		return func(a A) value.Value {
			return eval(rnd, []value.Value{a0(a), a1(a), a2(a)})
		}, nil
	default:
		return func(a A) value.Value {
			vals := make([]value.Value, len(args))
			for i, arg := range args {
				vals[i] = arg(a)
			}
			return eval(rnd, vals)
		}, nil
	}
}
