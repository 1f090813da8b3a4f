package contexts

import (
	"fmt"

	"formula/internal/builtins"
	"formula/internal/compiler"
	"formula/internal/schema"
	"formula/internal/types"
	"formula/internal/value"
)

// Params is the argument of flat-parameter formulas. Missing names read
// as zero.
type Params map[string]float64

// ParamsContext compiles formulas over a set of declared parameter names.
type ParamsContext struct {
	base
}

// NewParams declares the parameters formulas may reference.
func NewParams(names ...string) *ParamsContext {
	sch := schema.New().MustProps(types.Number, names...)
	return &ParamsContext{base{kind: KindParams, schema: sch, table: builtins.Standard(), ret: types.Number, readable: flatReadable}}
}

// Declare adds parameter names after construction.
func (c *ParamsContext) Declare(names ...string) error {
	return c.Register(nil, names, types.Number)
}

func (c *ParamsContext) Reference(path []string) (compiler.Ref[Params], error) {
	t, err := c.propType(path)
	if err != nil {
		return compiler.Ref[Params]{}, err
	}
	if len(path) != 1 {
		return compiler.Ref[Params]{}, fmt.Errorf("%w: parameters are flat, got %d segments", compiler.ErrNoAccessor, len(path))
	}
	name := path[0]
	get := func(p Params) value.Value { return value.Number(p[name]) }
	if t == types.Boolean {
		get = func(p Params) value.Value { return value.Bool(p[name] != 0) }
	}
	return compiler.Ref[Params]{Key: name, Get: get}, nil
}

func (c *ParamsContext) Lower(call compiler.Call[Params]) (compiler.Node[Params], error) {
	return lower(&c.base, call)
}

// ValueRef is the only reference a value formula may use.
const ValueRef = "value"

// ValueContext compiles formulas over one ambient number named "value".
type ValueContext struct {
	base
}

func NewValue() *ValueContext {
	sch := schema.New().MustProps(types.Number, ValueRef)
	return &ValueContext{base{kind: KindValue, schema: sch, table: builtins.Standard(), ret: types.Number, readable: valueReadable}}
}

// в value-контексте читается только сам value
func valueReadable(path []string, t types.PrimaryType) bool {
	return len(path) == 1 && path[0] == ValueRef && t == types.Number
}

func (c *ValueContext) Reference(path []string) (compiler.Ref[float64], error) {
	if len(path) != 1 || path[0] != ValueRef {
		return compiler.Ref[float64]{}, fmt.Errorf("%w: only 'value' can be read", compiler.ErrNoAccessor)
	}
	return compiler.Ref[float64]{Key: ValueRef, Get: func(v float64) value.Value { return value.Number(v) }}, nil
}

func (c *ValueContext) Lower(call compiler.Call[float64]) (compiler.Node[float64], error) {
	return lower(&c.base, call)
}
