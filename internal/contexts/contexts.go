// Package contexts defines the argument shapes formulas are compiled
// against: characters, combat effects, named parameters and a bare value.
// Each kind is a compiler.Context value; none of them extends another.
package contexts

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"formula/internal/builtins"
	"formula/internal/compiler"
	"formula/internal/schema"
	"formula/internal/types"
)

// Context kind names, as used by the engine, content files and the CLI.
const (
	KindCharacter          = "character"
	KindCharacterCondition = "character-condition"
	KindEffect             = "effect"
	KindParams             = "params"
	KindValue              = "value"
)

// Kinds lists every context kind in a stable order.
func Kinds() []string {
	return []string{KindCharacter, KindCharacterCondition, KindEffect, KindParams, KindValue}
}

// IsKind reports whether name is a known context kind.
func IsKind(name string) bool { return slices.Contains(Kinds(), name) }

// ErrUnreadable rejects a registration the context has no accessor for:
// the path would validate but could never be read from the argument.
var ErrUnreadable = errors.New("no accessor for path")

// base carries the parts every context kind shares.
type base struct {
	kind   string
	schema *schema.Node
	table  *builtins.Table
	ret    types.PrimaryType
	// readable reports whether a full reference path of type t can be read.
	readable func(path []string, t types.PrimaryType) bool
}

func (b *base) Kind() string                  { return b.kind }
func (b *base) Schema() *schema.Node          { return b.schema }
func (b *base) Builtins() *builtins.Table     { return b.table }
func (b *base) ReturnType() types.PrimaryType { return b.ret }

// Register extends the context schema. It must not run concurrently with
// compilation.
func (b *base) Register(path, names []string, t types.PrimaryType) error {
	for _, name := range names {
		full := append(slices.Clip(path), name)
		if !b.readable(full, t) {
			return fmt.Errorf("%s: %w: %s of type %s", b.kind, ErrUnreadable, strings.Join(full, "."), t)
		}
	}
	if err := b.schema.Register(path, names, t); err != nil {
		return fmt.Errorf("%s: %w", b.kind, err)
	}
	return nil
}

// scalar is Number or Boolean: the only types an accessor can produce.
func scalar(t types.PrimaryType) bool { return t == types.Number || t == types.Boolean }

// flatReadable accepts single-segment references of any scalar type.
func flatReadable(path []string, t types.PrimaryType) bool {
	return len(path) == 1 && scalar(t)
}

// lower is the default builtin lowering shared by all kinds.
func lower[A any](b *base, call compiler.Call[A]) (compiler.Node[A], error) {
	return compiler.LowerBuiltin(b.table, call)
}

// propType looks path up in the schema; the compiler only asks for paths
// that passed validation.
func (b *base) propType(path []string) (types.PrimaryType, error) {
	t, _, ok := b.schema.Resolve(path)
	if !ok {
		return types.Invalid, fmt.Errorf("%w: %s", compiler.ErrNoAccessor, strings.Join(path, "."))
	}
	return t, nil
}
