package contexts

import (
	"fmt"
	"strings"

	"formula/internal/compiler"
	"formula/internal/schema"
	"formula/internal/types"
	"formula/internal/value"
)

// Effect is a combat effect (buff, damage-over-time, heal) being applied.
type Effect interface {
	// Stat returns one of the effect's own numbers, e.g. "power".
	Stat(name string) float64
	// Affected is the character the effect sits on.
	Affected() Character
	Target() Character
	// Applier is the character that applied the effect.
	Applier() Character
}

var effectStats = []string{"power", "duration", "elapsed", "remaining", "stacks", "maxStacks", "tick", "interval"}

// EffectArgs is the argument of effect formulas.
type EffectArgs struct {
	Effect Effect
}

var effectRoots = map[string]string{
	"self": "self", "s": "self",
	"target": "target", "t": "target",
	"sourceCharacter": "sourceCharacter", "sc": "sourceCharacter",
}

// EffectContext compiles numeric formulas over EffectArgs.
type EffectContext struct {
	base
}

func NewEffect() *EffectContext {
	char := characterSchema()
	sch := schema.New().
		MustMount("effect", schema.New().MustProps(types.Number, effectStats...))
	for alias := range effectRoots {
		sch.MustMount(alias, char)
	}
	return &EffectContext{base{kind: KindEffect, schema: sch, table: characterBuiltins(), ret: types.Number, readable: effectReadable}}
}

func effectReadable(path []string, t types.PrimaryType) bool {
	if path[0] == "effect" {
		return len(path) == 2 && scalar(t)
	}
	if _, ok := effectRoots[path[0]]; !ok {
		return false
	}
	return characterReadable(path[1:], t)
}

func (c *EffectContext) Reference(path []string) (compiler.Ref[EffectArgs], error) {
	if path[0] == "effect" {
		t, err := c.propType(path)
		if err != nil {
			return compiler.Ref[EffectArgs]{}, err
		}
		if len(path) != 2 {
			return compiler.Ref[EffectArgs]{}, fmt.Errorf("%w: %s", compiler.ErrNoAccessor, strings.Join(path, "."))
		}
		name := path[1]
		get := func(a EffectArgs) value.Value { return value.Number(a.Effect.Stat(name)) }
		if t == types.Boolean {
			get = func(a EffectArgs) value.Value { return value.Bool(a.Effect.Stat(name) != 0) }
		}
		return compiler.Ref[EffectArgs]{Key: "effect." + name, Get: get}, nil
	}

	root, ok := effectRoots[path[0]]
	if !ok {
		return compiler.Ref[EffectArgs]{}, fmt.Errorf("%w: unknown root %q", compiler.ErrNoAccessor, path[0])
	}
	var pick func(EffectArgs) Character
	switch root {
	case "self":
		pick = func(a EffectArgs) Character { return a.Effect.Affected() }
	case "target":
		pick = func(a EffectArgs) Character { return a.Effect.Target() }
	default:
		pick = func(a EffectArgs) Character { return a.Effect.Applier() }
	}
	return characterRef(&c.base, path, root, pick)
}

func (c *EffectContext) Lower(call compiler.Call[EffectArgs]) (compiler.Node[EffectArgs], error) {
	return lower(&c.base, call)
}

// ActiveEffect is a plain Effect for content files and tests.
type ActiveEffect struct {
	Stats  map[string]float64 `toml:"stats"`
	On     *Sheet             `toml:"self"`
	Aim    *Sheet             `toml:"target"`
	Source *Sheet             `toml:"source"`
}

func (e *ActiveEffect) Stat(name string) float64 { return e.Stats[name] }
func (e *ActiveEffect) Affected() Character      { return sheetOrEmpty(e.On) }
func (e *ActiveEffect) Target() Character        { return sheetOrEmpty(e.Aim) }
func (e *ActiveEffect) Applier() Character       { return sheetOrEmpty(e.Source) }

var emptySheet = &Sheet{}

func sheetOrEmpty(s *Sheet) Character {
	if s == nil {
		return emptySheet
	}
	return s
}
