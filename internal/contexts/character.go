package contexts

import (
	"fmt"
	"strings"

	"formula/internal/builtins"
	"formula/internal/compiler"
	"formula/internal/schema"
	"formula/internal/types"
	"formula/internal/value"
)

// Character is the view formulas get of a game character.
type Character interface {
	Stat(name string) float64
	Flag(name string) bool
	// Level returns the level of a skill such as "Attack".
	Level(skill string) float64
	// Modifier takes either a short key ("damage") or "ns:key".
	Modifier(key string) float64
}

var (
	characterStats = []string{
		"hitpoints", "maxHitpoints", "mana", "maxMana", "stamina",
		"strength", "agility", "intellect", "armor", "speed", "level",
	}
	characterFlags = []string{"alive", "stunned", "poisoned", "inCombat"}
	skills         = []string{"Attack", "Strength", "Defense", "Ranged", "Magic", "Prayer", "Hitpoints"}
	shortModifiers = []string{"damage", "accuracy", "armor", "speed", "critChance"}
	modifierSpaces = map[string][]string{
		"combat":  {"damage", "accuracy", "critChance", "critDamage"},
		"defense": {"armor", "block", "evasion"},
		"regen":   {"hitpoints", "mana"},
	}
)

// characterSchema builds the subtree mounted under every character root.
func characterSchema() *schema.Node {
	mods := schema.New().MustProps(types.Number, shortModifiers...)
	for ns, keys := range modifierSpaces {
		mods.MustMount(ns, schema.New().MustProps(types.Number, keys...))
	}
	return schema.New().
		MustProps(types.Number, characterStats...).
		MustProps(types.Boolean, characterFlags...).
		MustMount("levels", schema.New().MustProps(types.Number, skills...)).
		MustMount("modifier", mods)
}

// characterRoots maps every accepted root spelling to its canonical name.
var characterRoots = map[string]string{
	"self": "self", "s": "self",
	"target": "target", "t": "target",
}

// CharacterArgs is the argument of character formulas.
type CharacterArgs struct {
	Self   Character
	Target Character
}

// CharacterContext compiles formulas over CharacterArgs.
type CharacterContext struct {
	base
}

// NewCharacter returns the context for numeric character formulas.
func NewCharacter() *CharacterContext {
	return newCharacter(KindCharacter, types.Number)
}

// NewCharacterCondition returns the context for character predicates.
func NewCharacterCondition() *CharacterContext {
	return newCharacter(KindCharacterCondition, types.Boolean)
}

func newCharacter(kind string, ret types.PrimaryType) *CharacterContext {
	char := characterSchema()
	sch := schema.New().
		MustMount("self", char).MustMount("s", char).
		MustMount("target", char).MustMount("t", char)
	return &CharacterContext{base{kind: kind, schema: sch, table: characterBuiltins(), ret: ret, readable: characterPathReadable}}
}

func characterPathReadable(path []string, t types.PrimaryType) bool {
	if _, ok := characterRoots[path[0]]; !ok {
		return false
	}
	return characterReadable(path[1:], t)
}

// characterReadable mirrors the accessor shapes of characterRef: flags and
// stats directly under the root, levels.<skill>, modifier.<key> and
// modifier.<ns>.<key>. Everything below levels and modifier is a Number.
func characterReadable(rest []string, t types.PrimaryType) bool {
	switch {
	case len(rest) == 1:
		return scalar(t)
	case len(rest) == 2 && (rest[0] == "levels" || rest[0] == "modifier"):
		return t == types.Number
	case len(rest) == 3 && rest[0] == "modifier":
		return t == types.Number
	}
	return false
}

func characterBuiltins() *builtins.Table {
	t := builtins.Standard().Layer()
	t.Define(builtins.PercentSignature, builtins.PercentFunc)
	return t
}

func (c *CharacterContext) Reference(path []string) (compiler.Ref[CharacterArgs], error) {
	root, ok := characterRoots[path[0]]
	if !ok {
		return compiler.Ref[CharacterArgs]{}, fmt.Errorf("%w: unknown root %q", compiler.ErrNoAccessor, path[0])
	}
	var pick func(CharacterArgs) Character
	if root == "self" {
		pick = func(a CharacterArgs) Character { return a.Self }
	} else {
		pick = func(a CharacterArgs) Character { return a.Target }
	}
	return characterRef(&c.base, path, root, pick)
}

func (c *CharacterContext) Lower(call compiler.Call[CharacterArgs]) (compiler.Node[CharacterArgs], error) {
	return lower(&c.base, call)
}

// characterRef resolves the part of path after the root against a
// Character picked out of the argument. Every character root of every
// kind goes through here.
func characterRef[A any](b *base, path []string, root string, pick func(A) Character) (compiler.Ref[A], error) {
	t, err := b.propType(path)
	if err != nil {
		return compiler.Ref[A]{}, err
	}
	rest := path[1:]
	key := root + "." + strings.Join(rest, ".")
	ref := func(get func(Character) value.Value) (compiler.Ref[A], error) {
		return compiler.Ref[A]{
			Key: key,
			Get: func(a A) value.Value { return get(pick(a)) },
		}, nil
	}

	switch {
	case len(rest) == 1 && t == types.Boolean:
		name := rest[0]
		return ref(func(c Character) value.Value { return value.Bool(c.Flag(name)) })
	case len(rest) == 1:
		name := rest[0]
		return ref(func(c Character) value.Value { return value.Number(c.Stat(name)) })
	case len(rest) == 2 && rest[0] == "levels":
		skill := rest[1]
		return ref(func(c Character) value.Value { return value.Number(c.Level(skill)) })
	case len(rest) == 2 && rest[0] == "modifier":
		k := rest[1]
		return ref(func(c Character) value.Value { return value.Number(c.Modifier(k)) })
	case len(rest) == 3 && rest[0] == "modifier":
		k := rest[1] + ":" + rest[2]
		return ref(func(c Character) value.Value { return value.Number(c.Modifier(k)) })
	}
	return compiler.Ref[A]{}, fmt.Errorf("%w: %s", compiler.ErrNoAccessor, strings.Join(path, "."))
}

// Sheet is a plain Character backed by maps. Content files and tests use it;
// the game supplies its own implementation.
type Sheet struct {
	Stats     map[string]float64 `toml:"stats"`
	Flags     map[string]bool    `toml:"flags"`
	Levels    map[string]float64 `toml:"levels"`
	Modifiers map[string]float64 `toml:"modifiers"`
}

func (s *Sheet) Stat(name string) float64    { return s.Stats[name] }
func (s *Sheet) Flag(name string) bool       { return s.Flags[name] }
func (s *Sheet) Level(skill string) float64  { return s.Levels[skill] }
func (s *Sheet) Modifier(key string) float64 { return s.Modifiers[key] }
