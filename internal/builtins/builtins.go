// Package builtins holds the catalogue of functions callable from formulas.
// The standard table is shared by every context kind; a context layers its
// own entries on top without touching the shared one.
package builtins

import (
	"math/rand/v2"
	"slices"

	"formula/internal/types"
	"formula/internal/value"
)

// Rand supplies randomness to rand() and roll(). Implementations must be
// safe for concurrent use because compiled units are.
type Rand interface {
	Float64() float64
}

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }

// DefaultRand draws from math/rand/v2's goroutine-safe global source.
var DefaultRand Rand = globalRand{}

// Func evaluates a builtin on already-evaluated arguments.
type Func func(r Rand, args []value.Value) value.Value

type Builtin struct {
	Sig  types.Signature
	Eval Func
}

// Table maps names to builtins, optionally falling back to a parent table.
type Table struct {
	parent  *Table
	entries map[string]*Builtin
}

func NewTable(parent *Table) *Table {
	return &Table{parent: parent, entries: make(map[string]*Builtin)}
}

// Define adds or replaces an entry in this layer.
func (t *Table) Define(sig types.Signature, fn Func) {
	t.entries[sig.Name] = &Builtin{Sig: sig, Eval: fn}
}

// Lookup searches this layer, then the parents.
func (t *Table) Lookup(name string) (*Builtin, bool) {
	for cur := t; cur != nil; cur = cur.parent {
		if b, ok := cur.entries[name]; ok {
			return b, true
		}
	}
	return nil, false
}

// Layer returns a child table for context-specific additions.
func (t *Table) Layer() *Table {
	return NewTable(t)
}

// Names lists every visible builtin, sorted.
func (t *Table) Names() []string {
	seen := make(map[string]struct{})
	var out []string
	for cur := t; cur != nil; cur = cur.parent {
		for name := range cur.entries {
			if _, dup := seen[name]; dup {
				continue
			}
			seen[name] = struct{}{}
			out = append(out, name)
		}
	}
	slices.Sort(out)
	return out
}
