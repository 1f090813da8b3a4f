// Package sema holds the two semantic passes run after parsing: Validate
// resolves references and builtin names, Check infers a PrimaryType for
// every node. Both only read the tree and report through diag.Reporter;
// both keep going after the first finding.
package sema

import (
	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/diag"
	"formula/internal/schema"
	"formula/internal/types"
)

// Options configure a semantic pass over one formula.
type Options struct {
	Reporter diag.Reporter
	Schema   *schema.Node
	Builtins *builtins.Table
}

// TypeTable stores the inferred type of every node, indexed by ExprID.
type TypeTable struct {
	types []types.PrimaryType
}

func newTypeTable(b *ast.Builder) *TypeTable {
	return &TypeTable{types: make([]types.PrimaryType, b.Exprs.Arena.Len()+1)}
}

// Of returns the type recorded for id, or Invalid.
func (t *TypeTable) Of(id ast.ExprID) types.PrimaryType {
	if t == nil || int(id) >= len(t.types) {
		return types.Invalid
	}
	return t.types[id]
}

func (t *TypeTable) set(id ast.ExprID, pt types.PrimaryType) {
	t.types[id] = pt
}
