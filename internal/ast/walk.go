package ast

// Children returns the direct sub-expressions of id in source order.
func (e *Exprs) Children(id ExprID) []ExprID {
	expr := e.Get(id)
	if expr == nil {
		return nil
	}
	switch expr.Kind {
	case ExprTernary:
		d, _ := e.Ternary(id)
		return []ExprID{d.Cond, d.Then, d.Else}
	case ExprLogical:
		d, _ := e.Logical(id)
		return []ExprID{d.Left, d.Right}
	case ExprBinary:
		d, _ := e.Binary(id)
		return []ExprID{d.Left, d.Right}
	case ExprUnary:
		d, _ := e.Unary(id)
		return []ExprID{d.Operand}
	case ExprCall:
		d, _ := e.Call(id)
		return d.Args
	case ExprGroup:
		d, _ := e.Group(id)
		return []ExprID{d.Inner}
	case ExprLit, ExprRef:
		return nil
	}
	return nil
}

// Walk visits id and its descendants in pre-order. Returning false from fn
// skips the node's children.
func (e *Exprs) Walk(id ExprID, fn func(ExprID, *Expr) bool) {
	expr := e.Get(id)
	if expr == nil {
		return
	}
	if !fn(id, expr) {
		return
	}
	for _, child := range e.Children(id) {
		e.Walk(child, fn)
	}
}

// Unparen strips grouping nodes.
func (e *Exprs) Unparen(id ExprID) ExprID {
	for {
		g, ok := e.Group(id)
		if !ok {
			return id
		}
		id = g.Inner
	}
}
