// Package equiv decides whether two parsed formulas denote the same
// computation by comparing their trees node by node. It does not normalize:
// a+b and b+a differ, and parentheses are nodes like any other.
package equiv

import (
	"errors"
	"fmt"
	"slices"

	"formula/internal/ast"
	"formula/internal/format"
	"formula/internal/source"
)

// ErrMismatch is wrapped by every error Compare returns.
var ErrMismatch = errors.New("formulas differ")

// Side is one tree to compare.
type Side struct {
	Builder *ast.Builder
	Root    ast.ExprID
}

// MismatchError locates the first difference.
type MismatchError struct {
	Left, Right source.Span
	Reason      string
	LeftText    string
	RightText   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s vs %s", e.Reason, e.LeftText, e.RightText)
}

func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Compare returns nil when a and b are structurally equal and a
// *MismatchError for the first difference otherwise.
func Compare(a, b Side) error {
	c := comparer{a: a.Builder, b: b.Builder}
	return c.expr(a.Root, b.Root)
}

// Equivalent is Compare reduced to a bool.
func Equivalent(a, b Side) bool {
	return Compare(a, b) == nil
}

type comparer struct {
	a, b *ast.Builder
}

func (c *comparer) fail(x, y ast.ExprID, reason string) error {
	ex, ey := c.a.Exprs.Get(x), c.b.Exprs.Get(y)
	err := &MismatchError{Reason: reason}
	if ex != nil {
		err.Left = ex.Span
		err.LeftText = format.Expr(c.a, x, format.Options{})
	}
	if ey != nil {
		err.Right = ey.Span
		err.RightText = format.Expr(c.b, y, format.Options{})
	}
	return err
}

func (c *comparer) expr(x, y ast.ExprID) error {
	ex, ey := c.a.Exprs.Get(x), c.b.Exprs.Get(y)
	if ex == nil || ey == nil {
		if ex == nil && ey == nil {
			return nil
		}
		return c.fail(x, y, "missing node")
	}
	if ex.Kind != ey.Kind {
		return c.fail(x, y, fmt.Sprintf("%s vs %s", ex.Kind, ey.Kind))
	}

	switch ex.Kind {
	case ast.ExprLit:
		lx, _ := c.a.Exprs.Literal(x)
		ly, _ := c.b.Exprs.Literal(y)
		if lx.Kind != ly.Kind || lx.Number != ly.Number || lx.Bool != ly.Bool {
			return c.fail(x, y, "different literal")
		}
		return nil

	case ast.ExprRef:
		rx, _ := c.a.Exprs.Ref(x)
		ry, _ := c.b.Exprs.Ref(y)
		if !slices.Equal(c.a.RefPath(rx), c.b.RefPath(ry)) {
			return c.fail(x, y, "different reference")
		}
		return nil

	case ast.ExprGroup:
		gx, _ := c.a.Exprs.Group(x)
		gy, _ := c.b.Exprs.Group(y)
		return c.expr(gx.Inner, gy.Inner)

	case ast.ExprUnary:
		ux, _ := c.a.Exprs.Unary(x)
		uy, _ := c.b.Exprs.Unary(y)
		if ux.Op != uy.Op {
			return c.fail(x, y, "different operator")
		}
		return c.expr(ux.Operand, uy.Operand)

	case ast.ExprBinary:
		bx, _ := c.a.Exprs.Binary(x)
		by, _ := c.b.Exprs.Binary(y)
		if bx.Op != by.Op {
			return c.fail(x, y, fmt.Sprintf("operator %s vs %s", bx.Op, by.Op))
		}
		if err := c.expr(bx.Left, by.Left); err != nil {
			return err
		}
		return c.expr(bx.Right, by.Right)

	case ast.ExprLogical:
		lx, _ := c.a.Exprs.Logical(x)
		ly, _ := c.b.Exprs.Logical(y)
		if lx.Op != ly.Op {
			return c.fail(x, y, fmt.Sprintf("operator %s vs %s", lx.Op, ly.Op))
		}
		if err := c.expr(lx.Left, ly.Left); err != nil {
			return err
		}
		return c.expr(lx.Right, ly.Right)

	case ast.ExprTernary:
		tx, _ := c.a.Exprs.Ternary(x)
		ty, _ := c.b.Exprs.Ternary(y)
		if err := c.expr(tx.Cond, ty.Cond); err != nil {
			return err
		}
		if err := c.expr(tx.Then, ty.Then); err != nil {
			return err
		}
		return c.expr(tx.Else, ty.Else)

	case ast.ExprCall:
		cx, _ := c.a.Exprs.Call(x)
		cy, _ := c.b.Exprs.Call(y)
		if c.a.Name(cx.Name) != c.b.Name(cy.Name) {
			return c.fail(x, y, "different function")
		}
		if len(cx.Args) != len(cy.Args) {
			return c.fail(x, y, "different argument count")
		}
		for i := range cx.Args {
			if err := c.expr(cx.Args[i], cy.Args[i]); err != nil {
				return err
			}
		}
		return nil
	}
	panic(fmt.Sprintf("equiv: unexpected expression kind %v", ex.Kind))
}
