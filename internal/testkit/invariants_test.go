package testkit

import (
	"testing"

	"formula/internal/ast"
	"formula/internal/frontend"
	"formula/internal/source"
)

func TestSpanInvariantsHold(t *testing.T) {
	for _, src := range []string{
		"1 + 2 * 3",
		"self.hitpoints > 0 ? percent(self.levels.Attack, 50) : -1",
		"((a))",
		"!flag || a >= b && max(a, b) == 2",
		"  rand()  ",
	} {
		res := frontend.Analyze(src, frontend.Options{Stage: frontend.StageSyntax})
		if res.Reached != frontend.StageSyntax || !res.Ok() {
			t.Fatalf("%q: parse failed", src)
		}
		if err := CheckSpanInvariants(res.Builder, res.Root, res.File); err != nil {
			t.Errorf("%q: %v", src, err)
		}
	}
}

func TestSpanInvariantsDetectBrokenTree(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("x", []byte("1 + 2")))
	b := ast.NewBuilder(ast.Hints{}, nil)
	one := b.Exprs.NewNumber(source.Span{File: f.ID, Start: 0, End: 1}, 1, 0)
	// правый операнд вылезает за границы родителя
	two := b.Exprs.NewNumber(source.Span{File: f.ID, Start: 4, End: 9}, 2, 0)
	root := b.Exprs.NewBinary(source.Span{File: f.ID, Start: 0, End: 5}, ast.ExprBinaryAdd, one, two)
	if err := CheckSpanInvariants(b, root, f); err == nil {
		t.Fatal("expected violation")
	}
}
