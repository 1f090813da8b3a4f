package equiv

import (
	"errors"
	"testing"

	"formula/internal/frontend"
)

func side(t *testing.T, src string) Side {
	t.Helper()
	res := frontend.Analyze(src, frontend.Options{Stage: frontend.StageSyntax})
	if !res.Ok() {
		t.Fatalf("parse %q: %v", src, res.Bag.Items())
	}
	return Side{Builder: res.Builder, Root: res.Root}
}

func TestEquivalent(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"a+b", "a + b", true},
		{"a+b", "b+a", false},
		{"self.levels.Attack * 2", "self.levels.Attack*2.0", true},
		{"a ? b : c ? d : e", "a?b:(c?d:e)", false},
		{"a ? b : c ? d : e", "a  ?  b  :  c ? d : e", true},
		{"(a)", "a", false},
		{"clamp(x, 0, 1)", "clamp(x,0,1)", true},
		{"clamp(x, 0, 1)", "clamp(x, 0, 2)", false},
		{"min(a, b)", "max(a, b)", false},
		{"a && b", "a || b", false},
		{"!a", "-a", false},
		{"true", "1", false},
		{"s.hp", "self.hp", false},
	}
	for _, tc := range cases {
		t.Run(tc.a+"|"+tc.b, func(t *testing.T) {
			got := Equivalent(side(t, tc.a), side(t, tc.b))
			if got != tc.want {
				t.Fatalf("Equivalent(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestCompareReportsFirstMismatch(t *testing.T) {
	err := Compare(side(t, "x * 2 + y"), side(t, "x * 3 + z"))
	if !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
	var me *MismatchError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MismatchError, got %T", err)
	}
	if me.LeftText != "2" || me.RightText != "3" || me.Reason != "different literal" {
		t.Fatalf("unexpected mismatch %+v", me)
	}
	if me.Left.Start != 4 || me.Right.Start != 4 {
		t.Fatalf("unexpected spans %v %v", me.Left, me.Right)
	}
}

func TestCompareOperator(t *testing.T) {
	err := Compare(side(t, "a - b"), side(t, "a + b"))
	var me *MismatchError
	if !errors.As(err, &me) || me.Reason != "operator - vs +" || me.LeftText != "a - b" {
		t.Fatalf("unexpected error %v", err)
	}
}
