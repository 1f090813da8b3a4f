package interp_test

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"testing"

	"formula/internal/compiler"
	"formula/internal/contexts"
	"formula/internal/frontend"
	"formula/internal/interp"
	"formula/internal/value"
)

func evalSrc(t *testing.T, src string, env interp.Environment) (value.Value, error) {
	t.Helper()
	res := frontend.Analyze(src, frontend.Options{Stage: frontend.StageSyntax})
	if !res.Ok() {
		t.Fatalf("parse %q: %v", src, res.Bag.Items())
	}
	return interp.Eval(res.Builder, res.Root, env)
}

func TestEvalBasics(t *testing.T) {
	env := interp.NewMapEnv(nil).
		Set("self.hitpoints", value.Number(10)).
		Set("self.levels.Attack", value.Number(50)).
		Set("flag", value.False)
	cases := []struct {
		src  string
		want value.Value
	}{
		{"2+3*4", value.Number(14)},
		{"self.hitpoints > 0 ? self.levels.Attack * 2 : 0", value.Number(100)},
		{"flag || 7", value.Number(7)},
		{"flag && missing.path", value.False},
		{"!flag", value.True},
		{"max(1, self.hitpoints)", value.Number(10)},
		{"1 == true", value.True},
	}
	for _, tc := range cases {
		got, err := evalSrc(t, tc.src, env)
		if err != nil {
			t.Fatalf("%s: %v", tc.src, err)
		}
		if !got.Identical(tc.want) {
			t.Fatalf("%s = %v, want %v", tc.src, got, tc.want)
		}
	}
}

func TestEvalErrors(t *testing.T) {
	env := interp.NewMapEnv(nil)
	if _, err := evalSrc(t, "1 + nope", env); !errors.Is(err, interp.ErrUnknownReference) {
		t.Fatalf("expected ErrUnknownReference, got %v", err)
	}
	if _, err := evalSrc(t, "zap(1)", env); !errors.Is(err, interp.ErrUnknownFunction) {
		t.Fatalf("expected ErrUnknownFunction, got %v", err)
	}
	if _, err := evalSrc(t, "clamp(1)", env); !errors.Is(err, interp.ErrArity) {
		t.Fatalf("expected ErrArity, got %v", err)
	}
	if _, err := evalSrc(t, "0 && nope", env); err != nil {
		t.Fatalf("right side must not be evaluated: %v", err)
	}
}

// gen produces random well-typed literal formulas.
type gen struct{ r *rand.Rand }

func (g gen) number(depth int) string {
	if depth <= 0 || g.r.IntN(4) == 0 {
		if g.r.IntN(3) == 0 {
			return fmt.Sprintf("%d.%d", g.r.IntN(10), g.r.IntN(100))
		}
		return fmt.Sprint(g.r.IntN(10))
	}
	ops := []string{"+", "-", "*", "/", "%", "^"}
	switch g.r.IntN(6) {
	case 0:
		return "-" + g.number(depth-1)
	case 1:
		return "(" + g.number(depth-1) + ")"
	case 2:
		return "(" + g.boolean(depth-1) + " ? " + g.number(depth-1) + " : " + g.number(depth-1) + ")"
	case 3:
		fns := []string{"floor", "ceil", "round", "abs", "sign"}
		return fns[g.r.IntN(len(fns))] + "(" + g.number(depth-1) + ")"
	case 4:
		return "clamp(" + g.number(depth-1) + ", " + g.number(depth-1) + ", " + g.number(depth-1) + ")"
	default:
		return g.number(depth-1) + " " + ops[g.r.IntN(len(ops))] + " " + g.number(depth-1)
	}
}

func (g gen) boolean(depth int) string {
	if depth <= 0 {
		return []string{"true", "false"}[g.r.IntN(2)]
	}
	cmp := []string{"<", "<=", ">", ">=", "==", "!="}
	switch g.r.IntN(4) {
	case 0:
		return "!" + g.boolean(depth-1)
	case 1:
		return "(" + g.boolean(depth-1) + " && " + g.boolean(depth-1) + ")"
	case 2:
		return "(" + g.boolean(depth-1) + " || " + g.boolean(depth-1) + ")"
	default:
		return "(" + g.number(depth-1) + " " + cmp[g.r.IntN(len(cmp))] + " " + g.number(depth-1) + ")"
	}
}

func TestDifferentialAgainstCompiler(t *testing.T) {
	c := compiler.New[float64](contexts.NewValue())
	g := gen{r: rand.New(rand.NewPCG(1, 2))}
	env := interp.NewMapEnv(nil)
	for i := range 500 {
		src := g.number(4)
		r := c.Compile(src)
		if !r.Ok() {
			t.Fatalf("#%d %q: %v", i, src, r.Err())
		}
		want, err := evalSrc(t, src, env)
		if err != nil {
			t.Fatalf("#%d %q: %v", i, src, err)
		}
		if got := r.Unit.Eval(0); !got.Identical(want) {
			t.Fatalf("#%d %q: compiled %v, interpreted %v", i, src, got, want)
		}
	}
	if c.Len() == 0 {
		t.Fatal("compiler cache unused")
	}
}

func BenchmarkCompiledVsInterpreted(b *testing.B) {
	const src = "value > 10 ? clamp(value * 1.5 - 3, 0, 100) : floor(value / 2) + 1"
	c := compiler.New[float64](contexts.NewValue())
	u := c.MustCompile(src)
	res := frontend.Analyze(src, frontend.Options{Stage: frontend.StageSyntax})
	env := interp.NewMapEnv(nil)

	b.Run("compiled", func(b *testing.B) {
		for i := 0; b.Loop(); i++ {
			_ = u.Eval(float64(i % 20))
		}
	})
	b.Run("interpreted", func(b *testing.B) {
		for i := 0; b.Loop(); i++ {
			env.Set("value", value.Number(float64(i%20)))
			if _, err := interp.Eval(res.Builder, res.Root, env); err != nil {
				b.Fatal(err)
			}
		}
	})
}
