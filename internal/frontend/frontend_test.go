package frontend

import (
	"strings"
	"testing"

	"formula/internal/builtins"
	"formula/internal/diag"
	"formula/internal/observ"
	"formula/internal/schema"
	"formula/internal/trace"
	"formula/internal/types"
)

func testSchema() *schema.Node {
	levels := schema.New().MustProps(types.Number, "Attack", "Defense")
	char := schema.New().
		MustProps(types.Number, "hitpoints").
		MustProps(types.Boolean, "alive").
		MustMount("levels", levels)
	return schema.New().
		MustMount("self", char).
		MustMount("s", char).
		MustProps(types.Number, "a", "b").
		MustProps(types.Boolean, "flag")
}

func analyze(src string) *Result {
	return Analyze(src, Options{Schema: testSchema(), Builtins: builtins.Standard()})
}

func codes(bag *diag.Bag) []diag.Code {
	out := make([]diag.Code, 0, bag.Len())
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestAnalyzeValid(t *testing.T) {
	cases := []struct {
		src  string
		want types.PrimaryType
	}{
		{"1 + 2 * 3", types.Number},
		{"self.hitpoints > 0 ? self.levels.Attack * 2 : 0", types.Number},
		{"flag && a > b", types.Boolean},
		{"flag ? 1 : true", types.NumberOrBoolean},
		{"clamp(a, 0, s.levels.Defense)", types.Number},
		{"!a", types.Boolean},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			res := analyze(tc.src)
			if !res.Ok() {
				t.Fatalf("unexpected diagnostics: %v", codes(res.Bag))
			}
			if res.Type != tc.want {
				t.Fatalf("type = %s, want %s", res.Type, tc.want)
			}
			if res.Reached != StageTypecheck {
				t.Fatalf("reached %s", res.Reached)
			}
		})
	}
}

func TestAnalyzeFailFast(t *testing.T) {
	cases := []struct {
		src     string
		reached Stage
		want    []diag.Code
	}{
		{"1 $ 2 # 3", StageTokenize, []diag.Code{diag.LexUnknownChar, diag.LexUnknownChar}},
		{"1 +", StageSyntax, []diag.Code{diag.SynExpectExpression}},
		{"foo.bar + nope(1)", StageValidate, []diag.Code{diag.SemUnknownReference, diag.SemUnknownFunction}},
		{"1 + true", StageTypecheck, []diag.Code{diag.SemTypeMismatch}},
		{"(1 + true) * (flag - 2)", StageTypecheck, []diag.Code{diag.SemTypeMismatch, diag.SemTypeMismatch}},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			res := analyze(tc.src)
			if res.Ok() {
				t.Fatal("expected errors")
			}
			if res.Reached != tc.reached {
				t.Fatalf("reached %s, want %s", res.Reached, tc.reached)
			}
			got := codes(res.Bag)
			if len(got) != len(tc.want) {
				t.Fatalf("codes = %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("codes = %v, want %v", got, tc.want)
				}
			}
		})
	}
}

func TestAnalyzeStageLimit(t *testing.T) {
	res := Analyze("foo + 1", Options{Stage: StageSyntax})
	if !res.Ok() || res.Reached != StageSyntax || res.Types != nil {
		t.Fatalf("expected syntax-only run, got reached=%s ok=%v", res.Reached, res.Ok())
	}
	if _, err := ParseStage("bogus"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestAnalyzeUnknownReferenceMessage(t *testing.T) {
	res := analyze("foo.bar")
	items := res.Bag.Items()
	if len(items) != 1 || !strings.Contains(items[0].Message, "'foo.bar'") {
		t.Fatalf("unexpected diagnostics: %+v", items)
	}
	out := diag.FormatShort(items, res.FileSet, false)
	if !strings.HasPrefix(out, "error SEM3001 <expr>:1:1") {
		t.Fatalf("unexpected short form: %q", out)
	}
}

func TestAnalyzeTracesAndTimes(t *testing.T) {
	ring := trace.NewRingTracer(32, trace.LevelPhase)
	timer := observ.NewTimer()
	res := Analyze("a + b", Options{Schema: testSchema(), Tracer: ring, Timer: timer})
	if !res.Ok() {
		t.Fatalf("unexpected diagnostics: %v", codes(res.Bag))
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		if ev.Kind == trace.KindSpanBegin {
			names = append(names, ev.Name)
		}
	}
	if strings.Join(names, ",") != "lex,parse,validate,typecheck" {
		t.Fatalf("unexpected spans: %v", names)
	}
	if len(timer.Report().Phases) != 4 {
		t.Fatalf("expected 4 timed phases")
	}
}

func TestTester(t *testing.T) {
	sch := testSchema()
	table := builtins.Standard()
	cases := []struct {
		src      string
		expected types.PrimaryType
		valid    bool
		literal  bool
	}{
		{"42", types.Number, true, true},
		{"-3.5", types.Number, true, true},
		{"((7))", types.Number, true, true},
		{"-(2)", types.Number, true, true},
		{"true", types.Boolean, true, true},
		{"-true", types.Invalid, false, false},
		{"1 + 1", types.Number, true, false},
		{"a", types.Number, true, false},
		{"a > 1", types.Number, false, false},
		{"flag ? 1 : false", types.Number, true, false},
		{"!-1", types.Boolean, true, false},
		{"foo", types.Number, false, false},
		{"1 +", types.Number, false, false},
	}
	for _, tc := range cases {
		t.Run(tc.src, func(t *testing.T) {
			got := Test(tc.src, sch, table, tc.expected)
			if got.IsValid != tc.valid || got.IsLiteral != tc.literal {
				t.Fatalf("Test(%q) = valid %v literal %v, want %v %v (%v)",
					tc.src, got.IsValid, got.IsLiteral, tc.valid, tc.literal, codes(got.Bag))
			}
			if !got.IsValid && got.Bag.Len() == 0 {
				t.Fatal("invalid result without diagnostics")
			}
		})
	}
}

func TestTesterReturnMismatch(t *testing.T) {
	got := Test("a > 1", testSchema(), builtins.Standard(), types.Number)
	ds := got.Bag.ByCode(diag.SemReturnMismatch)
	if len(ds) != 1 || ds[0].Message != "formula must produce Number, got Boolean" {
		t.Fatalf("unexpected diagnostics: %+v", got.Bag.Items())
	}
	if got.Type != types.Boolean {
		t.Fatalf("type = %s", got.Type)
	}
}
