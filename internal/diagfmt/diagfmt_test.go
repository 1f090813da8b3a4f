package diagfmt_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"formula/internal/diagfmt"
	"formula/internal/frontend"
	"formula/internal/schema"
	"formula/internal/source"
	"formula/internal/types"
)

func analyze(t *testing.T, path, src string) *frontend.Result {
	t.Helper()
	sch := schema.New().MustProps(types.Number, "a", "b").MustProps(types.Boolean, "flag")
	return frontend.Analyze(src, frontend.Options{Schema: sch, Path: path})
}

func TestPrettyHeaderAndCaret(t *testing.T) {
	res := analyze(t, "hp.formula", "a + true")
	if res.Ok() {
		t.Fatal("expected a type error")
	}
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, res.Bag, res.FileSet, diagfmt.PrettyOpts{PathMode: diagfmt.PathModeBasename})
	out := buf.String()

	if !strings.HasPrefix(out, "hp.formula:1:5: ERROR SEM3004: ") {
		t.Fatalf("unexpected header:\n%s", out)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("want 3 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasSuffix(lines[1], "| a + true") {
		t.Fatalf("source line: %q", lines[1])
	}
	// caret под "true"
	caretAt := strings.Index(lines[2], "^")
	if caretAt != strings.Index(lines[1], "true") {
		t.Fatalf("caret misaligned:\n%s\n%s", lines[1], lines[2])
	}
	if !strings.HasSuffix(lines[2], "^~~~") {
		t.Fatalf("caret run: %q", lines[2])
	}
}

func TestPrettyNoColorEscapes(t *testing.T) {
	res := analyze(t, "x.formula", "a $ b")
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, res.Bag, res.FileSet, diagfmt.PrettyOpts{Color: false})
	if strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("escape codes with color disabled: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "LEX1001") {
		t.Fatalf("missing code:\n%s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	res := analyze(t, "x.formula", "a + true")
	var buf bytes.Buffer
	diagfmt.Pretty(&buf, res.Bag, res.FileSet, diagfmt.PrettyOpts{Color: true})
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected escape codes: %q", buf.String())
	}
}

func TestPathModes(t *testing.T) {
	tests := []struct {
		name string
		mode diagfmt.PathMode
		want string
	}{
		{"basename", diagfmt.PathModeBasename, "dmg.formula:"},
		{"relative", diagfmt.PathModeRelative, "balance/dmg.formula:"},
		{"auto under base", diagfmt.PathModeAuto, "balance/dmg.formula:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := source.NewFileSet()
			fs.SetBaseDir("/srv/game")
			sch := schema.New().MustProps(types.Number, "a")
			res := frontend.Analyze("a + true", frontend.Options{Schema: sch, FileSet: fs, Path: "/srv/game/balance/dmg.formula"})
			var buf bytes.Buffer
			diagfmt.Pretty(&buf, res.Bag, res.FileSet, diagfmt.PrettyOpts{PathMode: tt.mode})
			if !strings.HasPrefix(buf.String(), tt.want) {
				t.Fatalf("got %q, want prefix %q", buf.String(), tt.want)
			}
		})
	}
}

func TestParsePathMode(t *testing.T) {
	for in, want := range map[string]diagfmt.PathMode{
		"":         diagfmt.PathModeAuto,
		"abs":      diagfmt.PathModeAbsolute,
		"relative": diagfmt.PathModeRelative,
		"BASENAME": diagfmt.PathModeBasename,
	} {
		got, ok := diagfmt.ParsePathMode(in)
		if !ok || got != want {
			t.Errorf("ParsePathMode(%q) = %v, %v", in, got, ok)
		}
	}
	if _, ok := diagfmt.ParsePathMode("weird"); ok {
		t.Error("unknown mode accepted")
	}
}

func TestJSON(t *testing.T) {
	res := analyze(t, "j.formula", "a + true")
	var buf bytes.Buffer
	err := diagfmt.JSON(&buf, res.Bag, res.FileSet, diagfmt.JSONOpts{IncludePositions: true, PathMode: diagfmt.PathModeBasename})
	if err != nil {
		t.Fatal(err)
	}
	var out diagfmt.DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid json: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || out.Errors != 1 {
		t.Fatalf("count=%d errors=%d", out.Count, out.Errors)
	}
	d := out.Diagnostics[0]
	if d.Code != "SEM3004" || d.Severity != "ERROR" || d.Category != "TypeError" {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
	if d.Location.File != "j.formula" || d.Location.StartByte != 4 || d.Location.StartCol != 5 {
		t.Fatalf("unexpected location %+v", d.Location)
	}
}

func TestJSONMax(t *testing.T) {
	res := analyze(t, "m.formula", "a $ b # c")
	out := diagfmt.BuildDiagnosticsOutput(res.Bag, res.FileSet, diagfmt.JSONOpts{Max: 1})
	if res.Bag.Len() < 2 {
		t.Fatalf("expected several lexical errors, got %d", res.Bag.Len())
	}
	if out.Count != 1 {
		t.Fatalf("count=%d, want 1", out.Count)
	}
}

func TestTokens(t *testing.T) {
	res := frontend.Analyze("a >= 1.5", frontend.Options{Stage: frontend.StageTokenize})
	var buf bytes.Buffer
	if err := diagfmt.FormatTokensPretty(&buf, res.Tokens, res.FileSet); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{`"a"`, `">="`, `"1.5" = 1.5`, "EOF"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %s in:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := diagfmt.FormatTokensJSON(&buf, res.Tokens); err != nil {
		t.Fatal(err)
	}
	var toks []diagfmt.TokenOutput
	if err := json.Unmarshal(buf.Bytes(), &toks); err != nil {
		t.Fatal(err)
	}
	if len(toks) != 4 || toks[2].Value == nil || *toks[2].Value != 1.5 {
		t.Fatalf("unexpected tokens %+v", toks)
	}
}

func TestASTPretty(t *testing.T) {
	res := analyze(t, "t.formula", "flag ? a + 1 : 0")
	var buf bytes.Buffer
	if err := diagfmt.FormatASTPretty(&buf, res.Builder, res.Root, res.FileSet, res.Types); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"Ternary ?: [Number] (1:1-1:17)",
		"├─ Reference flag [Boolean] (1:1-1:5)",
		"├─ Binary + [Number] (1:8-1:13)",
		"│  ├─ Reference a [Number] (1:8-1:9)",
		"│  └─ Literal 1 [Number] (1:12-1:13)",
		"└─ Literal 0 [Number] (1:16-1:17)",
	}
	got := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), strings.Join(want, "\n"))
	}
}

func TestASTJSONAndTree(t *testing.T) {
	res := analyze(t, "t.formula", "max(a, (b))")
	var buf bytes.Buffer
	if err := diagfmt.FormatASTJSON(&buf, res.Builder, res.Root, res.Types); err != nil {
		t.Fatal(err)
	}
	var node diagfmt.ASTNodeOutput
	if err := json.Unmarshal(buf.Bytes(), &node); err != nil {
		t.Fatal(err)
	}
	if node.Type != "Call" || node.Kind != "max()" || len(node.Children) != 2 {
		t.Fatalf("unexpected root %+v", node)
	}
	if node.Children[1].Type != "Group" || node.Children[1].Children[0].Kind != "b" {
		t.Fatalf("group not preserved: %+v", node.Children[1])
	}

	buf.Reset()
	if err := diagfmt.FormatASTTree(&buf, res.Builder, res.Root); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if !strings.Contains(lines[0], "Call max()") || !strings.ContainsAny(lines[1], "/\\") {
		t.Fatalf("unexpected tree:\n%s", buf.String())
	}
}

func TestASTNoRoot(t *testing.T) {
	if err := diagfmt.FormatASTTree(&bytes.Buffer{}, nil, 0); err == nil {
		t.Fatal("expected ErrNoRoot")
	}
}
