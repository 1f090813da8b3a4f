package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formula/internal/version"
)

var testManifest = filepath.Join("..", "..", "testdata", "formula.toml")

type runResult struct {
	code   int
	stdout string
	stderr string
}

func run(t *testing.T, stdin string, args ...string) runResult {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(context.Background(), args, strings.NewReader(stdin), &out, &errOut)
	return runResult{code: code, stdout: out.String(), stderr: errOut.String()}
}

func mustRun(t *testing.T, args ...string) runResult {
	t.Helper()
	r := run(t, "", args...)
	if r.code != 0 {
		t.Fatalf("formula %s: exit %d\nstdout:\n%s\nstderr:\n%s", strings.Join(args, " "), r.code, r.stdout, r.stderr)
	}
	return r
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func TestVersion(t *testing.T) {
	r := mustRun(t, "--color", "off", "version")
	if !strings.HasPrefix(r.stdout, "formula "+version.Version+"\n") {
		t.Fatalf("stdout = %q", r.stdout)
	}

	r = mustRun(t, "version", "--format", "json")
	var payload versionPayload
	if err := json.Unmarshal([]byte(r.stdout), &payload); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if payload.Tool != "formula" || payload.Version != version.Version {
		t.Fatalf("payload = %+v", payload)
	}
}

func TestInvalidGlobalFlag(t *testing.T) {
	r := run(t, "", "--color", "purple", "version")
	if r.code != 1 || !strings.Contains(r.stderr, "invalid --color") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
	r = run(t, "", "version", "--format", "yaml")
	if r.code != 1 || !strings.Contains(r.stderr, `unknown format "yaml"`) {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestEval(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"arithmetic", []string{"2 + 3 * 4"}, "14"},
		{"value", []string{"--value", "4", "clamp(round(value ^ 1.5), 1, 99)"}, "8"},
		{"params", []string{"--kind", "params", "-p", "base=10", "-p", "bonus=5", "base + bonus"}, "15"},
		{"params oracle", []string{"--kind", "params", "-p", "base=3", "--oracle", "base ^ 2 - 1"}, "8"},
		{"value oracle", []string{"--value", "9", "--oracle", "sqrt(value) > 2 ? 1 : 0"}, "1"},
		{"roll fixed", []string{"--rand", "0.2", "--oracle", "roll(0.5) ? 10 : 0"}, "10"},
		{"character case", []string{"--kind", "character", "--case", "self = { stats = { hitpoints = 10.0 } }", "self.hitpoints * 2"}, "20"},
		{"condition", []string{"--kind", "character-condition", "--case", "target = { flags = { alive = true } }", "t.alive"}, "true"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--manifest", "none", "--quiet", "eval"}, tt.args...)
			r := mustRun(t, args...)
			if got := strings.TrimSpace(r.stdout); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEvalJSON(t *testing.T) {
	r := mustRun(t, "--manifest", "none", "eval", "--format", "json", "--value", "2", "--oracle", "value * 3")
	var out struct {
		Kind   string  `json:"kind"`
		Type   string  `json:"type"`
		Value  float64 `json:"value"`
		Oracle float64 `json:"oracle"`
	}
	if err := json.Unmarshal([]byte(r.stdout), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if out.Kind != "value" || out.Value != 6 || out.Oracle != 6 {
		t.Fatalf("out = %+v", out)
	}
}

func TestEvalReportsDiagnostics(t *testing.T) {
	r := run(t, "", "--manifest", "none", "--color", "off", "eval", "missing + 1")
	if r.code != 1 {
		t.Fatalf("exit %d", r.code)
	}
	if !strings.Contains(r.stderr, "SEM3001") || strings.Contains(r.stderr, "formula: errors reported") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}
}

func TestEvalRejectsBadInput(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{[]string{"-p", "base", "base"}, "invalid --param"},
		{[]string{"--case", "self = [", "1"}, "invalid --case"},
		{[]string{"--case", "mystery = 1", "1"}, "unknown key"},
		{[]string{"--kind", "effect", "--oracle", "1"}, "--oracle supports only"},
		{[]string{"--rand", "1.5", "1"}, "--rand must be below 1"},
		{[]string{"--kind", "spell", "1"}, "unknown context"},
	}
	for _, tt := range tests {
		args := append([]string{"--manifest", "none", "eval"}, tt.args...)
		r := run(t, "", args...)
		if r.code != 1 || !strings.Contains(r.stderr, tt.want) {
			t.Errorf("%v: exit %d, stderr %q", tt.args, r.code, r.stderr)
		}
	}
}

func TestEvalReadsStdin(t *testing.T) {
	r := run(t, "1 + 1\n", "--manifest", "none", "--quiet", "eval", "-f", "-")
	if r.code != 0 || strings.TrimSpace(r.stdout) != "2" {
		t.Fatalf("exit %d, stdout %q, stderr %q", r.code, r.stdout, r.stderr)
	}
}

func TestEvalUsesManifest(t *testing.T) {
	r := mustRun(t, "--manifest", testManifest, "--quiet", "eval", "--kind", "params", "base * 2 + bonus")
	if got := strings.TrimSpace(r.stdout); got != "0" {
		t.Fatalf("got %q", got)
	}
}

func TestCompare(t *testing.T) {
	r := mustRun(t, "compare", "a+b*c", "a + b * c")
	if strings.TrimSpace(r.stdout) != "equivalent" {
		t.Fatalf("stdout = %q", r.stdout)
	}

	r = run(t, "", "compare", "a + b", "b + a")
	if r.code != 1 || !strings.Contains(r.stdout, "not equivalent") {
		t.Fatalf("exit %d, stdout %q", r.code, r.stdout)
	}

	r = run(t, "", "compare", "a +", "a")
	if r.code != 1 || !strings.Contains(r.stderr, "left") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestRefs(t *testing.T) {
	r := mustRun(t, "--manifest", testManifest, "refs", "--kind", "character")
	for _, want := range []string{"self.modifier.fire", "t.levels.Attack", "functions: abs, ceil, clamp", "returns: Number"} {
		if !strings.Contains(r.stdout, want) {
			t.Fatalf("stdout misses %q:\n%s", want, r.stdout)
		}
	}

	r = mustRun(t, "--manifest", "none", "refs", "--kind", "value", "--format", "json")
	var out struct {
		Kind       string
		References []struct {
			Path string
			Type string
		}
		Functions []string
	}
	if err := json.Unmarshal([]byte(r.stdout), &out); err != nil {
		t.Fatalf("json: %v\n%s", err, r.stdout)
	}
	if out.Kind != "value" || len(out.References) != 1 || out.References[0].Path != "value" || out.References[0].Type != "Number" {
		t.Fatalf("refs = %+v", out)
	}

	if r := run(t, "", "refs", "--kind", "spell"); r.code == 0 || !strings.Contains(r.stderr, "unknown context kind") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestFmt(t *testing.T) {
	r := mustRun(t, "fmt", "a+b*c")
	if r.stdout != "a + b * c\n" {
		t.Fatalf("stdout = %q", r.stdout)
	}
	r = mustRun(t, "fmt", "--compact", "--minimal", "((a)) + (b * c)")
	if r.stdout != "a+b*c\n" {
		t.Fatalf("stdout = %q", r.stdout)
	}
	mustRun(t, "fmt", "--check", "a + b * c")

	r = run(t, "", "fmt", "--check", "a+b")
	if r.code != 1 || !strings.Contains(r.stderr, "a + b") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
	r = run(t, "", "--color", "off", "fmt", "1 +")
	if r.code != 1 || !strings.Contains(r.stderr, "SYN") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestTokenizeAndParse(t *testing.T) {
	r := mustRun(t, "--manifest", "none", "tokenize", "--format", "json", "1 + x")
	var tokens []map[string]any
	if err := json.Unmarshal([]byte(r.stdout), &tokens); err != nil || len(tokens) < 3 {
		t.Fatalf("tokens: %v\n%s", err, r.stdout)
	}

	r = mustRun(t, "--manifest", "none", "parse", "--format", "tree", "1 + x")
	if !strings.Contains(r.stdout, "+") {
		t.Fatalf("tree:\n%s", r.stdout)
	}

	r = mustRun(t, "--manifest", "none", "parse", "--kind", "value", "value > 1")
	if !strings.Contains(r.stderr, "type: Boolean") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}

	r = run(t, "", "--manifest", "none", "--color", "off", "parse", "1 +")
	if r.code != 1 || !strings.Contains(r.stderr, "SYN") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestCheckProject(t *testing.T) {
	r := mustRun(t, "--manifest", testManifest, "check", "--ui", "off")
	if !strings.HasPrefix(r.stdout, "checked 9 formulas in 3 files") {
		t.Fatalf("stdout = %q", r.stdout)
	}
	if strings.Contains(r.stdout, "failed") {
		t.Fatalf("stdout = %q\nstderr:\n%s", r.stdout, r.stderr)
	}
}

func TestCheckJSON(t *testing.T) {
	dir := filepath.Join("..", "..", "testdata", "content")
	r := mustRun(t, "--manifest", testManifest, "check", "--format", "json", dir)
	var out checkJSON
	if err := json.Unmarshal([]byte(r.stdout), &out); err != nil {
		t.Fatalf("decode: %v\n%s", err, r.stdout)
	}
	if out.Errors != 0 || len(out.Files) != 3 {
		t.Fatalf("errors=%d files=%d", out.Errors, len(out.Files))
	}
	var names []string
	for _, f := range out.Files {
		for _, fm := range f.Formulas {
			names = append(names, fm.Name)
			if fm.Name == "bad_sum" && !fm.ExpectedFailure {
				t.Fatal("bad_sum not reported as an expected failure")
			}
		}
	}
	if len(names) != 9 {
		t.Fatalf("formulas = %v", names)
	}
}

func TestCheckFailures(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.toml")
	content := `[formulas.wrong]
context = "value"
expr = "value + 1"

[[formulas.wrong.cases]]
want = 5
value = 1.0
`
	writeTestFile(t, path, content)
	r := run(t, "", "--manifest", "none", "--color", "off", "check", "--ui", "off", dir)
	if r.code != 1 {
		t.Fatalf("exit %d", r.code)
	}
	if !strings.Contains(r.stderr, "IO4004") || !strings.Contains(r.stdout, "1 failed") {
		t.Fatalf("stdout %q\nstderr:\n%s", r.stdout, r.stderr)
	}

	r = run(t, "", "--manifest", "none", "check", "--format", "short", dir)
	if r.code != 1 || !strings.HasPrefix(r.stdout, "error IO4004 ") || !strings.Contains(r.stdout, `formula "wrong" case #1: got 2, want 5`) {
		t.Fatalf("exit %d, stdout %q", r.code, r.stdout)
	}
}

func TestCheckWithoutPaths(t *testing.T) {
	r := run(t, "", "--manifest", "none", "check")
	if r.code != 1 || !strings.Contains(r.stderr, "no paths given") {
		t.Fatalf("exit %d, stderr %q", r.code, r.stderr)
	}
}

func TestCheckCache(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	mustRun(t, "--manifest", testManifest, "check", "--ui", "off", "--cache")
	r := mustRun(t, "--manifest", testManifest, "check", "--ui", "off", "--cache")
	if !strings.Contains(r.stdout, "(3 files cached)") {
		t.Fatalf("stdout = %q", r.stdout)
	}
	r = mustRun(t, "--manifest", testManifest, "check", "--ui", "off", "--cache", "--clear-cache")
	if strings.Contains(r.stdout, "cached") {
		t.Fatalf("stdout = %q", r.stdout)
	}
}

func TestCheckTimings(t *testing.T) {
	r := mustRun(t, "--manifest", testManifest, "--timings", "check", "--ui", "off")
	if !strings.Contains(r.stderr, "total:") {
		t.Fatalf("stderr:\n%s", r.stderr)
	}
}

func TestTraceToStderr(t *testing.T) {
	r := mustRun(t, "--manifest", "none", "--quiet", "--trace", "-", "eval", "1")
	if r.stderr == "" {
		t.Fatal("no trace output")
	}
}
