package driver_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"formula"
	"formula/internal/diag"
	"formula/internal/driver"
	"formula/internal/types"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func codes(b *diag.Bag) []string {
	var out []string
	for _, d := range b.Items() {
		out = append(out, d.Code.ID())
	}
	return out
}

func checkOne(t *testing.T, opts driver.Options, content string) *driver.FileReport {
	t.Helper()
	path := writeFile(t, t.TempDir(), "content.toml", content)
	rep, err := driver.NewChecker(formula.New(), opts).CheckFile(context.Background(), path)
	if err != nil {
		t.Fatalf("CheckFile: %v", err)
	}
	return rep
}

func TestCheckProjectTestdata(t *testing.T) {
	m, err := driver.LoadManifest(filepath.Join("..", "..", "testdata", driver.ManifestName))
	if err != nil {
		t.Fatalf("LoadManifest: %v", err)
	}
	e := formula.New(m.EngineOptions()...)
	if err := m.Apply(e); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	files, err := driver.ListContentFiles(m.IncludeDirs()...)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("files = %v, want 3 content files", files)
	}

	reports, err := driver.NewChecker(e, driver.Options{Jobs: m.Config.Check.Jobs}).CheckFiles(context.Background(), files)
	if err != nil {
		t.Fatalf("CheckFiles: %v", err)
	}
	byName := make(map[string]*driver.FormulaReport)
	for i, r := range reports {
		if r.Path != files[i] {
			t.Fatalf("report %d is for %s, want %s", i, r.Path, files[i])
		}
		if !r.Ok() {
			t.Fatalf("%s: %d errors: %v", r.Path, r.Errors(), codes(r.Bag))
		}
		for _, f := range r.Formulas {
			byName[f.Name] = f
		}
	}
	if f := byName["can_finish"]; f == nil || f.Type != types.Boolean || f.Cases != 2 {
		t.Fatalf("can_finish = %+v", f)
	}
	if f := byName["bad_sum"]; f == nil || !f.ExpectedFailure || f.Errors() != 0 {
		t.Fatalf("bad_sum = %+v", f)
	}
	if f := byName["zone_reward"]; f == nil || f.Cases != 1 {
		t.Fatalf("zone_reward = %+v", f)
	}
}

func TestCheckFormulaOrder(t *testing.T) {
	rep := checkOne(t, driver.Options{}, `
[formulas.zeta]
context = "value"
expr = "value"

[formulas.alpha]
context = "value"
expr = "value + 1"
`)
	if len(rep.Formulas) != 2 || rep.Formulas[0].Name != "zeta" || rep.Formulas[1].Name != "alpha" {
		t.Fatalf("formulas out of file order: %+v", rep.Formulas)
	}
}

func TestCheckExpectations(t *testing.T) {
	tests := []struct {
		name    string
		content string
		code    string
		msg     string
	}{
		{
			name: "wrong case result",
			content: `
[formulas.double]
context = "value"
expr = "value * 2"

[[formulas.double.cases]]
value = 3.0
want = 7
`,
			code: "IO4004",
			msg:  "got 6, want 7",
		},
		{
			name: "unknown context",
			content: `
[formulas.x]
context = "monster"
expr = "1"
`,
			code: "IO4003",
			msg:  `unknown context "monster"`,
		},
		{
			name: "expected failure compiles",
			content: `
[formulas.x]
context = "value"
expr = "value"
expect = "SEM3004"
`,
			code: "IO4004",
			msg:  "expected SEM3004, but it compiled",
		},
		{
			name: "expected failure with another code",
			content: `
[formulas.x]
context = "value"
expr = "nope(1)"
expect = "SEM3004"
`,
			code: "IO4004",
			msg:  "got SEM3002",
		},
		{
			name: "declared type",
			content: `
[formulas.x]
context = "value"
expr = "value > 1 ? 2 : false"
type = "number"
`,
			code: "IO4004",
			msg:  "expected type Number, got NumberOrBoolean",
		},
		{
			name: "want of wrong kind",
			content: `
[formulas.x]
context = "value"
expr = "value"

[[formulas.x.cases]]
want = true
`,
			code: "IO4004",
			msg:  "got 0, want true",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := checkOne(t, driver.Options{}, tt.content)
			if rep.Ok() {
				t.Fatal("report is clean")
			}
			found := false
			for _, d := range rep.Bag.Items() {
				if d.Code.ID() == tt.code && strings.Contains(d.Message, tt.msg) {
					found = true
				}
			}
			if !found {
				for _, d := range rep.Bag.Items() {
					t.Logf("%s %s", d.Code.ID(), d.Message)
				}
				t.Fatalf("no %s diagnostic containing %q", tt.code, tt.msg)
			}
		})
	}
}

func TestCheckReportsRepeatedCaseErrorOnce(t *testing.T) {
	rep := checkOne(t, driver.Options{}, `
[formulas.x]
context = "value"
expr = "value"

[[formulas.x.cases]]
value = 1.0
want = "high"

[[formulas.x.cases]]
value = 2.0
want = "low"

[[formulas.x.cases]]
value = 3.0
want = 4
`)
	items := rep.Bag.Items()
	var bad, mismatch int
	for _, d := range items {
		switch {
		case d.Code == diag.IOBadContentFile:
			bad++
			if len(d.Notes) != 1 || !strings.Contains(d.Notes[0].Msg, "#1") {
				t.Fatalf("notes = %+v", d.Notes)
			}
		case d.Code == diag.IOExpectationFail && strings.Contains(d.Message, "case #3"):
			mismatch++
		}
	}
	if bad != 1 || mismatch != 1 || len(items) != 2 {
		t.Fatalf("diagnostics = %v", codes(rep.Bag))
	}
}

func TestCheckToleratesRounding(t *testing.T) {
	rep := checkOne(t, driver.Options{}, `
[formulas.third]
context = "value"
expr = "value / 3 * 3"

[[formulas.third.cases]]
value = 0.1
want = 0.1
`)
	if !rep.Ok() {
		t.Fatalf("errors: %v", codes(rep.Bag))
	}
}

func TestCheckCompileErrorAttribution(t *testing.T) {
	rep := checkOne(t, driver.Options{}, `
[formulas.broken]
context = "character"
expr = "self.mana +"
`)
	if rep.Ok() || len(rep.Formulas) != 1 {
		t.Fatalf("want one failing formula, got %+v", rep.Formulas)
	}
	f := rep.Formulas[0]
	if f.Errors() == 0 || f.FileSet == nil {
		t.Fatalf("formula report = %+v", f)
	}
	d := f.Bag.Items()[0]
	if d.Code.Category() != diag.CatSyntax {
		t.Fatalf("category = %s", d.Code.Category())
	}
	path := f.FileSet.Get(d.Primary.File).Path
	if !strings.HasSuffix(path, "[formulas.broken]") {
		t.Fatalf("diagnostic attributed to %q", path)
	}
}

func TestCheckMalformedContent(t *testing.T) {
	rep := checkOne(t, driver.Options{}, "[formulas.x\ncontext = 1\n")
	items := rep.Bag.Items()
	if len(items) != 1 || items[0].Code != diag.IOBadContentFile {
		t.Fatalf("diagnostics = %v", codes(rep.Bag))
	}
	if len(rep.Formulas) != 0 {
		t.Fatal("formulas decoded from a broken file")
	}
}

func TestCheckUnknownKeyWarns(t *testing.T) {
	rep := checkOne(t, driver.Options{}, `
[formulas.x]
context = "value"
expr = "value"
note = "typo"
`)
	if !rep.Ok() {
		t.Fatalf("warning counted as error: %v", codes(rep.Bag))
	}
	if len(rep.Bag.ByCode(diag.IOBadContentFile)) != 1 {
		t.Fatalf("diagnostics = %v", codes(rep.Bag))
	}
}

func TestCheckMissingFile(t *testing.T) {
	c := driver.NewChecker(formula.New(), driver.Options{})
	rep, err := c.CheckFile(context.Background(), filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(rep.Bag.ByCode(diag.IOReadFailure)) != 1 {
		t.Fatalf("diagnostics = %v", codes(rep.Bag))
	}
}

func TestCheckFilesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	path := writeFile(t, t.TempDir(), "a.toml", "")
	_, err := driver.NewChecker(formula.New(), driver.Options{}).CheckFiles(ctx, []string{path})
	if err == nil {
		t.Fatal("cancelled context not reported")
	}
}

func TestCheckUsesDiskCache(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	dir := t.TempDir()
	path := writeFile(t, dir, "a.toml", `
[formulas.x]
context = "value"
expr = "value + 1"

[[formulas.x.cases]]
value = 1.0
want = 2
`)
	c := driver.NewChecker(formula.New(), driver.Options{Cache: cache})
	first, err := c.CheckFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if first.Cached || !first.Ok() {
		t.Fatalf("first run: cached=%v errors=%v", first.Cached, codes(first.Bag))
	}
	second, err := c.CheckFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached || len(second.Formulas) != 1 || second.Formulas[0].Cases != 1 {
		t.Fatalf("second run = %+v", second)
	}
	if second.Formulas[0].Type != types.Number {
		t.Fatalf("cached type = %s", second.Formulas[0].Type)
	}

	writeFile(t, dir, "a.toml", `
[formulas.x]
context = "value"
expr = "value + 2"
`)
	third, err := c.CheckFile(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if third.Cached {
		t.Fatal("edited file answered from cache")
	}
}

func TestCheckCachesExpectedFailures(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "a.toml", `
[formulas.bad_sum]
context = "value"
expr = "value + true"
expect = "SEM3004"
`)
	c := driver.NewChecker(formula.New(), driver.Options{Cache: cache})
	check := func() *driver.FileReport {
		t.Helper()
		rep, err := c.CheckFile(context.Background(), path)
		if err != nil {
			t.Fatal(err)
		}
		if !rep.Ok() || len(rep.Formulas) != 1 || !rep.Formulas[0].ExpectedFailure {
			t.Fatalf("report = %+v", rep)
		}
		return rep
	}
	if check().Cached {
		t.Fatal("first run answered from cache")
	}
	if !check().Cached {
		t.Fatal("expected-failure file was not cached")
	}

	// испорченная запись считается промахом и перезаписывается
	entries, err := filepath.Glob(filepath.Join(cache.Dir(), "checks", "*.mp"))
	if err != nil || len(entries) != 1 {
		t.Fatalf("cache entries = %v, err = %v", entries, err)
	}
	if err := os.WriteFile(entries[0], []byte{0xc1}, 0o600); err != nil {
		t.Fatal(err)
	}
	if check().Cached {
		t.Fatal("corrupt entry answered from cache")
	}
	if !check().Cached {
		t.Fatal("corrupt entry was not replaced")
	}
}

func TestCheckDoesNotCacheFailures(t *testing.T) {
	cache, err := driver.OpenDiskCacheAt(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	path := writeFile(t, t.TempDir(), "a.toml", `
[formulas.x]
context = "value"
expr = "value +"
`)
	c := driver.NewChecker(formula.New(), driver.Options{Cache: cache})
	for i := range 2 {
		rep, err := c.CheckFile(context.Background(), path)
		if err != nil {
			t.Fatal(err)
		}
		if rep.Cached || rep.Ok() {
			t.Fatalf("run %d: cached=%v ok=%v", i, rep.Cached, rep.Ok())
		}
	}
}

func TestCheckProgressEvents(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", "[formulas.x]\ncontext = \"value\"\nexpr = \"value\"\n")
	b := writeFile(t, dir, "b.toml", "[formulas.x]\ncontext = \"value\"\nexpr = \"value +\"\n")

	ch := make(chan driver.Event, 64)
	c := driver.NewChecker(formula.New(), driver.Options{Jobs: 2, Progress: driver.ChannelSink{Ch: ch}})
	if _, err := c.CheckFiles(context.Background(), []string{a, b}); err != nil {
		t.Fatal(err)
	}
	close(ch)

	final := make(map[string]driver.Status)
	queued := 0
	for evt := range ch {
		if evt.Status == driver.StatusQueued {
			queued++
			continue
		}
		final[evt.File] = evt.Status
	}
	if queued != 2 {
		t.Fatalf("queued events = %d, want 2", queued)
	}
	if final[a] != driver.StatusDone || final[b] != driver.StatusError {
		t.Fatalf("final statuses = %v", final)
	}
}

func TestCheckTimings(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.toml", "[formulas.x]\ncontext = \"value\"\nexpr = \"value\"\n")
	reports, err := driver.NewChecker(formula.New(), driver.Options{Timings: true}).CheckFiles(context.Background(), []string{a})
	if err != nil {
		t.Fatal(err)
	}
	if reports[0].Timing == nil || len(reports[0].Timing.Phases) != 3 {
		t.Fatalf("timing = %+v", reports[0].Timing)
	}

	var buf bytes.Buffer
	if err := driver.WriteTimingsJSON(&buf, reports); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || !strings.Contains(lines[0], `"kind":"file"`) || !strings.Contains(lines[1], `"kind":"check"`) {
		t.Fatalf("timings json:\n%s", buf.String())
	}

	buf.Reset()
	if err := driver.WriteTimingsSummary(&buf, reports); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "compile") || !strings.Contains(buf.String(), "total:") {
		t.Fatalf("summary:\n%s", buf.String())
	}
}
