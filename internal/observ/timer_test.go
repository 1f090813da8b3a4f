package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	lex := tm.Begin("lex")
	tm.End(lex, "5 tokens")
	tm.Measure("parse", func() string { return "" })
	tm.End(42, "ignored")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("expected 2 phases, got %d", len(r.Phases))
	}
	if r.Phases[0].Name != "lex" || r.Phases[0].Note != "5 tokens" {
		t.Fatalf("unexpected first phase: %+v", r.Phases[0])
	}
	if r.TotalMS < 0 {
		t.Fatalf("negative total")
	}
}

func TestFoldedMergesByName(t *testing.T) {
	r := Report{Phases: []PhaseReport{
		{Name: "parse", DurationMS: 1, Count: 1, Note: "a"},
		{Name: "typecheck", DurationMS: 2, Count: 1},
		{Name: "parse", DurationMS: 3, Count: 1},
	}}
	f := r.Folded()
	if len(f.Phases) != 2 {
		t.Fatalf("expected 2 folded phases, got %d", len(f.Phases))
	}
	if f.Phases[0].DurationMS != 4 || f.Phases[0].Count != 2 || f.Phases[0].Note != "" {
		t.Fatalf("unexpected fold: %+v", f.Phases[0])
	}
}

func TestTimerConcurrentAndSummary(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Measure("compile", func() string { return "" })
		}()
	}
	wg.Wait()
	s := tm.Summary()
	if !strings.Contains(s, "compile") || !strings.Contains(s, "x8") || !strings.Contains(s, "total") {
		t.Fatalf("unexpected summary:\n%s", s)
	}
}

func TestNilTimer(t *testing.T) {
	var tm *Timer
	tm.End(tm.Begin("x"), "")
	if len(tm.Report().Phases) != 0 {
		t.Fatal("nil timer should report nothing")
	}
}
