package diag

import (
	"testing"

	"formula/internal/source"
)

func TestBagLimitAndErrors(t *testing.T) {
	b := NewBag(2)
	r := BagReporter{Bag: b}
	r.Report(SemUnknownReference, SevError, source.Span{Start: 3, End: 6}, "unknown reference 'foo.bar'", nil)
	r.Report(SemArityMismatch, SevWarning, source.Span{Start: 0, End: 1}, "w", nil)
	r.Report(SemTypeMismatch, SevError, source.Span{}, "dropped", nil)

	if b.Len() != 2 {
		t.Fatalf("Len = %d, want 2", b.Len())
	}
	if !b.HasErrors() || b.ErrorCount() != 1 {
		t.Fatalf("HasErrors=%v ErrorCount=%d", b.HasErrors(), b.ErrorCount())
	}
	b.Sort()
	if b.Items()[0].Code != SemArityMismatch {
		t.Fatalf("Sort did not order by span: %v", b.Items())
	}
	if got := b.ByCode(SemUnknownReference); len(got) != 1 {
		t.Fatalf("ByCode = %v", got)
	}
}

func TestBagReporterPosition(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("x", []byte("1 +\n  @")))
	b := NewBag(DefaultMax)
	ReportError(BagReporter{Bag: b, File: f}, LexUnknownChar, source.Span{File: f.ID, Start: 6, End: 7}, "unknown character '@'").Emit()
	d := b.Items()[0]
	if d.Line != 1 || d.Col != 2 {
		t.Fatalf("position = %d:%d, want 1:2", d.Line, d.Col)
	}
}

func TestDedupReporter(t *testing.T) {
	b := NewBag(DefaultMax)
	r := NewDedupReporter(BagReporter{Bag: b})
	sp := source.Span{Start: 1, End: 2}
	first := []Note{{Span: sp, Msg: "case #1"}}
	r.Report(SemTypeMismatch, SevError, sp, "m", first)
	r.Report(SemTypeMismatch, SevError, sp, "m", []Note{{Span: sp, Msg: "case #2"}})
	r.Report(SemTypeMismatch, SevError, sp, "other", nil)
	r.Report(SemTypeMismatch, SevError, source.Span{Start: 3, End: 4}, "m", nil)
	if b.Len() != 3 || r.Suppressed() != 1 {
		t.Fatalf("Len = %d suppressed = %d, want 3 and 1", b.Len(), r.Suppressed())
	}
	if notes := b.Items()[0].Notes; len(notes) != 1 || notes[0].Msg != "case #1" {
		t.Fatalf("first report lost its notes: %+v", notes)
	}
	var nilRep *DedupReporter
	nilRep.Report(SemTypeMismatch, SevError, sp, "m", nil)
	if nilRep.Suppressed() != 0 {
		t.Fatal("nil reporter counts nothing")
	}
}

func TestCodeCategory(t *testing.T) {
	tests := map[Code]Category{
		LexUnknownChar:      CatLexical,
		SynExpectSingleExpr: CatSyntax,
		SemUnknownReference: CatReference,
		SemUnknownFunction:  CatReference,
		SemArityMismatch:    CatArity,
		SemTypeMismatch:     CatType,
		SemReturnMismatch:   CatType,
		IOReadFailure:       CatIO,
	}
	for code, want := range tests {
		if got := code.Category(); got != want {
			t.Errorf("%s: Category = %v, want %v", code.ID(), got, want)
		}
	}
	if SemArityMismatch.ID() != "SEM3003" {
		t.Fatalf("ID = %s", SemArityMismatch.ID())
	}
}
