package diag

import (
	"testing"

	"formula/internal/source"
)

func TestFormatShort(t *testing.T) {
	fs := source.NewFileSet()
	fs.SetBaseDir("/workspace")

	content := fs.Add("/workspace/balance/skills.toml", []byte("a\nb\n"), 0)
	inline := fs.AddVirtual("<expr>", []byte("1 + true"))

	diags := []Diagnostic{
		{
			Severity: SevError,
			Code:     SemTypeMismatch,
			Message:  "operator '+' expects Number on the right\noperand",
			Primary:  source.Span{File: inline, Start: 4, End: 8},
		},
		{
			Severity: SevError,
			Code:     SynUnexpectedToken,
			Message:  "first",
			Primary:  source.Span{File: content, Start: 2, End: 3},
			Notes: []Note{
				{Span: source.Span{File: content, Start: 0, End: 1}, Msg: "opened here"},
			},
		},
	}

	expected := "error SEM3004 <expr>:1:5 operator '+' expects Number on the right operand\n" +
		"note SYN2001 balance/skills.toml:1:1 opened here\n" +
		"error SYN2001 balance/skills.toml:2:1 first"

	if got := FormatShort(diags, fs, true); got != expected {
		t.Fatalf("unexpected diagnostics:\nwant:\n%s\n\ngot:\n%s", expected, got)
	}
}

func TestFormatShortSkipsNotes(t *testing.T) {
	fs := source.NewFileSet()
	f := fs.AddVirtual("hero.toml[formulas.hit]", []byte("self.alive + 1"))
	diags := []Diagnostic{
		NewError(SemTypeMismatch, source.Span{File: f, Start: 0, End: 10}, "bad").
			WithNote(source.Span{File: f, Start: 13, End: 14}, "here"),
	}
	if got := FormatShort(diags, fs, false); got != "error SEM3004 hero.toml[formulas.hit]:1:1 bad" {
		t.Fatalf("got %q", got)
	}
	if FormatShort(diags, nil, true) != "" {
		t.Fatal("nil file set must render nothing")
	}
}
