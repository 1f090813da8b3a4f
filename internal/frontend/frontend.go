// Package frontend runs the analysis half of the formula pipeline:
// tokenize, parse, validate and typecheck. Stages are fail-fast between
// each other and share one diagnostic bag.
package frontend

import (
	"fmt"

	"formula/internal/ast"
	"formula/internal/builtins"
	"formula/internal/diag"
	"formula/internal/lexer"
	"formula/internal/observ"
	"formula/internal/parser"
	"formula/internal/schema"
	"formula/internal/sema"
	"formula/internal/source"
	"formula/internal/token"
	"formula/internal/trace"
	"formula/internal/types"
)

// Stage определяет, до какого этапа доводить анализ.
type Stage string

const (
	StageTokenize  Stage = "tokenize"
	StageSyntax    Stage = "syntax"
	StageValidate  Stage = "validate"
	StageTypecheck Stage = "typecheck"
	StageAll       Stage = "all"
)

func (s Stage) rank() int {
	switch s {
	case StageTokenize:
		return 1
	case StageSyntax:
		return 2
	case StageValidate:
		return 3
	default:
		return 4
	}
}

// ParseStage converts a CLI value to Stage.
func ParseStage(s string) (Stage, error) {
	switch st := Stage(s); st {
	case StageTokenize, StageSyntax, StageValidate, StageTypecheck, StageAll:
		return st, nil
	case "":
		return StageAll, nil
	default:
		return "", fmt.Errorf("unknown stage %q (expected: tokenize|syntax|validate|typecheck|all)", s)
	}
}

// DefaultPath is the display name of formulas that do not come from a file.
const DefaultPath = "<expr>"

// Options настраивают один прогон анализа.
type Options struct {
	Schema   *schema.Node
	Builtins *builtins.Table

	// Stage ограничивает анализ; пустое значение означает StageAll.
	Stage          Stage
	MaxDiagnostics int

	// FileSet and Path place the formula text. A nil FileSet gets a fresh
	// one; an empty Path becomes DefaultPath.
	FileSet *source.FileSet
	Path    string

	Tracer     trace.Tracer
	ParentSpan uint64
	Timer      *observ.Timer
}

// Result holds everything the stages produced. Later-stage fields stay zero
// when an earlier stage failed.
type Result struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Builder *ast.Builder
	Root    ast.ExprID
	Types   *sema.TypeTable
	Type    types.PrimaryType
	Bag     *diag.Bag

	// Reached is the last stage that ran.
	Reached Stage
}

// Ok reports whether every stage that ran finished without errors.
func (r *Result) Ok() bool {
	return r != nil && !r.Bag.HasErrors()
}

// Analyze runs the stages over src and returns what they produced.
func Analyze(src string, opts Options) *Result {
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = diag.DefaultMax
	}
	if opts.FileSet == nil {
		opts.FileSet = source.NewFileSet()
	}
	if opts.Path == "" {
		opts.Path = DefaultPath
	}
	if opts.Builtins == nil {
		opts.Builtins = builtins.Standard()
	}
	if opts.Schema == nil {
		opts.Schema = schema.New()
	}
	limit := opts.Stage.rank()

	fileID := opts.FileSet.AddVirtual(opts.Path, []byte(src))
	res := &Result{
		FileSet: opts.FileSet,
		File:    opts.FileSet.Get(fileID),
		Bag:     diag.NewBag(opts.MaxDiagnostics),
		Type:    types.Invalid,
	}
	reporter := diag.BagReporter{Bag: res.Bag, File: res.File}

	// tokenize
	run(opts, "lex", func() string {
		res.Tokens = lexer.Tokenize(res.File, lexer.Options{Reporter: reporter})
		res.Reached = StageTokenize
		return fmt.Sprintf("%d tokens", len(res.Tokens))
	})
	if res.Bag.HasErrors() || limit < StageSyntax.rank() {
		return res
	}

	parsed := false
	run(opts, "parse", func() string {
		res.Builder = ast.NewBuilder(ast.Hints{Exprs: uint(len(res.Tokens))}, nil)
		pr := parser.Parse(res.Tokens, res.Builder, parser.Options{Reporter: reporter})
		res.Root, parsed = pr.Root, pr.Ok
		res.Reached = StageSyntax
		return fmt.Sprintf("%d nodes", res.Builder.Exprs.Arena.Len())
	})
	if !parsed || res.Bag.HasErrors() || limit < StageValidate.rank() {
		return res
	}

	semaOpts := sema.Options{Reporter: reporter, Schema: opts.Schema, Builtins: opts.Builtins}

	run(opts, "validate", func() string {
		sema.Validate(res.Builder, res.Root, semaOpts)
		res.Reached = StageValidate
		return ""
	})
	if res.Bag.HasErrors() || limit < StageTypecheck.rank() {
		return res
	}

	run(opts, "typecheck", func() string {
		table, ok := sema.Check(res.Builder, res.Root, semaOpts)
		res.Types = table
		res.Reached = StageTypecheck
		if ok {
			res.Type = table.Of(res.Root)
		}
		return res.Type.String()
	})
	return res
}

// run wraps one stage in a trace span and a timer phase.
func run(opts Options, name string, stage func() string) {
	span := trace.Begin(opts.Tracer, trace.ScopeStage, name, opts.ParentSpan)
	idx := opts.Timer.Begin(name)
	note := stage()
	opts.Timer.End(idx, note)
	span.End(note)
}
