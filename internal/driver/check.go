package driver

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"formula"
	"formula/internal/contexts"
	"formula/internal/diag"
	"formula/internal/observ"
	"formula/internal/source"
	"formula/internal/trace"
	"formula/internal/types"
	"formula/internal/value"
	"formula/internal/version"
)

// DefaultTolerance is the relative tolerance for numeric case results.
const DefaultTolerance = 1e-9

// Options configures a Checker.
type Options struct {
	// Jobs bounds concurrent files; 0 means GOMAXPROCS.
	Jobs           int
	MaxDiagnostics int
	// Cache is optional; only files without errors are stored.
	Cache    *DiskCache
	Progress ProgressSink
	// Timings records per-file phase timings into FileReport.Timing.
	Timings    bool
	Tracer     trace.Tracer
	ParentSpan uint64
	// Salt is mixed into cache keys, normally the manifest digest.
	Salt      Digest
	Tolerance float64
}

// Checker compiles every formula of content files against one engine.
type Checker struct {
	engine *formula.Engine
	opts   Options
}

// NewChecker wraps e. Namespaces must already be registered on e.
func NewChecker(e *formula.Engine, opts Options) *Checker {
	if opts.Progress == nil {
		opts.Progress = nopSink{}
	}
	if opts.Tracer == nil {
		opts.Tracer = trace.Nop
	}
	if opts.MaxDiagnostics <= 0 {
		opts.MaxDiagnostics = diag.DefaultMax
	}
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	return &Checker{engine: e, opts: opts}
}

// FormulaReport is the outcome of one [formulas.<name>] entry.
type FormulaReport struct {
	Name string
	Kind string
	Expr string
	Type types.PrimaryType
	// Bag holds compile diagnostics; spans resolve through FileSet.
	Bag     *diag.Bag
	FileSet *source.FileSet
	// ExpectedFailure is set when the entry declares expect = "<code>"
	// and compilation failed with that code.
	ExpectedFailure bool
	Cases           int

	callable *formula.Callable
}

// Errors counts compile errors that were not expected.
func (r *FormulaReport) Errors() int {
	if r == nil || r.Bag == nil || r.ExpectedFailure {
		return 0
	}
	return r.Bag.ErrorCount()
}

// FileReport collects everything checked in one content file.
type FileReport struct {
	Path    string
	FileSet *source.FileSet
	// Bag holds file-level diagnostics: load errors, unknown contexts,
	// failed expectations.
	Bag      *diag.Bag
	Formulas []*FormulaReport
	Timing   *observ.Report
	Cached   bool
}

// Errors counts file-level and unexpected compile errors.
func (r *FileReport) Errors() int {
	if r == nil {
		return 0
	}
	n := r.Bag.ErrorCount()
	for _, f := range r.Formulas {
		n += f.Errors()
	}
	return n
}

// Ok reports whether the file is clean.
func (r *FileReport) Ok() bool { return r.Errors() == 0 }

// CheckFiles checks paths concurrently. Reports come back in input order;
// the error is non-nil only when ctx is cancelled.
func (c *Checker) CheckFiles(ctx context.Context, paths []string) ([]*FileReport, error) {
	reports := make([]*FileReport, len(paths))
	if len(paths) == 0 {
		return reports, nil
	}
	jobs := c.opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	span := trace.Begin(c.opts.Tracer, trace.ScopeCommand, "check_files", c.opts.ParentSpan)
	span.WithExtra("files", fmt.Sprint(len(paths)))

	for _, p := range paths {
		c.opts.Progress.OnEvent(Event{File: p, Stage: StageLoad, Status: StatusQueued})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// индекс i уникален для горутины, мьютекс не нужен
			reports[i] = c.checkFile(path, span.ID())
			return nil
		})
	}
	err := g.Wait()
	span.End("")
	return reports, err
}

// CheckFile checks a single content file.
func (c *Checker) CheckFile(ctx context.Context, path string) (*FileReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return c.checkFile(path, c.opts.ParentSpan), nil
}

func (c *Checker) checkFile(path string, parent uint64) *FileReport {
	started := time.Now()
	span := trace.Begin(c.opts.Tracer, trace.ScopeFile, "check_file", parent)
	span.WithExtra("path", path)

	var timer *observ.Timer
	if c.opts.Timings {
		timer = observ.NewTimer()
	}

	fs := source.NewFileSet()
	report := &FileReport{Path: path, FileSet: fs, Bag: diag.NewBag(c.opts.MaxDiagnostics)}
	rep := diag.BagReporter{Bag: report.Bag}

	c.emit(path, StageLoad, StatusWorking, started)
	var lc *LoadedContent
	timer.Measure("load", func() string {
		lc = LoadContent(fs, path, rep)
		return ""
	})
	if lc == nil {
		c.finish(report, timer, span, started)
		return report
	}
	rep.File = lc.File
	// одна и та же ошибка case-ов формулы попадает в отчёт один раз
	dedup := diag.NewDedupReporter(rep)

	key := combineDigest(Digest(lc.File.Hash), c.opts.Salt, stringDigest(version.Version))
	if c.fromCache(key, report, lc, span.ID()) {
		report.Cached = true
		c.finish(report, timer, span, started)
		return report
	}

	c.emit(path, StageCompile, StatusWorking, started)
	timer.Measure("compile", func() string {
		for _, name := range lc.Names {
			if fr := c.compileDecl(lc, name, dedup); fr != nil {
				report.Formulas = append(report.Formulas, fr)
			}
		}
		return fmt.Sprintf("%d formulas", len(report.Formulas))
	})

	c.emit(path, StageCases, StatusWorking, started)
	timer.Measure("cases", func() string {
		total := 0
		for _, fr := range report.Formulas {
			decl := lc.Content.Formulas[fr.Name]
			total += c.runCases(lc, fr, &decl, dedup)
		}
		return fmt.Sprintf("%d cases", total)
	})
	if n := dedup.Suppressed(); n > 0 {
		span.WithExtra("suppressed", fmt.Sprint(n))
	}

	if report.Ok() && c.opts.Cache != nil {
		_ = c.opts.Cache.Put(key, payloadFor(report))
	}
	c.finish(report, timer, span, started)
	return report
}

func (c *Checker) emit(path string, stage Stage, status Status, started time.Time) {
	c.opts.Progress.OnEvent(Event{File: path, Stage: stage, Status: status, Elapsed: time.Since(started)})
}

func (c *Checker) finish(report *FileReport, timer *observ.Timer, span *trace.Span, started time.Time) {
	if timer != nil {
		r := timer.Report()
		report.Timing = &r
	}
	report.Bag.Sort()
	status := StatusDone
	switch {
	case report.Cached:
		status = StatusCached
	case !report.Ok():
		status = StatusError
	}
	c.emit(report.Path, StageCases, status, started)
	span.End(fmt.Sprintf("formulas=%d errors=%d", len(report.Formulas), report.Errors()))
}

func (c *Checker) fromCache(key Digest, report *FileReport, lc *LoadedContent, span uint64) bool {
	if c.opts.Cache == nil {
		return false
	}
	var payload DiskPayload
	ok, err := c.opts.Cache.Get(key, &payload)
	if err != nil {
		// битая запись: сообщаем и выкидываем, следующий чистый прогон запишет её заново
		trace.Point(c.opts.Tracer, trace.ScopeFile, "cache_drop", err.Error(), span)
		if dropErr := c.opts.Cache.Drop(key); dropErr != nil {
			trace.Point(c.opts.Tracer, trace.ScopeFile, "cache_drop", dropErr.Error(), span)
		}
		return false
	}
	if !ok || len(payload.Formulas) != len(lc.Names) {
		return false
	}
	for _, f := range payload.Formulas {
		decl := lc.Content.Formulas[f.Name]
		report.Formulas = append(report.Formulas, &FormulaReport{
			Name:  f.Name,
			Kind:  f.Kind,
			Expr:  decl.Expr,
			Type:  f.Type,
			Bag:   diag.NewBag(c.opts.MaxDiagnostics),
			Cases: f.Cases,

			ExpectedFailure: f.ExpectedFailure,
		})
	}
	return true
}

func payloadFor(report *FileReport) *DiskPayload {
	p := &DiskPayload{Path: report.Path, CheckedAt: time.Now().UTC()}
	for _, f := range report.Formulas {
		p.Formulas = append(p.Formulas, CachedFormula{
			Name:  f.Name,
			Kind:  f.Kind,
			Type:  f.Type,
			Body:  f.Expr,
			Cases: f.Cases,

			ExpectedFailure: f.ExpectedFailure,
		})
	}
	return p
}

// compileDecl compiles one entry; nil means the entry was rejected before
// compilation and the reason is already in the file bag.
func (c *Checker) compileDecl(lc *LoadedContent, name string, rep diag.Reporter) *FormulaReport {
	decl := lc.Content.Formulas[name]
	at := lc.DeclSpan(name)
	if !contexts.IsKind(decl.Context) {
		diag.ReportError(rep, diag.IOUnknownContext, at,
			fmt.Sprintf("formula %q: unknown context %q (known: %s)", name, decl.Context, strings.Join(contexts.Kinds(), ", "))).Emit()
		return nil
	}
	if len(decl.Params) > 0 && decl.Context != contexts.KindParams {
		diag.ReportWarning(rep, diag.IOBadContentFile, at,
			fmt.Sprintf("formula %q: params are ignored for %s formulas", name, decl.Context)).Emit()
	}

	virtual := fmt.Sprintf("%s[formulas.%s]", lc.File.Path, name)
	var (
		res *formula.Result
		err error
	)
	if decl.Context == contexts.KindParams && len(decl.Params) > 0 {
		res, err = c.engine.CompileParams(virtual, decl.Expr, decl.Params...)
	} else {
		res, err = c.engine.CompileAt(decl.Context, virtual, decl.Expr)
	}
	if err != nil {
		diag.ReportError(rep, diag.IOBadContentFile, at, fmt.Sprintf("formula %q: %v", name, err)).Emit()
		return nil
	}

	fr := &FormulaReport{
		Name:    name,
		Kind:    decl.Context,
		Expr:    decl.Expr,
		Type:    res.Type,
		Bag:     res.Bag,
		FileSet: res.FileSet,
	}
	if code, fail := decl.expectsFailure(); fail {
		switch {
		case res.Ok():
			diag.ReportError(rep, diag.IOExpectationFail, at,
				fmt.Sprintf("formula %q: expected %s, but it compiled to %s", name, code, res.Type)).Emit()
		case !hasCode(res.Bag, code):
			diag.ReportError(rep, diag.IOExpectationFail, at,
				fmt.Sprintf("formula %q: expected %s, got %s", name, code, codeList(res.Bag))).Emit()
		default:
			fr.ExpectedFailure = true
		}
		return fr
	}
	if res.Ok() && decl.Type != types.Invalid && res.Type != decl.Type {
		diag.ReportError(rep, diag.IOExpectationFail, at,
			fmt.Sprintf("formula %q: expected type %s, got %s", name, decl.Type, res.Type)).Emit()
	}
	if res.Ok() {
		fr.callable = res.Callable
	}
	return fr
}

// runCases evaluates the declared cases and returns how many ran.
func (c *Checker) runCases(lc *LoadedContent, fr *FormulaReport, decl *FormulaDecl, rep diag.Reporter) int {
	if fr.callable == nil || len(decl.Cases) == 0 {
		return 0
	}
	at := lc.DeclSpan(fr.Name)
	for i := range decl.Cases {
		cs := &decl.Cases[i]
		label := fmt.Sprintf("#%d", i+1)
		if cs.Name != "" {
			label += " (" + cs.Name + ")"
		}
		got, err := fr.callable.Eval(cs.Arg(fr.Kind))
		if err != nil {
			diag.ReportError(rep, diag.IOExpectationFail, at,
				fmt.Sprintf("formula %q: %v", fr.Name, err)).
				WithNote(at, "first failing case "+label).Emit()
			continue
		}
		fr.Cases++
		if cs.Want == nil {
			continue
		}
		want, err := value.FromInterface(cs.Want)
		if err != nil {
			diag.ReportError(rep, diag.IOBadContentFile, at,
				fmt.Sprintf("formula %q: case want must be a number or boolean, got %T", fr.Name, cs.Want)).
				WithNote(at, "first bad case "+label).Emit()
			continue
		}
		if !closeEnough(got, want, c.opts.Tolerance) {
			diag.ReportError(rep, diag.IOExpectationFail, at,
				fmt.Sprintf("formula %q case %s: got %s, want %s", fr.Name, label, got, want)).Emit()
		}
	}
	return fr.Cases
}

func closeEnough(got, want value.Value, tol float64) bool {
	if got.Kind() != want.Kind() {
		return false
	}
	if !got.IsNumber() {
		return got.Identical(want)
	}
	g, w := got.Num(), want.Num()
	if math.IsNaN(g) || math.IsNaN(w) || math.IsInf(w, 0) {
		return got.Identical(want)
	}
	return math.Abs(g-w) <= tol*math.Max(1, math.Abs(w))
}

func hasCode(b *diag.Bag, id string) bool {
	for _, d := range b.Items() {
		if d.Code.ID() == id {
			return true
		}
	}
	return false
}

func codeList(b *diag.Bag) string {
	ids := make([]string, 0, b.Len())
	for _, d := range b.Items() {
		if d.IsError() {
			ids = append(ids, d.Code.ID())
		}
	}
	if len(ids) == 0 {
		return "no errors"
	}
	return strings.Join(ids, ", ")
}
