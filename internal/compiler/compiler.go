// Package compiler lowers checked formulas into closure trees specialized
// for one context kind and caches the results.
package compiler

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"formula/internal/builtins"
	"formula/internal/diag"
	"formula/internal/frontend"
	"formula/internal/observ"
	"formula/internal/sema"
	"formula/internal/source"
	"formula/internal/trace"
	"formula/internal/types"
	"formula/internal/value"
)

// Unit is a compiled formula. It is immutable and safe for concurrent use.
type Unit[A any] struct {
	eval Node[A]
	// Type is the checked result type of the formula.
	Type types.PrimaryType
	// Body is the canonical text the unit is cached under.
	Body string
	Kind string
}

// Eval runs the formula against arg.
func (u *Unit[A]) Eval(arg A) value.Value { return u.eval(arg) }

// Number runs the formula and projects the result to a number.
func (u *Unit[A]) Number(arg A) float64 { return u.eval(arg).Num() }

// Bool runs the formula and returns its truthiness.
func (u *Unit[A]) Bool(arg A) bool { return u.eval(arg).Truthy() }

// Report is the outcome of one Compile call. Unit is non-nil exactly when
// Bag holds no errors.
type Report[A any] struct {
	Unit    *Unit[A]
	Type    types.PrimaryType
	Bag     *diag.Bag
	FileSet *source.FileSet
	// Cached is set when the unit came from the source or body cache.
	Cached bool
}

// Ok reports whether compilation produced a unit.
func (r *Report[A]) Ok() bool { return r != nil && r.Unit != nil }

// Err folds the diagnostics into a Go error, nil when compilation succeeded.
func (r *Report[A]) Err() error {
	if r.Ok() {
		return nil
	}
	return r.Bag.Err()
}

// Stats is a snapshot of cache counters.
type Stats struct {
	Bodies  int
	Sources int
	Hits    uint64
	Misses  uint64
}

// Compiler compiles formulas for one Context. Caches are owned by the
// instance; concurrent compiles of the same formula race and the first
// stored unit wins.
type Compiler[A any] struct {
	ctx  Context[A]
	opts options

	mu      sync.RWMutex
	bodies  map[string]*Unit[A]
	sources map[string]*Unit[A]

	hits   atomic.Uint64
	misses atomic.Uint64
}

// New creates a compiler for ctx.
func New[A any](ctx Context[A], opts ...Option) *Compiler[A] {
	o := options{
		tracer:         trace.Nop,
		rand:           builtins.DefaultRand,
		maxDiagnostics: diag.DefaultMax,
		sourceCache:    true,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return &Compiler[A]{
		ctx:     ctx,
		opts:    o,
		bodies:  make(map[string]*Unit[A]),
		sources: make(map[string]*Unit[A]),
	}
}

// Context returns the specialization this compiler was built for.
func (c *Compiler[A]) Context() Context[A] { return c.ctx }

// Compile runs the full pipeline over src.
func (c *Compiler[A]) Compile(src string) *Report[A] {
	return c.CompileAt("", src)
}

// CompileAt is Compile with diagnostics attributed to path instead of
// frontend.DefaultPath. The caches key on src only.
func (c *Compiler[A]) CompileAt(path, src string) *Report[A] {
	if c.opts.sourceCache {
		c.mu.RLock()
		u, ok := c.sources[src]
		c.mu.RUnlock()
		if ok {
			c.hits.Add(1)
			return &Report[A]{Unit: u, Type: u.Type, Bag: diag.NewBag(c.opts.maxDiagnostics), Cached: true}
		}
	}

	span := trace.Begin(c.opts.tracer, trace.ScopeFormula, "compile:"+c.ctx.Kind(), c.opts.parentSpan)
	defer span.End("")

	res := frontend.Analyze(src, frontend.Options{
		Path:           path,
		Schema:         c.ctx.Schema(),
		Builtins:       c.ctx.Builtins(),
		MaxDiagnostics: c.opts.maxDiagnostics,
		Tracer:         c.opts.tracer,
		ParentSpan:     span.ID(),
		Timer:          c.opts.timer,
	})
	report := &Report[A]{Type: res.Type, Bag: res.Bag, FileSet: res.FileSet}
	if !res.Ok() {
		span.WithExtra("result", "error")
		return report
	}

	reporter := diag.BagReporter{Bag: res.Bag, File: res.File}
	if !sema.CheckResult(res.Builder, res.Root, res.Type, c.ctx.ReturnType(), reporter) {
		span.WithExtra("result", "return-mismatch")
		return report
	}

	lspan := trace.Begin(c.opts.tracer, trace.ScopeStage, "lower", span.ID())
	idx := c.opts.timer.Begin("lower")
	l := &lowerer[A]{ctx: c.ctx, builder: res.Builder, rand: c.opts.rand}
	node, err := l.lower(res.Root)
	c.opts.timer.End(idx, "")
	lspan.End("")
	if err != nil {
		var re *refError
		if !errors.As(err, &re) {
			panic(err)
		}
		expr := res.Builder.Exprs.Get(re.id)
		diag.ReportError(reporter, diag.SemUnknownReference, expr.Span,
			fmt.Sprintf("reference '%s' cannot be read in %s formulas: %v", res.File.Text(expr.Span), c.ctx.Kind(), re.err)).Emit()
		return report
	}

	unit := &Unit[A]{eval: node, Type: res.Type, Body: l.body.String(), Kind: c.ctx.Kind()}
	unit, cached := c.store(src, unit)
	report.Unit, report.Cached = unit, cached
	if cached {
		c.hits.Add(1)
		span.WithExtra("cache", "body")
	} else {
		c.misses.Add(1)
	}
	return report
}

// store publishes unit under its body, keeping an earlier unit with the
// same body if there is one.
func (c *Compiler[A]) store(src string, unit *Unit[A]) (*Unit[A], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cached := false
	if prev, ok := c.bodies[unit.Body]; ok {
		unit, cached = prev, true
	} else {
		c.bodies[unit.Body] = unit
	}
	if c.opts.sourceCache {
		if _, ok := c.sources[src]; !ok {
			c.sources[src] = unit
		}
	}
	return unit, cached
}

// MustCompile is Compile for formulas known to be valid, such as built-in
// content. It panics with the diagnostics otherwise.
func (c *Compiler[A]) MustCompile(src string) *Unit[A] {
	r := c.Compile(src)
	if !r.Ok() {
		panic(fmt.Sprintf("compiler: %s formula %q: %v", c.ctx.Kind(), src, r.Err()))
	}
	return r.Unit
}

// Len returns the number of distinct compiled bodies.
func (c *Compiler[A]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bodies)
}

// Stats returns cache counters.
func (c *Compiler[A]) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Bodies:  len(c.bodies),
		Sources: len(c.sources),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}

// Reset drops both caches. Units already handed out keep working.
func (c *Compiler[A]) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.bodies)
	clear(c.sources)
}

type options struct {
	tracer         trace.Tracer
	parentSpan     uint64
	timer          *observ.Timer
	rand           builtins.Rand
	maxDiagnostics int
	sourceCache    bool
}

// Option configures a Compiler.
type Option func(*options)

// WithTracer emits compile and pass spans to t under parent.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
		o.parentSpan = parent
	}
}

// WithTimer records pipeline phases.
func WithTimer(t *observ.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithRand sets the source used by rand() and roll().
func WithRand(r builtins.Rand) Option {
	return func(o *options) {
		if r != nil {
			o.rand = r
		}
	}
}

// WithMaxDiagnostics caps diagnostics per formula.
func WithMaxDiagnostics(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDiagnostics = n
		}
	}
}

// WithSourceCache toggles the source-text cache. The body cache is always on.
func WithSourceCache(on bool) Option {
	return func(o *options) { o.sourceCache = on }
}
