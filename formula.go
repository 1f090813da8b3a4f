// Package formula compiles game-balance formulas into reusable callables.
//
// An Engine owns one compiler per context kind (character, character
// conditions, combat effects, named parameters and a bare value). Formulas
// are checked against the kind's reference schema and built-in table,
// compiled once and cached per engine.
//
//	e := formula.New()
//	res, err := e.Compile("character", "self.hitpoints > 0 ? self.levels.Attack * 2 : 0")
//	v, err := res.Callable.Eval(contexts.CharacterArgs{Self: hero, Target: foe})
package formula

import (
	"errors"
	"fmt"

	"formula/internal/builtins"
	"formula/internal/compiler"
	"formula/internal/contexts"
	"formula/internal/diag"
	"formula/internal/equiv"
	"formula/internal/frontend"
	"formula/internal/observ"
	"formula/internal/schema"
	"formula/internal/source"
	"formula/internal/trace"
	"formula/internal/types"
	"formula/internal/value"
)

var (
	// ErrUnknownContext is returned for a context kind the engine does not have.
	ErrUnknownContext = errors.New("unknown context kind")
	// ErrArgType is returned when a callable gets an argument of the wrong shape.
	ErrArgType = errors.New("argument does not fit the formula context")
)

// Engine compiles formulas for every context kind. It is safe for concurrent
// Compile and Test calls; RegisterReferenceNamespace must run before them.
type Engine struct {
	opts options

	characterCtx *contexts.CharacterContext
	conditionCtx *contexts.CharacterContext
	effectCtx    *contexts.EffectContext
	paramsCtx    *contexts.ParamsContext
	valueCtx     *contexts.ValueContext

	character *compiler.Compiler[contexts.CharacterArgs]
	condition *compiler.Compiler[contexts.CharacterArgs]
	effect    *compiler.Compiler[contexts.EffectArgs]
	params    *compiler.Compiler[contexts.Params]
	value     *compiler.Compiler[float64]

	// paramsExtra replays params registrations in CompileParams.
	paramsExtra []registration
}

type registration struct {
	path, names []string
	t           types.PrimaryType
}

// New creates an engine with empty caches.
func New(opts ...Option) *Engine {
	o := options{tracer: trace.Nop, maxDiagnostics: diag.DefaultMax, sourceCache: true}
	for _, opt := range opts {
		opt(&o)
	}
	e := &Engine{
		opts:         o,
		characterCtx: contexts.NewCharacter(),
		conditionCtx: contexts.NewCharacterCondition(),
		effectCtx:    contexts.NewEffect(),
		paramsCtx:    contexts.NewParams(o.params...),
		valueCtx:     contexts.NewValue(),
	}
	copts := o.compilerOptions()
	e.character = compiler.New[contexts.CharacterArgs](e.characterCtx, copts...)
	e.condition = compiler.New[contexts.CharacterArgs](e.conditionCtx, copts...)
	e.effect = compiler.New[contexts.EffectArgs](e.effectCtx, copts...)
	e.params = compiler.New[contexts.Params](e.paramsCtx, copts...)
	e.value = compiler.New[float64](e.valueCtx, copts...)
	return e
}

// Callable is a compiled formula with its argument shape erased. Typed
// callers should use the per-kind compilers (CharacterCompiler and friends)
// and skip the dynamic check.
type Callable struct {
	Kind string
	Type types.PrimaryType
	// Body is the canonical form the formula is cached under.
	Body string
	eval func(arg any) (value.Value, error)
}

// Eval runs the formula. The accepted argument types per kind:
//
//	character, character-condition: contexts.CharacterArgs, *contexts.CharacterArgs, contexts.Character
//	effect:                          contexts.EffectArgs, *contexts.EffectArgs, contexts.Effect
//	params:                          contexts.Params, map[string]float64
//	value:                           float64, int
func (c *Callable) Eval(arg any) (value.Value, error) {
	return c.eval(arg)
}

// Result is the outcome of Compile. Callable is non-nil exactly when
// Diagnostics holds no errors.
type Result struct {
	Callable    *Callable
	Type        types.PrimaryType
	Diagnostics []diag.Diagnostic
	Bag         *diag.Bag
	// FileSet resolves diagnostic spans; nil for cache hits.
	FileSet *source.FileSet
	Cached  bool
}

// Ok reports whether a callable was produced.
func (r *Result) Ok() bool { return r != nil && r.Callable != nil }

// Err folds error diagnostics into a Go error.
func (r *Result) Err() error {
	if r.Ok() {
		return nil
	}
	return r.Bag.Err()
}

// Compile checks and compiles expr for the given context kind.
func (e *Engine) Compile(kind, expr string) (*Result, error) {
	return e.CompileAt(kind, "", expr)
}

// CompileAt is Compile with diagnostics attributed to path, for formulas
// loaded from content files.
func (e *Engine) CompileAt(kind, path, expr string) (*Result, error) {
	switch kind {
	case contexts.KindCharacter:
		return compileWith(e.character, path, expr, characterArg), nil
	case contexts.KindCharacterCondition:
		return compileWith(e.condition, path, expr, characterArg), nil
	case contexts.KindEffect:
		return compileWith(e.effect, path, expr, effectArg), nil
	case contexts.KindParams:
		return compileWith(e.params, path, expr, paramsArg), nil
	case contexts.KindValue:
		return compileWith(e.value, path, expr, valueArg), nil
	}
	return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownContext, kind, contexts.Kinds())
}

// CompileParams compiles expr for the params context with extra parameter
// names, without touching the engine's shared params schema. The unit is
// not cached by the engine.
func (e *Engine) CompileParams(path, expr string, names ...string) (*Result, error) {
	ctx := contexts.NewParams(e.opts.params...)
	for _, reg := range e.paramsExtra {
		if err := ctx.Register(reg.path, reg.names, reg.t); err != nil {
			return nil, err
		}
	}
	if err := ctx.Declare(names...); err != nil {
		return nil, err
	}
	c := compiler.New[contexts.Params](ctx, e.opts.compilerOptions()...)
	return compileWith(c, path, expr, paramsArg), nil
}

func compileWith[A any](c *compiler.Compiler[A], path, expr string, adapt func(any) (A, bool)) *Result {
	rep := c.CompileAt(path, expr)
	res := &Result{
		Type:        rep.Type,
		Diagnostics: rep.Bag.Items(),
		Bag:         rep.Bag,
		FileSet:     rep.FileSet,
		Cached:      rep.Cached,
	}
	if !rep.Ok() {
		return res
	}
	unit := rep.Unit
	res.Callable = &Callable{
		Kind: unit.Kind,
		Type: unit.Type,
		Body: unit.Body,
		eval: func(arg any) (value.Value, error) {
			a, ok := adapt(arg)
			if !ok {
				var want A
				return value.Value{}, fmt.Errorf("%w: %s formulas take %T, got %T", ErrArgType, unit.Kind, want, arg)
			}
			return unit.Eval(a), nil
		},
	}
	return res
}

func characterArg(arg any) (contexts.CharacterArgs, bool) {
	var out contexts.CharacterArgs
	switch a := arg.(type) {
	case contexts.CharacterArgs:
		out = a
	case *contexts.CharacterArgs:
		if a == nil {
			return out, false
		}
		out = *a
	case contexts.Character:
		out.Self = a
	default:
		return out, false
	}
	// отсутствующий персонаж читается как нули
	if out.Self == nil {
		out.Self = &contexts.Sheet{}
	}
	if out.Target == nil {
		out.Target = &contexts.Sheet{}
	}
	return out, true
}

func effectArg(arg any) (contexts.EffectArgs, bool) {
	switch a := arg.(type) {
	case contexts.EffectArgs:
		return a, a.Effect != nil
	case *contexts.EffectArgs:
		if a == nil || a.Effect == nil {
			return contexts.EffectArgs{}, false
		}
		return *a, true
	case contexts.Effect:
		return contexts.EffectArgs{Effect: a}, true
	}
	return contexts.EffectArgs{}, false
}

func paramsArg(arg any) (contexts.Params, bool) {
	switch a := arg.(type) {
	case contexts.Params:
		return a, true
	case map[string]float64:
		return contexts.Params(a), true
	}
	return nil, false
}

func valueArg(arg any) (float64, bool) {
	switch a := arg.(type) {
	case float64:
		return a, true
	case int:
		return float64(a), true
	}
	return 0, false
}

// TestResult is what content tooling needs to know about a formula without
// compiling it.
type TestResult struct {
	IsValid     bool
	IsLiteral   bool
	Type        types.PrimaryType
	Diagnostics []diag.Diagnostic
	Bag         *diag.Bag
}

// Test validates and type-checks expr against the kind's schema. A non-Invalid
// expected type must be satisfied by the result type.
func (e *Engine) Test(kind, expr string, expected types.PrimaryType) (TestResult, error) {
	ctx, err := e.context(kind)
	if err != nil {
		return TestResult{}, err
	}
	tr := frontend.TestWith(expr, expected, frontend.Options{
		Schema:         ctx.Schema(),
		Builtins:       ctx.Builtins(),
		MaxDiagnostics: e.opts.maxDiagnostics,
		Tracer:         e.opts.tracer,
		ParentSpan:     e.opts.parentSpan,
		Timer:          e.opts.timer,
	})
	return TestResult{
		IsValid:     tr.IsValid,
		IsLiteral:   tr.IsLiteral,
		Type:        tr.Type,
		Diagnostics: tr.Bag.Items(),
		Bag:         tr.Bag,
	}, nil
}

// Analyze runs the front end for kind up to stage without compiling, for
// tooling that wants tokens, the tree or per-node types. An empty kind
// analyzes with an empty schema and the standard built-ins.
func (e *Engine) Analyze(kind, path, expr string, stage frontend.Stage) (*frontend.Result, error) {
	opts := frontend.Options{
		Stage:          stage,
		MaxDiagnostics: e.opts.maxDiagnostics,
		Path:           path,
		Tracer:         e.opts.tracer,
		ParentSpan:     e.opts.parentSpan,
		Timer:          e.opts.timer,
	}
	if kind != "" {
		ctx, err := e.context(kind)
		if err != nil {
			return nil, err
		}
		opts.Schema, opts.Builtins = ctx.Schema(), ctx.Builtins()
	}
	return frontend.Analyze(expr, opts), nil
}

// RegisterReferenceNamespace adds names of type t under path in the schema
// of kind. Registration is additive; see schema.Node.Register for conflicts.
// Only paths the context can read are accepted, otherwise the error wraps
// contexts.ErrUnreadable: character roots take stats and flags directly,
// levels.<skill> and modifier[.<ns>].<key> as Number; effect.<stat> and
// params are flat.
// Each kind has its own schema: registering for "character" leaves
// "character-condition" untouched.
func (e *Engine) RegisterReferenceNamespace(kind string, path, names []string, t types.PrimaryType) error {
	ctx, err := e.context(kind)
	if err != nil {
		return err
	}
	if err := ctx.Register(path, names, t); err != nil {
		return err
	}
	if kind == contexts.KindParams {
		e.paramsExtra = append(e.paramsExtra, registration{path: path, names: names, t: t})
	}
	return nil
}

// References lists every path formulas of kind may read, sorted. Aliased
// roots (self and s) appear under each spelling.
func (e *Engine) References(kind string) ([]schema.Entry, error) {
	ctx, err := e.context(kind)
	if err != nil {
		return nil, err
	}
	return ctx.Schema().Entries(), nil
}

// Functions lists the builtins formulas of kind may call, sorted.
func (e *Engine) Functions(kind string) ([]string, error) {
	ctx, err := e.context(kind)
	if err != nil {
		return nil, err
	}
	return ctx.Builtins().Names(), nil
}

// ReturnType is the result type formulas of kind must produce.
func (e *Engine) ReturnType(kind string) (types.PrimaryType, error) {
	ctx, err := e.context(kind)
	if err != nil {
		return types.Invalid, err
	}
	return ctx.ReturnType(), nil
}

// Stats reports cache counters per context kind.
func (e *Engine) Stats() map[string]compiler.Stats {
	return map[string]compiler.Stats{
		contexts.KindCharacter:          e.character.Stats(),
		contexts.KindCharacterCondition: e.condition.Stats(),
		contexts.KindEffect:             e.effect.Stats(),
		contexts.KindParams:             e.params.Stats(),
		contexts.KindValue:              e.value.Stats(),
	}
}

// Reset drops every cached unit.
func (e *Engine) Reset() {
	e.character.Reset()
	e.condition.Reset()
	e.effect.Reset()
	e.params.Reset()
	e.value.Reset()
}

type kindContext interface {
	Kind() string
	Schema() *schema.Node
	Builtins() *builtins.Table
	ReturnType() types.PrimaryType
	Register(path, names []string, t types.PrimaryType) error
}

func (e *Engine) context(kind string) (kindContext, error) {
	switch kind {
	case contexts.KindCharacter:
		return e.characterCtx, nil
	case contexts.KindCharacterCondition:
		return e.conditionCtx, nil
	case contexts.KindEffect:
		return e.effectCtx, nil
	case contexts.KindParams:
		return e.paramsCtx, nil
	case contexts.KindValue:
		return e.valueCtx, nil
	}
	return nil, fmt.Errorf("%w %q (known: %v)", ErrUnknownContext, kind, contexts.Kinds())
}

// CharacterCompiler gives typed access to the engine's character compiler.
func CharacterCompiler(e *Engine) *compiler.Compiler[contexts.CharacterArgs] { return e.character }

// ConditionCompiler gives typed access to the character-condition compiler.
func ConditionCompiler(e *Engine) *compiler.Compiler[contexts.CharacterArgs] { return e.condition }

// EffectCompiler gives typed access to the combat-effect compiler.
func EffectCompiler(e *Engine) *compiler.Compiler[contexts.EffectArgs] { return e.effect }

// ParamsCompiler gives typed access to the params compiler.
func ParamsCompiler(e *Engine) *compiler.Compiler[contexts.Params] { return e.params }

// ValueCompiler gives typed access to the value compiler.
func ValueCompiler(e *Engine) *compiler.Compiler[float64] { return e.value }

// Compare parses both formulas and reports the first structural difference
// as an *equiv.MismatchError. Parse failures are returned as-is.
func Compare(a, b string) error {
	left := frontend.Analyze(a, frontend.Options{Stage: frontend.StageSyntax, Path: "<left>"})
	if !left.Ok() {
		return fmt.Errorf("left: %w", left.Bag.Err())
	}
	right := frontend.Analyze(b, frontend.Options{Stage: frontend.StageSyntax, Path: "<right>"})
	if !right.Ok() {
		return fmt.Errorf("right: %w", right.Bag.Err())
	}
	return equiv.Compare(
		equiv.Side{Builder: left.Builder, Root: left.Root},
		equiv.Side{Builder: right.Builder, Root: right.Root},
	)
}

// CompareEquivalent reports whether a and b parse to the same tree. There is
// no algebraic normalisation: "a+b" and "b+a" differ. Unparsable input is
// never equivalent.
func CompareEquivalent(a, b string) bool {
	return Compare(a, b) == nil
}

type options struct {
	tracer         trace.Tracer
	parentSpan     uint64
	timer          *observ.Timer
	rand           builtins.Rand
	maxDiagnostics int
	sourceCache    bool
	params         []string
}

func (o options) compilerOptions() []compiler.Option {
	return []compiler.Option{
		compiler.WithTracer(o.tracer, o.parentSpan),
		compiler.WithTimer(o.timer),
		compiler.WithRand(o.rand),
		compiler.WithMaxDiagnostics(o.maxDiagnostics),
		compiler.WithSourceCache(o.sourceCache),
	}
}

// Option configures an Engine.
type Option func(*options)

// WithTracer emits compile spans to t under parent.
func WithTracer(t trace.Tracer, parent uint64) Option {
	return func(o *options) {
		if t != nil {
			o.tracer = t
		}
		o.parentSpan = parent
	}
}

// WithTimer records pipeline phases of every compile.
func WithTimer(t *observ.Timer) Option {
	return func(o *options) { o.timer = t }
}

// WithRand sets the source behind rand() and roll().
func WithRand(r builtins.Rand) Option {
	return func(o *options) { o.rand = r }
}

func WithMaxDiagnostics(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDiagnostics = n
		}
	}
}

func WithSourceCache(on bool) Option {
	return func(o *options) { o.sourceCache = on }
}

// WithParams declares parameter names for the params context.
func WithParams(names ...string) Option {
	return func(o *options) { o.params = append(o.params, names...) }
}
