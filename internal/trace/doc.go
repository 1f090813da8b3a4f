// Package trace records span events for the formula pipeline.
//
// Tracing is opt-in. The CLI enables it with
//
//	formula --trace=- --trace-level=detail check content/
//
// A command opens a ScopeCommand span, each content file a ScopeFile span,
// each compile call a ScopeFormula span, and the frontend one ScopeStage span
// per stage. Level picks how deep events go; span ends carry durations.
// Stream tracers write events as they come, ring tracers keep the last N
// for a dump when the process panics.
package trace
