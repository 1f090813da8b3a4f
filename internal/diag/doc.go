// Package diag defines the diagnostic model shared by every pipeline stage.
//
// A Diagnostic records a severity, a stable Code, a short message and the
// primary span with its 0-based line and column. Stages never return Go
// errors for problems in formula text; they emit diagnostics through a
// Reporter, and the frontend collects them into a Bag. A stage runs only when
// the previous stages left the bag free of errors, while a single stage keeps
// reporting after its first finding.
//
// Codes are grouped by taxonomy: LEX1xxx lexical, SYN2xxx syntax,
// SEM3001-3002 reference, SEM3003 arity, SEM3004-3005 type, IO4xxx content
// loading. Category maps a code onto that taxonomy.
//
// Rendering lives in internal/diagfmt.
package diag
