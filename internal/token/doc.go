// Package token defines lexical token kinds for formula expressions.
// Invariants:
//   - Token.Text is a slice of the original source (no copies).
//   - Token.Span matches Text exactly (Start..End).
//   - Line and Col are 0-based and point at the first byte of the token.
//   - true/false are identifiers promoted to keyword kinds; there are no
//     other keywords. Builtin and reference names stay plain identifiers.
package token
