package types

import (
	"strings"
)

// Signature declares a builtin's argument and return types.
type Signature struct {
	Name   string
	Args   []PrimaryType
	Return PrimaryType
}

func (s Signature) Arity() int {
	return len(s.Args)
}

// String renders the signature as name(Number, Number) -> Number.
func (s Signature) String() string {
	var b strings.Builder
	b.WriteString(s.Name)
	b.WriteByte('(')
	for i, a := range s.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(") -> ")
	b.WriteString(s.Return.String())
	return b.String()
}
