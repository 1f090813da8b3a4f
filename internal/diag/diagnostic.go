package diag

import (
	"formula/internal/source"
)

type Note struct {
	Span source.Span
	Msg  string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Primary  source.Span
	Line     uint32 // 0-based
	Col      uint32 // 0-based
	Notes    []Note
}

// IsError reports whether the diagnostic blocks later stages.
func (d Diagnostic) IsError() bool {
	return d.Severity >= SevError
}
