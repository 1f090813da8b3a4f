package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// Лексические
	LexUnknownChar        Code = 1001
	LexIncompleteOperator Code = 1002

	// Синтаксические
	SynUnexpectedToken  Code = 2001
	SynExpectExpression Code = 2002
	SynUnclosedParen    Code = 2003
	SynExpectSingleExpr Code = 2004
	SynExpectIdentifier Code = 2005

	// Семантические
	SemUnknownReference Code = 3001
	SemUnknownFunction  Code = 3002
	SemArityMismatch    Code = 3003
	SemTypeMismatch     Code = 3004
	SemReturnMismatch   Code = 3005

	// Загрузка контента
	IOReadFailure     Code = 4001
	IOBadContentFile  Code = 4002
	IOUnknownContext  Code = 4003
	IOExpectationFail Code = 4004
)

var codeDescription = map[Code]string{
	UnknownCode:           "Unknown error",
	LexUnknownChar:        "Unknown character",
	LexIncompleteOperator: "Incomplete operator",
	SynUnexpectedToken:    "Unexpected token",
	SynExpectExpression:   "Expected expression",
	SynUnclosedParen:      "Unclosed parenthesis",
	SynExpectSingleExpr:   "Expected single expression",
	SynExpectIdentifier:   "Expected identifier",
	SemUnknownReference:   "Unknown reference",
	SemUnknownFunction:    "Unknown function",
	SemArityMismatch:      "Wrong number of arguments",
	SemTypeMismatch:       "Type mismatch",
	SemReturnMismatch:     "Return type mismatch",
	IOReadFailure:         "Cannot read file",
	IOBadContentFile:      "Malformed content file",
	IOUnknownContext:      "Unknown context kind",
	IOExpectationFail:     "Expectation failed",
}

// Category is the error taxonomy a code belongs to.
type Category uint8

const (
	CatUnknown Category = iota
	CatLexical
	CatSyntax
	CatReference
	CatArity
	CatType
	CatIO
)

func (c Category) String() string {
	switch c {
	case CatLexical:
		return "LexicalError"
	case CatSyntax:
		return "SyntaxError"
	case CatReference:
		return "ReferenceError"
	case CatArity:
		return "ArityError"
	case CatType:
		return "TypeError"
	case CatIO:
		return "IOError"
	}
	return "UnknownError"
}

// Category classifies the code.
func (c Code) Category() Category {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return CatLexical
	case ic >= 2000 && ic < 3000:
		return CatSyntax
	case c == SemUnknownReference, c == SemUnknownFunction:
		return CatReference
	case c == SemArityMismatch:
		return CatArity
	case ic >= 3000 && ic < 4000:
		return CatType
	case ic >= 4000 && ic < 5000:
		return CatIO
	}
	return CatUnknown
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
