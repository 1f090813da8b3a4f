package token

// Kind represents the category of a source token.
type Kind uint8

const (
	// Invalid indicates an erroneous token.
	Invalid Kind = iota
	// EOF marks the end of the source input.
	EOF

	// Ident represents an identifier token.
	Ident
	// KwTrue represents the 'true' keyword.
	KwTrue // true
	// KwFalse represents the 'false' keyword.
	KwFalse // false

	// Number represents a decimal literal: digits with an optional fraction.
	Number

	Question // ?
	Colon    // :
	Minus    // -
	Plus     // +
	Slash    // /
	Star     // *
	Caret    // ^
	Percent  // %
	LParen   // (
	RParen   // )
	Comma    // ,
	Dot      // .

	OrOr   // ||
	AndAnd // &&
	BangEq // !=
	EqEq   // ==
	GtEq   // >=
	LtEq   // <=
	Gt     // >
	Lt     // <
	Bang   // !

	kindCount
)

var kindNames = [...]string{
	Invalid:  "Invalid",
	EOF:      "EOF",
	Ident:    "Ident",
	KwTrue:   "KwTrue",
	KwFalse:  "KwFalse",
	Number:   "Number",
	Question: "Question",
	Colon:    "Colon",
	Minus:    "Minus",
	Plus:     "Plus",
	Slash:    "Slash",
	Star:     "Star",
	Caret:    "Caret",
	Percent:  "Percent",
	LParen:   "LParen",
	RParen:   "RParen",
	Comma:    "Comma",
	Dot:      "Dot",
	OrOr:     "OrOr",
	AndAnd:   "AndAnd",
	BangEq:   "BangEq",
	EqEq:     "EqEq",
	GtEq:     "GtEq",
	LtEq:     "LtEq",
	Gt:       "Gt",
	Lt:       "Lt",
	Bang:     "Bang",
}

var kindSymbols = [...]string{
	Question: "?",
	Colon:    ":",
	Minus:    "-",
	Plus:     "+",
	Slash:    "/",
	Star:     "*",
	Caret:    "^",
	Percent:  "%",
	LParen:   "(",
	RParen:   ")",
	Comma:    ",",
	Dot:      ".",
	OrOr:     "||",
	AndAnd:   "&&",
	BangEq:   "!=",
	EqEq:     "==",
	GtEq:     ">=",
	LtEq:     "<=",
	Gt:       ">",
	Lt:       "<",
	Bang:     "!",
	KwTrue:   "true",
	KwFalse:  "false",
}

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return "Kind(?)"
}

// Symbol returns the fixed spelling of an operator or keyword kind, or "".
func (k Kind) Symbol() string {
	if int(k) < len(kindSymbols) {
		return kindSymbols[k]
	}
	return ""
}
