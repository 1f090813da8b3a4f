package types

import (
	"fmt"
	"strings"
)

// PrimaryType is the closed set of result types a formula node can have.
type PrimaryType uint8

const (
	// Invalid marks a node whose type could not be computed.
	Invalid PrimaryType = iota
	Number
	Boolean
	// NumberOrBoolean is the join of mismatched branches. It satisfies any
	// expectation and is the only subtyping rule.
	NumberOrBoolean
)

func (t PrimaryType) String() string {
	switch t {
	case Number:
		return "Number"
	case Boolean:
		return "Boolean"
	case NumberOrBoolean:
		return "NumberOrBoolean"
	case Invalid:
		return "Invalid"
	}
	return fmt.Sprintf("PrimaryType(%d)", t)
}

// Matches reports whether a value of type t is accepted where expected is
// required. NumberOrBoolean on either side is a wildcard.
func (t PrimaryType) Matches(expected PrimaryType) bool {
	if t == NumberOrBoolean || expected == NumberOrBoolean {
		return true
	}
	return t == expected
}

// Join is the type of an expression that yields either a or b.
func Join(a, b PrimaryType) PrimaryType {
	if a == b {
		return a
	}
	return NumberOrBoolean
}

// Parse accepts the spelling used in content files and manifests, case-insensitively.
func Parse(s string) (PrimaryType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "number":
		return Number, nil
	case "boolean", "bool":
		return Boolean, nil
	case "numberorboolean", "any":
		return NumberOrBoolean, nil
	}
	return Invalid, fmt.Errorf("unknown type %q", s)
}

// MarshalText lets PrimaryType round-trip through TOML and JSON.
func (t PrimaryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText also takes back "Invalid", which Parse rejects: reports of
// formulas that failed as expected carry it.
func (t *PrimaryType) UnmarshalText(text []byte) error {
	if string(text) == Invalid.String() {
		*t = Invalid
		return nil
	}
	v, err := Parse(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
