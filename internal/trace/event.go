package trace

import (
	"fmt"
	"strings"
	"time"
)

// Kind of an event.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

func (k Kind) String() string {
	switch k {
	case KindSpanBegin:
		return "begin"
	case KindSpanEnd:
		return "end"
	case KindPoint:
		return "point"
	case KindHeartbeat:
		return "heartbeat"
	default:
		return "unknown"
	}
}

// Scope is the granularity of an event, coarse first.
type Scope uint8

const (
	ScopeCommand Scope = iota + 1 // CLI command, batch check
	ScopeStage                    // lex, parse, validate, typecheck, lower
	ScopeFile                     // one content file
	ScopeFormula                  // one compile call
)

func (s Scope) String() string {
	switch s {
	case ScopeCommand:
		return "command"
	case ScopeStage:
		return "stage"
	case ScopeFile:
		return "file"
	case ScopeFormula:
		return "formula"
	default:
		return "unknown"
	}
}

// Level selects the scopes a tracer keeps.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // ring only, dumped on panic; streams stay silent
	LevelPhase        // commands and stages
	LevelDetail       // plus content files
	LevelDebug        // plus every compile call
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel accepts the names printed by Level.String, in any case.
func ParseLevel(s string) (Level, error) {
	for i, name := range levelNames {
		if strings.EqualFold(s, name) {
			return Level(i), nil // #nosec G115 -- индекс меньше len(levelNames)
		}
	}
	return LevelOff, fmt.Errorf("invalid trace level: %q (expected: %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope pass l.
func (l Level) ShouldEmit(scope Scope) bool {
	switch l {
	case LevelError:
		return scope <= ScopeFile
	case LevelPhase:
		return scope <= ScopeStage
	case LevelDetail:
		return scope <= ScopeFile
	case LevelDebug:
		return true
	default:
		return false
	}
}

// Event is one trace record. Dur is set on span ends only.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64
	Name     string // "parse", "check_file", "compile:character"
	Detail   string
	Dur      time.Duration
	Extra    map[string]string
}
