// Package value is the runtime carrier for formula results. A Value is
// either a number or a boolean; operators follow the loose rules the
// formula language was designed around: && and || yield an operand,
// truthiness treats non-zero numbers as true, and mixed equality compares
// numeric projections.
package value

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"formula/internal/types"
)

type Kind uint8

const (
	KindNumber Kind = iota
	KindBool
)

// Value is a small immutable number-or-boolean.
type Value struct {
	kind Kind
	num  float64
	b    bool
}

var (
	True  = Value{kind: KindBool, b: true}
	False = Value{kind: KindBool}
	Zero  = Value{kind: KindNumber}
)

func Number(f float64) Value {
	return Value{kind: KindNumber, num: f}
}

func Bool(b bool) Value {
	if b {
		return True
	}
	return False
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNumber() bool { return v.kind == KindNumber }

func (v Value) IsBool() bool { return v.kind == KindBool }

// Type returns the static type a value of this kind carries.
func (v Value) Type() types.PrimaryType {
	if v.kind == KindBool {
		return types.Boolean
	}
	return types.Number
}

// Num projects the value onto a number: true is 1, false is 0.
func (v Value) Num() float64 {
	if v.kind == KindBool {
		if v.b {
			return 1
		}
		return 0
	}
	return v.num
}

// Truthy: booleans as-is, numbers are true unless zero or NaN.
func (v Value) Truthy() bool {
	if v.kind == KindBool {
		return v.b
	}
	return v.num != 0 && !math.IsNaN(v.num)
}

// Equal implements ==. Same-kind values compare directly, mixed kinds
// compare their numeric projections.
func (v Value) Equal(o Value) bool {
	if v.kind == KindBool && o.kind == KindBool {
		return v.b == o.b
	}
	return v.Num() == o.Num()
}

// Identical is strict equality used by tests: same kind and same payload,
// with NaN equal to itself.
func (v Value) Identical(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	if v.kind == KindBool {
		return v.b == o.b
	}
	return v.num == o.num || (math.IsNaN(v.num) && math.IsNaN(o.num))
}

func (v Value) String() string {
	if v.kind == KindBool {
		return strconv.FormatBool(v.b)
	}
	return strconv.FormatFloat(v.num, 'g', -1, 64)
}

// Interface returns float64 or bool.
func (v Value) Interface() any {
	if v.kind == KindBool {
		return v.b
	}
	return v.num
}

// FromInterface accepts the shapes that come out of TOML, JSON and msgpack decoders.
func FromInterface(x any) (Value, error) {
	switch t := x.(type) {
	case bool:
		return Bool(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case int8, int16, int32, uint8, uint16, uint32:
		f, err := strconv.ParseFloat(fmt.Sprint(t), 64)
		return Number(f), err
	case Value:
		return t, nil
	}
	return Value{}, fmt.Errorf("value: unsupported %T", x)
}

var (
	_ msgpack.CustomEncoder = Value{}
	_ msgpack.CustomDecoder = (*Value)(nil)
)

func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if v.kind == KindBool {
		return enc.EncodeBool(v.b)
	}
	return enc.EncodeFloat64(v.num)
}

func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	x, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	nv, err := FromInterface(x)
	if err != nil {
		return err
	}
	*v = nv
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	if v.kind == KindNumber && (math.IsNaN(v.num) || math.IsInf(v.num, 0)) {
		// JSON has no NaN/Inf
		return json.Marshal(v.String())
	}
	return json.Marshal(v.Interface())
}
