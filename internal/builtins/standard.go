package builtins

import (
	"math"

	"formula/internal/types"
	"formula/internal/value"
)

var (
	n1 = []types.PrimaryType{types.Number}
	n2 = []types.PrimaryType{types.Number, types.Number}
	n3 = []types.PrimaryType{types.Number, types.Number, types.Number}
)

var standard = newStandard()

// Standard returns the shared catalogue. Callers must not Define on it; use
// Layer for additions.
func Standard() *Table {
	return standard
}

func unary(name string, f func(float64) float64) (types.Signature, Func) {
	return types.Signature{Name: name, Args: n1, Return: types.Number},
		func(_ Rand, a []value.Value) value.Value { return value.Number(f(a[0].Num())) }
}

func newStandard() *Table {
	t := NewTable(nil)
	t.Define(unary("floor", math.Floor))
	t.Define(unary("ceil", math.Ceil))
	t.Define(unary("round", Round))
	t.Define(unary("abs", math.Abs))
	t.Define(unary("sqrt", math.Sqrt))
	t.Define(unary("sign", Sign))

	t.Define(types.Signature{Name: "min", Args: n2, Return: types.Number},
		func(_ Rand, a []value.Value) value.Value { return value.Number(math.Min(a[0].Num(), a[1].Num())) })
	t.Define(types.Signature{Name: "max", Args: n2, Return: types.Number},
		func(_ Rand, a []value.Value) value.Value { return value.Number(math.Max(a[0].Num(), a[1].Num())) })
	t.Define(types.Signature{Name: "clamp", Args: n3, Return: types.Number},
		func(_ Rand, a []value.Value) value.Value {
			return value.Number(Clamp(a[0].Num(), a[1].Num(), a[2].Num()))
		})

	t.Define(types.Signature{Name: "rand", Return: types.Number},
		func(r Rand, _ []value.Value) value.Value { return value.Number(r.Float64()) })
	t.Define(types.Signature{Name: "roll", Args: n1, Return: types.Boolean},
		func(r Rand, a []value.Value) value.Value { return value.Bool(r.Float64() < a[0].Num()) })
	return t
}

// Round rounds half up: round(-2.5) is -2.
func Round(x float64) float64 {
	return math.Floor(x + 0.5)
}

// Sign returns -1, 0 or 1; NaN stays NaN.
func Sign(x float64) float64 {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	}
	return x
}

// Clamp bounds x to [lo, hi]. With lo > hi the upper bound wins.
func Clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

// Percent is the character-context helper: pct percent of v.
func Percent(v, pct float64) float64 {
	return v * pct / 100
}

// PercentSignature is layered by contexts that expose percent().
var PercentSignature = types.Signature{Name: "percent", Args: n2, Return: types.Number}

// PercentFunc implements percent(value, pct).
func PercentFunc(_ Rand, a []value.Value) value.Value {
	return value.Number(Percent(a[0].Num(), a[1].Num()))
}
