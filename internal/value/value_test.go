package value

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/vmihailenco/msgpack/v5"

	"formula/internal/ast"
	"formula/internal/types"
)

func TestTruthiness(t *testing.T) {
	tests := []struct {
		v    Value
		want bool
	}{
		{True, true},
		{False, false},
		{Number(0), false},
		{Number(-0.5), true},
		{Number(math.NaN()), false},
	}
	for _, tt := range tests {
		if got := tt.v.Truthy(); got != tt.want {
			t.Errorf("%v.Truthy() = %v", tt.v, got)
		}
	}
}

func TestBinaryOperators(t *testing.T) {
	tests := []struct {
		op   ast.ExprBinaryOp
		l, r Value
		want Value
	}{
		{ast.ExprBinaryAdd, Number(2), Number(3), Number(5)},
		{ast.ExprBinaryPow, Number(3), Number(2), Number(9)},
		{ast.ExprBinaryMod, Number(-7), Number(3), Number(-1)},
		{ast.ExprBinaryDiv, Number(1), Number(0), Number(math.Inf(1))},
		{ast.ExprBinaryLess, Number(1), Number(2), True},
		{ast.ExprBinaryGreaterEq, Number(1), Number(2), False},
		{ast.ExprBinaryEq, True, Number(1), True},
		{ast.ExprBinaryEq, False, True, False},
		{ast.ExprBinaryNotEq, Number(0), False, False},
		{ast.ExprBinaryAdd, True, Number(1), Number(2)},
	}
	for _, tt := range tests {
		if got := Binary(tt.op, tt.l, tt.r); !got.Identical(tt.want) {
			t.Errorf("%v %s %v = %v, want %v", tt.l, tt.op, tt.r, got, tt.want)
		}
	}
}

func TestLogicalReturnsOperand(t *testing.T) {
	called := false
	right := func() Value { called = true; return Number(7) }

	if got := Logical(ast.ExprLogicalOr, Number(3), right); !got.Identical(Number(3)) || called {
		t.Fatalf("|| short-circuit: %v called=%v", got, called)
	}
	if got := Logical(ast.ExprLogicalAnd, Number(3), right); !got.Identical(Number(7)) || !called {
		t.Fatalf("&& yields right operand: %v", got)
	}
	if got := Logical(ast.ExprLogicalAnd, Number(0), right); !got.Identical(Number(0)) {
		t.Fatalf("&& yields falsy left: %v", got)
	}
}

func TestUnary(t *testing.T) {
	if !Unary(ast.ExprUnaryNot, Number(0)).Identical(True) {
		t.Fatal("!0")
	}
	if !Unary(ast.ExprUnaryNeg, Number(2)).Identical(Number(-2)) {
		t.Fatal("-2")
	}
	if Number(1).Type() != types.Number || True.Type() != types.Boolean {
		t.Fatal("Type")
	}
}

func TestEncoding(t *testing.T) {
	in := []Value{Number(1.5), True, False, Number(-3)}

	var buf bytes.Buffer
	if err := msgpack.NewEncoder(&buf).Encode(in); err != nil {
		t.Fatal(err)
	}
	var out []Value
	if err := msgpack.NewDecoder(&buf).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if len(out) != len(in) {
		t.Fatalf("decoded %v", out)
	}
	for i := range in {
		if !in[i].Identical(out[i]) {
			t.Fatalf("msgpack round trip %v -> %v", in[i], out[i])
		}
	}

	js, err := json.Marshal(map[string]Value{"a": Number(2), "b": True, "c": Number(math.Inf(1))})
	if err != nil {
		t.Fatal(err)
	}
	if got := string(js); got != `{"a":2,"b":true,"c":"+Inf"}` {
		t.Fatalf("json = %s", got)
	}
}
