// Package vm implements the stack machine that replays parsed listing
// instructions against an operand stack, a variable table and an output log.
package vm

import (
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return "unknown"
}

// Value is a stack slot or variable. The zero Value is null.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

func NullValue() Value              { return Value{} }
func IntValue(n int64) Value        { return Value{kind: KindInt, i: n} }
func FloatValue(f float64) Value    { return Value{kind: KindFloat, f: f} }
func StringValue(s string) Value    { return Value{kind: KindString, s: s} }
func (v Value) Kind() Kind          { return v.kind }
func (v Value) IsNull() bool        { return v.kind == KindNull }
func (v Value) IsNumber() bool      { return v.kind == KindInt || v.kind == KindFloat }
func (v Value) Int() (int64, bool)  { return v.i, v.kind == KindInt }
func (v Value) Str() (string, bool) { return v.s, v.kind == KindString }

// Float returns the value as a float64 for either numeric kind.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	}
	return 0, false
}

// Text is the conversion used by println, append and toString.
func (v Value) Text() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	}
	return "null"
}

func (v Value) String() string { return v.Text() }

// Equal compares kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f
	case KindString:
		return v.s == o.s
	}
	return true
}

// integral floats keep a trailing ".0" so they stay distinguishable from ints
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e16 {
		return strconv.FormatFloat(f, 'f', 1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
