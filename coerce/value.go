// Package coerce converts raw spreadsheet cell values into typed output values.
//
// Cell values arrive from the API as untyped JSON scalars. Callers tag them
// with FromJSON (or one of the constructors) and hand the resulting Value to
// Coerce together with the column's declared type.
package coerce

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	// KindNull is an absent value.
	KindNull Kind = iota
	// KindInt is an integral JSON number.
	KindInt
	// KindFloat is a non-integral (or exponent-form) JSON number.
	KindFloat
	// KindString is a JSON string.
	KindString
	// KindBool is a JSON boolean.
	KindBool
)

// Value is a raw cell value tagged with its JSON kind.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
}

// Null returns the absent value.
func Null() Value { return Value{kind: KindNull} }

// Int returns an integral value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a floating value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// Str returns a string value.
func Str(v string) Value { return Value{kind: KindString, s: v} }

// Boolean returns a boolean value.
func Boolean(v bool) Value { return Value{kind: KindBool, b: v} }

// FromJSON tags a scalar produced by encoding/json. Numbers decoded with
// UseNumber keep the integer/float distinction; plain float64 inputs are
// always tagged as floats.
func FromJSON(raw any) Value {
	switch t := raw.(type) {
	case nil:
		return Null()
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return Int(i)
		}
		if f, err := t.Float64(); err == nil {
			return Float(f)
		}
		return Str(t.String())
	case int:
		return Int(int64(t))
	case int64:
		return Int(t)
	case float64:
		return Float(t)
	case string:
		return Str(t)
	case bool:
		return Boolean(t)
	default:
		return Str(fmt.Sprint(t))
	}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNumeric reports whether v holds an int or a float.
func (v Value) IsNumeric() bool { return v.kind == KindInt || v.kind == KindFloat }

// Native returns v as a plain Go value: nil, int64, float64, string or bool.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString:
		return v.s
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// String renders v the way it is emitted when coercion degrades to text.
func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return formatFloat(v.f)
	case KindString:
		return v.s
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

func (v Value) float() float64 {
	if v.kind == KindInt {
		return float64(v.i)
	}

	return v.f
}

// formatFloat keeps a trailing ".0" on integral floats so they stay
// distinguishable from integers once stringified.
func formatFloat(f float64) string {
	abs := math.Abs(f)
	switch {
	case math.IsNaN(f) || math.IsInf(f, 0):
		return strconv.FormatFloat(f, 'g', -1, 64)
	case f == math.Trunc(f) && abs < 1e16:
		return strconv.FormatFloat(f, 'f', 1, 64)
	case abs >= 1e-4 && abs < 1e16:
		return strconv.FormatFloat(f, 'f', -1, 64)
	default:
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
}
