package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	KindMissing Kind = iota
	KindNumber
	KindBool
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	default:
		return "missing"
	}
}

// Value is a single typed cell. The zero Value is Missing.
type Value struct {
	kind Kind
	num  float64
	b    bool
	str  string
}

func Missing() Value            { return Value{} }
func Number(f float64) Value    { return Value{kind: KindNumber, num: f} }
func Bool(b bool) Value         { return Value{kind: KindBool, b: b} }
func String(s string) Value     { return Value{kind: KindString, str: s} }
func (v Value) Kind() Kind      { return v.kind }
func (v Value) IsMissing() bool { return v.kind == KindMissing }

// Float returns the numeric payload and whether v is a Number.
func (v Value) Float() (float64, bool) {
	return v.num, v.kind == KindNumber
}

// Text renders the cell the way reports print it. Missing renders empty.
func (v Value) Text() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindString:
		return v.str
	default:
		return ""
	}
}

// Interface converts the cell to a plain Go value: nil, float64, bool or string.
func (v Value) Interface() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	case KindString:
		return v.str
	default:
		return nil
	}
}

// Coerce converts a raw field into a Value:
// empty is Missing, true/false (any case) is Bool, a finite numeric literal is
// Number, anything else is kept as a String. NaN and Inf literals stay strings.
func Coerce(raw string) Value {
	if raw == "" {
		return Missing()
	}
	trimmed := strings.TrimSpace(raw)
	switch strings.ToLower(trimmed) {
	case "true":
		return Bool(true)
	case "false":
		return Bool(false)
	}
	if f, ok := parseFinite(trimmed); ok {
		return Number(f)
	}
	return String(raw)
}

func parseFinite(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
