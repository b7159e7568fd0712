// Package value implements BSQL's tagged scalar type: the Integer32,
// Integer64, Real, Text, and Null variants that flow through the executor
// and the on-disk row codec (the parser yields ast.Literal, which the
// executor converts to a Value).
package value

import (
	"fmt"
	"strconv"
)

// Kind identifies which variant a Value holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindInteger32
	KindInteger64
	KindReal
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "NULL"
	case KindInteger32:
		return "INTEGER"
	case KindInteger64:
		return "LONG"
	case KindReal:
		return "REAL"
	case KindText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Value is a closed tagged union. Only the field matching Kind is valid.
type Value struct {
	Kind Kind
	I32  int32
	I64  int64
	R    float64
	S    string
}

// Null is the shared null value.
var Null = Value{Kind: KindNull}

func Integer32(v int32) Value { return Value{Kind: KindInteger32, I32: v} }
func Integer64(v int64) Value { return Value{Kind: KindInteger64, I64: v} }
func Real(v float64) Value    { return Value{Kind: KindReal, R: v} }
func Text(v string) Value     { return Value{Kind: KindText, S: v} }

// IsNull reports whether v is the null variant.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// AsFloat64 promotes any numeric variant to float64. It panics on Text or
// Null; callers must check Kind (or use Compare, which handles promotion).
func (v Value) AsFloat64() float64 {
	switch v.Kind {
	case KindInteger32:
		return float64(v.I32)
	case KindInteger64:
		return float64(v.I64)
	case KindReal:
		return v.R
	default:
		panic(fmt.Sprintf("value: AsFloat64 on non-numeric kind %s", v.Kind))
	}
}

func isNumeric(k Kind) bool {
	return k == KindInteger32 || k == KindInteger64 || k == KindReal
}

// Ordering is the result of comparing two non-null values of compatible
// kinds.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
)

// Compare orders a against b. ok is false when the comparison is
// undefined: either operand is Null, or the kinds are incompatible
// (Text versus any numeric kind). Two numeric kinds of different width
// promote to float64 per spec.
func Compare(a, b Value) (order Ordering, ok bool) {
	if a.IsNull() || b.IsNull() {
		return 0, false
	}
	if a.Kind == KindText || b.Kind == KindText {
		if a.Kind != KindText || b.Kind != KindText {
			return 0, false
		}
		switch {
		case a.S < b.S:
			return Less, true
		case a.S > b.S:
			return Greater, true
		default:
			return Equal, true
		}
	}
	if !isNumeric(a.Kind) || !isNumeric(b.Kind) {
		return 0, false
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	switch {
	case af < bf:
		return Less, true
	case af > bf:
		return Greater, true
	default:
		return Equal, true
	}
}

// Equals reports whether a and b compare equal. It returns false whenever
// Compare reports ok=false (including when either side is Null) — BSQL's
// three-valued logic layer (internal/engine.Tri) is responsible for
// distinguishing "false" from "unknown"; Equals alone collapses both to
// false, which is the right behavior for anything that is not predicate
// evaluation (e.g. primary-key uniqueness checks, round-trip tests).
func Equals(a, b Value) bool {
	order, ok := Compare(a, b)
	return ok && order == Equal
}

// String renders v the way the line protocol does: NULL for the null
// variant, Go's default formatting otherwise. Text values are rendered
// verbatim, including any embedded commas (spec's known framing
// limitation — see DESIGN.md).
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "NULL"
	case KindInteger32:
		return fmt.Sprintf("%d", v.I32)
	case KindInteger64:
		return fmt.Sprintf("%d", v.I64)
	case KindReal:
		return strconv.FormatFloat(v.R, 'g', -1, 64)
	case KindText:
		return v.S
	default:
		return ""
	}
}
