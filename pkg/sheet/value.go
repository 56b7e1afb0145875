package sheet

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind distinguishes the three states a decoded cell can be in.
type Kind uint8

const (
	KindAbsent Kind = iota
	KindNumber
	KindText
)

// Value is a single decoded cell. The zero Value is Absent.
type Value struct {
	Kind Kind
	num  float64
	text string
}

// Absent returns the null cell.
func Absent() Value {
	return Value{}
}

// Number returns a numeric cell.
func Number(n float64) Value {
	return Value{Kind: KindNumber, num: n}
}

// Text returns a text cell. Date-like cells are carried as text too.
func Text(s string) Value {
	return Value{Kind: KindText, text: s}
}

// Of builds a Value from a loosely typed Go value, mostly for tests and
// fixtures: nil is Absent, numeric kinds are Number, strings are Text.
func Of(v interface{}) Value {
	switch t := v.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case string:
		return Text(t)
	default:
		return Text(fmt.Sprint(t))
	}
}

func (v Value) IsAbsent() bool { return v.Kind == KindAbsent }
func (v Value) IsNumber() bool { return v.Kind == KindNumber }
func (v Value) IsText() bool   { return v.Kind == KindText }

// IsEmpty reports whether the cell carries nothing a human would read:
// absent, or text made only of whitespace. A numeric zero is not empty.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindAbsent:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Float returns the numeric payload and whether the cell is a number.
func (v Value) Float() (float64, bool) {
	if v.Kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// PositiveNumber reports whether the cell is a number strictly greater than zero.
func (v Value) PositiveNumber() bool {
	n, ok := v.Float()
	return ok && n > 0
}

// String stringifies the cell. Absent cells yield "", whole numbers drop
// their fractional part so numeric phone numbers and serials read naturally.
func (v Value) String() string {
	switch v.Kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	default:
		return ""
	}
}

// Equals reports exact equality of kind and payload.
func (v Value) Equals(other Value) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case KindNumber:
		return v.num == other.num
	case KindText:
		return v.text == other.text
	default:
		return true
	}
}
