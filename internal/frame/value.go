package frame

import (
	"math"
	"strconv"
	"strings"
)

// Kind tags the variant held by a Value.
type Kind uint8

const (
	// KindAbsent marks a gap: no data at this row.
	KindAbsent Kind = iota
	// KindNumber is a numeric indicator or price value.
	KindNumber
	// KindText is a categorical state such as "bullish".
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is one cell of a frame column.
type Value struct {
	kind Kind
	num  float64
	text string
}

// Absent returns the missing value.
func Absent() Value {
	return Value{kind: KindAbsent}
}

// Number returns a numeric value. NaN is stored as Absent.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Absent()
	}

	return Value{kind: KindNumber, num: f}
}

// Text returns a categorical value.
func Text(s string) Value {
	return Value{kind: KindText, text: s}
}

// Coerce turns a raw literal into a Value: numbers and numeric strings become
// numbers, other strings stay text, nil is absent.
func Coerce(raw any) Value {
	switch v := raw.(type) {
	case nil:
		return Absent()
	case Value:
		return v
	case float64:
		return Number(v)
	case float32:
		return Number(float64(v))
	case int:
		return Number(float64(v))
	case int8:
		return Number(float64(v))
	case int16:
		return Number(float64(v))
	case int32:
		return Number(float64(v))
	case int64:
		return Number(float64(v))
	case uint8:
		return Number(float64(v))
	case uint16:
		return Number(float64(v))
	case uint32:
		return Number(float64(v))
	case uint64:
		return Number(float64(v))
	case bool:
		if v {
			return Number(1)
		}

		return Number(0)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return Text(v)
		}

		return Number(f)
	default:
		return Absent()
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind {
	return v.kind
}

// IsAbsent reports whether the value is a gap.
func (v Value) IsAbsent() bool {
	return v.kind == KindAbsent
}

// Float returns the numeric payload.
func (v Value) Float() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}

	return v.num, true
}

// Str returns the text payload.
func (v Value) Str() (string, bool) {
	if v.kind != KindText {
		return "", false
	}

	return v.text, true
}

// Equal reports whether both values are present, of the same kind and equal.
// Absent values are never equal to anything, including each other.
func (v Value) Equal(o Value) bool {
	if v.kind == KindAbsent || o.kind == KindAbsent || v.kind != o.kind {
		return false
	}

	if v.kind == KindNumber {
		return v.num == o.num
	}

	return v.text == o.text
}

// Compare orders two present values of the same kind. ok is false when either
// side is absent or the kinds differ.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind == KindAbsent || b.kind == KindAbsent || a.kind != b.kind {
		return 0, false
	}

	if a.kind == KindNumber {
		switch {
		case a.num < b.num:
			return -1, true
		case a.num > b.num:
			return 1, true
		default:
			return 0, true
		}
	}

	return strings.Compare(a.text, b.text), true
}

func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case KindText:
		return v.text
	default:
		return "<absent>"
	}
}
