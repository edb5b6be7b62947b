package signal

import (
	"github.com/zakaria-lahyani/backtester/internal/frame"
)

// Operand is the right-hand side of a condition, resolved once before
// evaluation: either a reference to a column of the frame or a literal.
type Operand struct {
	column   string
	isColumn bool
	values   []frame.Value
	literal  frame.Value
}

// ColumnRef builds an operand reading a frame column.
func ColumnRef(name string, values []frame.Value) Operand {
	return Operand{column: name, isColumn: true, values: values, literal: frame.Absent()}
}

// Literal builds a constant operand.
func Literal(v frame.Value) Operand {
	return Operand{column: "", isColumn: false, values: nil, literal: v}
}

// ResolveOperand treats a string naming an existing column as a column
// reference. Anything else is a literal, coerced to a number when possible.
func ResolveOperand(raw any, f *frame.Frame) Operand {
	if name, ok := raw.(string); ok {
		if values, found := f.Column(name); found {
			return ColumnRef(name, values)
		}
	}

	return Literal(frame.Coerce(raw))
}

// IsColumn reports whether the operand reads a column.
func (o Operand) IsColumn() bool {
	return o.isColumn
}

// Column returns the referenced column name, empty for literals.
func (o Operand) Column() string {
	return o.column
}

// At returns the operand at row i.
func (o Operand) At(i int) frame.Value {
	if o.isColumn {
		return o.values[i]
	}

	return o.literal
}

// Prev returns the operand one row before i. A column lags in lockstep with
// the signal; a literal is constant. Row 0 has no predecessor.
func (o Operand) Prev(i int) frame.Value {
	if !o.isColumn {
		return o.literal
	}

	if i == 0 {
		return frame.Absent()
	}

	return o.values[i-1]
}
