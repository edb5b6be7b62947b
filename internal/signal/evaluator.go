// Package signal turns strategy conditions into boolean series over an
// aligned frame and combines them into entry and exit signals.
//
// Absent operands never satisfy a condition, and operators that look at the
// previous bar evaluate false on the first row.
package signal

import (
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/strategy"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// Series is a boolean series aligned 1:1 with a frame's rows.
type Series []bool

// Count returns the number of true bars.
func (s Series) Count() int {
	n := 0

	for _, v := range s {
		if v {
			n++
		}
	}

	return n
}

type predicate func(sig, prevSig, val, prevVal frame.Value) bool

var predicates = map[strategy.Operator]predicate{
	strategy.OperatorCrossesAbove: func(sig, prevSig, val, prevVal frame.Value) bool {
		return lte(prevSig, prevVal) && gt(sig, val)
	},
	strategy.OperatorCrossesBelow: func(sig, prevSig, val, prevVal frame.Value) bool {
		return gte(prevSig, prevVal) && lt(sig, val)
	},
	strategy.OperatorChangesTo: func(sig, prevSig, val, _ frame.Value) bool {
		return !prevSig.IsAbsent() && sig.Equal(val) && !prevSig.Equal(val)
	},
	strategy.OperatorRemains: func(sig, prevSig, val, _ frame.Value) bool {
		return sig.Equal(val) && prevSig.Equal(val)
	},
	strategy.OperatorGt:  func(sig, _, val, _ frame.Value) bool { return gt(sig, val) },
	strategy.OperatorGte: func(sig, _, val, _ frame.Value) bool { return gte(sig, val) },
	strategy.OperatorLt:  func(sig, _, val, _ frame.Value) bool { return lt(sig, val) },
	strategy.OperatorLte: func(sig, _, val, _ frame.Value) bool { return lte(sig, val) },
	strategy.OperatorEq:  func(sig, _, val, _ frame.Value) bool { return sig.Equal(val) },
	strategy.OperatorNe:  func(sig, _, val, _ frame.Value) bool { return ne(sig, val) },
}

// Evaluate computes one condition over every row of the frame.
func Evaluate(c strategy.Condition, f *frame.Frame) (Series, error) {
	signal, ok := f.Column(c.Signal)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeMissingColumn,
			"signal %q (timeframe %s) not found in frame %q", c.Signal, timeframeOf(c), f.Name())
	}

	op, known := c.Operator.Canonical()
	if !known {
		return nil, errors.Newf(errors.ErrCodeUnsupportedOperator, "unsupported operator %q", c.Operator)
	}

	apply := predicates[op]
	operand := ResolveOperand(c.Value, f)
	out := make(Series, len(signal))

	for i := range signal {
		prevSig := frame.Absent()
		if i > 0 {
			prevSig = signal[i-1]
		}

		out[i] = apply(signal[i], prevSig, operand.At(i), operand.Prev(i))
	}

	return out, nil
}

func timeframeOf(c strategy.Condition) string {
	if c.Timeframe.IsSome() {
		return c.Timeframe.Unwrap()
	}

	return "base"
}

func gt(a, b frame.Value) bool {
	cmp, ok := frame.Compare(a, b)

	return ok && cmp > 0
}

func gte(a, b frame.Value) bool {
	cmp, ok := frame.Compare(a, b)

	return ok && cmp >= 0
}

func lt(a, b frame.Value) bool {
	cmp, ok := frame.Compare(a, b)

	return ok && cmp < 0
}

func lte(a, b frame.Value) bool {
	cmp, ok := frame.Compare(a, b)

	return ok && cmp <= 0
}

// ne is true for present values that differ, including a number against text.
func ne(a, b frame.Value) bool {
	if a.IsAbsent() || b.IsAbsent() {
		return false
	}

	return !a.Equal(b)
}
