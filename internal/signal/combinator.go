package signal

import (
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/strategy"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// Combine reduces condition series in order under the group mode.
func Combine(series []Series, mode strategy.Mode) (Series, error) {
	if len(series) == 0 {
		return nil, errors.New(errors.ErrCodeNoConditions, "no conditions to combine")
	}

	if mode != strategy.ModeAll && mode != strategy.ModeAny {
		return nil, errors.Newf(errors.ErrCodeUnsupportedMode, "unsupported mode %q", mode)
	}

	out := make(Series, len(series[0]))
	copy(out, series[0])

	for n, s := range series[1:] {
		if len(s) != len(out) {
			return nil, errors.Newf(errors.ErrCodeLengthMismatch,
				"condition %d has %d bars, expected %d", n+1, len(s), len(out))
		}

		for i := range out {
			if mode == strategy.ModeAll {
				out[i] = out[i] && s[i]
			} else {
				out[i] = out[i] || s[i]
			}
		}
	}

	return out, nil
}

// EvaluateGroup evaluates every condition of a group and combines them.
func EvaluateGroup(group *strategy.ConditionGroup, f *frame.Frame) (Series, error) {
	if group == nil {
		return nil, errors.New(errors.ErrCodeNoConditions, "condition group is missing")
	}

	series := make([]Series, 0, len(group.Conditions))

	for _, c := range group.Conditions {
		s, err := Evaluate(c, f)
		if err != nil {
			return nil, err
		}

		series = append(series, s)
	}

	return Combine(series, group.Mode)
}

// Signals holds the entry and exit series of a strategy. The short pair is
// nil when the document has no short side.
type Signals struct {
	Entries      Series
	Exits        Series
	ShortEntries Series
	ShortExits   Series
}

// BuildSignals evaluates the entry and exit sides of a document
// independently over the aligned frame.
func BuildSignals(doc *strategy.Document, f *frame.Frame) (Signals, error) {
	var (
		signals Signals
		err     error
	)

	if signals.Entries, err = EvaluateGroup(doc.Entry.Long, f); err != nil {
		return Signals{}, errors.Wrapf(errors.GetCode(err), err, "strategy %q long entry", doc.Name)
	}

	if signals.Exits, err = EvaluateGroup(doc.Exit.Long, f); err != nil {
		return Signals{}, errors.Wrapf(errors.GetCode(err), err, "strategy %q long exit", doc.Name)
	}

	if doc.Entry.Short != nil {
		if signals.ShortEntries, err = EvaluateGroup(doc.Entry.Short, f); err != nil {
			return Signals{}, errors.Wrapf(errors.GetCode(err), err, "strategy %q short entry", doc.Name)
		}
	}

	if doc.Exit.Short != nil {
		if signals.ShortExits, err = EvaluateGroup(doc.Exit.Short, f); err != nil {
			return Signals{}, errors.Wrapf(errors.GetCode(err), err, "strategy %q short exit", doc.Name)
		}
	}

	return signals, nil
}
