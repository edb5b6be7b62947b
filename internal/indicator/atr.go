package indicator

import (
	"math"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// ATR is the average true range, smoothed with Wilder's moving average.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam("period", params[0])
	if err != nil {
		return err
	}

	a.period = period

	return nil
}

// Compute implements Indicator.
func (a *ATR) Compute(bars *frame.Frame) ([]Series, error) {
	highs, err := bars.Floats("high")
	if err != nil {
		return nil, err
	}

	lows, err := bars.Floats("low")
	if err != nil {
		return nil, err
	}

	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	return []Series{{Suffix: "", Values: rma(trueRange(highs, lows, closes), a.period)}}, nil
}

// trueRange is high minus low on the first bar, then the largest move from
// the previous close.
func trueRange(highs, lows, closes []float64) []float64 {
	out := make([]float64, len(highs))

	for i := range highs {
		tr := highs[i] - lows[i]
		if i > 0 {
			prev := closes[i-1]
			tr = math.Max(tr, math.Max(math.Abs(highs[i]-prev), math.Abs(lows[i]-prev)))
		}

		out[i] = tr
	}

	return out
}
