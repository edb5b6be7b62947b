package indicator

import (
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// EMA is the exponential moving average of the close, seeded with the simple
// mean of its first period values.
type EMA struct {
	period int
}

// NewEMA creates a new EMA indicator with default configuration.
func NewEMA() Indicator {
	return &EMA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (e *EMA) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the EMA indicator. Expected parameters: period (int).
func (e *EMA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam("period", params[0])
	if err != nil {
		return err
	}

	e.period = period

	return nil
}

// Compute implements Indicator.
func (e *EMA) Compute(bars *frame.Frame) ([]Series, error) {
	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	return []Series{{Suffix: "", Values: ema(closes, e.period)}}, nil
}
