package indicator

import (
	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// MA is the simple moving average of the close.
type MA struct {
	period int
}

// NewMA creates a new MA indicator with default configuration.
func NewMA() Indicator {
	return &MA{
		period: 20,
	}
}

// Name returns the name of the indicator.
func (m *MA) Name() types.IndicatorType {
	return types.IndicatorTypeMA
}

// Config configures the MA indicator. Expected parameters: period (int).
func (m *MA) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam("period", params[0])
	if err != nil {
		return err
	}

	m.period = period

	return nil
}

// Compute implements Indicator.
func (m *MA) Compute(bars *frame.Frame) ([]Series, error) {
	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	return []Series{{Suffix: "", Values: sma(closes, m.period)}}, nil
}
