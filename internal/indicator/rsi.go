package indicator

import (
	"math"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// RSI is Wilder's relative strength index of the close. The first value is
// at bar period.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14,
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	if len(params) != 1 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 parameter: period (int)")
	}

	period, err := intParam("period", params[0])
	if err != nil {
		return err
	}

	r.period = period

	return nil
}

// Compute implements Indicator.
func (r *RSI) Compute(bars *frame.Frame) ([]Series, error) {
	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	out := nanSeries(len(closes))
	if len(closes) <= r.period {
		return []Series{{Suffix: "", Values: out}}, nil
	}

	var avgGain, avgLoss float64

	for i := 1; i <= r.period; i++ {
		gain, loss := change(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}

	p := float64(r.period)
	avgGain /= p
	avgLoss /= p
	out[r.period] = rsiValue(avgGain, avgLoss)

	for i := r.period + 1; i < len(closes); i++ {
		gain, loss := change(closes[i] - closes[i-1])
		avgGain = (avgGain*(p-1) + gain) / p
		avgLoss = (avgLoss*(p-1) + loss) / p
		out[i] = rsiValue(avgGain, avgLoss)
	}

	return []Series{{Suffix: "", Values: out}}, nil
}

func change(delta float64) (float64, float64) {
	if delta > 0 {
		return delta, 0
	}

	return 0, -delta
}

func rsiValue(avgGain, avgLoss float64) float64 {
	switch {
	case math.IsNaN(avgGain) || math.IsNaN(avgLoss):
		return math.NaN()
	case avgLoss == 0 && avgGain == 0:
		return 50
	case avgLoss == 0:
		return 100
	}

	return 100 - 100/(1+avgGain/avgLoss)
}
