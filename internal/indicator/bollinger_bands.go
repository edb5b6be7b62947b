package indicator

import (
	"math"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// BollingerBands surrounds the simple moving average of the close with bands
// stdDev population standard deviations away.
type BollingerBands struct {
	period int
	stdDev float64
}

// NewBollingerBands creates a new BollingerBands indicator with default
// configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,
		stdDev: 2,
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the BollingerBands indicator.
// Expected parameters: period (int), stdDev (float64). stdDev defaults to 2.
func (bb *BollingerBands) Config(params ...any) error {
	if len(params) < 1 || len(params) > 2 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 1 or 2 parameters: period (int), stdDev (float64)")
	}

	period, err := intParam("period", params[0])
	if err != nil {
		return err
	}

	stdDev := 2.0
	if len(params) == 2 {
		stdDev, err = floatParam("stdDev", params[1])
		if err != nil {
			return err
		}
	}

	bb.period = period
	bb.stdDev = stdDev

	return nil
}

// Compute implements Indicator.
func (bb *BollingerBands) Compute(bars *frame.Frame) ([]Series, error) {
	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	middle := sma(closes, bb.period)
	upper := nanSeries(len(closes))
	lower := nanSeries(len(closes))

	for i, mean := range middle {
		if math.IsNaN(mean) {
			continue
		}

		variance := 0.0
		for _, v := range closes[i-bb.period+1 : i+1] {
			variance += (v - mean) * (v - mean)
		}

		band := bb.stdDev * math.Sqrt(variance/float64(bb.period))
		upper[i] = mean + band
		lower[i] = mean - band
	}

	return []Series{
		{Suffix: "upper", Values: upper},
		{Suffix: "middle", Values: middle},
		{Suffix: "lower", Values: lower},
	}, nil
}
