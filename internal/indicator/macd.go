package indicator

import (
	"math"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// MACD produces the MACD line, its signal line and the histogram.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with the usual 12/26/9 periods.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if len(params) != 3 {
		return errors.New(errors.ErrCodeMissingParameter, "Config expects 3 parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int)")
	}

	fastPeriod, err := intParam("fastPeriod", params[0])
	if err != nil {
		return err
	}

	slowPeriod, err := intParam("slowPeriod", params[1])
	if err != nil {
		return err
	}

	signalPeriod, err := intParam("signalPeriod", params[2])
	if err != nil {
		return err
	}

	if fastPeriod >= slowPeriod {
		return errors.Newf(errors.ErrCodeInvalidPeriod,
			"fastPeriod must be less than slowPeriod, got %d and %d", fastPeriod, slowPeriod)
	}

	m.fastPeriod = fastPeriod
	m.slowPeriod = slowPeriod
	m.signalPeriod = signalPeriod

	return nil
}

// Compute implements Indicator.
func (m *MACD) Compute(bars *frame.Frame) ([]Series, error) {
	closes, err := bars.Floats("close")
	if err != nil {
		return nil, err
	}

	fast := ema(closes, m.fastPeriod)
	slow := ema(closes, m.slowPeriod)

	line := nanSeries(len(closes))
	for i := range closes {
		line[i] = fast[i] - slow[i]
	}

	signal := ema(line, m.signalPeriod)

	hist := nanSeries(len(closes))
	for i := range closes {
		if !math.IsNaN(signal[i]) {
			hist[i] = line[i] - signal[i]
		}
	}

	return []Series{
		{Suffix: "", Values: line},
		{Suffix: "signal", Values: signal},
		{Suffix: "hist", Values: hist},
	}, nil
}
