// Package indicator computes technical indicators over whole bar series and
// writes them as the indicator files the backtests read.
package indicator

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/frame"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// Series is one output column of an indicator. Values are aligned with the
// input bars and NaN during warmup.
type Series struct {
	Suffix string
	Values []float64
}

// Indicator defines the interface for all technical indicators.
type Indicator interface {
	// Name returns the type of the indicator.
	Name() types.IndicatorType
	// Config configures the indicator with its positional parameters.
	Config(params ...any) error
	// Compute calculates the indicator over every bar of the frame.
	Compute(bars *frame.Frame) ([]Series, error)
}

// ColumnName is the column an indicator series is stored under:
// <name>[_<suffix>]_<period>.
func ColumnName(name, suffix, period string) string {
	if suffix == "" {
		return fmt.Sprintf("%s_%s", name, period)
	}

	return fmt.Sprintf("%s_%s_%s", name, suffix, period)
}

// ParseParams splits an underscore joined period such as "12_26_9" or
// "20_2.5" into Config parameters.
func ParseParams(period string) ([]any, error) {
	parts := strings.Split(period, "_")
	params := make([]any, 0, len(parts))

	for _, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			params = append(params, n)

			continue
		}

		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return nil, errors.Newf(errors.ErrCodeInvalidParameter, "invalid period %q", period)
		}

		params = append(params, f)
	}

	return params, nil
}

// intParam accepts ints and whole floats.
func intParam(name string, param any) (int, error) {
	switch v := param.(type) {
	case int:
		if v <= 0 {
			return 0, errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, v)
		}

		return v, nil
	case float64:
		return intParam(name, int(v))
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected int or float", name)
	}
}

func floatParam(name string, param any) (float64, error) {
	var v float64

	switch p := param.(type) {
	case int:
		v = float64(p)
	case float64:
		v = p
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "invalid type for %s parameter, expected float64", name)
	}

	if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "%s must be a positive number, got %f", name, v)
	}

	return v, nil
}

func nanSeries(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

// sma is the rolling mean over period values. Windows holding NaN are NaN.
func sma(values []float64, period int) []float64 {
	out := nanSeries(len(values))
	sum := 0.0
	missing := 0

	for i, v := range values {
		if math.IsNaN(v) {
			missing++
		} else {
			sum += v
		}

		if i >= period {
			old := values[i-period]
			if math.IsNaN(old) {
				missing--
			} else {
				sum -= old
			}
		}

		if i >= period-1 && missing == 0 {
			out[i] = sum / float64(period)
		}
	}

	return out
}

// ema is the exponential mean with alpha 2/(period+1), seeded with the mean
// of the first period values after any leading NaN.
func ema(values []float64, period int) []float64 {
	return smooth(values, period, 2/float64(period+1))
}

// rma is Wilder's moving average, alpha 1/period.
func rma(values []float64, period int) []float64 {
	return smooth(values, period, 1/float64(period))
}

func smooth(values []float64, period int, alpha float64) []float64 {
	out := nanSeries(len(values))

	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}

	seed := start + period - 1
	if seed >= len(values) {
		return out
	}

	sum := 0.0
	for _, v := range values[start : seed+1] {
		sum += v
	}

	prev := sum / float64(period)
	out[seed] = prev

	for i := seed + 1; i < len(values); i++ {
		prev = alpha*values[i] + (1-alpha)*prev
		out[i] = prev
	}

	return out
}
