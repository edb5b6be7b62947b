// Package statistics derives drawdown and summary figures from the trades
// of one strategy run.
package statistics

import (
	"math"
	"sort"
	"time"

	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// DrawdownResult describes the deepest fall of cumulative realized P&L from
// a previous high.
type DrawdownResult struct {
	// MaxDrawdownAbs is equity - peak at the trough, <= 0.
	MaxDrawdownAbs float64
	// MaxDrawdownPct is MaxDrawdownAbs relative to PeakEquity in percent.
	// With a zero peak it is -Inf for a real drawdown and 0 otherwise.
	MaxDrawdownPct float64
	PeakTime       time.Time
	TroughTime     time.Time
	PeakEquity     float64
}

// MaxDrawdown sorts trades by exit time (stable) and walks the cumulative
// equity curve once. Ties keep the first occurrence: the earliest trough and,
// for that trough, the earliest trade that reached the running peak.
func MaxDrawdown(trades []types.Trade) (DrawdownResult, error) {
	if len(trades) == 0 {
		return DrawdownResult{}, errors.New(errors.ErrCodeNoTrades, "no trades to compute drawdown from")
	}

	ordered := make([]types.Trade, len(trades))
	copy(ordered, trades)

	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].ExitTimestamp.Before(ordered[j].ExitTimestamp)
	})

	equity := ordered[0].PnL
	peak, peakIdx := equity, 0
	worst, troughIdx, peakAtTrough, peakEquity := 0.0, 0, 0, peak

	for i := 1; i < len(ordered); i++ {
		equity += ordered[i].PnL

		if equity > peak {
			peak, peakIdx = equity, i
		}

		if dd := equity - peak; dd < worst {
			worst, troughIdx, peakAtTrough, peakEquity = dd, i, peakIdx, peak
		}
	}

	return DrawdownResult{
		MaxDrawdownAbs: worst,
		MaxDrawdownPct: drawdownPct(worst, peakEquity),
		PeakTime:       ordered[peakAtTrough].ExitTimestamp,
		TroughTime:     ordered[troughIdx].ExitTimestamp,
		PeakEquity:     peakEquity,
	}, nil
}

func drawdownPct(dd, peak float64) float64 {
	if peak == 0 {
		if dd < 0 {
			return math.Inf(-1)
		}

		return 0
	}

	return dd / peak * 100
}
