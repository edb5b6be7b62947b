package statistics

import (
	"math"

	"github.com/shopspring/decimal"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// SummaryInput is everything needed to summarize one strategy run.
type SummaryInput struct {
	StrategyName string
	Timeframe    string
	// Trades may include an open trade; only closed trades are summarized.
	Trades []types.Trade
	Stats  types.PortfolioStats
}

// Summarize builds the one-row summary of a strategy run. Trade-level
// figures come from the closed trades, ratios are passed through from the
// portfolio engine. Every figure is rounded to two decimals.
func Summarize(input SummaryInput) (types.StrategySummary, error) {
	closed := types.ClosedTrades(input.Trades)
	if len(closed) == 0 {
		return types.StrategySummary{}, errors.Newf(errors.ErrCodeNoTrades,
			"strategy %q (timeframe %s) has no closed trades", input.StrategyName, input.Timeframe)
	}

	dd, err := MaxDrawdown(closed)
	if err != nil {
		return types.StrategySummary{}, err
	}

	var (
		net, wins, losses, durations float64
		nWins, nLosses               int
		best, worst                  = math.Inf(-1), math.Inf(1)
	)

	for _, t := range closed {
		net += t.PnL
		durations += t.Duration
		best = math.Max(best, t.PnL)
		worst = math.Min(worst, t.PnL)

		switch {
		case t.PnL > 0:
			wins += t.PnL
			nWins++
		case t.PnL < 0:
			losses += t.PnL
			nLosses++
		}
	}

	n := float64(len(closed))
	stats := input.Stats

	return types.StrategySummary{
		StrategyName:       input.StrategyName,
		Timeframe:          input.Timeframe,
		Start:              stats.Start,
		End:                stats.End,
		Period:             stats.Period.String(),
		BenchmarkReturnPct: Round2(stats.BenchmarkReturnPct),
		NbrTrades:          len(closed),
		WinRate:            Round2(stats.WinRatePct),
		AvgTradeReturn:     Round2(net / n),
		AvgTradeDuration:   Round2(durations / n),
		ProfitFactor:       Round2(stats.ProfitFactor),
		Expectancy:         Round2(net / n),
		AvgWin:             Round2(mean(wins, nWins)),
		AvgWinPct:          Round2(stats.AvgWinningTradePct),
		AvgLoss:            Round2(mean(losses, nLosses)),
		AvgLossPct:         Round2(stats.AvgLosingTradePct),
		BestTrade:          Round2(best),
		BestTradePct:       Round2(stats.BestTradePct),
		WorstTrade:         Round2(worst),
		WorstTradePct:      Round2(stats.WorstTradePct),
		Drawdown:           Round2(dd.MaxDrawdownAbs),
		DrawdownStart:      dd.PeakTime,
		DrawdownEnd:        dd.TroughTime,
		DrawdownPct:        Round2(stats.MaxDrawdownPct),
		ReturnToDD:         Round2(ReturnToDrawdown(net, dd.MaxDrawdownAbs)),
		Sharpe:             Round2(stats.Sharpe),
		Calmar:             Round2(stats.Calmar),
		Omega:              Round2(stats.Omega),
		Sortino:            Round2(stats.Sortino),
		NetProfit:          Round2(net),
	}, nil
}

// ReturnToDrawdown is net profit over the absolute max drawdown, +Inf when
// there was no drawdown.
func ReturnToDrawdown(net, drawdown float64) float64 {
	if drawdown == 0 {
		return math.Inf(1)
	}

	return net / math.Abs(drawdown)
}

// Round2 rounds half away from zero to two decimals. NaN and infinities are
// returned unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}

	rounded, _ := decimal.NewFromFloat(v).Round(2).Float64()

	return rounded
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}

	return sum / float64(n)
}
