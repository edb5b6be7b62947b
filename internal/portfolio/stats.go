package portfolio

import (
	"math"
	"time"

	"github.com/zakaria-lahyani/backtester/internal/types"
)

const year = 365 * 24 * time.Hour

func computeStats(times []time.Time, closes, equity []float64, trades []types.Trade, cfg Config) types.PortfolioStats {
	closed := types.ClosedTrades(trades)
	returns := barReturns(equity, cfg.InitialCapital)
	annFactor := float64(year) / float64(cfg.Frequency)
	endValue := equity[len(equity)-1]
	maxDD := maxDrawdownPct(equity)

	stats := types.PortfolioStats{
		Start:              times[0],
		End:                times[len(times)-1],
		Period:             time.Duration(len(times)) * cfg.Frequency,
		StartValue:         cfg.InitialCapital,
		EndValue:           endValue,
		TotalReturnPct:     (endValue/cfg.InitialCapital - 1) * 100,
		BenchmarkReturnPct: benchmarkReturnPct(closes),
		MaxDrawdownPct:     maxDD,
		TotalTrades:        len(trades),
		TotalClosedTrades:  len(closed),
		Sharpe:             sharpe(returns, annFactor),
		Sortino:            sortino(returns, annFactor),
		Calmar:             calmar(returns, annFactor, maxDD),
		Omega:              omega(returns),
	}

	fillTradeStats(&stats, closed)

	return stats
}

func fillTradeStats(stats *types.PortfolioStats, closed []types.Trade) {
	nan := math.NaN()

	if len(closed) == 0 {
		stats.WinRatePct = nan
		stats.BestTradePct = nan
		stats.WorstTradePct = nan
		stats.AvgWinningTradePct = nan
		stats.AvgLosingTradePct = nan
		stats.ProfitFactor = nan
		stats.Expectancy = nan

		return
	}

	var (
		grossWin, grossLoss, pnl float64
		winRet, lossRet          float64
		nWin, nLoss              int
		best, worst              = math.Inf(-1), math.Inf(1)
	)

	for _, t := range closed {
		pnl += t.PnL
		best = math.Max(best, t.Return)
		worst = math.Min(worst, t.Return)

		switch {
		case t.PnL > 0:
			grossWin += t.PnL
			winRet += t.Return
			nWin++
		case t.PnL < 0:
			grossLoss += t.PnL
			lossRet += t.Return
			nLoss++
		}
	}

	n := float64(len(closed))

	stats.WinRatePct = float64(nWin) / n * 100
	stats.BestTradePct = best * 100
	stats.WorstTradePct = worst * 100
	stats.AvgWinningTradePct = avgOrNaN(winRet, nWin) * 100
	stats.AvgLosingTradePct = avgOrNaN(lossRet, nLoss) * 100
	stats.ProfitFactor = divide(grossWin, math.Abs(grossLoss))
	stats.Expectancy = pnl / n
}

// barReturns are the simple returns of the equity curve. The first bar is
// measured against the initial capital.
func barReturns(equity []float64, initial float64) []float64 {
	returns := make([]float64, len(equity))
	prev := initial

	for i, v := range equity {
		returns[i] = v/prev - 1
		prev = v
	}

	return returns
}

// maxDrawdownPct is the deepest fall of the equity curve below its running
// peak, as a positive percentage.
func maxDrawdownPct(equity []float64) float64 {
	peak := math.Inf(-1)
	worst := 0.0

	for _, v := range equity {
		peak = math.Max(peak, v)
		if peak <= 0 {
			continue
		}

		worst = math.Min(worst, v/peak-1)
	}

	return -worst * 100
}

func benchmarkReturnPct(closes []float64) float64 {
	first, last := math.NaN(), math.NaN()

	for _, c := range closes {
		if math.IsNaN(c) {
			continue
		}

		if math.IsNaN(first) {
			first = c
		}

		last = c
	}

	return (last/first - 1) * 100
}

func sharpe(returns []float64, annFactor float64) float64 {
	mean, std := meanStd(returns)

	return divide(mean, std) * math.Sqrt(annFactor)
}

func sortino(returns []float64, annFactor float64) float64 {
	mean, _ := meanStd(returns)

	var downside float64

	for _, r := range returns {
		if r < 0 {
			downside += r * r
		}
	}

	downside = math.Sqrt(downside / float64(len(returns)))

	return divide(mean, downside) * math.Sqrt(annFactor)
}

func calmar(returns []float64, annFactor float64, maxDDPct float64) float64 {
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}

	annualized := math.Pow(growth, annFactor/float64(len(returns))) - 1

	return divide(annualized, maxDDPct/100)
}

func omega(returns []float64) float64 {
	var gains, losses float64

	for _, r := range returns {
		if r > 0 {
			gains += r
		} else {
			losses -= r
		}
	}

	return divide(gains, losses)
}

// meanStd returns the mean and the sample standard deviation.
func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := sum / float64(len(values))
	if len(values) < 2 {
		return mean, math.NaN()
	}

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}

	return mean, math.Sqrt(sq / float64(len(values)-1))
}

// divide returns num/den with a zero denominator giving NaN for a zero
// numerator and a signed infinity otherwise.
func divide(num, den float64) float64 {
	if den == 0 {
		if num == 0 {
			return math.NaN()
		}

		return math.Inf(sign(num))
	}

	return num / den
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}

	return 1
}

func avgOrNaN(sum float64, n int) float64 {
	if n == 0 {
		return math.NaN()
	}

	return sum / float64(n)
}
