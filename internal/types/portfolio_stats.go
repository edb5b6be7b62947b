package types

import "time"

// PortfolioStats are the run-level statistics reported by the portfolio
// engine. Percentages are in percent, ratios are unitless.
type PortfolioStats struct {
	Start              time.Time     `yaml:"start" json:"start"`
	End                time.Time     `yaml:"end" json:"end"`
	Period             time.Duration `yaml:"period" json:"period"`
	StartValue         float64       `yaml:"start_value" json:"start_value"`
	EndValue           float64       `yaml:"end_value" json:"end_value"`
	TotalReturnPct     float64       `yaml:"total_return_pct" json:"total_return_pct"`
	BenchmarkReturnPct float64       `yaml:"benchmark_return_pct" json:"benchmark_return_pct"`
	MaxDrawdownPct     float64       `yaml:"max_drawdown_pct" json:"max_drawdown_pct"`
	// TotalTrades counts closed and open trades.
	TotalTrades        int     `yaml:"total_trades" json:"total_trades"`
	TotalClosedTrades  int     `yaml:"total_closed_trades" json:"total_closed_trades"`
	WinRatePct         float64 `yaml:"win_rate_pct" json:"win_rate_pct"`
	BestTradePct       float64 `yaml:"best_trade_pct" json:"best_trade_pct"`
	WorstTradePct      float64 `yaml:"worst_trade_pct" json:"worst_trade_pct"`
	AvgWinningTradePct float64 `yaml:"avg_winning_trade_pct" json:"avg_winning_trade_pct"`
	AvgLosingTradePct  float64 `yaml:"avg_losing_trade_pct" json:"avg_losing_trade_pct"`
	ProfitFactor       float64 `yaml:"profit_factor" json:"profit_factor"`
	Expectancy         float64 `yaml:"expectancy" json:"expectancy"`
	Sharpe             float64 `yaml:"sharpe" json:"sharpe"`
	Sortino            float64 `yaml:"sortino" json:"sortino"`
	Calmar             float64 `yaml:"calmar" json:"calmar"`
	Omega              float64 `yaml:"omega" json:"omega"`
}
