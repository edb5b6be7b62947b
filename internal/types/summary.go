package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StrategySummary is the one-row report of a single strategy run.
type StrategySummary struct {
	// RunID identifies the sweep the strategy was part of.
	RunID        string `yaml:"run_id" json:"run_id"`
	Symbol       string `yaml:"symbol" json:"symbol"`
	Indicator    string `yaml:"indicator" json:"indicator"`
	StrategyType string `yaml:"strategy_type" json:"strategy_type"`
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`
	// Timeframe is the multi-timeframe key of the run, e.g. "60_240".
	Timeframe string    `yaml:"timeframe" json:"timeframe"`
	Start     time.Time `yaml:"start" json:"start"`
	End       time.Time `yaml:"end" json:"end"`
	// Period is the length of the backtest window.
	Period string `yaml:"period" json:"period"`

	BenchmarkReturnPct float64 `yaml:"benchmark_return_pct" json:"benchmark_return_pct"`
	NbrTrades          int     `yaml:"nbr_trades" json:"nbr_trades"`
	// WinRate is in percent.
	WinRate          float64 `yaml:"winrate" json:"winrate"`
	AvgTradeReturn   float64 `yaml:"avg_trade_return" json:"avg_trade_return"`
	AvgTradeDuration float64 `yaml:"avg_trade_duration" json:"avg_trade_duration"`
	ProfitFactor     float64 `yaml:"profit_factor" json:"profit_factor"`
	Expectancy       float64 `yaml:"expectancy" json:"expectancy"`
	AvgWin           float64 `yaml:"avg_win" json:"avg_win"`
	AvgWinPct        float64 `yaml:"avg_win_pct" json:"avg_win_pct"`
	AvgLoss          float64 `yaml:"avg_loss" json:"avg_loss"`
	AvgLossPct       float64 `yaml:"avg_loss_pct" json:"avg_loss_pct"`
	BestTrade        float64 `yaml:"best_trade" json:"best_trade"`
	BestTradePct     float64 `yaml:"best_trade_pct" json:"best_trade_pct"`
	WorstTrade       float64 `yaml:"worst_trade" json:"worst_trade"`
	WorstTradePct    float64 `yaml:"worst_trade_pct" json:"worst_trade_pct"`

	Drawdown      float64   `yaml:"drawdown" json:"drawdown"`
	DrawdownStart time.Time `yaml:"drawdown_start" json:"drawdown_start"`
	DrawdownEnd   time.Time `yaml:"drawdown_end" json:"drawdown_end"`
	DrawdownPct   float64   `yaml:"drawdown_pct" json:"drawdown_pct"`
	ReturnToDD    float64   `yaml:"return_to_dd" json:"return_to_dd"`

	Sharpe    float64 `yaml:"sharpe" json:"sharpe"`
	Calmar    float64 `yaml:"calmar" json:"calmar"`
	Omega     float64 `yaml:"omega" json:"omega"`
	Sortino   float64 `yaml:"sortino" json:"sortino"`
	NetProfit float64 `yaml:"net_profit" json:"net_profit"`
}

// RunResult records the outcome of one strategy in a sweep. A failed
// strategy carries its error and no summary.
type RunResult struct {
	StrategyName string           `yaml:"strategy_name" json:"strategy_name"`
	Timeframe    string           `yaml:"timeframe" json:"timeframe"`
	Success      bool             `yaml:"success" json:"success"`
	Error        string           `yaml:"error,omitempty" json:"error,omitempty"`
	Summary      *StrategySummary `yaml:"summary,omitempty" json:"summary,omitempty"`
	Trades       []Trade          `yaml:"-" json:"-"`
	// TradesFilePath is set once the trades have been persisted.
	TradesFilePath string `yaml:"trades_file_path,omitempty" json:"trades_file_path,omitempty"`
}

// WriteSummaries writes strategy summaries to a YAML report.
func WriteSummaries(path string, summaries []StrategySummary) error {
	data, err := yaml.Marshal(summaries)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy summaries to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write strategy summaries to file: %w", err)
	}

	return nil
}
