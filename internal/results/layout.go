// Package results persists trades and strategy summaries as parquet files
// and optionally forwards summaries to ClickHouse.
//
// Files are laid out under the save path as
//
//	<save>/<indicator>/<strategy_type>/<timeframe>/<strategy>_trades.parquet
//	<save>/<indicator>/<strategy_type>/summary/summary_<type>_<indicator>_<strategy>.parquet
//	<save>/<indicator>/<strategy_type>/summary_<type>_<indicator>.parquet
package results

import (
	"fmt"
	"path/filepath"
)

// Layout locates the output files of one indicator sweep.
type Layout struct {
	SavePath     string
	Indicator    string
	StrategyType string
}

func NewLayout(savePath, indicator, strategyType string) Layout {
	return Layout{
		SavePath:     savePath,
		Indicator:    indicator,
		StrategyType: strategyType,
	}
}

// Root is the directory holding every output of the sweep.
func (l Layout) Root() string {
	return filepath.Join(l.SavePath, l.Indicator, l.StrategyType)
}

// TradesPath is the trades file of one strategy.
func (l Layout) TradesPath(timeframe, strategyName string) string {
	return filepath.Join(l.Root(), timeframe, strategyName+"_trades.parquet")
}

// SummaryDir holds one summary file per strategy.
func (l Layout) SummaryDir() string {
	return filepath.Join(l.Root(), "summary")
}

// SummaryPath is the summary file of one strategy.
func (l Layout) SummaryPath(strategyName string) string {
	return filepath.Join(l.SummaryDir(),
		fmt.Sprintf("summary_%s_%s_%s.parquet", l.StrategyType, l.Indicator, strategyName))
}

// ConsolidatedPath is the file all strategy summaries are unioned into.
func (l Layout) ConsolidatedPath() string {
	return filepath.Join(l.Root(), fmt.Sprintf("summary_%s_%s.parquet", l.StrategyType, l.Indicator))
}
