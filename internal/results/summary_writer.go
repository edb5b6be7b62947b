package results

import (
	"strings"

	"github.com/zakaria-lahyani/backtester/internal/types"
)

type summaryField struct {
	name      string
	duckType  string
	clickType string
	value     func(s types.StrategySummary) any
}

func text(f func(s types.StrategySummary) string) func(s types.StrategySummary) any {
	return func(s types.StrategySummary) any { return f(s) }
}

func number(f func(s types.StrategySummary) float64) func(s types.StrategySummary) any {
	return func(s types.StrategySummary) any { return f(s) }
}

// summaryFields is the column layout shared by the parquet and ClickHouse
// sinks.
var summaryFields = []summaryField{
	{"run_id", "TEXT", "String", text(func(s types.StrategySummary) string { return s.RunID })},
	{"symbol", "TEXT", "LowCardinality(String)", text(func(s types.StrategySummary) string { return s.Symbol })},
	{"indicator", "TEXT", "LowCardinality(String)", text(func(s types.StrategySummary) string { return s.Indicator })},
	{"strategy_type", "TEXT", "LowCardinality(String)", text(func(s types.StrategySummary) string { return s.StrategyType })},
	{"strategy_name", "TEXT", "String", text(func(s types.StrategySummary) string { return s.StrategyName })},
	{"timeframe", "TEXT", "LowCardinality(String)", text(func(s types.StrategySummary) string { return s.Timeframe })},
	{"start", "TIMESTAMP", "DateTime64(3)", func(s types.StrategySummary) any { return s.Start }},
	{"end", "TIMESTAMP", "DateTime64(3)", func(s types.StrategySummary) any { return s.End }},
	{"period", "TEXT", "String", text(func(s types.StrategySummary) string { return s.Period })},
	{"benchmark_return_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.BenchmarkReturnPct })},
	{"nbr_trades", "BIGINT", "Int64", func(s types.StrategySummary) any { return int64(s.NbrTrades) }},
	{"winrate", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.WinRate })},
	{"avg_trade_return", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgTradeReturn })},
	{"avg_trade_duration", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgTradeDuration })},
	{"profit_factor", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.ProfitFactor })},
	{"expectancy", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Expectancy })},
	{"avg_win", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgWin })},
	{"avg_win_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgWinPct })},
	{"avg_loss", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgLoss })},
	{"avg_loss_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.AvgLossPct })},
	{"best_trade", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.BestTrade })},
	{"best_trade_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.BestTradePct })},
	{"worst_trade", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.WorstTrade })},
	{"worst_trade_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.WorstTradePct })},
	{"drawdown", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Drawdown })},
	{"drawdown_start", "TIMESTAMP", "DateTime64(3)", func(s types.StrategySummary) any { return s.DrawdownStart }},
	{"drawdown_end", "TIMESTAMP", "DateTime64(3)", func(s types.StrategySummary) any { return s.DrawdownEnd }},
	{"drawdown_pct", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.DrawdownPct })},
	{"return_to_dd", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.ReturnToDD })},
	{"sharpe", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Sharpe })},
	{"calmar", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Calmar })},
	{"omega", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Omega })},
	{"sortino", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.Sortino })},
	{"net_profit", "DOUBLE", "Float64", number(func(s types.StrategySummary) float64 { return s.NetProfit })},
}

func summaryColumnNames() []string {
	names := make([]string, len(summaryFields))
	for i, f := range summaryFields {
		names[i] = f.name
	}

	return names
}

func summarySchema(typeOf func(summaryField) string) string {
	parts := make([]string, len(summaryFields))
	for i, f := range summaryFields {
		parts[i] = `"` + f.name + `" ` + typeOf(f)
	}

	return strings.Join(parts, ",\n")
}

func summaryRow(s types.StrategySummary) []any {
	row := make([]any, len(summaryFields))
	for i, f := range summaryFields {
		row[i] = f.value(s)
	}

	return row
}

// SummaryWriter writes strategy summary rows to a parquet file.
type SummaryWriter struct {
	table *parquetTable
}

// NewSummaryWriter creates a new SummaryWriter.
// outputPath is the full path to the parquet file.
func NewSummaryWriter(outputPath string) *SummaryWriter {
	return &SummaryWriter{
		table: newParquetTable(outputPath, "summaries", "strategy_name"),
	}
}

// Initialize sets up the summary writer with DuckDB.
func (w *SummaryWriter) Initialize() error {
	return w.table.initialize(summarySchema(func(f summaryField) string { return f.duckType }))
}

// Write stores the summaries and exports the table to parquet.
func (w *SummaryWriter) Write(summaries ...types.StrategySummary) error {
	rows := make([][]any, len(summaries))
	for i, s := range summaries {
		rows[i] = summaryRow(s)
	}

	if err := w.table.insert(quoteAll(summaryColumnNames()), rows); err != nil {
		return err
	}

	return w.table.flush()
}

// GetOutputPath returns the parquet file path.
func (w *SummaryWriter) GetOutputPath() string {
	return w.table.outputPath
}

// GetSummaryCount returns the number of summary rows stored.
func (w *SummaryWriter) GetSummaryCount() (int, error) {
	return w.table.count()
}

// Close releases database resources.
func (w *SummaryWriter) Close() error {
	return w.table.close()
}

// WriteSummary persists one summary row to its own file.
func WriteSummary(path string, summary types.StrategySummary) error {
	w := NewSummaryWriter(path)
	if err := w.Initialize(); err != nil {
		return err
	}
	defer w.Close()

	return w.Write(summary)
}

// WriteTrades persists the trades of one strategy to their own file.
func WriteTrades(path string, trades []types.Trade) error {
	w := NewTradesWriter(path)
	if err := w.Initialize(); err != nil {
		return err
	}
	defer w.Close()

	return w.Write(trades)
}
