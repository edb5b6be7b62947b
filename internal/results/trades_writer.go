package results

import (
	"database/sql"

	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

var tradeColumns = []string{
	"exit_trade_id", "column", "size", "entry_timestamp", "entry_price", "entry_fees",
	"exit_timestamp", "exit_price", "exit_fees", "pnl", "return", "direction", "status",
	"position_id", "duration",
}

const tradesSchema = `
	exit_trade_id BIGINT,
	"column" BIGINT,
	size DOUBLE,
	entry_timestamp TIMESTAMP,
	entry_price DOUBLE,
	entry_fees DOUBLE,
	exit_timestamp TIMESTAMP,
	exit_price DOUBLE,
	exit_fees DOUBLE,
	pnl DOUBLE,
	"return" DOUBLE,
	direction TEXT,
	status TEXT,
	position_id BIGINT,
	duration DOUBLE
`

// TradesWriter writes the trades of one strategy to a parquet file.
type TradesWriter struct {
	table *parquetTable
}

// NewTradesWriter creates a new TradesWriter.
// outputPath is the full path to the parquet file.
func NewTradesWriter(outputPath string) *TradesWriter {
	return &TradesWriter{
		table: newParquetTable(outputPath, "trades", "entry_timestamp"),
	}
}

// Initialize sets up the trades writer with DuckDB.
func (w *TradesWriter) Initialize() error {
	return w.table.initialize(tradesSchema)
}

// Write stores the trades and exports the table to parquet.
func (w *TradesWriter) Write(trades []types.Trade) error {
	rows := make([][]any, len(trades))
	for i, t := range trades {
		rows[i] = []any{
			t.ExitTradeID, t.Column, t.Size, t.EntryTimestamp, t.EntryPrice, t.EntryFees,
			t.ExitTimestamp, t.ExitPrice, t.ExitFees, t.PnL, t.Return, string(t.Direction), string(t.Status),
			t.PositionID, t.Duration,
		}
	}

	if err := w.table.insert(quoteAll(tradeColumns), rows); err != nil {
		return err
	}

	return w.table.flush()
}

// Flush forces an export to parquet.
func (w *TradesWriter) Flush() error {
	return w.table.flush()
}

// GetOutputPath returns the parquet file path.
func (w *TradesWriter) GetOutputPath() string {
	return w.table.outputPath
}

// GetTradeCount returns the number of trades stored.
func (w *TradesWriter) GetTradeCount() (int, error) {
	return w.table.count()
}

// GetTotalPnL returns the sum of all trade PnL.
func (w *TradesWriter) GetTotalPnL() (float64, error) {
	w.table.mu.Lock()
	defer w.table.mu.Unlock()

	if w.table.db == nil {
		return 0, errors.New(errors.ErrCodeWriteFailed, "writer not initialized")
	}

	var totalPnL sql.NullFloat64

	err := w.table.db.QueryRow("SELECT SUM(pnl) FROM trades").Scan(&totalPnL)
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum PnL", err)
	}

	if !totalPnL.Valid {
		return 0, nil
	}

	return totalPnL.Float64, nil
}

// Close releases database resources.
func (w *TradesWriter) Close() error {
	return w.table.close()
}

func quoteAll(columns []string) []string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = `"` + c + `"`
	}

	return quoted
}
