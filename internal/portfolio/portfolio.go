// Package portfolio turns entry and exit signals into trades and run-level
// statistics.
package portfolio

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// DefaultFrequency is the bar frequency statistics are annualized with.
// Every timeframe is simulated as minute bars.
const DefaultFrequency = time.Minute

// Engine simulates a portfolio over one price series.
type Engine interface {
	// Run simulates the signals over the closes. All slices must have the
	// same, non-zero length and times must be ascending.
	Run(times []time.Time, closes []float64, entries, exits []bool, cfg Config) (*Result, error)
}

type Config struct {
	// InitialCapital is the starting cash.
	InitialCapital float64 `validate:"gt=0"`
	// Size is the number of units bought per entry.
	Size float64 `validate:"gt=0"`
	// Fees defaults to ZeroFees when nil.
	Fees FeeModel
	// Frequency defaults to DefaultFrequency when zero.
	Frequency time.Duration `validate:"gte=0"`
}

// Result holds the trades and statistics of one simulation.
type Result struct {
	// Trades are ordered by entry; the last one may be open.
	Trades []types.Trade
	// Equity is the portfolio value at the close of every bar.
	Equity []float64
	Stats  types.PortfolioStats
}

// ClosedTrades returns the trades that have been exited.
func (r *Result) ClosedTrades() []types.Trade {
	return types.ClosedTrades(r.Trades)
}

func (c Config) withDefaults() Config {
	if c.Fees == nil {
		c.Fees = ZeroFees{}
	}

	if c.Frequency == 0 {
		c.Frequency = DefaultFrequency
	}

	return c
}

func (c Config) validate() error {
	if err := validator.New().Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidParameter, "invalid portfolio config", err)
	}

	return nil
}

func checkInputs(times []time.Time, closes []float64, entries, exits []bool) error {
	n := len(closes)
	if n == 0 {
		return errors.New(errors.ErrCodeEmptyInput, "no bars to simulate")
	}

	if len(times) != n || len(entries) != n || len(exits) != n {
		return errors.Newf(errors.ErrCodeLengthMismatch,
			"length mismatch: %d times, %d closes, %d entries, %d exits",
			len(times), n, len(entries), len(exits))
	}

	valid := false

	for _, c := range closes {
		if !math.IsNaN(c) {
			valid = true

			break
		}
	}

	if !valid {
		return errors.New(errors.ErrCodeEmptyInput, "every close price is missing")
	}

	return nil
}
