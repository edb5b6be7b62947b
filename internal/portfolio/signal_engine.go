package portfolio

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zakaria-lahyani/backtester/internal/types"
	"github.com/zakaria-lahyani/backtester/pkg/errors"
)

// SignalEngine is a long-only simulator that trades a fixed size at the
// close of signal bars.
//
// When flat, an entry bar opens a position; when long, an exit bar closes it.
// An entry and an exit on the same bar while flat open a position. Bars with
// a missing close ignore their signals. If cash cannot cover the full size,
// the position is reduced to what cash allows. A position still held on the
// last bar is reported as an open trade marked to the last close.
//
// Same-bar conflicts deliberately differ from vectorbt's from_signals, which
// ignores an entry and an exit on the same bar.
//
// A close that is infinite or not positive cannot be traded at and fails
// the simulation with ErrCodeSimulationFailed.
type SignalEngine struct{}

func NewSignalEngine() *SignalEngine {
	return &SignalEngine{}
}

type position struct {
	size      decimal.Decimal
	price     decimal.Decimal
	fees      decimal.Decimal
	timestamp time.Time
}

// Run implements Engine.
func (e *SignalEngine) Run(times []time.Time, closes []float64, entries, exits []bool, cfg Config) (*Result, error) {
	if err := checkInputs(times, closes, entries, exits); err != nil {
		return nil, err
	}

	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	var (
		cash      = decimal.NewFromFloat(cfg.InitialCapital)
		size      = decimal.NewFromFloat(cfg.Size)
		open      *position
		trades    []types.Trade
		equity    = make([]float64, len(closes))
		lastPrice = decimal.Zero
	)

	for i, c := range closes {
		if math.IsNaN(c) {
			equity[i] = markToMarket(cash, open, lastPrice)

			continue
		}

		if math.IsInf(c, 0) || c <= 0 {
			return nil, errors.Newf(errors.ErrCodeSimulationFailed,
				"invalid close price %v at bar %d (%s)", c, i, times[i].Format(time.RFC3339))
		}

		price := decimal.NewFromFloat(c)
		lastPrice = price

		switch {
		case open == nil && entries[i]:
			open = enter(&cash, size, price, times[i], cfg.Fees)
		case open != nil && exits[i]:
			fee := decimal.NewFromFloat(cfg.Fees.Fee(open.size.InexactFloat64(), c))
			cash = cash.Add(open.size.Mul(price)).Sub(fee)
			trades = append(trades, closeTrade(len(trades), open, price, fee, times[i], types.TradeStatusClosed))
			open = nil
		}

		equity[i] = markToMarket(cash, open, lastPrice)
	}

	if open != nil {
		trades = append(trades, closeTrade(len(trades), open, lastPrice, decimal.Zero, times[len(times)-1], types.TradeStatusOpen))
	}

	result := &Result{
		Trades: trades,
		Equity: equity,
	}
	result.Stats = computeStats(times, closes, equity, trades, cfg)

	return result, nil
}

func enter(cash *decimal.Decimal, size, price decimal.Decimal, at time.Time, fees FeeModel) *position {
	fee := decimal.NewFromFloat(fees.Fee(size.InexactFloat64(), price.InexactFloat64()))
	cost := size.Mul(price).Add(fee)

	if cost.GreaterThan(*cash) {
		size = cash.Sub(fee).Div(price)
		if !size.IsPositive() {
			return nil
		}

		cost = size.Mul(price).Add(fee)
	}

	*cash = cash.Sub(cost)

	return &position{
		size:      size,
		price:     price,
		fees:      fee,
		timestamp: at,
	}
}

func closeTrade(id int, p *position, price, fee decimal.Decimal, at time.Time, status types.TradeStatus) types.Trade {
	entryValue := p.size.Mul(p.price)
	pnl := p.size.Mul(price).Sub(entryValue).Sub(p.fees).Sub(fee)

	ret := decimal.Zero
	if entryValue.IsPositive() {
		ret = pnl.Div(entryValue)
	}

	t := types.Trade{
		ExitTradeID:    id,
		Column:         0,
		Size:           p.size.InexactFloat64(),
		EntryTimestamp: p.timestamp,
		EntryPrice:     p.price.InexactFloat64(),
		EntryFees:      p.fees.InexactFloat64(),
		ExitTimestamp:  at,
		ExitPrice:      price.InexactFloat64(),
		ExitFees:       fee.InexactFloat64(),
		PnL:            pnl.InexactFloat64(),
		Return:         ret.InexactFloat64(),
		Direction:      types.TradeDirectionLong,
		Status:         status,
		PositionID:     id,
	}
	t.Duration = t.HoldingMinutes()

	return t
}

func markToMarket(cash decimal.Decimal, p *position, price decimal.Decimal) float64 {
	if p == nil {
		return cash.InexactFloat64()
	}

	return cash.Add(p.size.Mul(price)).InexactFloat64()
}
