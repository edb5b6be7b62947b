package types

import (
	"time"
)

type TradeDirection string

type TradeStatus string

const (
	TradeDirectionLong  TradeDirection = "Long"
	TradeDirectionShort TradeDirection = "Short"
)

const (
	TradeStatusClosed TradeStatus = "Closed"
	TradeStatusOpen   TradeStatus = "Open"
)

// Trade is one round trip produced by the portfolio engine.
type Trade struct {
	ExitTradeID    int            `yaml:"exit_trade_id" json:"exit_trade_id" csv:"exit_trade_id"`
	Column         int            `yaml:"column" json:"column" csv:"column"`
	Size           float64        `yaml:"size" json:"size" csv:"size"`
	EntryTimestamp time.Time      `yaml:"entry_timestamp" json:"entry_timestamp" csv:"entry_timestamp"`
	EntryPrice     float64        `yaml:"entry_price" json:"entry_price" csv:"entry_price"`
	EntryFees      float64        `yaml:"entry_fees" json:"entry_fees" csv:"entry_fees"`
	ExitTimestamp  time.Time      `yaml:"exit_timestamp" json:"exit_timestamp" csv:"exit_timestamp"`
	ExitPrice      float64        `yaml:"exit_price" json:"exit_price" csv:"exit_price"`
	ExitFees       float64        `yaml:"exit_fees" json:"exit_fees" csv:"exit_fees"`
	// PnL is the realized profit and loss after fees.
	// For an open trade it is marked to the last close.
	PnL float64 `yaml:"pnl" json:"pnl" csv:"pnl"`
	// Return is PnL relative to the entry value, as a fraction.
	Return     float64        `yaml:"return" json:"return" csv:"return"`
	Direction  TradeDirection `yaml:"direction" json:"direction" csv:"direction"`
	Status     TradeStatus    `yaml:"status" json:"status" csv:"status"`
	PositionID int            `yaml:"position_id" json:"position_id" csv:"position_id"`
	// Duration is the holding time in minutes.
	Duration float64 `yaml:"duration" json:"duration" csv:"duration"`
}

// IsClosed reports whether the trade has been exited.
func (t Trade) IsClosed() bool {
	return t.Status == TradeStatusClosed
}

// HoldingMinutes returns the holding time between entry and exit in minutes.
func (t Trade) HoldingMinutes() float64 {
	return t.ExitTimestamp.Sub(t.EntryTimestamp).Minutes()
}

// ClosedTrades filters the trades that have been exited, keeping their order.
func ClosedTrades(trades []Trade) []Trade {
	closed := make([]Trade, 0, len(trades))

	for _, t := range trades {
		if t.IsClosed() {
			closed = append(closed, t)
		}
	}

	return closed
}
