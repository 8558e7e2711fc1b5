// Package models provides domain models for the trading application.
package models

import (
	"time"
)

// Signal represents a trading signal for a single bar.
type Signal string

const (
	SignalBuy  Signal = "BUY"
	SignalSell Signal = "SELL"
	SignalNone Signal = "NONE"
)

// Direction represents the direction of a position or trade.
type Direction string

const (
	Long  Direction = "LONG"
	Short Direction = "SHORT"
	Flat  Direction = "FLAT"
)

// TradingMode represents how the engine is being driven.
type TradingMode string

const (
	ModeBacktest TradingMode = "backtest"
	ModePaper    TradingMode = "paper"
	ModeLive     TradingMode = "live"
)

// OrderKind represents the kind of an order sent to the execution collaborator.
type OrderKind string

const (
	OrderKindMarket OrderKind = "MARKET"
	OrderKindLimit  OrderKind = "LIMIT"
)

// ExitReason records why a position was closed.
type ExitReason string

const (
	ExitStopLoss  ExitReason = "stop_loss"
	ExitTarget    ExitReason = "target"
	ExitCrossover ExitReason = "crossover"
	ExitEndOfData ExitReason = "end_of_data"
	ExitManual    ExitReason = "manual"
)

// Candle represents OHLCV data for a time period.
// Timestamps are assumed monotonically increasing within a series;
// validating malformed input is a caller responsibility.
type Candle struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Quote represents a point-in-time market quote.
type Quote struct {
	Symbol        string
	LastPrice     float64
	Open          float64
	High          float64
	Low           float64
	Volume        float64
	ChangePercent float64
	Timestamp     time.Time
}

// Order represents an order mirrored to the execution collaborator.
// The engine places orders only to reflect position transitions, never
// to make a decision.
type Order struct {
	Symbol   string
	Side     Signal // BUY or SELL
	Kind     OrderKind
	Quantity int
	Price    float64
	Tag      string
}
