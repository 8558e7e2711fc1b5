package models

import "time"

// RiskPlan holds the stop, target and sizing for a prospective entry.
// A plan with Quantity == 0 means "no trade"; it is an expected outcome
// for degenerate swing ranges, not an error.
type RiskPlan struct {
	Entry    float64
	StopLoss float64
	Target   float64
	Quantity int
}

// Tradeable reports whether the plan permits opening a position.
func (p RiskPlan) Tradeable() bool {
	return p.Quantity > 0
}

// Position represents the single open position for an instrument.
// It is owned exclusively by the position state machine: created on
// entry, mutated only there, reset to Flat on exit.
type Position struct {
	Direction Direction
	Symbol    string
	Entry     float64
	StopLoss  float64
	Target    float64
	Quantity  int
	EntryTime time.Time
}

// Open reports whether there is open exposure.
func (p Position) Open() bool {
	return p.Direction == Long || p.Direction == Short
}

// UnrealizedPnL returns the mark-to-market P&L at the given price.
func (p Position) UnrealizedPnL(price float64) float64 {
	switch p.Direction {
	case Long:
		return (price - p.Entry) * float64(p.Quantity)
	case Short:
		return (p.Entry - price) * float64(p.Quantity)
	default:
		return 0
	}
}

// Trade is the immutable record of a completed round-trip. It is created
// only when a position transitions to Flat; ownership passes to the
// storage collaborator immediately after creation.
type Trade struct {
	ID         string
	Symbol     string
	Direction  Direction
	EntryTime  time.Time
	ExitTime   time.Time
	EntryPrice float64
	ExitPrice  float64
	Quantity   int
	StopLoss   float64
	Target     float64
	PnL        float64
	PnLPercent float64
	ExitReason ExitReason
	Mode       TradingMode
}

// EquityPoint represents a point on the equity curve, appended once per
// processed bar and never mutated afterwards.
type EquityPoint struct {
	Timestamp time.Time
	Equity    float64
}
