// Package engine drives the trading pipeline bar by bar: it owns the
// position state machine and the replay and live/paper drivers built
// around it.
package engine

import (
	"fmt"
	"strings"
	"time"

	"ema-trader/internal/indicators"
	"ema-trader/internal/models"
	"ema-trader/internal/strategy"
)

// Machine is the position state machine. It holds at most one open
// position per instrument and is the only component that creates,
// mutates or resets that position.
type Machine struct {
	symbol   string
	mode     models.TradingMode
	position models.Position
	seq      int
}

// NewMachine creates a state machine for one instrument, starting flat.
func NewMachine(symbol string, mode models.TradingMode) *Machine {
	return &Machine{
		symbol: symbol,
		mode:   mode,
		position: models.Position{
			Direction: models.Flat,
			Symbol:    symbol,
		},
	}
}

// Position returns a copy of the current position.
func (m *Machine) Position() models.Position {
	return m.position
}

// Open reports whether a position is open.
func (m *Machine) Open() bool {
	return m.position.Open()
}

// Enter transitions Flat -> Long/Short for a signal with a tradeable
// plan. It returns false, leaving the machine flat, when there is
// already open exposure, the signal is NONE, or the plan quantity is 0.
func (m *Machine) Enter(signal models.Signal, plan models.RiskPlan, t time.Time) bool {
	if m.position.Open() || !plan.Tradeable() {
		return false
	}

	var direction models.Direction
	switch signal {
	case models.SignalBuy:
		direction = models.Long
	case models.SignalSell:
		direction = models.Short
	default:
		return false
	}

	m.position = models.Position{
		Direction: direction,
		Symbol:    m.symbol,
		Entry:     plan.Entry,
		StopLoss:  plan.StopLoss,
		Target:    plan.Target,
		Quantity:  plan.Quantity,
		EntryTime: t,
	}

	return true
}

// CheckExit evaluates the exit conditions against the latest close and
// the crossover state. Stop and target are checked first, then the
// opposite EMA crossover, which applies every bar regardless of price.
func (m *Machine) CheckExit(price float64, prev, curr indicators.Snapshot) (models.ExitReason, bool) {
	switch m.position.Direction {
	case models.Long:
		if price <= m.position.StopLoss {
			return models.ExitStopLoss, true
		}
		if price >= m.position.Target {
			return models.ExitTarget, true
		}
		if strategy.BearishCross(prev, curr) {
			return models.ExitCrossover, true
		}
	case models.Short:
		if price >= m.position.StopLoss {
			return models.ExitStopLoss, true
		}
		if price <= m.position.Target {
			return models.ExitTarget, true
		}
		if strategy.BullishCross(prev, curr) {
			return models.ExitCrossover, true
		}
	}

	return "", false
}

// Exit closes the open position at the given price and resets the
// machine to flat, returning the immutable trade record. The caller
// must only call Exit while a position is open.
func (m *Machine) Exit(price float64, t time.Time, reason models.ExitReason) models.Trade {
	pos := m.position
	pnl := pos.UnrealizedPnL(price)

	var pnlPercent float64
	if notional := pos.Entry * float64(pos.Quantity); notional != 0 {
		pnlPercent = pnl / notional * 100
	}

	m.seq++
	trade := models.Trade{
		ID:         fmt.Sprintf("%s-%s-%06d", strings.ToUpper(string(m.mode)), m.symbol, m.seq),
		Symbol:     pos.Symbol,
		Direction:  pos.Direction,
		EntryTime:  pos.EntryTime,
		ExitTime:   t,
		EntryPrice: pos.Entry,
		ExitPrice:  price,
		Quantity:   pos.Quantity,
		StopLoss:   pos.StopLoss,
		Target:     pos.Target,
		PnL:        pnl,
		PnLPercent: pnlPercent,
		ExitReason: reason,
		Mode:       m.mode,
	}

	m.position = models.Position{
		Direction: models.Flat,
		Symbol:    m.symbol,
	}

	return trade
}
