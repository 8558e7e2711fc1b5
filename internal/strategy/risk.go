package strategy

import (
	"math"

	"ema-trader/internal/models"
)

// Sizing constants: stops sit just beyond the trailing swing extreme.
const (
	swingLookback  = 10
	stopBufferLow  = 0.998 // stop fraction below a swing low
	stopBufferHigh = 1.002 // stop fraction above a swing high
)

// Sizer derives stop-loss, target and quantity for a prospective entry,
// bounded by the per-trade risk budget and available capital.
type Sizer struct {
	riskPerTrade float64
	riskReward   float64
}

// NewSizer creates a risk sizer. riskPerTrade is the capital fraction
// allowed to be lost if the stop is hit; riskReward is the target
// distance as a multiple of entry risk.
func NewSizer(riskPerTrade, riskReward float64) *Sizer {
	return &Sizer{
		riskPerTrade: riskPerTrade,
		riskReward:   riskReward,
	}
}

// Plan derives the risk plan for a signal at the latest close. A zero
// quantity means "no trade": degenerate swing ranges and budgets too
// small to size a single unit resolve here, not as errors.
func (s *Sizer) Plan(signal models.Signal, candles []models.Candle, capital float64) models.RiskPlan {
	if len(candles) == 0 || (signal != models.SignalBuy && signal != models.SignalSell) {
		return models.RiskPlan{}
	}

	entry := candles[len(candles)-1].Close

	window := candles
	if len(window) > swingLookback {
		window = window[len(window)-swingLookback:]
	}

	var stop, risk, target float64
	switch signal {
	case models.SignalBuy:
		swingLow := window[0].Low
		for _, c := range window[1:] {
			if c.Low < swingLow {
				swingLow = c.Low
			}
		}
		stop = swingLow * stopBufferLow
		risk = entry - stop
		target = entry + s.riskReward*risk
	case models.SignalSell:
		swingHigh := window[0].High
		for _, c := range window[1:] {
			if c.High > swingHigh {
				swingHigh = c.High
			}
		}
		stop = swingHigh * stopBufferHigh
		risk = stop - entry
		target = entry - s.riskReward*risk
	}

	plan := models.RiskPlan{
		Entry:    entry,
		StopLoss: stop,
		Target:   target,
	}

	if risk <= 0 || entry <= 0 {
		return plan
	}

	quantity := int(math.Floor(capital * s.riskPerTrade / risk))

	// The notional must never exceed available capital.
	maxQuantity := int(math.Floor(capital / entry))
	if quantity > maxQuantity {
		quantity = maxQuantity
	}
	if quantity < 0 {
		quantity = 0
	}

	plan.Quantity = quantity
	return plan
}
