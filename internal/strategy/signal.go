// Package strategy implements the EMA crossover trading rule: signal
// generation with multi-factor confirmation and risk-based position sizing.
package strategy

import (
	"ema-trader/internal/config"
	"ema-trader/internal/indicators"
	"ema-trader/internal/models"
)

// levelTolerance is the proximity band around support/resistance,
// as a fraction of price.
const levelTolerance = 0.005

// Generator produces at most one signal per bar from the candle series.
type Generator struct {
	params        indicators.Params
	rsiOverbought float64
	rsiOversold   float64
}

// NewGenerator creates a signal generator from strategy configuration.
func NewGenerator(cfg config.StrategyConfig) *Generator {
	return &Generator{
		params: indicators.Params{
			FastEMA:   cfg.FastEMA,
			SlowEMA:   cfg.SlowEMA,
			RSIPeriod: cfg.RSIPeriod,
		},
		rsiOverbought: cfg.RSIOverbought,
		rsiOversold:   cfg.RSIOversold,
	}
}

// Params returns the indicator parameters in use.
func (g *Generator) Params() indicators.Params {
	return g.params
}

// BullishCross reports a fast-EMA cross from at-or-below to above the slow EMA.
func BullishCross(prev, curr indicators.Snapshot) bool {
	return prev.EMAFast <= prev.EMASlow && curr.EMAFast > curr.EMASlow
}

// BearishCross reports a fast-EMA cross from at-or-above to below the slow EMA.
func BearishCross(prev, curr indicators.Snapshot) bool {
	return prev.EMAFast >= prev.EMASlow && curr.EMAFast < curr.EMASlow
}

// Generate evaluates the latest bar of the series and returns BUY, SELL
// or NONE. Fewer than the warm-up minimum of bars always yields NONE;
// missing data is an expected steady-state outcome here, never an error.
func (g *Generator) Generate(candles []models.Candle) models.Signal {
	if len(candles) < indicators.WarmupBars {
		return models.SignalNone
	}

	curr, prev := indicators.Compute(candles, g.params)
	price := candles[len(candles)-1].Close

	// When the channel is undeterminable the proximity gate passes,
	// leaving the filter inactive until enough history accumulates.
	nearLevel := true
	if curr.HasLevels {
		nearLevel = indicators.NearLevel(price, curr.Support, curr.Resistance, levelTolerance)
	}

	if BullishCross(prev, curr) {
		rsiOK := curr.RSI < g.rsiOverbought
		macdOK := curr.MACD > curr.MACDSignal
		priceAboveEMA := price > curr.EMAFast

		if curr.VolumeSurge && rsiOK && macdOK && priceAboveEMA && nearLevel {
			return models.SignalBuy
		}
	} else if BearishCross(prev, curr) {
		rsiOK := curr.RSI > g.rsiOversold
		macdOK := curr.MACD < curr.MACDSignal
		priceBelowEMA := price < curr.EMAFast

		if curr.VolumeSurge && rsiOK && macdOK && priceBelowEMA && nearLevel {
			return models.SignalSell
		}
	}

	return models.SignalNone
}
