package indicators

import (
	"ema-trader/internal/models"
)

// levelWindow is the trailing window used for the support/resistance channel.
const levelWindow = 20

// Levels returns the rolling support (trailing min low) and resistance
// (trailing max high) evaluated at the latest bar. This is a simple
// channel, not a peak-detection algorithm. ok is false when fewer than
// levelWindow bars are available and the levels are undeterminable.
func Levels(candles []models.Candle) (support, resistance float64, ok bool) {
	if len(candles) < levelWindow {
		return 0, 0, false
	}

	window := candles[len(candles)-levelWindow:]
	support = lowest(lowPrices(window))
	resistance = highest(highPrices(window))

	return support, resistance, true
}

// NearLevel reports whether price is within tolerance (as a fraction of
// price) of either the support or the resistance level.
func NearLevel(price, support, resistance, tolerance float64) bool {
	if price <= 0 {
		return false
	}

	nearSupport := abs(price-support)/price < tolerance
	nearResistance := abs(price-resistance)/price < tolerance

	return nearSupport || nearResistance
}
