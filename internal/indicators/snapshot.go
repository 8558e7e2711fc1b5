package indicators

import (
	"ema-trader/internal/models"
)

// WarmupBars is the minimum number of candles required before derived
// indicator values are considered valid. The MACD signal line is the
// slowest series to fill: the 26-bar EMA must complete before the
// 9-bar signal EMA over it can, so every snapshot field is populated
// from this bar count on.
const WarmupBars = macdSlow + macdSignal - 1

// Standard MACD periods.
const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9
)

// Params holds the configurable indicator periods.
type Params struct {
	FastEMA   int
	SlowEMA   int
	RSIPeriod int
}

// DefaultParams returns the standard 9/15 crossover parameters.
func DefaultParams() Params {
	return Params{
		FastEMA:   9,
		SlowEMA:   15,
		RSIPeriod: 14,
	}
}

// Snapshot holds the derived indicator values for a single bar.
type Snapshot struct {
	EMAFast     float64
	EMASlow     float64
	RSI         float64
	MACD        float64
	MACDSignal  float64
	MACDHist    float64
	VolumeSurge bool
	Support     float64
	Resistance  float64
	HasLevels   bool
	Valid       bool
}

// Compute derives indicator snapshots for the latest bar and the bar
// before it from the full candle series. All series are recomputed over
// the window on every call; the engine feeds an expanding prefix in
// replay mode and the latest fetched window in live mode, and both give
// identical results for the same candles.
func Compute(candles []models.Candle, p Params) (curr, prev Snapshot) {
	n := len(candles)
	if n < 2 {
		return Snapshot{}, Snapshot{}
	}

	closes := closePrices(candles)

	emaFast := CalculateEMA(closes, p.FastEMA)
	emaSlow := CalculateEMA(closes, p.SlowEMA)

	var rsi []float64
	if vals, err := NewRSI(p.RSIPeriod).Calculate(candles); err == nil {
		rsi = vals
	}

	var macdLine, signalLine, histogram []float64
	if vals, err := NewMACD(macdFast, macdSlow, macdSignal).Calculate(candles); err == nil {
		macdLine = vals["macd"]
		signalLine = vals["signal"]
		histogram = vals["histogram"]
	}

	valid := n >= WarmupBars

	curr = snapshotAt(n-1, emaFast, emaSlow, rsi, macdLine, signalLine, histogram)
	prev = snapshotAt(n-2, emaFast, emaSlow, rsi, macdLine, signalLine, histogram)
	curr.Valid = valid
	prev.Valid = valid

	curr.VolumeSurge = VolumeSurge(candles)
	prev.VolumeSurge = VolumeSurge(candles[:n-1])

	if support, resistance, ok := Levels(candles); ok {
		curr.Support = support
		curr.Resistance = resistance
		curr.HasLevels = true
	}
	if support, resistance, ok := Levels(candles[:n-1]); ok {
		prev.Support = support
		prev.Resistance = resistance
		prev.HasLevels = true
	}

	return curr, prev
}

func snapshotAt(i int, emaFast, emaSlow, rsi, macdLine, signalLine, histogram []float64) Snapshot {
	s := Snapshot{}
	if i < 0 {
		return s
	}
	if i < len(emaFast) {
		s.EMAFast = emaFast[i]
	}
	if i < len(emaSlow) {
		s.EMASlow = emaSlow[i]
	}
	if i < len(rsi) {
		s.RSI = rsi[i]
	}
	if i < len(macdLine) {
		s.MACD = macdLine[i]
	}
	if i < len(signalLine) {
		s.MACDSignal = signalLine[i]
	}
	if i < len(histogram) {
		s.MACDHist = histogram[i]
	}
	return s
}
