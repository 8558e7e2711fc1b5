package indicators

import (
	"ema-trader/internal/models"
)

// surgeLookback is the number of preceding bars averaged for the volume
// surge check, and surgeFactor the multiple the current bar must exceed.
const (
	surgeLookback = 5
	surgeFactor   = 1.2
)

// VolumeSurge reports whether the latest bar's volume exceeds 1.2x the
// mean volume of the preceding bars. Requires at least surgeLookback+1
// bars of history; with less the flag is false.
func VolumeSurge(candles []models.Candle) bool {
	if len(candles) < surgeLookback+1 {
		return false
	}

	vols := volumes(candles)
	current := vols[len(vols)-1]
	avg := mean(vols[len(vols)-surgeLookback-1 : len(vols)-1])

	return current > avg*surgeFactor
}
