// Package performance aggregates closed trades and an equity curve
// into summary statistics.
package performance

import (
	"math"

	"ema-trader/internal/models"
)

// Report holds the summary statistics for a set of closed trades.
// Ratios that would divide by zero report 0 rather than NaN or Inf.
type Report struct {
	TotalTrades    int
	WinningTrades  int
	LosingTrades   int
	WinRate        float64 // percent
	TotalPnL       float64
	AverageWin     float64
	AverageLoss    float64
	LargestWin     float64
	LargestLoss    float64
	ProfitFactor   float64
	AvgRiskReward  float64
	MaxDrawdown    float64 // percent, <= 0
	SharpeRatio    float64
	Expectancy     float64
	InitialCapital float64
	FinalCapital   float64
	ReturnPercent  float64
}

// annualization factor for per-bar returns, assuming daily bars.
const tradingDaysPerYear = 252

// Compute builds a report from closed trades and the mark-to-market
// equity curve of the run that produced them.
func Compute(trades []models.Trade, equity []models.EquityPoint, initialCapital float64) Report {
	report := Report{
		TotalTrades:    len(trades),
		InitialCapital: initialCapital,
		FinalCapital:   initialCapital,
	}

	var totalWins, totalLosses float64
	for _, t := range trades {
		report.TotalPnL += t.PnL
		switch {
		case t.PnL > 0:
			report.WinningTrades++
			totalWins += t.PnL
			if t.PnL > report.LargestWin {
				report.LargestWin = t.PnL
			}
		case t.PnL < 0:
			report.LosingTrades++
			totalLosses += t.PnL
			if t.PnL < report.LargestLoss {
				report.LargestLoss = t.PnL
			}
		}
	}

	report.FinalCapital = initialCapital + report.TotalPnL

	if report.TotalTrades > 0 {
		report.WinRate = float64(report.WinningTrades) / float64(report.TotalTrades) * 100
	}
	if report.WinningTrades > 0 {
		report.AverageWin = totalWins / float64(report.WinningTrades)
	}
	if report.LosingTrades > 0 {
		report.AverageLoss = totalLosses / float64(report.LosingTrades)
	}
	if totalLosses != 0 {
		report.ProfitFactor = totalWins / math.Abs(totalLosses)
	}
	if report.AverageLoss != 0 {
		report.AvgRiskReward = math.Abs(report.AverageWin / report.AverageLoss)
	}
	if initialCapital != 0 {
		report.ReturnPercent = report.TotalPnL / initialCapital * 100
	}

	winProb := report.WinRate / 100
	report.Expectancy = winProb*report.AverageWin - (1-winProb)*math.Abs(report.AverageLoss)

	report.MaxDrawdown = maxDrawdown(equity)
	report.SharpeRatio = sharpeRatio(equity)

	return report
}

// maxDrawdown returns the largest peak-to-trough decline of the equity
// curve as a negative percentage of the running peak.
func maxDrawdown(equity []models.EquityPoint) float64 {
	if len(equity) == 0 {
		return 0
	}

	peak := equity[0].Equity
	worst := 0.0
	for _, point := range equity {
		if point.Equity > peak {
			peak = point.Equity
		}
		if peak > 0 {
			dd := (point.Equity - peak) / peak * 100
			if dd < worst {
				worst = dd
			}
		}
	}

	return worst
}

// sharpeRatio computes the annualized Sharpe ratio from per-bar equity
// returns, zero risk-free rate. Flat curves report 0.
func sharpeRatio(equity []models.EquityPoint) float64 {
	if len(equity) < 2 {
		return 0
	}

	returns := make([]float64, 0, len(equity)-1)
	for i := 1; i < len(equity); i++ {
		prev := equity[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, (equity[i].Equity-prev)/prev)
	}
	if len(returns) == 0 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	if len(returns) < 2 {
		return 0
	}

	var variance float64
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}
	// Sample standard deviation.
	std := math.Sqrt(variance / float64(len(returns)-1))
	if std == 0 {
		return 0
	}

	return mean / std * math.Sqrt(tradingDaysPerYear)
}
