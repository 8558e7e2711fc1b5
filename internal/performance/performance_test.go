package performance

import (
	"math"
	"testing"
	"time"

	"ema-trader/internal/models"
)

func tradeWithPnL(pnl float64) models.Trade {
	return models.Trade{
		ID:        "T",
		Symbol:    "BTCUSDT",
		Direction: models.Long,
		PnL:       pnl,
	}
}

func almost(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestComputeBasicStats(t *testing.T) {
	trades := []models.Trade{
		tradeWithPnL(100),
		tradeWithPnL(-50),
		tradeWithPnL(20),
	}

	report := Compute(trades, nil, 10000)

	if report.TotalTrades != 3 || report.WinningTrades != 2 || report.LosingTrades != 1 {
		t.Errorf("counts = %d/%d/%d, want 3/2/1",
			report.TotalTrades, report.WinningTrades, report.LosingTrades)
	}
	if !almost(report.WinRate, 66.6667, 0.001) {
		t.Errorf("WinRate = %v, want 66.67", report.WinRate)
	}
	if !almost(report.TotalPnL, 70, 1e-9) {
		t.Errorf("TotalPnL = %v, want 70", report.TotalPnL)
	}
	if !almost(report.ProfitFactor, 2.4, 1e-9) {
		t.Errorf("ProfitFactor = %v, want 2.4", report.ProfitFactor)
	}
	if !almost(report.AverageWin, 60, 1e-9) {
		t.Errorf("AverageWin = %v, want 60", report.AverageWin)
	}
	if !almost(report.AverageLoss, -50, 1e-9) {
		t.Errorf("AverageLoss = %v, want -50", report.AverageLoss)
	}
	if report.LargestWin != 100 || report.LargestLoss != -50 {
		t.Errorf("extremes = %v/%v, want 100/-50", report.LargestWin, report.LargestLoss)
	}

	// Expectancy: 2/3 x 60 - 1/3 x 50 = 23.33.
	if !almost(report.Expectancy, 23.3333, 0.001) {
		t.Errorf("Expectancy = %v, want 23.33", report.Expectancy)
	}
	if !almost(report.FinalCapital, 10070, 1e-9) {
		t.Errorf("FinalCapital = %v, want 10070", report.FinalCapital)
	}
	if !almost(report.ReturnPercent, 0.7, 1e-9) {
		t.Errorf("ReturnPercent = %v, want 0.7", report.ReturnPercent)
	}
}

func TestComputeNoTrades(t *testing.T) {
	report := Compute(nil, nil, 10000)

	if report.TotalTrades != 0 {
		t.Errorf("TotalTrades = %d, want 0", report.TotalTrades)
	}
	if report.WinRate != 0 || report.ProfitFactor != 0 || report.SharpeRatio != 0 ||
		report.MaxDrawdown != 0 || report.Expectancy != 0 {
		t.Errorf("empty report must be all zeros, got %+v", report)
	}
	if report.FinalCapital != 10000 {
		t.Errorf("FinalCapital = %v, want initial capital", report.FinalCapital)
	}
}

func TestComputeNoLosses(t *testing.T) {
	report := Compute([]models.Trade{tradeWithPnL(50), tradeWithPnL(30)}, nil, 10000)

	if report.ProfitFactor != 0 {
		t.Errorf("ProfitFactor = %v, want 0 when there are no losses", report.ProfitFactor)
	}
	if report.WinRate != 100 {
		t.Errorf("WinRate = %v, want 100", report.WinRate)
	}
}

func equityCurve(values ...float64) []models.EquityPoint {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	points := make([]models.EquityPoint, len(values))
	for i, v := range values {
		points[i] = models.EquityPoint{Timestamp: start.AddDate(0, 0, i), Equity: v}
	}
	return points
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 10100, trough 10050: drawdown -50/10100 = -0.495%.
	curve := equityCurve(10000, 10100, 10050, 10070)

	got := maxDrawdown(curve)
	want := (10050.0 - 10100.0) / 10100.0 * 100
	if !almost(got, want, 1e-9) {
		t.Errorf("maxDrawdown = %v, want %v", got, want)
	}

	if dd := maxDrawdown(equityCurve(10000, 10100, 10200)); dd != 0 {
		t.Errorf("rising curve drawdown = %v, want 0", dd)
	}
	if dd := maxDrawdown(nil); dd != 0 {
		t.Errorf("empty curve drawdown = %v, want 0", dd)
	}
}

func TestSharpeRatio(t *testing.T) {
	if s := sharpeRatio(equityCurve(10000, 10000, 10000)); s != 0 {
		t.Errorf("flat curve Sharpe = %v, want 0", s)
	}
	if s := sharpeRatio(equityCurve(10000)); s != 0 {
		t.Errorf("single-point Sharpe = %v, want 0", s)
	}
	if s := sharpeRatio(equityCurve(10000, 10100, 10050, 10200)); s == 0 {
		t.Error("varying curve should produce a nonzero Sharpe")
	}
}
