package cli

import (
	"fmt"
	"strings"

	"ema-trader/internal/config"
	"ema-trader/internal/models"
	"ema-trader/internal/performance"
	"ema-trader/pkg/utils"
)

const equityCurveRows = 12

// printTrades renders the closed trades as a table.
func printTrades(output *Output, cfg *config.Config, trades []models.Trade) {
	if len(trades) == 0 {
		output.Dim("No trades")
		output.Println()
		return
	}

	output.Bold("Trades")
	output.Printf("  %-5s %-22s %-22s %10s %10s %6s %12s %-12s\n",
		"DIR", "ENTRY TIME", "EXIT TIME", "ENTRY", "EXIT", "QTY", "P&L", "REASON")

	for _, t := range trades {
		pnl := output.PnL(fmt.Sprintf("%12s", utils.FormatPnL(t.PnL)), t.PnL)
		output.Printf("  %-5s %-22s %-22s %10.2f %10.2f %6d %s %-12s\n",
			t.Direction,
			t.EntryTime.Format(cfg.UI.DateFormat+" "+cfg.UI.TimeFormat),
			t.ExitTime.Format(cfg.UI.DateFormat+" "+cfg.UI.TimeFormat),
			t.EntryPrice, t.ExitPrice, t.Quantity, pnl, t.ExitReason)
	}
	output.Println()
}

// printReport renders the performance statistics.
func printReport(output *Output, report performance.Report) {
	output.Bold("Performance")
	output.Printf("  Total trades:    %d (%d wins, %d losses)\n",
		report.TotalTrades, report.WinningTrades, report.LosingTrades)
	output.Printf("  Win rate:        %.1f%%\n", report.WinRate)
	output.Printf("  Total P&L:       %s (%s)\n",
		output.PnL(utils.FormatPnL(report.TotalPnL), report.TotalPnL),
		utils.FormatPercent(report.ReturnPercent))
	output.Printf("  Average win:     %s\n", utils.FormatCurrency(report.AverageWin))
	output.Printf("  Average loss:    %s\n", utils.FormatCurrency(report.AverageLoss))
	output.Printf("  Largest win:     %s\n", utils.FormatCurrency(report.LargestWin))
	output.Printf("  Largest loss:    %s\n", utils.FormatCurrency(report.LargestLoss))
	output.Printf("  Profit factor:   %.2f\n", report.ProfitFactor)
	output.Printf("  Avg risk:reward: %.2f\n", report.AvgRiskReward)
	output.Printf("  Max drawdown:    %.2f%%\n", report.MaxDrawdown)
	output.Printf("  Sharpe ratio:    %.2f\n", report.SharpeRatio)
	output.Printf("  Expectancy:      %s per trade\n", utils.FormatCurrency(report.Expectancy))
	output.Printf("  Final capital:   %s\n", utils.FormatCurrency(report.FinalCapital))
	output.Println()
}

// printEquityCurve renders the equity curve as a rough ASCII chart,
// one column per bucket of bars.
func printEquityCurve(output *Output, equity []models.EquityPoint) {
	if len(equity) < 2 {
		return
	}

	width := 60
	if len(equity) < width {
		width = len(equity)
	}

	// Downsample to one value per column.
	values := make([]float64, width)
	for col := 0; col < width; col++ {
		idx := col * (len(equity) - 1) / (width - 1)
		values[col] = equity[idx].Equity
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi == lo {
		hi = lo + 1
	}

	output.Bold("Equity curve")
	for row := equityCurveRows - 1; row >= 0; row-- {
		threshold := lo + (hi-lo)*float64(row)/float64(equityCurveRows-1)
		var line strings.Builder
		for _, v := range values {
			if v >= threshold {
				line.WriteByte('#')
			} else {
				line.WriteByte(' ')
			}
		}
		output.Printf("  %10.2f | %s\n", threshold, line.String())
	}
	output.Printf("  %10s +-%s\n", "", strings.Repeat("-", width))
	output.Printf("  %10s   %s -> %s\n", "",
		equity[0].Timestamp.Format("02-Jan-2006"),
		equity[len(equity)-1].Timestamp.Format("02-Jan-2006"))
	output.Println()
}
