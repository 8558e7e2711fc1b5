package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"ema-trader/internal/models"
	"ema-trader/internal/performance"
	"ema-trader/internal/store"
)

func newReportCmd(app *App) *cobra.Command {
	var (
		symbol string
		mode   string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Report performance over persisted trades",
		Long: `Aggregate the trades persisted by previous backtest, paper and
live sessions into performance statistics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)

			if app.Store == nil {
				return fmt.Errorf("trade store is not available")
			}

			filter := store.TradeFilter{
				Symbol: symbol,
				Mode:   models.TradingMode(mode),
				Limit:  limit,
			}

			trades, err := app.Store.GetTrades(cmd.Context(), filter)
			if err != nil {
				return err
			}

			// GetTrades returns newest first; reports read oldest first.
			for i, j := 0, len(trades)-1; i < j; i, j = i+1, j-1 {
				trades[i], trades[j] = trades[j], trades[i]
			}

			report := performance.Compute(trades, equityFromTrades(trades, app.Config.Trading.Capital), app.Config.Trading.Capital)

			if output.IsJSON() {
				return output.JSON(map[string]any{
					"trades": trades,
					"report": report,
				})
			}

			printTrades(output, app.Config, trades)
			printReport(output, report)
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "filter by symbol")
	cmd.Flags().StringVar(&mode, "mode", "", "filter by mode (backtest, paper, live)")
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum trades to include")

	return cmd
}

// equityFromTrades reconstructs a coarse equity curve from realized
// trade P&L, one point per exit. Drawdown and Sharpe computed from it
// ignore intratrade swings.
func equityFromTrades(trades []models.Trade, initialCapital float64) []models.EquityPoint {
	equity := make([]models.EquityPoint, 0, len(trades))
	capital := initialCapital
	for _, t := range trades {
		capital += t.PnL
		equity = append(equity, models.EquityPoint{Timestamp: t.ExitTime, Equity: capital})
	}
	return equity
}
