package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"ema-trader/internal/broker"
	"ema-trader/internal/engine"
	"ema-trader/internal/models"
	"ema-trader/internal/performance"
)

func newBacktestCmd(app *App) *cobra.Command {
	var (
		csvPath string
		symbol  string
		limit   int
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Replay the strategy over historical candles",
		Long: `Replay the strategy over a historical candle series and report
the resulting trades and performance statistics.

Candles come from a CSV file (--csv) or are fetched from the
configured exchange.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			ctx := cmd.Context()

			if symbol == "" {
				symbol = app.Config.Trading.Symbol
			}

			candles, err := loadBacktestCandles(ctx, app, csvPath, symbol, limit)
			if err != nil {
				return err
			}

			backtester := engine.NewBacktester(app.Config, recorder(app), app.Logger)
			result, err := backtester.Run(ctx, symbol, candles)
			if err != nil {
				return err
			}

			report := performance.Compute(result.Trades, result.EquityCurve, result.InitialCapital)

			if output.IsJSON() {
				return output.JSON(map[string]any{
					"result": result,
					"report": report,
				})
			}

			output.Info("Backtest: %s over %d candles", symbol, len(candles))
			output.Println()
			printTrades(output, app.Config, result.Trades)
			printReport(output, report)
			printEquityCurve(output, result.EquityCurve)
			return nil
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "load candles from a CSV file instead of the exchange")
	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to backtest (default: configured symbol)")
	cmd.Flags().IntVar(&limit, "limit", 500, "candles to fetch when no CSV file is given")

	return cmd
}

func loadBacktestCandles(ctx context.Context, app *App, csvPath, symbol string, limit int) ([]models.Candle, error) {
	if csvPath != "" {
		return loadCandlesCSV(csvPath)
	}

	feed := broker.NewBinanceFeed(app.Logger)
	candles, err := feed.FetchCandles(ctx, symbol, app.Config.Data.Interval, limit)
	if err != nil {
		return nil, fmt.Errorf("fetching candles: %w", err)
	}

	if app.Store != nil {
		if serr := app.Store.SaveCandles(ctx, symbol, app.Config.Data.Interval, candles); serr != nil {
			app.Logger.Warn().Err(serr).Msg("Failed to cache candles")
		}
	}

	return candles, nil
}

// recorder returns the store as a trade recorder, keeping a missing
// store as a true nil interface.
func recorder(app *App) engine.TradeRecorder {
	if app.Store == nil {
		return nil
	}
	return app.Store
}
