package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ema-trader/internal/broker"
	"ema-trader/internal/engine"
	"ema-trader/internal/models"
	"ema-trader/internal/performance"
)

func newPaperCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "paper",
		Short: "Run the strategy against live data with simulated execution",
		Long: `Poll live market data and run the strategy with a simulated
executor. No real orders are placed. Stop with Ctrl-C; a session
summary is printed on exit.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, app, models.ModePaper)
		},
	}
}

func newLiveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "live",
		Short: "Run the strategy against live data",
		Long: `Poll live market data and run the strategy. Order routing to a
real exchange account is not wired up; fills are simulated the same
way as in paper mode.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSession(cmd, app, models.ModeLive)
		},
	}
}

func runSession(cmd *cobra.Command, app *App, mode models.TradingMode) error {
	output := NewOutput(cmd)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	feed, cleanup, err := newFeed(ctx, app)
	if err != nil {
		return err
	}
	defer cleanup()

	executor := broker.NewPaperExecutor(app.Config.Trading.Capital, app.Logger)
	if mode == models.ModeLive {
		output.Warning("Live order routing is not configured; execution is simulated")
	}

	driver := engine.NewDriver(app.Config, mode, feed, executor, recorder(app), app.Logger)

	output.Info("Starting %s session for %s (poll every %s, Ctrl-C to stop)",
		mode, app.Config.Trading.Symbol, app.Config.Data.PollInterval)

	err = driver.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	summary := driver.Summary()
	report := performance.Compute(summary.Trades, summary.EquityCurve, summary.InitialCapital)

	if output.IsJSON() {
		return output.JSON(map[string]any{
			"summary": summary,
			"report":  report,
			"account": executor.Account(),
		})
	}

	output.Println()
	output.Bold("Session summary")
	printTrades(output, app.Config, summary.Trades)
	printReport(output, report)
	printAccount(output, executor.Account())

	return nil
}

// newFeed builds the market data feed named in the configuration.
func newFeed(ctx context.Context, app *App) (broker.MarketData, func(), error) {
	switch app.Config.Data.Source {
	case "binance":
		return broker.NewBinanceFeed(app.Logger), func() {}, nil
	case "kraken":
		feed := broker.NewKrakenFeed(app.Config.Trading.Symbol, app.Logger)
		feed.Start(ctx)
		return feed, feed.Stop, nil
	default:
		return nil, nil, fmt.Errorf("unknown data source %q (must be 'binance' or 'kraken')", app.Config.Data.Source)
	}
}

func printAccount(output *Output, account broker.Account) {
	output.Println()
	output.Bold("Paper account")
	output.Printf("  Cash:   %.2f\n", account.Cash)
	output.Printf("  Fills:  %d\n", account.Fills)
	for symbol, qty := range account.Holdings {
		output.Printf("  %-8s %+d\n", symbol, qty)
	}
}
