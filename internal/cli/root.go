package cli

import (
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"ema-trader/internal/config"
	"ema-trader/internal/logging"
	"ema-trader/internal/store"
)

// Version information
const (
	Version   = "0.1.0"
	BuildDate = "2025-06-01"
)

// App holds the application dependencies.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
	Store  store.DataStore
}

// NewRootCmd creates the root command for the CLI.
func NewRootCmd(cfg *config.Config, logger zerolog.Logger) *cobra.Command {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	dbPath := filepath.Join(config.DefaultConfigDir(), "trader.db")
	dataStore, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize store, trades will not be persisted")
	} else {
		app.Store = dataStore
		logger.Debug().Str("path", dbPath).Msg("SQLite store initialized")
	}

	rootCmd := &cobra.Command{
		Use:   "trader",
		Short: "EMA crossover trend-following trader",
		Long: `An EMA crossover trend-following trading CLI.

It generates BUY and SELL signals from a fast/slow EMA crossover
confirmed by RSI, MACD, volume and support/resistance, sizes positions
by fixed fractional risk, and runs the same strategy in backtest,
paper and live modes.

Use 'trader help <command>' for more information about a command.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			if debug {
				logging.SetDebugLevel()
				app.Logger = app.Logger.Level(zerolog.DebugLevel)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().String("config", "", "config directory (default: ~/.config/ema-trader)")
	rootCmd.PersistentFlags().Bool("json", false, "output in JSON format")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newConfigCmd(app))
	rootCmd.AddCommand(newBacktestCmd(app))
	rootCmd.AddCommand(newPaperCmd(app))
	rootCmd.AddCommand(newLiveCmd(app))
	rootCmd.AddCommand(newReportCmd(app))

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{
					"version":    Version,
					"build_date": BuildDate,
				})
			} else {
				output.Printf("EMA Trader v%s\n", Version)
				output.Dim("Build date: %s", BuildDate)
			}
		},
	}
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
		Long:  "View and manage application configuration.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if output.IsJSON() {
				return output.JSON(app.Config)
			}
			showConfig(output, app.Config)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration directory path",
		Run: func(cmd *cobra.Command, args []string) {
			output := NewOutput(cmd)
			if output.IsJSON() {
				output.JSON(map[string]string{"path": config.DefaultConfigDir()})
			} else {
				output.Println(config.DefaultConfigDir())
			}
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration files",
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			if err := app.Config.Validate(); err != nil {
				output.Error("Configuration validation failed: %v", err)
				return err
			}
			if output.IsJSON() {
				output.JSON(map[string]bool{"valid": true})
			} else {
				output.Success("Configuration is valid")
			}
			return nil
		},
	})

	return cmd
}

func showConfig(output *Output, cfg *config.Config) {
	output.Bold("Trading")
	output.Printf("  Mode:       %s\n", cfg.Trading.Mode)
	output.Printf("  Symbol:     %s\n", cfg.Trading.Symbol)
	output.Printf("  Capital:    %.2f\n", cfg.Trading.Capital)
	output.Printf("  Exchange:   %s\n", cfg.Trading.Exchange)
	output.Println()

	output.Bold("Strategy")
	output.Printf("  Fast EMA:       %d\n", cfg.Strategy.FastEMA)
	output.Printf("  Slow EMA:       %d\n", cfg.Strategy.SlowEMA)
	output.Printf("  RSI Period:     %d\n", cfg.Strategy.RSIPeriod)
	output.Printf("  RSI Overbought: %.0f\n", cfg.Strategy.RSIOverbought)
	output.Printf("  RSI Oversold:   %.0f\n", cfg.Strategy.RSIOversold)
	output.Printf("  Risk:Reward:    1:%.1f\n", cfg.Strategy.RiskReward)
	output.Println()

	output.Bold("Risk")
	output.Printf("  Risk per trade: %.1f%%\n", cfg.Risk.RiskPerTrade*100)
	output.Println()

	output.Bold("Data")
	output.Printf("  Source:        %s\n", cfg.Data.Source)
	output.Printf("  Interval:      %s\n", cfg.Data.Interval)
	output.Printf("  Lookback:      %d candles\n", cfg.Data.Lookback)
	output.Printf("  Poll interval: %s\n", cfg.Data.PollInterval)
}
