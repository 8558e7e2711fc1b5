package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# EMA Trader Configuration

[trading]
# Trading mode: "backtest", "paper" or "live"
mode = "paper"
# Trading symbol
symbol = "BTCUSDT"
# Starting capital
capital = 10000.0
# Exchange identifier
exchange = "binance"

[strategy]
# Fast/slow EMA periods for crossover detection
fast_ema = 9
slow_ema = 15
# RSI period and thresholds
rsi_period = 14
rsi_overbought = 70.0
rsi_oversold = 30.0
# Target distance as a multiple of entry risk
risk_reward = 2.0

[risk]
# Fraction of capital risked per trade
risk_per_trade = 0.02

[data]
# Market data source: "binance" (REST) or "kraken" (websocket)
source = "binance"
# Candle interval
interval = "5m"
# Candles fetched per poll
lookback = 100
# Polling cadence for paper/live mode
poll_interval = "300s"

[ui]
# Enable colored output
color_enabled = true
# Date format
date_format = "02-Jan-2006"
# Time format
time_format = "15:04:05"
`

// createTemplateConfig writes a template config file on first run.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if err := os.WriteFile(path, []byte(configTemplate), 0644); err != nil {
		return fmt.Errorf("writing config template: %w", err)
	}

	return nil
}
