// Package config provides configuration management for the trading application.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"ema-trader/internal/indicators"
)

// Config holds all application configuration.
type Config struct {
	Trading  TradingConfig  `mapstructure:"trading"`
	Strategy StrategyConfig `mapstructure:"strategy"`
	Risk     RiskConfig     `mapstructure:"risk"`
	Data     DataConfig     `mapstructure:"data"`
	UI       UIConfig       `mapstructure:"ui"`
}

// TradingConfig holds trading-related configuration.
type TradingConfig struct {
	Mode     string  `mapstructure:"mode"`   // "backtest", "paper", "live"
	Symbol   string  `mapstructure:"symbol"` // e.g. "BTCUSDT"
	Capital  float64 `mapstructure:"capital"`
	Exchange string  `mapstructure:"exchange"`
}

// StrategyConfig holds strategy parameters.
type StrategyConfig struct {
	FastEMA       int     `mapstructure:"fast_ema"`
	SlowEMA       int     `mapstructure:"slow_ema"`
	RSIPeriod     int     `mapstructure:"rsi_period"`
	RSIOverbought float64 `mapstructure:"rsi_overbought"`
	RSIOversold   float64 `mapstructure:"rsi_oversold"`
	RiskReward    float64 `mapstructure:"risk_reward"`
}

// RiskConfig holds risk management configuration.
type RiskConfig struct {
	RiskPerTrade float64 `mapstructure:"risk_per_trade"` // fraction of capital
}

// DataConfig holds market-data configuration.
type DataConfig struct {
	Source       string        `mapstructure:"source"`   // "binance", "kraken"
	Interval     string        `mapstructure:"interval"` // "1m", "5m", "15m", "1h"
	Lookback     int           `mapstructure:"lookback"` // candles per fetch
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// UIConfig holds UI-related configuration.
type UIConfig struct {
	ColorEnabled bool   `mapstructure:"color_enabled"`
	DateFormat   string `mapstructure:"date_format"`
	TimeFormat   string `mapstructure:"time_format"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/ema-trader"
	}
	return filepath.Join(home, ".config", "ema-trader")
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		Trading: TradingConfig{
			Mode:     "paper",
			Symbol:   "BTCUSDT",
			Capital:  10000,
			Exchange: "binance",
		},
		Strategy: StrategyConfig{
			FastEMA:       9,
			SlowEMA:       15,
			RSIPeriod:     14,
			RSIOverbought: 70,
			RSIOversold:   30,
			RiskReward:    2.0,
		},
		Risk: RiskConfig{
			RiskPerTrade: 0.02,
		},
		Data: DataConfig{
			Source:       "binance",
			Interval:     "5m",
			Lookback:     100,
			PollInterval: 300 * time.Second,
		},
		UI: UIConfig{
			ColorEnabled: true,
			DateFormat:   "02-Jan-2006",
			TimeFormat:   "15:04:05",
		},
	}
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := &Config{}

	if err := loadConfigFile(configDir, cfg); err != nil {
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadConfigFile(configDir string, cfg *Config) error {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if werr := createTemplateConfig(configDir); werr != nil {
				return werr
			}
			// Fall through with defaults only.
		} else {
			return err
		}
	}

	return v.Unmarshal(cfg)
}

func setDefaults(v *viper.Viper) {
	def := Default()

	v.SetDefault("trading.mode", def.Trading.Mode)
	v.SetDefault("trading.symbol", def.Trading.Symbol)
	v.SetDefault("trading.capital", def.Trading.Capital)
	v.SetDefault("trading.exchange", def.Trading.Exchange)

	v.SetDefault("strategy.fast_ema", def.Strategy.FastEMA)
	v.SetDefault("strategy.slow_ema", def.Strategy.SlowEMA)
	v.SetDefault("strategy.rsi_period", def.Strategy.RSIPeriod)
	v.SetDefault("strategy.rsi_overbought", def.Strategy.RSIOverbought)
	v.SetDefault("strategy.rsi_oversold", def.Strategy.RSIOversold)
	v.SetDefault("strategy.risk_reward", def.Strategy.RiskReward)

	v.SetDefault("risk.risk_per_trade", def.Risk.RiskPerTrade)

	v.SetDefault("data.source", def.Data.Source)
	v.SetDefault("data.interval", def.Data.Interval)
	v.SetDefault("data.lookback", def.Data.Lookback)
	v.SetDefault("data.poll_interval", def.Data.PollInterval)

	v.SetDefault("ui.color_enabled", def.UI.ColorEnabled)
	v.SetDefault("ui.date_format", def.UI.DateFormat)
	v.SetDefault("ui.time_format", def.UI.TimeFormat)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("TRADER_MODE"); v != "" {
		cfg.Trading.Mode = v
	}
	if v := os.Getenv("TRADER_SYMBOL"); v != "" {
		cfg.Trading.Symbol = v
	}
	if v := os.Getenv("TRADER_DATA_SOURCE"); v != "" {
		cfg.Data.Source = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Trading.Mode != "" && c.Trading.Mode != "backtest" && c.Trading.Mode != "paper" && c.Trading.Mode != "live" {
		return fmt.Errorf("invalid trading mode: %s (must be 'backtest', 'paper' or 'live')", c.Trading.Mode)
	}

	if c.Trading.Capital <= 0 {
		return fmt.Errorf("capital must be positive, got %.2f", c.Trading.Capital)
	}

	if c.Risk.RiskPerTrade <= 0 || c.Risk.RiskPerTrade >= 1 {
		return fmt.Errorf("risk_per_trade must be a fraction in (0, 1), got %.4f", c.Risk.RiskPerTrade)
	}

	if c.Strategy.FastEMA <= 0 || c.Strategy.SlowEMA <= 0 {
		return fmt.Errorf("EMA periods must be positive")
	}

	if c.Strategy.FastEMA >= c.Strategy.SlowEMA {
		return fmt.Errorf("fast_ema (%d) must be shorter than slow_ema (%d)", c.Strategy.FastEMA, c.Strategy.SlowEMA)
	}

	if c.Strategy.RSIPeriod <= 0 {
		return fmt.Errorf("rsi_period must be positive")
	}

	if c.Strategy.RiskReward <= 0 {
		return fmt.Errorf("risk_reward must be positive")
	}

	if c.Data.PollInterval <= 0 {
		return fmt.Errorf("poll_interval must be positive")
	}

	if c.Data.Lookback < indicators.WarmupBars {
		return fmt.Errorf("lookback must cover the %d-candle indicator warm-up, got %d", indicators.WarmupBars, c.Data.Lookback)
	}

	return nil
}
