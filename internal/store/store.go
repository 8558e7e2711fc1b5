// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"ema-trader/internal/models"
)

// DataStore defines the interface for trade and candle persistence.
// The trade log is append-only; completed trades are never updated.
type DataStore interface {
	SaveTrade(ctx context.Context, trade models.Trade) error
	GetTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error)

	SaveCandles(ctx context.Context, symbol, interval string, candles []models.Candle) error
	GetCandles(ctx context.Context, symbol, interval string, from, to time.Time) ([]models.Candle, error)

	Close() error
}

// TradeFilter narrows GetTrades results. Zero values match everything.
type TradeFilter struct {
	Symbol    string
	Mode      models.TradingMode
	Direction models.Direction
	StartDate time.Time
	EndDate   time.Time
	Limit     int
}
