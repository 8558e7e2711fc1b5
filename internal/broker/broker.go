// Package broker provides market data feeds and order execution
// backends for the supported exchanges.
package broker

import (
	"context"

	"ema-trader/internal/models"
)

// MarketData fetches candle history for an instrument. Implementations
// return candles in ascending time order, the most recent bar last.
type MarketData interface {
	// FetchCandles returns up to limit candles for the symbol at the
	// given interval (e.g. "5m", "1h").
	FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error)

	// Quote returns the latest traded price for the symbol.
	Quote(ctx context.Context, symbol string) (models.Quote, error)
}

// OrderExecutor places and cancels orders. The paper executor fills
// immediately against the submitted price; a live executor forwards to
// the exchange.
type OrderExecutor interface {
	// PlaceOrder submits an order and returns the broker's order ID.
	PlaceOrder(ctx context.Context, order models.Order) (string, error)

	// CancelOrder cancels a pending order by ID.
	CancelOrder(ctx context.Context, orderID string) error
}
