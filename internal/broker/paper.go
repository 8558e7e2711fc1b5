package broker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperrors "ema-trader/internal/errors"
	"ema-trader/internal/models"
)

// PaperExecutor simulates order execution against the submitted price.
// Every order fills immediately and in full; the executor only tracks
// cash and holdings so the session can report account state.
type PaperExecutor struct {
	logger zerolog.Logger

	mu       sync.Mutex
	cash     float64
	holdings map[string]int // signed quantity per symbol
	seq      int
	fills    []models.Order
}

// NewPaperExecutor creates a simulated executor with a starting cash
// balance.
func NewPaperExecutor(cash float64, logger zerolog.Logger) *PaperExecutor {
	return &PaperExecutor{
		logger:   logger.With().Str("executor", "paper").Logger(),
		cash:     cash,
		holdings: make(map[string]int),
	}
}

// PlaceOrder fills the order at its submitted price. Buying more than
// the cash balance covers is rejected with ErrInsufficientFunds.
func (e *PaperExecutor) PlaceOrder(ctx context.Context, order models.Order) (string, error) {
	if order.Quantity <= 0 {
		return "", apperrors.NewOrderError("", order.Symbol, "place", "quantity must be positive", apperrors.ErrInvalidOrder)
	}
	if order.Price <= 0 {
		return "", apperrors.NewOrderError("", order.Symbol, "place", "price must be positive", apperrors.ErrInvalidOrder)
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	notional := order.Price * float64(order.Quantity)

	switch order.Side {
	case models.SignalBuy:
		if e.holdings[order.Symbol] >= 0 && notional > e.cash {
			return "", apperrors.NewOrderError("", order.Symbol, "place", "order exceeds cash balance", apperrors.ErrInsufficientFunds)
		}
		e.cash -= notional
		e.holdings[order.Symbol] += order.Quantity
	case models.SignalSell:
		e.cash += notional
		e.holdings[order.Symbol] -= order.Quantity
	default:
		return "", apperrors.NewOrderError("", order.Symbol, "place", fmt.Sprintf("unknown side %q", order.Side), apperrors.ErrInvalidOrder)
	}

	e.seq++
	orderID := fmt.Sprintf("PAPER-%d-%d", time.Now().Unix(), e.seq)
	e.fills = append(e.fills, order)

	e.logger.Debug().
		Str("order_id", orderID).
		Str("side", string(order.Side)).
		Int("quantity", order.Quantity).
		Float64("price", order.Price).
		Msg("Order filled")

	return orderID, nil
}

// CancelOrder is a no-op since paper orders fill immediately.
func (e *PaperExecutor) CancelOrder(ctx context.Context, orderID string) error {
	return apperrors.NewOrderError(orderID, "", "cancel", "paper orders fill immediately", apperrors.ErrInvalidOrder)
}

// Account is a snapshot of the simulated account.
type Account struct {
	Cash     float64
	Holdings map[string]int
	Fills    int
}

// Account returns the current account snapshot.
func (e *PaperExecutor) Account() Account {
	e.mu.Lock()
	defer e.mu.Unlock()

	holdings := make(map[string]int, len(e.holdings))
	for symbol, qty := range e.holdings {
		if qty != 0 {
			holdings[symbol] = qty
		}
	}

	return Account{
		Cash:     e.cash,
		Holdings: holdings,
		Fills:    len(e.fills),
	}
}
