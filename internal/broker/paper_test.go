package broker

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	apperrors "ema-trader/internal/errors"
	"ema-trader/internal/models"
)

func order(side models.Signal, qty int, price float64) models.Order {
	return models.Order{
		Symbol:   "BTCUSDT",
		Side:     side,
		Kind:     models.OrderKindMarket,
		Quantity: qty,
		Price:    price,
	}
}

func TestPaperExecutorFillsAndTracksCash(t *testing.T) {
	exec := NewPaperExecutor(10000, zerolog.Nop())
	ctx := context.Background()

	buyID, err := exec.PlaceOrder(ctx, order(models.SignalBuy, 10, 100))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if buyID == "" {
		t.Error("order ID must not be empty")
	}

	account := exec.Account()
	if account.Cash != 9000 {
		t.Errorf("cash after buy = %v, want 9000", account.Cash)
	}
	if account.Holdings["BTCUSDT"] != 10 {
		t.Errorf("holdings = %d, want 10", account.Holdings["BTCUSDT"])
	}

	sellID, err := exec.PlaceOrder(ctx, order(models.SignalSell, 10, 110))
	if err != nil {
		t.Fatalf("PlaceOrder: %v", err)
	}
	if sellID == buyID {
		t.Error("order IDs must be unique")
	}

	account = exec.Account()
	if account.Cash != 10100 {
		t.Errorf("cash after round trip = %v, want 10100", account.Cash)
	}
	if _, held := account.Holdings["BTCUSDT"]; held {
		t.Errorf("flat symbol should drop out of holdings, got %v", account.Holdings)
	}
	if account.Fills != 2 {
		t.Errorf("fills = %d, want 2", account.Fills)
	}
}

func TestPaperExecutorRejectsInvalidOrders(t *testing.T) {
	exec := NewPaperExecutor(10000, zerolog.Nop())
	ctx := context.Background()

	if _, err := exec.PlaceOrder(ctx, order(models.SignalBuy, 0, 100)); !errors.Is(err, apperrors.ErrInvalidOrder) {
		t.Errorf("zero quantity: err = %v, want ErrInvalidOrder", err)
	}
	if _, err := exec.PlaceOrder(ctx, order(models.SignalBuy, 10, 0)); !errors.Is(err, apperrors.ErrInvalidOrder) {
		t.Errorf("zero price: err = %v, want ErrInvalidOrder", err)
	}
	if _, err := exec.PlaceOrder(ctx, order(models.SignalNone, 10, 100)); !errors.Is(err, apperrors.ErrInvalidOrder) {
		t.Errorf("NONE side: err = %v, want ErrInvalidOrder", err)
	}
}

func TestPaperExecutorInsufficientFunds(t *testing.T) {
	exec := NewPaperExecutor(500, zerolog.Nop())
	ctx := context.Background()

	_, err := exec.PlaceOrder(ctx, order(models.SignalBuy, 10, 100))
	if !errors.Is(err, apperrors.ErrInsufficientFunds) {
		t.Errorf("err = %v, want ErrInsufficientFunds", err)
	}

	if account := exec.Account(); account.Cash != 500 || account.Fills != 0 {
		t.Errorf("rejected order must not touch the account, got %+v", account)
	}
}

func TestPaperExecutorShortThenCover(t *testing.T) {
	exec := NewPaperExecutor(1000, zerolog.Nop())
	ctx := context.Background()

	// A short sale credits cash; covering it afterwards is a buy that
	// may exceed the starting balance.
	if _, err := exec.PlaceOrder(ctx, order(models.SignalSell, 5, 300)); err != nil {
		t.Fatalf("short sale: %v", err)
	}
	if account := exec.Account(); account.Holdings["BTCUSDT"] != -5 {
		t.Errorf("holdings = %d, want -5", account.Holdings["BTCUSDT"])
	}

	if _, err := exec.PlaceOrder(ctx, order(models.SignalBuy, 5, 280)); err != nil {
		t.Fatalf("cover: %v", err)
	}
	if account := exec.Account(); account.Cash != 1000+5*300-5*280 {
		t.Errorf("cash = %v, want %v", account.Cash, 1000+5*300-5*280)
	}
}

func TestPaperExecutorCancelUnsupported(t *testing.T) {
	exec := NewPaperExecutor(1000, zerolog.Nop())
	if err := exec.CancelOrder(context.Background(), "PAPER-1-1"); err == nil {
		t.Error("cancel must fail, paper orders fill immediately")
	}
}
