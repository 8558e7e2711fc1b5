package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"ema-trader/internal/models"
)

type fakeFeed struct {
	candles []models.Candle
	err     error
	calls   int
}

func (f *fakeFeed) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	f.calls++
	return f.candles, f.err
}

func (f *fakeFeed) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	return models.Quote{}, f.err
}

type fakeExecutor struct {
	orders []models.Order
	err    error
}

func (f *fakeExecutor) PlaceOrder(ctx context.Context, order models.Order) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.orders = append(f.orders, order)
	return "FAKE-1", nil
}

func (f *fakeExecutor) CancelOrder(ctx context.Context, orderID string) error {
	return f.err
}

type fakeRecorder struct {
	trades []models.Trade
	err    error
}

func (f *fakeRecorder) SaveTrade(ctx context.Context, trade models.Trade) error {
	if f.err != nil {
		return f.err
	}
	f.trades = append(f.trades, trade)
	return nil
}

func TestDriverCycleOpensAndClosesPosition(t *testing.T) {
	feed := &fakeFeed{candles: breakoutSeries()}
	executor := &fakeExecutor{}
	recorder := &fakeRecorder{}
	driver := NewDriver(testConfig(), models.ModePaper, feed, executor, recorder, zerolog.Nop())
	ctx := context.Background()

	driver.cycle(ctx)

	if !driver.pipeline.Machine().Open() {
		t.Fatal("breakout window should open a position")
	}
	if len(executor.orders) != 1 || executor.orders[0].Side != models.SignalBuy {
		t.Fatalf("orders = %+v, want one BUY", executor.orders)
	}
	if executor.orders[0].Quantity != 95 {
		t.Errorf("entry quantity = %d, want 95", executor.orders[0].Quantity)
	}

	// Next poll returns a window whose last close breaches the stop.
	feed.candles = extend(breakoutSeries(),
		candle(time.Time{}, 101.5, 100.0, 99.2, 99.3, 120),
	)
	driver.cycle(ctx)

	if driver.pipeline.Machine().Open() {
		t.Fatal("stop breach should close the position")
	}
	if len(executor.orders) != 2 || executor.orders[1].Side != models.SignalSell {
		t.Fatalf("orders = %+v, want BUY then SELL", executor.orders)
	}
	if len(recorder.trades) != 1 || recorder.trades[0].ExitReason != models.ExitStopLoss {
		t.Fatalf("recorded trades = %+v, want one stop_loss exit", recorder.trades)
	}

	summary := driver.Summary()
	if len(summary.Trades) != 1 || len(summary.EquityCurve) != 2 {
		t.Errorf("summary has %d trades and %d equity points, want 1 and 2",
			len(summary.Trades), len(summary.EquityCurve))
	}
	if summary.Mode != models.ModePaper {
		t.Errorf("Mode = %v, want paper", summary.Mode)
	}
}

func TestDriverCycleSkipsOnFeedFailure(t *testing.T) {
	feed := &fakeFeed{err: errors.New("connection reset")}
	driver := NewDriver(testConfig(), models.ModePaper, feed, &fakeExecutor{}, nil, zerolog.Nop())

	driver.cycle(context.Background())

	if len(driver.equity) != 0 {
		t.Error("failed poll must not append an equity point")
	}
	if driver.pipeline.Machine().Open() {
		t.Error("failed poll must not touch the position")
	}
}

func TestDriverOrderFailureDoesNotRollBack(t *testing.T) {
	feed := &fakeFeed{candles: breakoutSeries()}
	executor := &fakeExecutor{err: errors.New("rejected")}
	driver := NewDriver(testConfig(), models.ModePaper, feed, executor, nil, zerolog.Nop())

	driver.cycle(context.Background())

	// The position transition stands even though the mirror order failed.
	if !driver.pipeline.Machine().Open() {
		t.Error("execution failure must not roll back the position")
	}
}

func TestDriverRunStopsOnCancel(t *testing.T) {
	cfg := testConfig()
	cfg.Data.PollInterval = 10 * time.Millisecond

	feed := &fakeFeed{candles: breakoutSeries()[:10]}
	driver := NewDriver(cfg, models.ModePaper, feed, &fakeExecutor{}, nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- driver.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancellation")
	}

	if feed.calls == 0 {
		t.Error("driver never polled the feed")
	}
}
