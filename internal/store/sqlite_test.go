package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ema-trader/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "trader.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTrade(id string, entry time.Time, pnl float64) models.Trade {
	return models.Trade{
		ID:         id,
		Symbol:     "BTCUSDT",
		Direction:  models.Long,
		EntryTime:  entry,
		ExitTime:   entry.Add(30 * time.Minute),
		EntryPrice: 101.5,
		ExitPrice:  105.8,
		Quantity:   95,
		StopLoss:   99.4008,
		Target:     105.6984,
		PnL:        pnl,
		PnLPercent: pnl / (101.5 * 95) * 100,
		ExitReason: models.ExitTarget,
		Mode:       models.ModeBacktest,
	}
}

func TestSaveAndGetTrades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	want := sampleTrade("BACKTEST-BTCUSDT-000001", start, 408.5)
	if err := s.SaveTrade(ctx, want); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}

	trades, err := s.GetTrades(ctx, TradeFilter{})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(trades) != 1 {
		t.Fatalf("trades = %d, want 1", len(trades))
	}

	got := trades[0]
	if got.ID != want.ID || got.Symbol != want.Symbol || got.Direction != want.Direction {
		t.Errorf("identity fields = %v/%v/%v, want %v/%v/%v",
			got.ID, got.Symbol, got.Direction, want.ID, want.Symbol, want.Direction)
	}
	if got.EntryPrice != want.EntryPrice || got.ExitPrice != want.ExitPrice || got.Quantity != want.Quantity {
		t.Errorf("prices = %v/%v/%d, want %v/%v/%d",
			got.EntryPrice, got.ExitPrice, got.Quantity, want.EntryPrice, want.ExitPrice, want.Quantity)
	}
	if got.ExitReason != want.ExitReason || got.Mode != want.Mode {
		t.Errorf("reason/mode = %v/%v, want %v/%v", got.ExitReason, got.Mode, want.ExitReason, want.Mode)
	}
	if !got.EntryTime.Equal(want.EntryTime) {
		t.Errorf("EntryTime = %v, want %v", got.EntryTime, want.EntryTime)
	}
}

func TestSaveTradeDuplicateID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	trade := sampleTrade("DUP-1", time.Now().UTC(), 10)

	if err := s.SaveTrade(ctx, trade); err != nil {
		t.Fatalf("SaveTrade: %v", err)
	}
	if err := s.SaveTrade(ctx, trade); err == nil {
		t.Error("duplicate trade ID should be rejected, the log is append-only")
	}
}

func TestGetTradesFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)

	first := sampleTrade("T-1", start, 100)
	second := sampleTrade("T-2", start.Add(time.Hour), -50)
	second.Mode = models.ModePaper
	third := sampleTrade("T-3", start.Add(2*time.Hour), 20)
	third.Symbol = "ETHUSDT"

	for _, trade := range []models.Trade{first, second, third} {
		if err := s.SaveTrade(ctx, trade); err != nil {
			t.Fatalf("SaveTrade(%s): %v", trade.ID, err)
		}
	}

	byMode, err := s.GetTrades(ctx, TradeFilter{Mode: models.ModePaper})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(byMode) != 1 || byMode[0].ID != "T-2" {
		t.Errorf("mode filter = %v, want [T-2]", ids(byMode))
	}

	bySymbol, err := s.GetTrades(ctx, TradeFilter{Symbol: "BTCUSDT"})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	if len(bySymbol) != 2 {
		t.Errorf("symbol filter = %v, want two BTCUSDT trades", ids(bySymbol))
	}

	limited, err := s.GetTrades(ctx, TradeFilter{Limit: 1})
	if err != nil {
		t.Fatalf("GetTrades: %v", err)
	}
	// Newest first.
	if len(limited) != 1 || limited[0].ID != "T-3" {
		t.Errorf("limit filter = %v, want [T-3]", ids(limited))
	}
}

func TestCandleRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	candles := []models.Candle{
		{Timestamp: start, Open: 100, High: 101, Low: 99, Close: 100.5, Volume: 1200},
		{Timestamp: start.Add(5 * time.Minute), Open: 100.5, High: 102, Low: 100, Close: 101.5, Volume: 1500},
	}

	if err := s.SaveCandles(ctx, "BTCUSDT", "5m", candles); err != nil {
		t.Fatalf("SaveCandles: %v", err)
	}
	// Saving the same batch again must not duplicate rows.
	if err := s.SaveCandles(ctx, "BTCUSDT", "5m", candles); err != nil {
		t.Fatalf("SaveCandles (repeat): %v", err)
	}

	got, err := s.GetCandles(ctx, "BTCUSDT", "5m", start, start.Add(time.Hour))
	if err != nil {
		t.Fatalf("GetCandles: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("candles = %d, want 2", len(got))
	}
	if got[0].Close != 100.5 || got[1].Close != 101.5 {
		t.Errorf("closes = %v/%v, want 100.5/101.5", got[0].Close, got[1].Close)
	}
	if !got[0].Timestamp.Before(got[1].Timestamp) {
		t.Error("candles must come back oldest first")
	}
}

func ids(trades []models.Trade) []string {
	out := make([]string, len(trades))
	for i, t := range trades {
		out[i] = t.ID
	}
	return out
}
