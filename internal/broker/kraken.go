package broker

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	apperrors "ema-trader/internal/errors"
	"ema-trader/internal/models"
)

const (
	krakenWSURL      = "wss://ws.kraken.com"
	krakenMaxCandles = 500
)

// KrakenFeed streams ticker updates over the Kraken public websocket
// and aggregates them into one-minute candles. FetchCandles serves the
// aggregated buffer; the interval argument is ignored because the
// buffer is built at a fixed one-minute resolution.
type KrakenFeed struct {
	symbol       string
	krakenSymbol string
	logger       zerolog.Logger

	mu      sync.Mutex
	candles []models.Candle
	current *models.Candle
	last    models.Quote

	cancel context.CancelFunc
	done   chan struct{}
}

// NewKrakenFeed creates a feed for one pair. Symbols use the slash
// form ("BTC/USDT"); Kraken names Bitcoin XBT on the wire.
func NewKrakenFeed(symbol string, logger zerolog.Logger) *KrakenFeed {
	return &KrakenFeed{
		symbol:       symbol,
		krakenSymbol: strings.Replace(symbol, "BTC", "XBT", 1),
		logger:       logger.With().Str("feed", "kraken").Str("symbol", symbol).Logger(),
	}
}

// Start connects and begins streaming in the background, reconnecting
// with backoff until ctx is cancelled or Stop is called.
func (f *KrakenFeed) Start(ctx context.Context) {
	ctx, f.cancel = context.WithCancel(ctx)
	f.done = make(chan struct{})

	go func() {
		defer close(f.done)

		backoff := time.Second
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			if err := f.stream(ctx); err != nil && ctx.Err() == nil {
				f.logger.Warn().Err(err).Dur("backoff", backoff).Msg("Stream dropped, reconnecting")
				select {
				case <-ctx.Done():
					return
				case <-time.After(backoff):
				}
				if backoff < 30*time.Second {
					backoff *= 2
				}
			} else {
				backoff = time.Second
			}
		}
	}()
}

// Stop terminates the stream and waits for the reader to exit.
func (f *KrakenFeed) Stop() {
	if f.cancel != nil {
		f.cancel()
		<-f.done
	}
}

// FetchCandles returns the aggregated candle buffer, oldest first,
// including the candle still being built.
func (f *KrakenFeed) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := len(f.candles)
	if f.current != nil {
		total++
	}
	if total == 0 {
		return nil, apperrors.NewFeedError("kraken", symbol, "no candles buffered yet", apperrors.ErrDataNotFound)
	}

	out := make([]models.Candle, 0, total)
	out = append(out, f.candles...)
	if f.current != nil {
		out = append(out, *f.current)
	}

	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

// Quote returns the most recent ticker update.
func (f *KrakenFeed) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.last.Timestamp.IsZero() {
		return models.Quote{}, apperrors.NewFeedError("kraken", symbol, "no ticker received yet", apperrors.ErrDataNotFound)
	}
	return f.last, nil
}

func (f *KrakenFeed) stream(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, krakenWSURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	subscribe := map[string]any{
		"event":        "subscribe",
		"pair":         []string{f.krakenSymbol},
		"subscription": map[string]string{"name": "ticker"},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		return err
	}

	f.logger.Info().Msg("Subscribed to ticker stream")

	// Unblock ReadMessage when the context is cancelled.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		f.handleMessage(raw)
	}
}

func (f *KrakenFeed) handleMessage(raw []byte) {
	// Event messages (subscription status, heartbeats) arrive as JSON
	// objects; channel data arrives as arrays.
	var event struct {
		Event        string `json:"event"`
		Status       string `json:"status"`
		ErrorMessage string `json:"errorMessage"`
	}
	if err := json.Unmarshal(raw, &event); err == nil && event.Event != "" {
		if event.Event == "error" {
			f.logger.Error().Str("message", event.ErrorMessage).Msg("Kraken error event")
		}
		return
	}

	var frame []json.RawMessage
	if err := json.Unmarshal(raw, &frame); err != nil || len(frame) < 4 {
		return
	}

	var channel string
	if err := json.Unmarshal(frame[len(frame)-2], &channel); err != nil || channel != "ticker" {
		return
	}

	var ticker krakenTicker
	if err := json.Unmarshal(frame[1], &ticker); err != nil || len(ticker.C) == 0 {
		return
	}

	price, err := strconv.ParseFloat(ticker.C[0], 64)
	if err != nil {
		return
	}

	f.record(price, ticker)
}

// krakenTicker is the payload of a ticker channel frame. Each field is
// a [price, ...] string pair; c is the last trade.
type krakenTicker struct {
	C []string `json:"c"`
	O []string `json:"o"`
	H []string `json:"h"`
	L []string `json:"l"`
	V []string `json:"v"`
}

func (f *KrakenFeed) record(price float64, ticker krakenTicker) {
	now := time.Now()

	f.mu.Lock()
	defer f.mu.Unlock()

	f.last = models.Quote{
		Symbol:    f.symbol,
		LastPrice: price,
		Open:      lastFloat(ticker.O),
		High:      lastFloat(ticker.H),
		Low:       lastFloat(ticker.L),
		Volume:    lastFloat(ticker.V),
		Timestamp: now,
	}

	minute := now.Truncate(time.Minute)
	if f.current == nil || !f.current.Timestamp.Equal(minute) {
		if f.current != nil {
			f.candles = append(f.candles, *f.current)
			if len(f.candles) > krakenMaxCandles {
				f.candles = f.candles[1:]
			}
		}
		f.current = &models.Candle{
			Timestamp: minute,
			Open:      price,
			High:      price,
			Low:       price,
			Close:     price,
		}
		return
	}

	if price > f.current.High {
		f.current.High = price
	}
	if price < f.current.Low {
		f.current.Low = price
	}
	f.current.Close = price
}

func lastFloat(values []string) float64 {
	if len(values) == 0 {
		return 0
	}
	v, _ := strconv.ParseFloat(values[len(values)-1], 64)
	return v
}
