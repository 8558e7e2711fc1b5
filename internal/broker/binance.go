package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	apperrors "ema-trader/internal/errors"
	"ema-trader/internal/models"
	"ema-trader/pkg/utils"
)

const binanceBaseURL = "https://api.binance.com"

// BinanceFeed fetches candle data from the Binance public REST API.
// No authentication is required for market data endpoints.
type BinanceFeed struct {
	baseURL string
	client  *http.Client
	retry   utils.RetryConfig
	logger  zerolog.Logger
}

// NewBinanceFeed creates a Binance market data feed.
func NewBinanceFeed(logger zerolog.Logger) *BinanceFeed {
	return &BinanceFeed{
		baseURL: binanceBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
		retry:   utils.DefaultRetryConfig(),
		logger:  logger.With().Str("feed", "binance").Logger(),
	}
}

// FetchCandles returns up to limit klines for the symbol, oldest first.
func (f *BinanceFeed) FetchCandles(ctx context.Context, symbol, interval string, limit int) ([]models.Candle, error) {
	endpoint := fmt.Sprintf("%s/api/v3/klines?symbol=%s&interval=%s&limit=%d",
		f.baseURL, url.QueryEscape(symbol), url.QueryEscape(interval), limit)

	rows, err := utils.RetryWithResult(ctx, f.retry, func() ([][]any, error) {
		var payload [][]any
		if err := f.getJSON(ctx, endpoint, &payload); err != nil {
			return nil, err
		}
		return payload, nil
	})
	if err != nil {
		return nil, apperrors.NewFeedError("binance", symbol, "fetching klines", err)
	}

	candles := make([]models.Candle, 0, len(rows))
	for _, row := range rows {
		candle, err := parseKline(row)
		if err != nil {
			return nil, apperrors.NewFeedError("binance", symbol, "parsing kline", err)
		}
		candles = append(candles, candle)
	}

	f.logger.Debug().Str("symbol", symbol).Int("candles", len(candles)).Msg("Fetched klines")
	return candles, nil
}

// Quote returns the 24-hour ticker for the symbol.
func (f *BinanceFeed) Quote(ctx context.Context, symbol string) (models.Quote, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/24hr?symbol=%s", f.baseURL, url.QueryEscape(symbol))

	var payload struct {
		LastPrice          string `json:"lastPrice"`
		OpenPrice          string `json:"openPrice"`
		HighPrice          string `json:"highPrice"`
		LowPrice           string `json:"lowPrice"`
		Volume             string `json:"volume"`
		PriceChangePercent string `json:"priceChangePercent"`
	}

	err := utils.Retry(ctx, f.retry, func() error {
		return f.getJSON(ctx, endpoint, &payload)
	})
	if err != nil {
		return models.Quote{}, apperrors.NewFeedError("binance", symbol, "fetching ticker", err)
	}

	return models.Quote{
		Symbol:        symbol,
		LastPrice:     parseFloat(payload.LastPrice),
		Open:          parseFloat(payload.OpenPrice),
		High:          parseFloat(payload.HighPrice),
		Low:           parseFloat(payload.LowPrice),
		Volume:        parseFloat(payload.Volume),
		ChangePercent: parseFloat(payload.PriceChangePercent),
		Timestamp:     time.Now(),
	}, nil
}

func (f *BinanceFeed) getJSON(ctx context.Context, endpoint string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("binance status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}

// parseKline converts one raw kline row. Binance encodes prices as
// strings and the open time as a millisecond epoch number.
func parseKline(row []any) (models.Candle, error) {
	if len(row) < 6 {
		return models.Candle{}, fmt.Errorf("kline row has %d fields, want at least 6", len(row))
	}

	openTime, ok := row[0].(float64)
	if !ok {
		return models.Candle{}, fmt.Errorf("kline open time is %T, want number", row[0])
	}

	fields := make([]float64, 5)
	for i := 1; i <= 5; i++ {
		s, ok := row[i].(string)
		if !ok {
			return models.Candle{}, fmt.Errorf("kline field %d is %T, want string", i, row[i])
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Candle{}, fmt.Errorf("kline field %d: %w", i, err)
		}
		fields[i-1] = v
	}

	return models.Candle{
		Timestamp: time.UnixMilli(int64(openTime)),
		Open:      fields[0],
		High:      fields[1],
		Low:       fields[2],
		Close:     fields[3],
		Volume:    fields[4],
	}, nil
}

func parseFloat(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}
