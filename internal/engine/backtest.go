package engine

import (
	"context"

	"github.com/rs/zerolog"

	"ema-trader/internal/config"
	"ema-trader/internal/indicators"
	"ema-trader/internal/logging"
	"ema-trader/internal/models"
	"ema-trader/internal/strategy"
)

// TradeRecorder persists closed trades. Recording failures are logged
// and never interrupt the run.
type TradeRecorder interface {
	SaveTrade(ctx context.Context, trade models.Trade) error
}

// Result is the outcome of a completed run: the closed trades in
// chronological order and the mark-to-market equity curve, one point
// per processed bar.
type Result struct {
	Symbol         string
	Mode           models.TradingMode
	InitialCapital float64
	FinalCapital   float64
	Trades         []models.Trade
	EquityCurve    []models.EquityPoint
}

// Backtester replays a historical candle series through the pipeline.
// Each bar is processed against the expanding prefix ending at that
// bar, so no indicator ever sees data past the bar being evaluated.
type Backtester struct {
	cfg      *config.Config
	recorder TradeRecorder
	logger   zerolog.Logger
}

// NewBacktester creates a replay driver. recorder may be nil when
// trades should not be persisted.
func NewBacktester(cfg *config.Config, recorder TradeRecorder, logger zerolog.Logger) *Backtester {
	return &Backtester{
		cfg:      cfg,
		recorder: recorder,
		logger:   logging.WithMode(logger, string(models.ModeBacktest)),
	}
}

// Run replays candles through the strategy and returns the result. A
// position still open after the last bar is closed at that bar's close.
// Series shorter than the warm-up produce an empty result.
func (b *Backtester) Run(ctx context.Context, symbol string, candles []models.Candle) (*Result, error) {
	logger := logging.WithSymbol(b.logger, symbol)

	gen := strategy.NewGenerator(b.cfg.Strategy)
	sizer := strategy.NewSizer(b.cfg.Risk.RiskPerTrade, b.cfg.Strategy.RiskReward)
	machine := NewMachine(symbol, models.ModeBacktest)
	pipeline := NewPipeline(gen, sizer, machine, b.cfg.Trading.Capital)

	result := &Result{
		Symbol:         symbol,
		Mode:           models.ModeBacktest,
		InitialCapital: b.cfg.Trading.Capital,
	}

	logger.Info().
		Int("candles", len(candles)).
		Float64("capital", b.cfg.Trading.Capital).
		Msg("Backtest started")

	for i := indicators.WarmupBars - 1; i < len(candles); i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		event := pipeline.ProcessBar(candles[:i+1])
		b.record(ctx, logger, result, event)
		result.EquityCurve = append(result.EquityCurve, event.Equity)
	}

	// The close-out fills at the last close, the same price the final
	// equity point was marked at, so the curve already ends at realized
	// capital and no point is touched after its append.
	if len(candles) > 0 {
		if trade := pipeline.CloseOut(candles[len(candles)-1], models.ExitEndOfData); trade != nil {
			b.recordTrade(ctx, logger, result, *trade)
		}
	}

	result.FinalCapital = pipeline.Capital()

	logger.Info().
		Int("trades", len(result.Trades)).
		Float64("final_capital", result.FinalCapital).
		Msg("Backtest finished")

	return result, nil
}

func (b *Backtester) record(ctx context.Context, logger zerolog.Logger, result *Result, event BarEvent) {
	// The exit always precedes the entry when a bar does both.
	if event.Exited != nil {
		b.recordTrade(ctx, logger, result, *event.Exited)
	}
	if event.Opened != nil {
		pos := event.Opened
		logging.LogEntry(logger, pos.Symbol, string(pos.Direction), pos.Quantity, pos.Entry, pos.StopLoss, pos.Target)
	}
}

func (b *Backtester) recordTrade(ctx context.Context, logger zerolog.Logger, result *Result, trade models.Trade) {
	logging.LogExit(logger, trade.Symbol, string(trade.Direction), string(trade.ExitReason), trade.ExitPrice, trade.PnL)
	result.Trades = append(result.Trades, trade)

	if b.recorder != nil {
		if err := b.recorder.SaveTrade(ctx, trade); err != nil {
			logger.Error().Err(err).Str("trade_id", trade.ID).Msg("Failed to persist trade")
		}
	}
}
