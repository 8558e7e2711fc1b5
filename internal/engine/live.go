package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"ema-trader/internal/broker"
	"ema-trader/internal/config"
	"ema-trader/internal/logging"
	"ema-trader/internal/models"
	"ema-trader/internal/strategy"
)

// Driver runs the strategy against a live market data feed on a fixed
// poll cadence. In paper mode orders go to the simulated executor; in
// live mode to the exchange. A failed poll logs the error and skips the
// cycle without touching the position.
type Driver struct {
	cfg      *config.Config
	feed     broker.MarketData
	executor broker.OrderExecutor
	recorder TradeRecorder
	logger   zerolog.Logger

	mode     models.TradingMode
	pipeline *Pipeline

	trades []models.Trade
	equity []models.EquityPoint
}

// NewDriver creates a live or paper driver. recorder may be nil.
func NewDriver(cfg *config.Config, mode models.TradingMode, feed broker.MarketData, executor broker.OrderExecutor, recorder TradeRecorder, logger zerolog.Logger) *Driver {
	symbol := cfg.Trading.Symbol

	gen := strategy.NewGenerator(cfg.Strategy)
	sizer := strategy.NewSizer(cfg.Risk.RiskPerTrade, cfg.Strategy.RiskReward)
	machine := NewMachine(symbol, mode)

	return &Driver{
		cfg:      cfg,
		feed:     feed,
		executor: executor,
		recorder: recorder,
		logger:   logging.WithSymbol(logging.WithMode(logger, string(mode)), symbol),
		mode:     mode,
		pipeline: NewPipeline(gen, sizer, machine, cfg.Trading.Capital),
	}
}

// Run polls the feed until ctx is cancelled. Each cycle fetches a fresh
// candle window, recomputes indicators over it and advances the
// pipeline by one bar. Cancellation is honored between cycles; any open
// position is left as-is for the next session to resume.
func (d *Driver) Run(ctx context.Context) error {
	d.logger.Info().
		Str("source", d.cfg.Data.Source).
		Str("interval", d.cfg.Data.Interval).
		Dur("poll_interval", d.cfg.Data.PollInterval).
		Float64("capital", d.pipeline.Capital()).
		Msg("Trading session started")

	ticker := time.NewTicker(d.cfg.Data.PollInterval)
	defer ticker.Stop()

	d.cycle(ctx)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info().
				Int("trades", len(d.trades)).
				Float64("capital", d.pipeline.Capital()).
				Bool("position_open", d.pipeline.Machine().Open()).
				Msg("Trading session stopped")
			return ctx.Err()
		case <-ticker.C:
			d.cycle(ctx)
		}
	}
}

// Summary returns the session result so far.
func (d *Driver) Summary() *Result {
	return &Result{
		Symbol:         d.cfg.Trading.Symbol,
		Mode:           d.mode,
		InitialCapital: d.cfg.Trading.Capital,
		FinalCapital:   d.pipeline.Capital(),
		Trades:         d.trades,
		EquityCurve:    d.equity,
	}
}

func (d *Driver) cycle(ctx context.Context) {
	start := time.Now()
	symbol := d.cfg.Trading.Symbol

	candles, err := d.feed.FetchCandles(ctx, symbol, d.cfg.Data.Interval, d.cfg.Data.Lookback)
	logging.LogPoll(d.logger, symbol, len(candles), time.Since(start), err)
	if err != nil {
		return
	}
	if len(candles) == 0 {
		d.logger.Warn().Msg("Feed returned no candles, skipping cycle")
		return
	}

	event := d.pipeline.ProcessBar(candles)
	d.equity = append(d.equity, event.Equity)

	if event.Signal != models.SignalNone {
		logging.LogSignal(d.logger, symbol, string(event.Signal), candles[len(candles)-1].Close)
	}

	// The exit always precedes the entry when a bar does both.
	if event.Exited != nil {
		trade := *event.Exited
		logging.LogExit(d.logger, symbol, string(trade.Direction), string(trade.ExitReason), trade.ExitPrice, trade.PnL)
		d.placeOrder(ctx, exitSide(trade.Direction), trade.Quantity, trade.ExitPrice, "exit")
		d.trades = append(d.trades, trade)

		if d.recorder != nil {
			if err := d.recorder.SaveTrade(ctx, trade); err != nil {
				d.logger.Error().Err(err).Str("trade_id", trade.ID).Msg("Failed to persist trade")
			}
		}
	}

	if event.Opened != nil {
		pos := event.Opened
		logging.LogEntry(d.logger, symbol, string(pos.Direction), pos.Quantity, pos.Entry, pos.StopLoss, pos.Target)
		d.placeOrder(ctx, entrySide(pos.Direction), pos.Quantity, pos.Entry, "entry")
	}
}

// placeOrder mirrors a position transition to the executor. The
// position state has already changed; an execution failure is logged
// but does not roll it back.
func (d *Driver) placeOrder(ctx context.Context, side models.Signal, qty int, price float64, tag string) {
	if d.executor == nil {
		return
	}

	order := models.Order{
		Symbol:   d.cfg.Trading.Symbol,
		Side:     side,
		Kind:     models.OrderKindMarket,
		Quantity: qty,
		Price:    price,
		Tag:      tag,
	}

	orderID, err := d.executor.PlaceOrder(ctx, order)
	if err != nil {
		d.logger.Error().Err(err).
			Str("side", string(side)).
			Int("quantity", qty).
			Msg("Order placement failed")
		return
	}

	d.logger.Debug().Str("order_id", orderID).Str("tag", tag).Msg("Order placed")
}

func entrySide(direction models.Direction) models.Signal {
	if direction == models.Short {
		return models.SignalSell
	}
	return models.SignalBuy
}

func exitSide(direction models.Direction) models.Signal {
	if direction == models.Short {
		return models.SignalBuy
	}
	return models.SignalSell
}
