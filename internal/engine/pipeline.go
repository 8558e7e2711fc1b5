package engine

import (
	"ema-trader/internal/indicators"
	"ema-trader/internal/models"
	"ema-trader/internal/strategy"
)

// Pipeline wires the indicator, signal, risk and position stages
// together for a single instrument. Both the replay and the live
// drivers feed it one candle window per bar; the pipeline evaluates
// exits before entries and keeps the running capital.
type Pipeline struct {
	gen     *strategy.Generator
	sizer   *strategy.Sizer
	machine *Machine
	capital float64
}

// BarEvent describes what a single bar did to the pipeline state.
// Exited and Opened are both nil on a quiet bar. Both are set when a
// crossover exit flips straight into a confirmed opposite entry, so
// Exited always precedes Opened in time.
type BarEvent struct {
	Exited *models.Trade
	Opened *models.Position
	Signal models.Signal
	Equity models.EquityPoint
}

// NewPipeline creates a pipeline with the given starting capital.
func NewPipeline(gen *strategy.Generator, sizer *strategy.Sizer, machine *Machine, capital float64) *Pipeline {
	return &Pipeline{
		gen:     gen,
		sizer:   sizer,
		machine: machine,
		capital: capital,
	}
}

// Capital returns the realized capital, entry and exit costs applied.
func (p *Pipeline) Capital() float64 {
	return p.capital
}

// Machine exposes the underlying position state machine.
func (p *Pipeline) Machine() *Machine {
	return p.machine
}

// ProcessBar advances the pipeline by one bar. The window must end at
// the bar being processed; indicators are recomputed over the whole
// window. Windows shorter than the warm-up never trade but still
// produce an equity point.
func (p *Pipeline) ProcessBar(window []models.Candle) BarEvent {
	last := window[len(window)-1]
	event := BarEvent{Signal: models.SignalNone}

	if len(window) < indicators.WarmupBars {
		event.Equity = p.equityAt(last)
		return event
	}

	curr, prev := indicators.Compute(window, p.gen.Params())

	if p.machine.Open() {
		if reason, exit := p.machine.CheckExit(last.Close, prev, curr); exit {
			trade := p.machine.Exit(last.Close, last.Timestamp, reason)
			p.capital += trade.PnL
			event.Exited = &trade
		}
	}

	// A bar that just closed a position is still evaluated for entry,
	// so a crossover exit can reverse into the opposite direction.
	if !p.machine.Open() {
		signal := p.gen.Generate(window)
		event.Signal = signal
		if signal != models.SignalNone {
			plan := p.sizer.Plan(signal, window, p.capital)
			if p.machine.Enter(signal, plan, last.Timestamp) {
				pos := p.machine.Position()
				event.Opened = &pos
			}
		}
	}

	event.Equity = p.equityAt(last)
	return event
}

// CloseOut force-closes any open position at the last bar's close,
// tagged with the given reason. It returns nil when already flat.
func (p *Pipeline) CloseOut(last models.Candle, reason models.ExitReason) *models.Trade {
	if !p.machine.Open() {
		return nil
	}
	trade := p.machine.Exit(last.Close, last.Timestamp, reason)
	p.capital += trade.PnL
	return &trade
}

func (p *Pipeline) equityAt(last models.Candle) models.EquityPoint {
	equity := p.capital
	if p.machine.Open() {
		equity += p.machine.Position().UnrealizedPnL(last.Close)
	}
	return models.EquityPoint{Timestamp: last.Timestamp, Equity: equity}
}
