package strategy

import (
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"ema-trader/internal/models"
)

func flatSeriesWithSwing(entry, swingLow, swingHigh float64) []models.Candle {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	candles := make([]models.Candle, 12)
	for i := range candles {
		candles[i] = candle(start.Add(time.Duration(i)*5*time.Minute), entry, swingHigh, swingLow, entry, 100)
	}
	candles[len(candles)-1].Close = entry
	return candles
}

func TestPlanBuy(t *testing.T) {
	sizer := NewSizer(0.02, 2.0)
	candles := flatSeriesWithSwing(101, 99, 102)

	plan := sizer.Plan(models.SignalBuy, candles, 10000)

	wantStop := 99 * 0.998 // 98.802
	wantTarget := 101 + 2*(101-wantStop)
	if !almost(plan.StopLoss, wantStop) {
		t.Errorf("StopLoss = %v, want %v", plan.StopLoss, wantStop)
	}
	if !almost(plan.Target, wantTarget) {
		t.Errorf("Target = %v, want %v", plan.Target, wantTarget)
	}

	// Budget 200, risk per share 2.198: floor(200/2.198) = 90,
	// below the capital cap floor(10000/101) = 99.
	if plan.Quantity != 90 {
		t.Errorf("Quantity = %d, want 90", plan.Quantity)
	}
	if !plan.Tradeable() {
		t.Error("plan should be tradeable")
	}
}

func TestPlanSell(t *testing.T) {
	sizer := NewSizer(0.02, 2.0)
	candles := flatSeriesWithSwing(101, 99, 103)

	plan := sizer.Plan(models.SignalSell, candles, 10000)

	wantStop := 103 * 1.002 // 103.206
	wantTarget := 101 - 2*(wantStop-101)
	if !almost(plan.StopLoss, wantStop) {
		t.Errorf("StopLoss = %v, want %v", plan.StopLoss, wantStop)
	}
	if !almost(plan.Target, wantTarget) {
		t.Errorf("Target = %v, want %v", plan.Target, wantTarget)
	}
	if plan.Quantity <= 0 {
		t.Errorf("Quantity = %d, want positive", plan.Quantity)
	}
}

func TestPlanCapitalCap(t *testing.T) {
	// Budget 20, risk per share 0.002: uncapped quantity would be
	// 10000; the notional cap allows only floor(1000/101) = 9.
	sizer := NewSizer(0.02, 2.0)
	candles := flatSeriesWithSwing(101, 100.998/0.998, 102)
	candles[len(candles)-1].Close = 101

	plan := sizer.Plan(models.SignalBuy, candles, 1000)

	if !almost(plan.Entry-plan.StopLoss, 0.002) {
		t.Fatalf("risk per share = %v, want 0.002", plan.Entry-plan.StopLoss)
	}
	if plan.Quantity != 9 {
		t.Errorf("Quantity = %d, want 9 (capital capped)", plan.Quantity)
	}
}

func TestPlanDegenerateRisk(t *testing.T) {
	// Swing low buffered to at or above the entry price: the risk per
	// share is not positive and the plan must come back untradeable,
	// not an error.
	sizer := NewSizer(0.02, 2.0)
	candles := flatSeriesWithSwing(101, 102, 103)

	plan := sizer.Plan(models.SignalBuy, candles, 10000)

	if plan.Quantity != 0 {
		t.Errorf("Quantity = %d, want 0 for non-positive risk", plan.Quantity)
	}
	if plan.Tradeable() {
		t.Error("degenerate plan must not be tradeable")
	}
}

func TestPlanNoneSignal(t *testing.T) {
	sizer := NewSizer(0.02, 2.0)
	plan := sizer.Plan(models.SignalNone, flatSeriesWithSwing(101, 99, 102), 10000)
	if plan.Tradeable() {
		t.Error("NONE signal must not produce a tradeable plan")
	}
}

func almost(a, b float64) bool {
	return math.Abs(a-b) < 1e-6
}

// planInputGen generates candle windows with a positive swing range
// below the entry close.
func planInputGen() gopter.Gen {
	return gen.Struct(reflect.TypeOf(struct {
		Entry   float64
		Spread  float64
		Capital float64
	}{}), map[string]gopter.Gen{
		"Entry":   gen.Float64Range(10, 5000),
		"Spread":  gen.Float64Range(0.001, 500),
		"Capital": gen.Float64Range(100, 1_000_000),
	})
}

func TestProperty_RiskBudgetNeverExceeded(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	const riskPerTrade = 0.02
	sizer := NewSizer(riskPerTrade, 2.0)

	properties.Property("quantity x risk per share stays within the budget", prop.ForAll(
		func(input struct {
			Entry   float64
			Spread  float64
			Capital float64
		}) bool {
			candles := flatSeriesWithSwing(input.Entry, input.Entry-input.Spread, input.Entry+input.Spread)
			plan := sizer.Plan(models.SignalBuy, candles, input.Capital)

			risk := math.Abs(plan.Entry - plan.StopLoss)
			return float64(plan.Quantity)*risk <= input.Capital*riskPerTrade+1e-9
		},
		planInputGen(),
	))

	properties.TestingRun(t)
}
