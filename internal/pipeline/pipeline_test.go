package pipeline

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/structures"
)

// syntheticDay builds one trading day of minute bars: an overnight
// Asia drift followed by a morning NY session with a mild uptrend.
func syntheticDay(t *testing.T) []market.Bar {
	t.Helper()
	rng := rand.New(rand.NewSource(7))
	var bars []market.Bar
	price := 500.0

	asia := time.Date(2024, 3, 5, 19, 0, 0, 0, time.UTC)
	for i := 0; i < 60; i++ {
		price += rng.Float64()*0.4 - 0.2
		bars = append(bars, market.Bar{
			Time: asia.Add(time.Duration(i) * time.Minute),
			Open: price, High: price + 0.3, Low: price - 0.3, Close: price,
		})
	}
	ny := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
	for i := 0; i < 90; i++ {
		price += rng.Float64()*0.6 - 0.2
		bars = append(bars, market.Bar{
			Time: ny.Add(time.Duration(i) * time.Minute),
			Open: price, High: price + 0.4, Low: price - 0.4, Close: price,
		})
	}
	return bars
}

func testConfig() Config {
	return Config{
		Symbol:     "SPY",
		Structures: structures.Config{ATRPeriod: 5},
		Renko:      renko.Config{FixedBrickSize: 0.5},
	}
}

func TestRunProducesConsistentArtifacts(t *testing.T) {
	bars := syntheticDay(t)
	p := New(testConfig(), zerolog.Nop())

	a, err := p.Run(context.Background(), bars)
	if err != nil {
		t.Fatal(err)
	}
	if len(a.Labels) != len(bars) || len(a.Levels) != len(bars) {
		t.Errorf("Session series lengths = %d/%d, want %d", len(a.Labels), len(a.Levels), len(bars))
	}
	if len(a.Events) != len(bars) {
		t.Errorf("Event series length = %d, want %d", len(a.Events), len(bars))
	}
	if len(a.Regimes) != len(bars) {
		t.Errorf("Regime series length = %d, want %d", len(a.Regimes), len(bars))
	}
	if a.Chart == nil || a.Chart.BrickSize != 0.5 {
		t.Errorf("Chart = %+v, want brick size 0.5", a.Chart)
	}
	if a.Result == nil {
		t.Fatal("Expected a simulation result")
	}
	if a.Result.TotalTrades != len(a.Result.Trades) {
		t.Errorf("Result trade count %d disagrees with trade list %d", a.Result.TotalTrades, len(a.Result.Trades))
	}
}

func TestRunRejectsUnorderedSeries(t *testing.T) {
	bars := syntheticDay(t)
	bars[1].Time = bars[0].Time
	p := New(testConfig(), zerolog.Nop())
	if _, err := p.Run(context.Background(), bars); err == nil {
		t.Error("Expected error for an unordered series")
	}
}

func TestRunCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := New(testConfig(), zerolog.Nop())
	if _, err := p.Run(ctx, syntheticDay(t)); err == nil {
		t.Error("Expected error from a canceled context")
	}
}

func TestFilterSignalsByRegime(t *testing.T) {
	a := &Artifacts{
		Signals: []strategy.Signal{
			{BarIndex: 0, Direction: strategy.Long},
			{BarIndex: 1, Direction: strategy.Long},
		},
		Regimes: []regime.Regime{regime.Bull, regime.Sideways},
		Events:  make([]structures.Events, 2),
	}

	kept := filterSignals(a, regime.Bull, false, 6)
	if len(kept) != 1 || kept[0].BarIndex != 0 {
		t.Errorf("Expected only the bull-regime signal, got %+v", kept)
	}
}

func TestFilterSignalsOrderBlockGate(t *testing.T) {
	events := make([]structures.Events, 4)
	events[2].OrderBlockBullish = true
	a := &Artifacts{
		Signals: []strategy.Signal{
			{BarIndex: 0, Direction: strategy.Long},
			{BarIndex: 3, Direction: strategy.Long},
		},
		Regimes: []regime.Regime{regime.Bull, regime.Bull, regime.Bull, regime.Bull},
		Events:  events,
	}

	// Signal at bar 0 sees the block at bar 2 inside its window; the
	// one at bar 3 does not.
	kept := filterSignals(a, regime.Bull, true, 3)
	if len(kept) != 1 || kept[0].BarIndex != 0 {
		t.Errorf("Expected only the signal with a nearby order block, got %+v", kept)
	}
}

func TestEvaluatorOverridesParams(t *testing.T) {
	bars := syntheticDay(t)
	p := New(testConfig(), zerolog.Nop())
	eval := p.Evaluator()

	result, err := eval(context.Background(), bars, optimizer.ParamSet{
		RenkoK:         1.0,
		RegimeLookback: 10,
		MaxHoldMinutes: 30,
		ATRMultiple:    2.5,
	}, regime.Bull)
	if err != nil {
		t.Fatal(err)
	}
	if result == nil {
		t.Fatal("Expected a result from the evaluator")
	}
}
