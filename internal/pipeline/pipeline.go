// Package pipeline wires the full analysis chain: session liquidity,
// structure detection, Renko resampling, regime classification, wave
// tracking, confluence scoring, signal generation, and execution
// simulation, in that order over one in-memory bar series.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/confluence"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/sessions"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/structures"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/wave"
)

// Config aggregates every stage's tuning.
type Config struct {
	Symbol      string
	Structures  structures.Config
	Renko       renko.Config
	Wave        wave.Config
	Regime      regime.Config
	Confluence  confluence.Config
	Strategy    strategy.Config
	Backtest    backtest.Config
	MidBarWidth time.Duration // mid-timeframe resample width, default 15m
}

// Artifacts collects every intermediate series a run produces, so
// callers can report or persist any stage's output.
type Artifacts struct {
	Bars    []market.Bar
	Labels  []sessions.Label
	Levels  []sessions.Levels
	Events  []structures.Events
	Chart   *renko.Chart
	Entries []wave.Entry
	Regimes []regime.Regime
	Signals []strategy.Signal
	Result  *backtest.Result
}

type Pipeline struct {
	cfg    Config
	logger zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Pipeline {
	if cfg.MidBarWidth == 0 {
		cfg.MidBarWidth = 15 * time.Minute
	}
	if cfg.Strategy.Symbol == "" {
		cfg.Strategy.Symbol = cfg.Symbol
	}
	return &Pipeline{
		cfg:    cfg,
		logger: logger.With().Str("component", "Pipeline").Logger(),
	}
}

// Run executes the full chain over the series. The ctx is consulted
// between stages only; individual stages are synchronous in-memory
// transforms.
func (p *Pipeline) Run(ctx context.Context, bars []market.Bar) (*Artifacts, error) {
	a := &Artifacts{Bars: bars}

	if err := market.ValidateSeries(bars); err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	a.Labels, a.Levels = sessions.Track(bars)

	detector := structures.NewDetector(p.cfg.Structures)
	a.Events = detector.DetectAll(bars, a.Levels)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chart, err := renko.Build(bars, p.cfg.Renko)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	a.Chart = chart

	if len(chart.Bricks) > 0 {
		a.Entries, err = wave.Analyze(chart, p.cfg.Wave)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %w", err)
		}
	}

	classifier, err := regime.NewClassifier(p.cfg.Regime)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	a.Regimes = classifier.Classify(bars, chart)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scorer, err := confluence.NewScorer(p.cfg.Confluence)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	generator, err := strategy.NewGenerator(p.cfg.Strategy, scorer, p.contextFunc(bars), p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	a.Signals = generator.Generate(bars, a.Events, a.Entries, a.Levels)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	simulator, err := backtest.NewSimulator(p.cfg.Backtest, p.logger)
	if err != nil {
		return nil, fmt.Errorf("pipeline: %w", err)
	}
	a.Result = simulator.Run(bars, a.Signals)

	trend := 0.0
	if strength := chart.TrendStrength(0); len(strength) > 0 {
		trend = strength[len(strength)-1]
	}

	p.logger.Info().
		Int("bars", len(bars)).
		Int("signals", len(a.Signals)).
		Int("trades", a.Result.TotalTrades).
		Float64("trend_strength", trend).
		Float64("final_balance", a.Result.FinalBalance).
		Msg("Pipeline run complete")
	return a, nil
}

// contextFunc builds the higher-timeframe confluence view without
// looking ahead: only daily bars from completed days and mid bars from
// completed buckets are visible at time t.
func (p *Pipeline) contextFunc(bars []market.Bar) strategy.ContextFunc {
	daily := market.ResampleDaily(bars)
	mid := market.Resample(bars, p.cfg.MidBarWidth)
	width := p.cfg.MidBarWidth

	return func(t time.Time, close float64) confluence.Context {
		ctx := confluence.Context{Close: close}
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		for _, bar := range daily {
			if bar.Time.Before(day) {
				ctx.Daily = append(ctx.Daily, bar)
			}
		}
		for _, bar := range mid {
			if !bar.Time.Add(width).After(t) {
				ctx.Mid = append(ctx.Mid, bar)
			}
		}
		return ctx
	}
}

// Evaluator adapts the pipeline for walk-forward optimization: it
// overrides the tunable knobs with the candidate parameter set, keeps
// only signals firing under the requested regime, and simulates those.
func (p *Pipeline) Evaluator() optimizer.Evaluator {
	return func(ctx context.Context, bars []market.Bar, params optimizer.ParamSet, reg regime.Regime) (*backtest.Result, error) {
		cfg := p.cfg
		cfg.Renko.K = params.RenkoK
		cfg.Renko.FixedBrickSize = 0
		cfg.Regime.Lookback = params.RegimeLookback
		cfg.Backtest.MaxHoldMinutes = params.MaxHoldMinutes
		cfg.Strategy.ATRMultiple = params.ATRMultiple

		// Grid evaluations run concurrently; keep their logs quiet.
		run := New(cfg, p.logger.Level(zerolog.WarnLevel))
		a, err := run.Run(ctx, bars)
		if err != nil {
			return nil, err
		}

		kept := filterSignals(a, reg, params.OrderBlockFilter, cfg.Strategy.Window)
		simulator, err := backtest.NewSimulator(cfg.Backtest, run.logger)
		if err != nil {
			return nil, err
		}
		return simulator.Run(bars, kept), nil
	}
}

// filterSignals keeps signals whose bar carries the requested regime
// label, optionally requiring an aligned order block within the
// confluence window.
func filterSignals(a *Artifacts, reg regime.Regime, requireOB bool, window int) []strategy.Signal {
	if window < 1 {
		window = 6
	}
	var kept []strategy.Signal
	for _, sig := range a.Signals {
		if a.Regimes[sig.BarIndex] != reg {
			continue
		}
		if requireOB && !orderBlockNear(a.Events, sig, window) {
			continue
		}
		kept = append(kept, sig)
	}
	return kept
}

func orderBlockNear(events []structures.Events, sig strategy.Signal, window int) bool {
	end := sig.BarIndex + window
	if end > len(events) {
		end = len(events)
	}
	for j := sig.BarIndex; j < end; j++ {
		if sig.Direction == strategy.Long && events[j].OrderBlockBullish {
			return true
		}
		if sig.Direction == strategy.Short && events[j].OrderBlockBearish {
			return true
		}
	}
	return false
}
