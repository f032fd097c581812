// Package strategy turns detected structures, waves, and confluence
// context into trade signals inside the morning session gate.
package strategy

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/confluence"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/sessions"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/structures"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/wave"
)

// ContextFunc supplies the higher-timeframe confluence view as of a
// given bar. Implementations must only use data at or before t.
type ContextFunc func(t time.Time, close float64) confluence.Context

// Config tunes signal generation.
type Config struct {
	Symbol            string
	Window            int        // bars scanned after the sweep bar, inclusive, default 6
	ATRMultiple       float64    // target distance in ATRs, default 5.0
	TargetMode        TargetMode // default TargetATR
	MinTargetDistance float64    // skip signals with targets closer than this, default 0.15
	GateOpenMinute    int        // minutes after midnight local, default 570 (09:30)
	GateCloseMinute   int        // default 660 (11:00)
}

// Generator scans a bar series for the sweep + displacement + MSS
// stack. A sweep at bar i qualifies when the confirming structures
// appear anywhere in bars i..i+Window-1; the signal is stamped on the
// sweep bar and the simulator enters on the following bar's open.
type Generator struct {
	cfg    Config
	scorer *confluence.Scorer
	ctxFn  ContextFunc
	logger zerolog.Logger
}

// NewGenerator builds a Generator. scorer and ctxFn may be nil, in
// which case the confluence gate is skipped and every structural match
// passes with full confidence.
func NewGenerator(cfg Config, scorer *confluence.Scorer, ctxFn ContextFunc, logger zerolog.Logger) (*Generator, error) {
	if cfg.Window == 0 {
		cfg.Window = 6
	}
	if cfg.Window < 1 {
		return nil, fmt.Errorf("strategy: window must be positive, got %d", cfg.Window)
	}
	if cfg.ATRMultiple == 0 {
		cfg.ATRMultiple = 5.0
	}
	if cfg.ATRMultiple < 0 {
		return nil, fmt.Errorf("strategy: atr multiple must be positive, got %v", cfg.ATRMultiple)
	}
	if cfg.TargetMode == "" {
		cfg.TargetMode = TargetATR
	}
	if cfg.TargetMode != TargetATR && cfg.TargetMode != TargetWave && cfg.TargetMode != TargetSession {
		return nil, fmt.Errorf("strategy: unknown target mode %q", cfg.TargetMode)
	}
	if cfg.MinTargetDistance == 0 {
		cfg.MinTargetDistance = 0.15
	}
	if cfg.GateOpenMinute == 0 && cfg.GateCloseMinute == 0 {
		cfg.GateOpenMinute = 9*60 + 30
		cfg.GateCloseMinute = 11 * 60
	}
	if cfg.GateCloseMinute <= cfg.GateOpenMinute {
		return nil, fmt.Errorf("strategy: gate close %d must be after gate open %d", cfg.GateCloseMinute, cfg.GateOpenMinute)
	}
	return &Generator{
		cfg:    cfg,
		scorer: scorer,
		ctxFn:  ctxFn,
		logger: logger.With().Str("component", "SignalGenerator").Logger(),
	}, nil
}

// Generate produces all signals over the series. entries must be the
// wave entries detected on the same series' Renko chart, and levels
// the per-bar session levels; levels may be nil unless TargetSession
// is configured.
func (g *Generator) Generate(bars []market.Bar, events []structures.Events, entries []wave.Entry, levels []sessions.Levels) []Signal {
	if len(bars) != len(events) {
		g.logger.Error().
			Int("bars", len(bars)).
			Int("events", len(events)).
			Msg("Bar and event series lengths differ, no signals generated")
		return nil
	}

	entryAt := g.mapEntries(bars, entries)

	var signals []Signal
	for i := range bars {
		if !g.inGate(bars[i].Time) {
			continue
		}
		if sig := g.evaluate(bars, events, entryAt, levels, i, Long); sig != nil {
			signals = append(signals, *sig)
			continue
		}
		if sig := g.evaluate(bars, events, entryAt, levels, i, Short); sig != nil {
			signals = append(signals, *sig)
		}
	}
	return signals
}

func (g *Generator) evaluate(bars []market.Bar, events []structures.Events, entryAt map[int]*wave.Entry, levels []sessions.Levels, i int, dir Direction) *Signal {
	e := events[i]
	if dir == Long && !e.SweepBullish {
		return nil
	}
	if dir == Short && !e.SweepBearish {
		return nil
	}

	end := i + g.cfg.Window
	if end > len(bars) {
		end = len(bars)
	}

	var displacement, mss bool
	var waveEntry *wave.Entry
	for j := i; j < end; j++ {
		w := events[j]
		if dir == Long {
			displacement = displacement || w.DisplacementBullish
			mss = mss || w.MSSBullish
		} else {
			displacement = displacement || w.DisplacementBearish
			mss = mss || w.MSSBearish
		}
		if we, ok := entryAt[j]; ok && waveEntry == nil && Direction(we.Wave.Direction) == dir {
			waveEntry = we
		}
	}
	if !mss || (!displacement && waveEntry == nil) {
		return nil
	}

	atr := e.ATR
	reasons := []string{"sweep:" + string(e.SweepSource), "mss"}
	if displacement {
		reasons = append(reasons, "displacement")
	}
	if waveEntry != nil {
		reasons = append(reasons, "wave_entry")
	}

	price := bars[i].Close
	nan := math.NaN()
	lv := sessions.Levels{AsiaHigh: nan, AsiaLow: nan, LondonHigh: nan, LondonLow: nan}
	if i < len(levels) {
		lv = levels[i]
	}
	target, ok := g.target(price, atr, dir, waveEntry, lv)
	if !ok {
		return nil
	}
	if math.Abs(target-price) < g.cfg.MinTargetDistance {
		g.logger.Debug().
			Time("bar", bars[i].Time).
			Float64("target", target).
			Float64("price", price).
			Msg("Target too close to entry, signal skipped")
		return nil
	}

	conf := 1.0
	if g.scorer != nil && g.ctxFn != nil {
		score := g.scorer.Evaluate(g.ctxFn(bars[i].Time, price), events, i, int(dir))
		if !score.Accepted {
			g.logger.Debug().
				Time("bar", bars[i].Time).
				Str("direction", dir.String()).
				Float64("confidence", score.Confidence).
				Msg("Signal rejected by confluence")
			return nil
		}
		conf = score.Confidence
	}

	sig := &Signal{
		ID:         uuid.New(),
		Symbol:     g.cfg.Symbol,
		Time:       bars[i].Time,
		BarIndex:   i,
		Direction:  dir,
		Price:      price,
		Target:     target,
		ATR:        atr,
		Confidence: conf,
		WaveEntry:  waveEntry,
		Reasons:    reasons,
	}
	g.logger.Info().
		Time("bar", sig.Time).
		Str("direction", dir.String()).
		Float64("price", price).
		Float64("target", target).
		Float64("confidence", conf).
		Msg("Signal generated")
	return sig
}

// target picks the profit target for a signal. Returns false when the
// data needed for the configured mode is missing.
func (g *Generator) target(price, atr float64, dir Direction, waveEntry *wave.Entry, lv sessions.Levels) (float64, bool) {
	if g.cfg.TargetMode == TargetWave && waveEntry != nil {
		return waveEntry.TP1, true
	}
	if g.cfg.TargetMode == TargetSession {
		return sessionTarget(price, dir, lv), true
	}
	if math.IsNaN(atr) {
		return 0, false
	}
	return price + float64(dir)*g.cfg.ATRMultiple*atr, true
}

// sessionTarget aims at the nearest session level on the profit side
// of price. With no level beyond price it falls back to a one percent
// move.
func sessionTarget(price float64, dir Direction, lv sessions.Levels) float64 {
	var candidates []float64
	if lv.HasAsia() {
		candidates = append(candidates, lv.AsiaHigh, lv.AsiaLow)
	}
	if lv.HasLondon() {
		candidates = append(candidates, lv.LondonHigh, lv.LondonLow)
	}

	best := math.NaN()
	for _, c := range candidates {
		if float64(dir)*(c-price) <= 0 {
			continue
		}
		if math.IsNaN(best) || math.Abs(c-price) < math.Abs(best-price) {
			best = c
		}
	}
	if !math.IsNaN(best) {
		return best
	}
	return price * (1 + 0.01*float64(dir))
}

func (g *Generator) inGate(t time.Time) bool {
	minute := t.Hour()*60 + t.Minute()
	return minute >= g.cfg.GateOpenMinute && minute < g.cfg.GateCloseMinute
}

// mapEntries attaches each wave entry to the index of the bar whose
// close completed its triggering brick.
func (g *Generator) mapEntries(bars []market.Bar, entries []wave.Entry) map[int]*wave.Entry {
	out := make(map[int]*wave.Entry, len(entries))
	j := 0
	for k := range entries {
		entry := &entries[k]
		for j < len(bars) && bars[j].Time.Before(entry.Time) {
			j++
		}
		if j < len(bars) && bars[j].Time.Equal(entry.Time) {
			out[j] = entry
		}
	}
	return out
}

