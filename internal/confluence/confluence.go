// Package confluence scores how well higher-timeframe context agrees
// with a candidate signal. The base score comes from the daily trend,
// positional proxies nudge it, and detected ICT structures blend in
// multiplicatively.
package confluence

import (
	"fmt"
	"math"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/structures"
)

// Position of the last price relative to a reference level.
type Position string

const (
	Above Position = "above"
	Below Position = "below"
	At    Position = "at"
)

// Structure weights for the ICT score. They sum to 1 so the score
// stays in [0, 1].
const (
	weightSweep        = 0.25
	weightDisplacement = 0.25
	weightMSS          = 0.20
	weightFVG          = 0.15
	weightOrderBlock   = 0.15
)

// Config tunes the scorer.
type Config struct {
	DailyLookback int     // daily bars for the trend slope, default 20
	MidWindow     int     // mid-timeframe bars for the typical-price average, default 10
	POCLookback   int     // daily bars for the point-of-control proxy, default 20
	ICTLookback   int     // bars scanned for structures behind a signal, default 20
	MinConfidence float64 // acceptance floor, default 0.40
}

// Context is the higher-timeframe view available at signal time. Both
// series must end at or before the signal bar.
type Context struct {
	Daily []market.Bar
	Mid   []market.Bar
	Close float64
}

// Score is the scorer's verdict on one candidate.
type Score struct {
	Direction  int // +1 long bias, -1 short, 0 flat
	Base       float64
	ICT        float64
	Confidence float64
	Accepted   bool
}

type Scorer struct {
	cfg Config
}

func NewScorer(cfg Config) (*Scorer, error) {
	if cfg.DailyLookback == 0 {
		cfg.DailyLookback = 20
	}
	if cfg.MidWindow == 0 {
		cfg.MidWindow = 10
	}
	if cfg.POCLookback == 0 {
		cfg.POCLookback = 20
	}
	if cfg.ICTLookback == 0 {
		cfg.ICTLookback = 20
	}
	if cfg.MinConfidence == 0 {
		cfg.MinConfidence = 0.40
	}
	if cfg.DailyLookback < 2 || cfg.MidWindow < 1 || cfg.POCLookback < 1 || cfg.ICTLookback < 1 {
		return nil, fmt.Errorf("confluence: lookbacks must be positive, got %+v", cfg)
	}
	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		return nil, fmt.Errorf("confluence: min confidence must be in [0, 1], got %v", cfg.MinConfidence)
	}
	return &Scorer{cfg: cfg}, nil
}

// Evaluate blends the higher-timeframe base score with the ICT
// structure score for a signal in the given direction at bar index i
// of the series the events were detected on.
func (s *Scorer) Evaluate(ctx Context, events []structures.Events, i, direction int) Score {
	bias, base := s.BaseConfidence(ctx)
	ict := s.ICTScore(events, i, direction)
	conf := base * (0.5 + 0.5*ict)
	return Score{
		Direction:  bias,
		Base:       base,
		ICT:        ict,
		Confidence: conf,
		Accepted:   conf >= s.cfg.MinConfidence && bias == direction,
	}
}

// BaseConfidence derives the daily trend direction and a confidence in
// [0.4, 0.8] from the slope of daily closes, then adds +0.05 for each
// positional proxy agreeing with that direction, capped at 1.0.
// Returns direction 0 with zero confidence when the daily series is
// too short to establish a trend.
func (s *Scorer) BaseConfidence(ctx Context) (int, float64) {
	n := s.cfg.DailyLookback
	if len(ctx.Daily) < n {
		return 0, 0
	}
	window := ctx.Daily[len(ctx.Daily)-n:]
	slope := trendSlope(window)
	direction := 1
	if slope < 0 {
		direction = -1
	}
	conf := 0.4 + 0.4*math.Tanh(math.Abs(slope)/0.02)

	if agrees(s.typicalPricePosition(ctx), direction) {
		conf += 0.05
	}
	if agrees(s.pocPosition(ctx), direction) {
		conf += 0.05
	}
	return direction, math.Min(conf, 1.0)
}

// ICTScore sums structure weights for each structure type present in
// the signal's direction within the lookback ending at bar i.
func (s *Scorer) ICTScore(events []structures.Events, i, direction int) float64 {
	if i < 0 || i >= len(events) {
		return 0
	}
	start := i - s.cfg.ICTLookback + 1
	if start < 0 {
		start = 0
	}

	var sweep, disp, mss, fvg, ob bool
	for j := start; j <= i; j++ {
		e := events[j]
		if direction > 0 {
			sweep = sweep || e.SweepBullish
			disp = disp || e.DisplacementBullish
			mss = mss || e.MSSBullish
			fvg = fvg || e.FVGBullish
			ob = ob || e.OrderBlockBullish
		} else {
			sweep = sweep || e.SweepBearish
			disp = disp || e.DisplacementBearish
			mss = mss || e.MSSBearish
			fvg = fvg || e.FVGBearish
			ob = ob || e.OrderBlockBearish
		}
	}

	score := 0.0
	if sweep {
		score += weightSweep
	}
	if disp {
		score += weightDisplacement
	}
	if mss {
		score += weightMSS
	}
	if fvg {
		score += weightFVG
	}
	if ob {
		score += weightOrderBlock
	}
	return score
}

// typicalPricePosition classifies the last close against a short
// rolling average of typical price on the mid timeframe, falling back
// to daily bars when the mid series is too short. Tolerance is 0.1%.
func (s *Scorer) typicalPricePosition(ctx Context) Position {
	series := ctx.Mid
	if len(series) < s.cfg.MidWindow {
		series = ctx.Daily
	}
	if len(series) < s.cfg.MidWindow {
		return At
	}
	window := series[len(series)-s.cfg.MidWindow:]
	sum := 0.0
	for _, bar := range window {
		sum += bar.TypicalPrice()
	}
	return classifyPosition(ctx.Close, sum/float64(len(window)), 0.001)
}

// pocPosition classifies the last close against the most traded price
// level, proxied by the mode of daily closes rounded to a tenth.
// Tolerance is 0.2%.
func (s *Scorer) pocPosition(ctx Context) Position {
	if len(ctx.Daily) == 0 {
		return At
	}
	start := len(ctx.Daily) - s.cfg.POCLookback
	if start < 0 {
		start = 0
	}
	counts := make(map[float64]int)
	for _, bar := range ctx.Daily[start:] {
		counts[math.Round(bar.Close*10)/10]++
	}
	poc := math.NaN()
	best := 0
	for level, count := range counts {
		if count > best || (count == best && level < poc) {
			best = count
			poc = level
		}
	}
	return classifyPosition(ctx.Close, poc, 0.002)
}

func classifyPosition(price, ref, tolerance float64) Position {
	if math.IsNaN(ref) || ref == 0 {
		return At
	}
	switch {
	case price > ref*(1+tolerance):
		return Above
	case price < ref*(1-tolerance):
		return Below
	default:
		return At
	}
}

func agrees(p Position, direction int) bool {
	return (direction > 0 && p == Above) || (direction < 0 && p == Below)
}

// trendSlope is the OLS slope of closes per bar, normalized by the
// last close so the tanh squash behaves the same at any price level.
func trendSlope(bars []market.Bar) float64 {
	n := len(bars)
	var sumX, sumY, sumXY, sumXX float64
	for i, bar := range bars {
		x := float64(i)
		sumX += x
		sumY += bar.Close
		sumXY += x * bar.Close
		sumXX += x * x
	}
	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	slope := (fn*sumXY - sumX*sumY) / denom
	last := bars[n-1].Close
	if last == 0 {
		return 0
	}
	return slope / last
}
