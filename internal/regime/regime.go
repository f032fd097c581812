// Package regime classifies the prevailing market state from Renko
// persistence and price slope so downstream components can switch
// parameter sets per regime.
package regime

import (
	"fmt"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
)

// Regime is a market state label.
type Regime string

const (
	Bull     Regime = "bull"
	Bear     Regime = "bear"
	Sideways Regime = "sideways"
)

// Config tunes the classifier.
type Config struct {
	Lookback          int     // rolling window, default 20
	StrengthThreshold float64 // renko strength beyond which a trend counts, default 0.3
}

// Classifier labels each bar with a regime.
type Classifier struct {
	cfg Config
}

func NewClassifier(cfg Config) (*Classifier, error) {
	if cfg.Lookback == 0 {
		cfg.Lookback = 20
	}
	if cfg.Lookback < 2 {
		return nil, fmt.Errorf("regime: lookback must be at least 2, got %d", cfg.Lookback)
	}
	if cfg.StrengthThreshold == 0 {
		cfg.StrengthThreshold = 0.3
	}
	if cfg.StrengthThreshold < 0 || cfg.StrengthThreshold > 1 {
		return nil, fmt.Errorf("regime: strength threshold must be in (0, 1], got %v", cfg.StrengthThreshold)
	}
	return &Classifier{cfg: cfg}, nil
}

// Classify returns a per-bar regime series. Bull needs both sustained
// up bricks and a positive price slope; bear mirrors it; everything
// else is sideways. Bars before the windows fill are sideways.
func (c *Classifier) Classify(bars []market.Bar, chart *renko.Chart) []Regime {
	out := make([]Regime, len(bars))
	for i := range out {
		out[i] = Sideways
	}
	if len(bars) == 0 || chart == nil {
		return out
	}

	directions := chart.DirectionSeries(bars)
	strength := rollingMean(directions, c.cfg.Lookback)
	slopes := market.SlopeSeries(bars, c.cfg.Lookback)

	for i := range bars {
		switch {
		case strength[i] > c.cfg.StrengthThreshold && slopes[i] > 0:
			out[i] = Bull
		case strength[i] < -c.cfg.StrengthThreshold && slopes[i] < 0:
			out[i] = Bear
		}
	}
	return out
}

func rollingMean(values []int, window int) []float64 {
	out := make([]float64, len(values))
	sum := 0
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := i + 1
		if n > window {
			n = window
		}
		out[i] = float64(sum) / float64(n)
	}
	return out
}
