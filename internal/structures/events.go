// Package structures implements the five ICT structure detectors:
// liquidity sweeps, displacement candles, fair value gaps, market
// structure shifts, and order blocks. Each detector is independently
// callable; DetectAll composes them in dependency order.
package structures

import (
	"math"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/sessions"
)

// Events carries every structure flag attached to one bar. Multiple
// structures may co-occur on a single bar. Price bounds (FVG, order
// block) are NaN when the corresponding flag is false. ATR is NaN while
// the rolling window is not yet full.
type Events struct {
	SweepBullish bool
	SweepBearish bool
	SweepSource  sessions.Label

	DisplacementBullish bool
	DisplacementBearish bool
	ATR                 float64

	FVGBullish bool
	FVGBearish bool
	FVGLow     float64
	FVGHigh    float64

	MSSBullish bool
	MSSBearish bool

	OrderBlockBullish bool
	OrderBlockBearish bool
	OrderBlockLow     float64
	OrderBlockHigh    float64
}

// Config holds detector tuning. Zero values are replaced by production
// defaults in NewDetector.
type Config struct {
	ATRPeriod             int     // default 14
	DisplacementThreshold float64 // ATR multiple, default 1.0
	OrderBlockLookback    int     // bars scanned backward, default 20
}

// Detector runs the composed structure detection pass.
type Detector struct {
	cfg Config
}

// NewDetector creates a detector with production defaults for any unset
// config field.
func NewDetector(cfg Config) *Detector {
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}
	if cfg.DisplacementThreshold <= 0 {
		cfg.DisplacementThreshold = 1.0
	}
	if cfg.OrderBlockLookback <= 0 {
		cfg.OrderBlockLookback = 20
	}
	return &Detector{cfg: cfg}
}

// DetectAll runs all five detectors in order (order blocks last, since
// they depend on displacement flags) and returns one Events record per
// bar. Missing session levels or ATR
// values make the affected detector a no-op for that bar, never an
// error.
func (d *Detector) DetectAll(bars []market.Bar, levels []sessions.Levels) []Events {
	events := make([]Events, len(bars))
	nan := math.NaN()
	for i := range events {
		events[i].ATR = nan
		events[i].FVGLow = nan
		events[i].FVGHigh = nan
		events[i].OrderBlockLow = nan
		events[i].OrderBlockHigh = nan
	}

	DetectSweeps(bars, levels, events)
	DetectDisplacement(bars, events, d.cfg.ATRPeriod, d.cfg.DisplacementThreshold)
	DetectFVGs(bars, events)
	DetectMSS(bars, events)
	DetectOrderBlocks(bars, events, d.cfg.OrderBlockLookback)

	return events
}
