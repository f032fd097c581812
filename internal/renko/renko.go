// Package renko resamples a time-driven bar series into price-driven
// fixed-magnitude bricks.
package renko

import (
	"fmt"
	"math"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// Brick is a single Renko brick. Direction is +1 for up, -1 for down.
// Timestamp is the time of the bar whose close completed the brick.
type Brick struct {
	Time       time.Time
	BrickClose float64
	Direction  int
}

// Chart is a built Renko series plus the brick size shared by every
// brick in it.
type Chart struct {
	Bricks    []Brick
	BrickSize float64
}

// Config selects brick sizing. Exactly one mode applies: when
// FixedBrickSize > 0 it wins, otherwise brick size is
// K x median(ATR(ATRPeriod)) over the whole series.
type Config struct {
	K              float64 // ATR multiple, default 1.0
	FixedBrickSize float64 // fixed size when > 0
	ATRPeriod      int     // default 14
}

// minBrickSize floors ATR-derived sizes so a flat series cannot produce
// a zero-height brick.
const minBrickSize = 0.01

// Build converts a bar series into Renko bricks. The running brick
// close starts at the first bar's close; each subsequent close emits up
// bricks while it exceeds current+size and down bricks while it falls
// below current-size, so one bar may emit zero or several bricks.
func Build(bars []market.Bar, cfg Config) (*Chart, error) {
	if cfg.FixedBrickSize < 0 {
		return nil, fmt.Errorf("renko: fixed brick size must be positive, got %v", cfg.FixedBrickSize)
	}
	if cfg.K == 0 {
		cfg.K = 1.0
	}
	if cfg.K < 0 {
		return nil, fmt.Errorf("renko: ATR multiple must be positive, got %v", cfg.K)
	}
	if cfg.ATRPeriod <= 0 {
		cfg.ATRPeriod = 14
	}

	if len(bars) == 0 {
		return &Chart{}, nil
	}

	size := cfg.FixedBrickSize
	if size == 0 {
		median := market.MedianATR(bars, cfg.ATRPeriod)
		if math.IsNaN(median) {
			// Not enough bars for any ATR window; no bricks can form.
			return &Chart{BrickSize: minBrickSize}, nil
		}
		size = math.Max(cfg.K*median, minBrickSize)
	}

	chart := &Chart{BrickSize: size}
	current := bars[0].Close

	for _, bar := range bars {
		price := bar.Close
		for price >= current+size {
			current += size
			chart.Bricks = append(chart.Bricks, Brick{Time: bar.Time, BrickClose: current, Direction: 1})
		}
		for price <= current-size {
			current -= size
			chart.Bricks = append(chart.Bricks, Brick{Time: bar.Time, BrickClose: current, Direction: -1})
		}
	}
	return chart, nil
}

// DirectionSeries back-projects brick direction onto the original bar
// index: for each bar, the direction of the most recently completed
// brick at or before that bar's timestamp, 0 if none yet. This is how
// brick-level signals rejoin bar-level time.
func (c *Chart) DirectionSeries(bars []market.Bar) []int {
	directions := make([]int, len(bars))
	j := 0
	last := 0
	for i, bar := range bars {
		for j < len(c.Bricks) && !c.Bricks[j].Time.After(bar.Time) {
			last = c.Bricks[j].Direction
			j++
		}
		directions[i] = last
	}
	return directions
}

// TrendStrength returns the rolling mean of brick direction over
// lookback bricks, in [-1, 1]. Windows shorter than lookback use the
// bricks available so far.
func (c *Chart) TrendStrength(lookback int) []float64 {
	if lookback <= 0 {
		lookback = 10
	}
	out := make([]float64, len(c.Bricks))
	sum := 0
	for i, b := range c.Bricks {
		sum += b.Direction
		if i >= lookback {
			sum -= c.Bricks[i-lookback].Direction
		}
		n := i + 1
		if n > lookback {
			n = lookback
		}
		out[i] = float64(sum) / float64(n)
	}
	return out
}
