// Package sessions labels bars with their trading session and tracks
// session liquidity levels (Asia/London highs and lows) without
// look-ahead.
package sessions

import (
	"math"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// Label identifies the trading session a bar belongs to, derived purely
// from local time-of-day.
type Label string

const (
	Asia    Label = "asia"
	London  Label = "london"
	NewYork Label = "ny"
	Other   Label = "other"
)

// Classify returns the session for a timestamp. Boundaries (local time):
// NY 09:30-16:00, London 03:00-09:30, Asia 18:00-03:00 spanning
// midnight, Other for the 16:00-18:00 gap.
func Classify(t time.Time) Label {
	minutes := t.Hour()*60 + t.Minute()
	switch {
	case minutes >= 9*60+30 && minutes < 16*60:
		return NewYork
	case minutes >= 3*60 && minutes < 9*60+30:
		return London
	case minutes >= 18*60 || minutes < 3*60:
		return Asia
	default:
		return Other
	}
}

// TradingDay returns the trading-day key for a timestamp. The day
// boundary is shifted +6h so the Asia session, which straddles
// midnight, groups entirely under the next business day, the day whose
// London/NY sessions trade against that completed Asia range.
func TradingDay(t time.Time) time.Time {
	shifted := t.Add(6 * time.Hour)
	y, m, d := shifted.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Levels holds the session liquidity levels visible to one bar. Values
// are NaN until the corresponding session has printed at least one bar
// in the current trading day.
type Levels struct {
	AsiaHigh   float64
	AsiaLow    float64
	LondonHigh float64
	LondonLow  float64
}

func emptyLevels() Levels {
	nan := math.NaN()
	return Levels{AsiaHigh: nan, AsiaLow: nan, LondonHigh: nan, LondonLow: nan}
}

// HasAsia reports whether Asia levels are available.
func (l Levels) HasAsia() bool { return !math.IsNaN(l.AsiaLow) }

// HasLondon reports whether London levels are available.
func (l Levels) HasLondon() bool { return !math.IsNaN(l.LondonLow) }

// Track computes per-bar session labels and liquidity levels for an
// ordered bar series. Levels accumulate bar-by-bar within a trading day
// and forward-fill across the rest of that day, so a bar only ever sees
// levels built from bars at or before its own position. A session with
// zero bars in a trading day leaves its levels NaN for the whole day.
func Track(bars []market.Bar) ([]Label, []Levels) {
	labels := make([]Label, len(bars))
	levels := make([]Levels, len(bars))

	var day time.Time
	current := emptyLevels()

	for i, bar := range bars {
		key := TradingDay(bar.Time)
		if i == 0 || !key.Equal(day) {
			day = key
			current = emptyLevels()
		}

		label := Classify(bar.Time)
		labels[i] = label

		switch label {
		case Asia:
			current.AsiaHigh = maxLevel(current.AsiaHigh, bar.High)
			current.AsiaLow = minLevel(current.AsiaLow, bar.Low)
		case London:
			current.LondonHigh = maxLevel(current.LondonHigh, bar.High)
			current.LondonLow = minLevel(current.LondonLow, bar.Low)
		}

		levels[i] = current
	}
	return labels, levels
}

func maxLevel(current, v float64) float64 {
	if math.IsNaN(current) || v > current {
		return v
	}
	return current
}

func minLevel(current, v float64) float64 {
	if math.IsNaN(current) || v < current {
		return v
	}
	return current
}
