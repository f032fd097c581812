package market

import (
	"fmt"
	"time"
)

// Bar represents a single OHLCV bar at minute resolution. Bars are
// immutable once ingested; timestamps are zone-aware and strictly
// increasing within a series.
type Bar struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// TypicalPrice returns (high + low + close) / 3.
func (b Bar) TypicalPrice() float64 {
	return (b.High + b.Low + b.Close) / 3
}

// Bullish reports whether the bar closed above its open.
func (b Bar) Bullish() bool {
	return b.Close > b.Open
}

// Bearish reports whether the bar closed below its open.
func (b Bar) Bearish() bool {
	return b.Close < b.Open
}

// Body returns the absolute candle body size.
func (b Bar) Body() float64 {
	if b.Close >= b.Open {
		return b.Close - b.Open
	}
	return b.Open - b.Close
}

// ValidateSeries checks ordering and timestamp uniqueness of a bar series.
// Gaps (non-trading hours) are expected and allowed.
func ValidateSeries(bars []Bar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Time.After(bars[i-1].Time) {
			return fmt.Errorf("bar series not strictly time-ordered at index %d (%s >= %s)",
				i, bars[i-1].Time, bars[i].Time)
		}
	}
	return nil
}
