package market

import (
	"math"
	"testing"
	"time"
)

func minuteBars(start time.Time, ohlc ...[4]float64) []Bar {
	bars := make([]Bar, len(ohlc))
	for i, v := range ohlc {
		bars[i] = Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  v[0],
			High:  v[1],
			Low:   v[2],
			Close: v[3],
		}
	}
	return bars
}

func TestATRSeriesWarmupIsNaN(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
	)

	atr := ATRSeries(bars, 3)
	for i := 0; i < 3; i++ {
		if !math.IsNaN(atr[i]) {
			t.Errorf("atr[%d] = %v, want NaN during warmup", i, atr[i])
		}
	}
	// Every true range is 1.0, so the rolling mean is 1.0 once defined.
	for i := 3; i < len(atr); i++ {
		if math.Abs(atr[i]-1.0) > 1e-9 {
			t.Errorf("atr[%d] = %v, want 1.0", i, atr[i])
		}
	}
}

func TestATRSeriesTooShort(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{10, 11, 9, 10},
		[4]float64{10, 11, 9, 10},
	)
	atr := ATRSeries(bars, 3)
	for i, v := range atr {
		if !math.IsNaN(v) {
			t.Errorf("atr[%d] = %v, want NaN for a series shorter than period+1", i, v)
		}
	}
}

func TestATRSeriesUsesGaps(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{10, 10.5, 9.5, 10},
		// Gap up: true range must include |high - prevClose| = 2.
		[4]float64{11.5, 12, 11.5, 12},
		[4]float64{12, 12.5, 11.5, 12},
	)
	atr := ATRSeries(bars, 2)
	want := (2.0 + 1.0) / 2
	if math.Abs(atr[2]-want) > 1e-9 {
		t.Errorf("atr[2] = %v, want %v", atr[2], want)
	}
}

func TestMedianATR(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
		[4]float64{10, 10.5, 9.5, 10},
	)
	if got := MedianATR(bars, 3); math.Abs(got-1.0) > 1e-9 {
		t.Errorf("MedianATR = %v, want 1.0", got)
	}
	if got := MedianATR(bars[:2], 3); !math.IsNaN(got) {
		t.Errorf("MedianATR on short series = %v, want NaN", got)
	}
}

func TestSlopeSeries(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{10, 10, 10, 10},
		[4]float64{11, 11, 11, 11},
		[4]float64{12, 12, 12, 12},
		[4]float64{13, 13, 13, 13},
	)
	slopes := SlopeSeries(bars, 3)
	if slopes[0] != 0 || slopes[1] != 0 {
		t.Errorf("Slopes before full window = [%v, %v], want zeros", slopes[0], slopes[1])
	}
	// Closes rise 1 per bar; slope normalized by the current close.
	if math.Abs(slopes[3]-1.0/13.0) > 1e-9 {
		t.Errorf("slopes[3] = %v, want %v", slopes[3], 1.0/13.0)
	}
}
