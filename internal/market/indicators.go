package market

import (
	"math"
	"sort"
)

// ATRSeries calculates a rolling Average True Range for every bar.
// The first period bars have no full window and are reported as NaN,
// matching the "insufficient data" convention used by the detectors.
func ATRSeries(bars []Bar, period int) []float64 {
	atr := make([]float64, len(bars))
	for i := range atr {
		atr[i] = math.NaN()
	}
	if period <= 0 || len(bars) < period+1 {
		return atr
	}

	tr := make([]float64, len(bars))
	tr[0] = bars[0].High - bars[0].Low
	for i := 1; i < len(bars); i++ {
		high := bars[i].High
		low := bars[i].Low
		prevClose := bars[i-1].Close
		tr[i] = math.Max(high-low, math.Max(math.Abs(high-prevClose), math.Abs(low-prevClose)))
	}

	sum := 0.0
	for i := 1; i < len(bars); i++ {
		sum += tr[i]
		if i > period {
			sum -= tr[i-period]
		}
		if i >= period {
			atr[i] = sum / float64(period)
		}
	}
	return atr
}

// MedianATR returns the median of the defined ATR values over the whole
// series. The median is stable against the NaN run at the start of the
// series, which is why Renko brick sizing uses it.
func MedianATR(bars []Bar, period int) float64 {
	atr := ATRSeries(bars, period)
	defined := make([]float64, 0, len(atr))
	for _, v := range atr {
		if !math.IsNaN(v) {
			defined = append(defined, v)
		}
	}
	if len(defined) == 0 {
		return math.NaN()
	}
	sort.Float64s(defined)
	mid := len(defined) / 2
	if len(defined)%2 == 1 {
		return defined[mid]
	}
	return (defined[mid-1] + defined[mid]) / 2
}

// SlopeSeries computes a rolling least-squares slope of the close price
// over lookback bars, normalized by the current price so values are
// comparable across price levels. Bars before the first full window
// report 0.
func SlopeSeries(bars []Bar, lookback int) []float64 {
	slopes := make([]float64, len(bars))
	if lookback < 2 {
		return slopes
	}
	for i := range bars {
		if i < lookback-1 {
			continue
		}
		window := bars[i-lookback+1 : i+1]
		slope := olsSlope(window)
		if price := bars[i].Close; price > 0 {
			slopes[i] = slope / price
		}
	}
	return slopes
}

// olsSlope fits close = a + b*x over the window and returns b.
func olsSlope(window []Bar) float64 {
	n := float64(len(window))
	var sumX, sumY, sumXY, sumXX float64
	for i, b := range window {
		x := float64(i)
		sumX += x
		sumY += b.Close
		sumXY += x * b.Close
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}
