package structures

import (
	"math"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// DetectDisplacement flags unusually large directional candles. A
// bullish displacement closes above its open, has a body greater than
// threshold x ATR, and closes above the previous bar's high. The break
// confirms momentum, not just candle size. Bearish mirrors. Bars
// without a full ATR window never fire.
func DetectDisplacement(bars []market.Bar, events []Events, atrPeriod int, threshold float64) {
	atr := market.ATRSeries(bars, atrPeriod)

	for i := range bars {
		events[i].ATR = atr[i]
		if i == 0 || math.IsNaN(atr[i]) {
			continue
		}
		bar := bars[i]
		prev := bars[i-1]
		body := bar.Body()

		if bar.Bullish() && body > threshold*atr[i] && bar.Close > prev.High {
			events[i].DisplacementBullish = true
		}
		if bar.Bearish() && body > threshold*atr[i] && bar.Close < prev.Low {
			events[i].DisplacementBearish = true
		}
	}
}
