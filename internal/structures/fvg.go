package structures

import (
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// DetectFVGs flags three-bar fair value gaps. A bullish FVG exists at
// bar n when low[n] > high[n-2]; the middle candle left a void between
// the outer candles' ranges. Gap bounds are recorded as [low, high] of
// the void. Bearish mirrors with high[n] < low[n-2].
func DetectFVGs(bars []market.Bar, events []Events) {
	for i := 2; i < len(bars); i++ {
		if bars[i].Low > bars[i-2].High {
			events[i].FVGBullish = true
			events[i].FVGLow = bars[i-2].High
			events[i].FVGHigh = bars[i].Low
		}
		if bars[i].High < bars[i-2].Low {
			events[i].FVGBearish = true
			events[i].FVGLow = bars[i].High
			events[i].FVGHigh = bars[i-2].Low
		}
	}
}
