package structures

import (
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// candleWindow is a fixed-capacity ring buffer over recent bars. It
// keeps the order-block backward scan at O(capacity) per displacement
// bar instead of re-slicing the whole series.
type candleWindow struct {
	bars  []market.Bar
	start int
	count int
}

func newCandleWindow(capacity int) *candleWindow {
	return &candleWindow{bars: make([]market.Bar, capacity)}
}

func (w *candleWindow) push(b market.Bar) {
	if w.count < len(w.bars) {
		w.bars[(w.start+w.count)%len(w.bars)] = b
		w.count++
		return
	}
	w.bars[w.start] = b
	w.start = (w.start + 1) % len(w.bars)
}

// lastBearish returns the most recent bearish candle in the window.
func (w *candleWindow) lastBearish() (market.Bar, bool) {
	for i := w.count - 1; i >= 0; i-- {
		b := w.bars[(w.start+i)%len(w.bars)]
		if b.Bearish() {
			return b, true
		}
	}
	return market.Bar{}, false
}

// lastBullish returns the most recent bullish candle in the window.
func (w *candleWindow) lastBullish() (market.Bar, bool) {
	for i := w.count - 1; i >= 0; i-- {
		b := w.bars[(w.start+i)%len(w.bars)]
		if b.Bullish() {
			return b, true
		}
	}
	return market.Bar{}, false
}

// DetectOrderBlocks marks the last opposite-color candle before each
// displacement bar, scanning at most lookback bars back. A bullish
// order block is the last bearish candle before a bullish displacement;
// its low/high bound the institutional zone. Must run after
// DetectDisplacement.
func DetectOrderBlocks(bars []market.Bar, events []Events, lookback int) {
	window := newCandleWindow(lookback)

	for i, bar := range bars {
		if events[i].DisplacementBullish {
			if ob, ok := window.lastBearish(); ok {
				events[i].OrderBlockBullish = true
				events[i].OrderBlockLow = ob.Low
				events[i].OrderBlockHigh = ob.High
			}
		}
		if events[i].DisplacementBearish {
			if ob, ok := window.lastBullish(); ok {
				events[i].OrderBlockBearish = true
				events[i].OrderBlockLow = ob.Low
				events[i].OrderBlockHigh = ob.High
			}
		}
		window.push(bar)
	}
}
