package structures

import (
	"math"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

// StructureState is the running MSS bias.
type StructureState string

const (
	StructureNeutral StructureState = "neutral"
	StructureBullish StructureState = "bullish"
	StructureBearish StructureState = "bearish"
)

// mssState is the bounded state threaded bar-by-bar through the MSS
// fold: the current bias plus the most recent confirmed swing levels.
type mssState struct {
	structure     StructureState
	lastSwingHigh float64
	lastSwingLow  float64
}

// DetectMSS flags market structure shifts. A swing high/low is a bar
// strictly more extreme than the 2 bars on each side; it becomes
// visible only once both right-hand bars have printed, so the fold
// never reads the future. A close above the last confirmed swing high
// flips the state to bullish and fires mss_bullish on that transition
// only; bearish mirrors. State persists across bars.
func DetectMSS(bars []market.Bar, events []Events) {
	st := mssState{
		structure:     StructureNeutral,
		lastSwingHigh: math.NaN(),
		lastSwingLow:  math.NaN(),
	}

	for i := range bars {
		// Bar i-2 is a confirmed swing once bar i exists.
		if c := i - 2; c >= 2 {
			if isSwingHigh(bars, c) {
				st.lastSwingHigh = bars[c].High
			}
			if isSwingLow(bars, c) {
				st.lastSwingLow = bars[c].Low
			}
		}

		close := bars[i].Close
		if !math.IsNaN(st.lastSwingHigh) && close > st.lastSwingHigh {
			if st.structure != StructureBullish {
				events[i].MSSBullish = true
				st.structure = StructureBullish
			}
		}
		if !math.IsNaN(st.lastSwingLow) && close < st.lastSwingLow {
			if st.structure != StructureBearish {
				events[i].MSSBearish = true
				st.structure = StructureBearish
			}
		}
	}
}

func isSwingHigh(bars []market.Bar, i int) bool {
	h := bars[i].High
	return h > bars[i-1].High && h > bars[i-2].High &&
		h > bars[i+1].High && h > bars[i+2].High
}

func isSwingLow(bars []market.Bar, i int) bool {
	l := bars[i].Low
	return l < bars[i-1].Low && l < bars[i-2].Low &&
		l < bars[i+1].Low && l < bars[i+2].Low
}
