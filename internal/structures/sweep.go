package structures

import (
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/sessions"
)

// DetectSweeps flags liquidity sweeps of Asia or London session
// extremes. A bullish sweep wicks below a session low and closes back
// above it; a bearish sweep mirrors on the session high. Asia is
// checked first and London only when the Asia condition is false, so
// the recorded source is unambiguous. Bars whose session levels are
// still NaN are skipped.
func DetectSweeps(bars []market.Bar, levels []sessions.Levels, events []Events) {
	for i, bar := range bars {
		lv := levels[i]

		if lv.HasAsia() && bar.Low < lv.AsiaLow && bar.Close > lv.AsiaLow {
			events[i].SweepBullish = true
			events[i].SweepSource = sessions.Asia
		} else if lv.HasLondon() && bar.Low < lv.LondonLow && bar.Close > lv.LondonLow {
			events[i].SweepBullish = true
			events[i].SweepSource = sessions.London
		}

		if lv.HasAsia() && bar.High > lv.AsiaHigh && bar.Close < lv.AsiaHigh {
			events[i].SweepBearish = true
			events[i].SweepSource = sessions.Asia
		} else if lv.HasLondon() && bar.High > lv.LondonHigh && bar.Close < lv.LondonHigh {
			events[i].SweepBearish = true
			events[i].SweepSource = sessions.London
		}
	}
}
