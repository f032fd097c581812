package optimizer

import (
	"math"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
)

// ParamSet is one point of the optimization grid.
type ParamSet struct {
	RenkoK           float64 `json:"renko_k"`
	RegimeLookback   int     `json:"regime_lookback"`
	MaxHoldMinutes   int     `json:"max_hold_minutes"`
	OrderBlockFilter bool    `json:"order_block_filter"`
	ATRMultiple      float64 `json:"atr_multiple"`
}

// DefaultParams is the fallback when no optimized set exists for a
// regime.
func DefaultParams() ParamSet {
	return ParamSet{
		RenkoK:         1.0,
		RegimeLookback: 20,
		MaxHoldMinutes: 60,
		ATRMultiple:    5.0,
	}
}

// Grid enumerates candidate values per dimension.
type Grid struct {
	RenkoK           []float64
	RegimeLookback   []int
	MaxHoldMinutes   []int
	OrderBlockFilter []bool
	ATRMultiple      []float64
}

// DefaultGrid covers the production search space.
func DefaultGrid() Grid {
	return Grid{
		RenkoK:           []float64{0.5, 1.0, 1.5},
		RegimeLookback:   []int{10, 20, 30},
		MaxHoldMinutes:   []int{30, 60, 90},
		OrderBlockFilter: []bool{false, true},
		ATRMultiple:      []float64{2.5, 5.0},
	}
}

// Combinations expands the grid into the full cartesian product.
func (g Grid) Combinations() []ParamSet {
	var out []ParamSet
	for _, k := range g.RenkoK {
		for _, lb := range g.RegimeLookback {
			for _, hold := range g.MaxHoldMinutes {
				for _, ob := range g.OrderBlockFilter {
					for _, mult := range g.ATRMultiple {
						out = append(out, ParamSet{
							RenkoK:           k,
							RegimeLookback:   lb,
							MaxHoldMinutes:   hold,
							OrderBlockFilter: ob,
							ATRMultiple:      mult,
						})
					}
				}
			}
		}
	}
	return out
}

// minTrades is the smallest sample a parameter set must produce before
// its metrics are trusted at all.
const minTrades = 3

// Score ranks a backtest result. Sets with no trades at all score
// -1000 and thin samples score -500, so they can never outrank a set
// with a real sample. The drawdown term penalizes dollars below peak
// equity.
func Score(r *backtest.Result) float64 {
	if r == nil || r.TotalTrades == 0 {
		return -1000
	}
	if r.TotalTrades < minTrades {
		return -500
	}
	trades := math.Min(float64(r.TotalTrades), 20)
	return 100*r.WinRate + 50*r.AvgR - 0.1*r.MaxDrawdown + 5*trades
}
