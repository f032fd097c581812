package backtest

import (
	"time"

	"github.com/google/uuid"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/options"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
)

// ExitReason records why a trade closed.
type ExitReason string

const (
	ExitTarget ExitReason = "target"
	ExitTime   ExitReason = "time"
)

// Trade is one completed simulated options position.
type Trade struct {
	ID         uuid.UUID
	SignalID   uuid.UUID
	Symbol     string
	Direction  strategy.Direction
	Contract   options.Contract
	Contracts  int
	EntryTime  time.Time
	EntryPrice float64 // underlying at entry
	Premium    float64 // per contract
	Cost       float64 // total premium paid
	Target     float64
	ExitTime   time.Time
	ExitPrice  float64 // underlying at exit
	ExitValue  float64 // total proceeds
	PnL        float64
	R          float64 // PnL over premium at risk
	Reason     ExitReason
	Confidence float64
}

// EquityPoint is one step of the account equity curve, appended after
// each trade closes.
type EquityPoint struct {
	Time        time.Time
	Balance     float64
	Peak        float64
	Drawdown    float64 // dollars below peak
	DrawdownPct float64
}

// Result is the outcome of one simulated run.
type Result struct {
	ID             uuid.UUID
	Symbol         string
	Start          time.Time
	End            time.Time
	InitialBalance float64
	FinalBalance   float64
	Trades         []Trade
	EquityCurve    []EquityPoint

	TotalTrades   int
	WinningTrades int
	LosingTrades  int
	WinRate       float64
	NetProfit     float64
	AvgR          float64
	ProfitFactor  float64
	MaxDrawdown    float64 // dollars below peak equity
	MaxDrawdownPct float64 // percent of peak equity
	TargetExits    int
	TimeExits      int
}

// finalize fills the derived metrics from the trade list.
func (r *Result) finalize() {
	r.TotalTrades = len(r.Trades)
	var grossWin, grossLoss, sumR float64
	for _, t := range r.Trades {
		if t.PnL > 0 {
			r.WinningTrades++
			grossWin += t.PnL
		} else {
			r.LosingTrades++
			grossLoss -= t.PnL
		}
		sumR += t.R
		if t.Reason == ExitTarget {
			r.TargetExits++
		} else {
			r.TimeExits++
		}
	}
	r.NetProfit = r.FinalBalance - r.InitialBalance
	if r.TotalTrades > 0 {
		r.WinRate = float64(r.WinningTrades) / float64(r.TotalTrades)
		r.AvgR = sumR / float64(r.TotalTrades)
	}
	if grossLoss > 0 {
		r.ProfitFactor = grossWin / grossLoss
	}
	for _, p := range r.EquityCurve {
		if p.Drawdown > r.MaxDrawdown {
			r.MaxDrawdown = p.Drawdown
		}
		if p.DrawdownPct > r.MaxDrawdownPct {
			r.MaxDrawdownPct = p.DrawdownPct
		}
	}
}
