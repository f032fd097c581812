// Package backtest simulates signal execution with same-day-expiry
// options. Each trade moves Pending to Open to Closed; the premium
// paid bounds the loss, so there is no separate stop path.
package backtest

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/options"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
)

// Config tunes the simulator.
type Config struct {
	InitialBalance float64 // default 25000
	RiskPct        float64 // fraction of balance risked per trade, default 0.05
	FixedRisk      float64 // when > 0, a fixed dollar risk replaces RiskPct (non-compounding)
	MaxHoldMinutes int     // default 60
	MaxContracts   int     // default 10
}

// Simulator executes signals against a bar series.
type Simulator struct {
	cfg    Config
	logger zerolog.Logger
}

func NewSimulator(cfg Config, logger zerolog.Logger) (*Simulator, error) {
	if cfg.InitialBalance == 0 {
		cfg.InitialBalance = 25000
	}
	if cfg.InitialBalance < 0 {
		return nil, fmt.Errorf("backtest: initial balance must be positive, got %v", cfg.InitialBalance)
	}
	if cfg.RiskPct == 0 {
		cfg.RiskPct = 0.05
	}
	if cfg.RiskPct < 0 || cfg.RiskPct > 1 {
		return nil, fmt.Errorf("backtest: risk pct must be in (0, 1], got %v", cfg.RiskPct)
	}
	if cfg.FixedRisk < 0 {
		return nil, fmt.Errorf("backtest: fixed risk must be positive, got %v", cfg.FixedRisk)
	}
	if cfg.MaxHoldMinutes == 0 {
		cfg.MaxHoldMinutes = 60
	}
	if cfg.MaxHoldMinutes < 1 {
		return nil, fmt.Errorf("backtest: max hold minutes must be positive, got %d", cfg.MaxHoldMinutes)
	}
	if cfg.MaxContracts == 0 {
		cfg.MaxContracts = 10
	}
	return &Simulator{
		cfg:    cfg,
		logger: logger.With().Str("component", "ExecutionSimulator").Logger(),
	}, nil
}

// Run simulates every executable signal in order. Signals arriving
// while a position is open, including at the exact exit minute, are
// dropped, not queued. Signals whose entry bar does not exist are
// dropped.
func (s *Simulator) Run(bars []market.Bar, signals []strategy.Signal) *Result {
	result := &Result{
		ID:             uuid.New(),
		InitialBalance: s.cfg.InitialBalance,
		FinalBalance:   s.cfg.InitialBalance,
	}
	if len(bars) > 0 {
		result.Start = bars[0].Time
		result.End = bars[len(bars)-1].Time
	}

	balance := s.cfg.InitialBalance
	peak := balance
	var busyUntil time.Time

	for _, sig := range signals {
		if result.Symbol == "" {
			result.Symbol = sig.Symbol
		}
		if !sig.Time.After(busyUntil) {
			s.logger.Debug().
				Time("signal", sig.Time).
				Msg("Position still open, signal dropped")
			continue
		}
		entryIdx := sig.BarIndex + 1
		if entryIdx >= len(bars) {
			s.logger.Debug().
				Time("signal", sig.Time).
				Msg("No bar after signal, signal dropped")
			continue
		}

		trade, ok := s.execute(bars, sig, entryIdx, balance)
		if !ok {
			continue
		}

		balance += trade.PnL
		if balance > peak {
			peak = balance
		}
		dd := peak - balance
		ddPct := 0.0
		if peak > 0 {
			ddPct = dd / peak * 100
		}
		result.Trades = append(result.Trades, trade)
		result.EquityCurve = append(result.EquityCurve, EquityPoint{
			Time:        trade.ExitTime,
			Balance:     balance,
			Peak:        peak,
			Drawdown:    dd,
			DrawdownPct: ddPct,
		})
		busyUntil = trade.ExitTime

		s.logger.Info().
			Time("entry", trade.EntryTime).
			Time("exit", trade.ExitTime).
			Str("reason", string(trade.Reason)).
			Float64("pnl", trade.PnL).
			Float64("balance", balance).
			Msg("Trade closed")
	}

	result.FinalBalance = balance
	result.finalize()
	return result
}

// execute opens a position at the entry bar's open and walks forward
// until the target is touched or the hold window runs out. When the
// series ends before the window does, the last available bar closes
// the trade with reason time.
func (s *Simulator) execute(bars []market.Bar, sig strategy.Signal, entryIdx int, balance float64) (Trade, bool) {
	entryBar := bars[entryIdx]
	entryPrice := entryBar.Open
	long := sig.Direction == strategy.Long

	contract := options.ATMContract(entryPrice, long)
	premium := contract.Premium(entryPrice, entryBar.Time)

	risk := s.cfg.FixedRisk
	if risk == 0 {
		risk = s.cfg.RiskPct * balance
	}
	contracts := int(math.Floor(risk / (premium * 100)))
	if contracts < 1 {
		contracts = 1
	}
	if contracts > s.cfg.MaxContracts {
		contracts = s.cfg.MaxContracts
	}
	cost := premium * 100 * float64(contracts)

	deadline := entryBar.Time.Add(time.Duration(s.cfg.MaxHoldMinutes) * time.Minute)

	trade := Trade{
		ID:         uuid.New(),
		SignalID:   sig.ID,
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Contract:   contract,
		Contracts:  contracts,
		EntryTime:  entryBar.Time,
		EntryPrice: entryPrice,
		Premium:    premium,
		Cost:       cost,
		Target:     sig.Target,
		Confidence: sig.Confidence,
	}

	lastIdx := entryIdx
	for i := entryIdx; i < len(bars) && !bars[i].Time.After(deadline); i++ {
		lastIdx = i
		bar := bars[i]
		hit := (long && bar.High >= sig.Target) || (!long && bar.Low <= sig.Target)
		if hit {
			trade.ExitTime = bar.Time
			trade.ExitPrice = sig.Target
			trade.ExitValue = contract.Intrinsic(sig.Target) * 100 * float64(contracts)
			trade.Reason = ExitTarget
			s.close(&trade)
			return trade, true
		}
	}

	exitBar := bars[lastIdx]
	trade.ExitTime = exitBar.Time
	trade.ExitPrice = exitBar.Close
	trade.ExitValue = contract.Premium(exitBar.Close, exitBar.Time) * 100 * float64(contracts)
	trade.Reason = ExitTime
	s.close(&trade)
	return trade, true
}

func (s *Simulator) close(t *Trade) {
	t.PnL = t.ExitValue - t.Cost
	if t.Cost > 0 {
		t.R = t.PnL / t.Cost
	}
}
