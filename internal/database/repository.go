package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/options"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
)

func optionRight(s string) options.Right {
	if s == string(options.Put) {
		return options.Put
	}
	return options.Call
}

// Repository provides data access methods
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// HealthCheck performs a database health check
func (r *Repository) HealthCheck(ctx context.Context) error {
	return r.db.Pool.Ping(ctx)
}

// ResultSummary is the listing row for stored backtest results.
type ResultSummary struct {
	ID           uuid.UUID `json:"id"`
	Symbol       string    `json:"symbol"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	TotalTrades  int       `json:"total_trades"`
	WinRate      float64   `json:"win_rate"`
	NetProfit    float64   `json:"net_profit"`
	MaxDrawdown  float64   `json:"max_drawdown"`
	FinalBalance float64   `json:"final_balance"`
	CreatedAt    time.Time `json:"created_at"`
}

// SaveResult stores a backtest result and its trades in one
// transaction.
func (r *Repository) SaveResult(ctx context.Context, result *backtest.Result) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO backtest_results (
			id, symbol, start_date, end_date, initial_balance, final_balance,
			total_trades, winning_trades, losing_trades, win_rate,
			net_profit, avg_r, profit_factor, max_drawdown,
			target_exits, time_exits
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		result.ID, result.Symbol, result.Start, result.End,
		result.InitialBalance, result.FinalBalance,
		result.TotalTrades, result.WinningTrades, result.LosingTrades, result.WinRate,
		result.NetProfit, result.AvgR, result.ProfitFactor, result.MaxDrawdown,
		result.TargetExits, result.TimeExits,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest result: %w", err)
	}

	for _, t := range result.Trades {
		_, err = tx.Exec(ctx, `
			INSERT INTO backtest_trades (
				id, backtest_result_id, signal_id, direction, option_right,
				strike, contracts, entry_time, entry_price, premium, cost,
				target, exit_time, exit_price, exit_value, pnl, r_multiple,
				exit_reason, confidence
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
			t.ID, result.ID, t.SignalID, t.Direction.String(), string(t.Contract.Right),
			t.Contract.Strike, t.Contracts, t.EntryTime, t.EntryPrice, t.Premium, t.Cost,
			t.Target, t.ExitTime, t.ExitPrice, t.ExitValue, t.PnL, t.R,
			string(t.Reason), t.Confidence,
		)
		if err != nil {
			return fmt.Errorf("failed to insert backtest trade: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// GetResult loads one stored result summary by id.
func (r *Repository) GetResult(ctx context.Context, id uuid.UUID) (*ResultSummary, error) {
	var s ResultSummary
	err := r.db.Pool.QueryRow(ctx, `
		SELECT id, symbol, start_date, end_date, total_trades, win_rate,
			net_profit, max_drawdown, final_balance, created_at
		FROM backtest_results WHERE id = $1`, id,
	).Scan(&s.ID, &s.Symbol, &s.Start, &s.End, &s.TotalTrades, &s.WinRate,
		&s.NetProfit, &s.MaxDrawdown, &s.FinalBalance, &s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest result: %w", err)
	}
	return &s, nil
}

// ListResults returns the most recent result summaries.
func (r *Repository) ListResults(ctx context.Context, limit int) ([]ResultSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, symbol, start_date, end_date, total_trades, win_rate,
			net_profit, max_drawdown, final_balance, created_at
		FROM backtest_results ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list backtest results: %w", err)
	}
	defer rows.Close()

	var out []ResultSummary
	for rows.Next() {
		var s ResultSummary
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Start, &s.End, &s.TotalTrades, &s.WinRate,
			&s.NetProfit, &s.MaxDrawdown, &s.FinalBalance, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan backtest result: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetTrades loads every trade of a stored result in entry order.
func (r *Repository) GetTrades(ctx context.Context, resultID uuid.UUID) ([]backtest.Trade, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, signal_id, direction, option_right, strike, contracts,
			entry_time, entry_price, premium, cost, target,
			exit_time, exit_price, exit_value, pnl, r_multiple,
			exit_reason, confidence
		FROM backtest_trades WHERE backtest_result_id = $1 ORDER BY entry_time`, resultID)
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest trades: %w", err)
	}
	defer rows.Close()

	var out []backtest.Trade
	for rows.Next() {
		var t backtest.Trade
		var direction, right, reason string
		if err := rows.Scan(&t.ID, &t.SignalID, &direction, &right, &t.Contract.Strike, &t.Contracts,
			&t.EntryTime, &t.EntryPrice, &t.Premium, &t.Cost, &t.Target,
			&t.ExitTime, &t.ExitPrice, &t.ExitValue, &t.PnL, &t.R,
			&reason, &t.Confidence); err != nil {
			return nil, fmt.Errorf("failed to scan backtest trade: %w", err)
		}
		t.Direction = strategy.Long
		if direction == "short" {
			t.Direction = strategy.Short
		}
		t.Contract.Right = optionRight(right)
		t.Reason = backtest.ExitReason(reason)
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveOptimizerReport appends every split record of a walk-forward
// run.
func (r *Repository) SaveOptimizerReport(ctx context.Context, report *optimizer.Report) error {
	for _, rec := range report.Records {
		params, err := json.Marshal(rec.Params)
		if err != nil {
			return fmt.Errorf("failed to marshal optimizer params: %w", err)
		}
		_, err = r.db.Pool.Exec(ctx, `
			INSERT INTO optimizer_records (
				split, regime, params, train_score, test_score, test_trades,
				train_start, train_end, test_start, test_end
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			rec.Split, string(rec.Regime), params, rec.TrainScore, rec.TestScore,
			rec.TestTrades, rec.TrainStart, rec.TrainEnd, rec.TestStart, rec.TestEnd,
		)
		if err != nil {
			return fmt.Errorf("failed to insert optimizer record: %w", err)
		}
	}
	return nil
}
