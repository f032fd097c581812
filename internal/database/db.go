// Package database persists backtest results, trades, and optimizer
// records to PostgreSQL.
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// DB wraps the PostgreSQL connection pool
type DB struct {
	Pool   *pgxpool.Pool
	logger zerolog.Logger
}

// Config holds database configuration
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// NewDB creates a new database connection
func NewDB(cfg Config, logger zerolog.Logger) (*DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode,
	)

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database config: %w", err)
	}

	poolConfig.MaxConns = 10
	poolConfig.MinConns = 2
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("unable to ping database: %w", err)
	}

	log := logger.With().Str("component", "Database").Logger()
	log.Info().Str("database", cfg.Database).Msg("Connected to PostgreSQL")

	return &DB{Pool: pool, logger: log}, nil
}

// Close closes the database connection
func (db *DB) Close() {
	if db.Pool != nil {
		db.Pool.Close()
		db.logger.Info().Msg("Database connection closed")
	}
}

// RunMigrations creates the schema when it does not exist yet.
func (db *DB) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS backtest_results (
			id UUID PRIMARY KEY,
			symbol VARCHAR(20) NOT NULL,
			start_date TIMESTAMPTZ NOT NULL,
			end_date TIMESTAMPTZ NOT NULL,
			initial_balance DECIMAL(18, 2) NOT NULL,
			final_balance DECIMAL(18, 2) NOT NULL,
			total_trades INTEGER NOT NULL,
			winning_trades INTEGER NOT NULL,
			losing_trades INTEGER NOT NULL,
			win_rate DECIMAL(8, 6) NOT NULL,
			net_profit DECIMAL(18, 2) NOT NULL,
			avg_r DECIMAL(10, 4) NOT NULL,
			profit_factor DECIMAL(10, 4) NOT NULL,
			max_drawdown DECIMAL(18, 2) NOT NULL,
			target_exits INTEGER NOT NULL,
			time_exits INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			id UUID PRIMARY KEY,
			backtest_result_id UUID NOT NULL REFERENCES backtest_results(id) ON DELETE CASCADE,
			signal_id UUID NOT NULL,
			direction VARCHAR(5) NOT NULL,
			option_right VARCHAR(4) NOT NULL,
			strike DECIMAL(18, 2) NOT NULL,
			contracts INTEGER NOT NULL,
			entry_time TIMESTAMPTZ NOT NULL,
			entry_price DECIMAL(18, 4) NOT NULL,
			premium DECIMAL(10, 4) NOT NULL,
			cost DECIMAL(18, 2) NOT NULL,
			target DECIMAL(18, 4) NOT NULL,
			exit_time TIMESTAMPTZ NOT NULL,
			exit_price DECIMAL(18, 4) NOT NULL,
			exit_value DECIMAL(18, 2) NOT NULL,
			pnl DECIMAL(18, 2) NOT NULL,
			r_multiple DECIMAL(10, 4) NOT NULL,
			exit_reason VARCHAR(10) NOT NULL,
			confidence DECIMAL(6, 4) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_backtest_trades_result
			ON backtest_trades(backtest_result_id)`,
		`CREATE TABLE IF NOT EXISTS optimizer_records (
			id SERIAL PRIMARY KEY,
			split INTEGER NOT NULL,
			regime VARCHAR(10) NOT NULL,
			params JSONB NOT NULL,
			train_score DECIMAL(12, 4) NOT NULL,
			test_score DECIMAL(12, 4) NOT NULL,
			test_trades INTEGER NOT NULL,
			train_start TIMESTAMPTZ NOT NULL,
			train_end TIMESTAMPTZ NOT NULL,
			test_start TIMESTAMPTZ NOT NULL,
			test_end TIMESTAMPTZ NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}

	for i, migration := range migrations {
		if _, err := db.Pool.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	db.logger.Info().Msg("Database migrations complete")
	return nil
}
