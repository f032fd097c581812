// Package config loads the application configuration from a JSON file
// with environment variable overrides. A bad configuration is the only
// error class that aborts startup.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
)

type Config struct {
	ServerConfig    ServerConfig    `json:"server"`
	DatabaseConfig  DatabaseConfig  `json:"database"`
	RedisConfig     RedisConfig     `json:"redis"`
	LoggingConfig   LoggingConfig   `json:"logging"`
	DataConfig      DataConfig      `json:"data"`
	StrategyConfig  StrategyConfig  `json:"strategy"`
	SimConfig       SimConfig       `json:"simulation"`
	OptimizerConfig OptimizerConfig `json:"optimizer"`
}

// ServerConfig holds the HTTP API configuration
type ServerConfig struct {
	Enabled        bool     `json:"enabled"`
	Port           int      `json:"port"`
	AllowedOrigins []string `json:"allowed_origins"`
	RateLimit      int      `json:"rate_limit"`     // requests per window per client
	RateWindowSec  int      `json:"rate_window_s"`  // window length in seconds
}

// DatabaseConfig holds PostgreSQL connection settings
type DatabaseConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds report cache settings
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	TTLSec   int    `json:"ttl_s"` // cached report lifetime
}

type LoggingConfig struct {
	Level      string `json:"level"`       // debug, info, warn, error
	JSONFormat bool   `json:"json_format"` // console writer when false
}

// DataConfig locates historical bars
type DataConfig struct {
	Symbol      string `json:"symbol"`
	CSVPath     string `json:"csv_path"`
	ParquetPath string `json:"parquet_path"` // preferred over CSV when set
	Timezone    string `json:"timezone"`     // IANA name, default America/New_York
}

// StrategyConfig holds the tunable strategy parameters
type StrategyConfig struct {
	DisplacementThreshold float64 `json:"displacement_threshold"` // ATR multiple
	ConfluenceWindow      int     `json:"confluence_window"`      // bars
	ATRMultiple           float64 `json:"atr_multiple"`           // target sizing
	MinBricks             int     `json:"min_bricks"`             // wave minimum
	MaxEntryDistance      float64 `json:"max_entry_distance"`     // bricks
	MinConfidence         float64 `json:"min_confidence"`
	RenkoK                float64 `json:"renko_k"`          // ATR multiple for brick size
	FixedBrickSize        float64 `json:"fixed_brick_size"` // overrides RenkoK when > 0
	RegimeLookback        int     `json:"regime_lookback"`
	TargetMode            string  `json:"target_mode"` // "atr", "wave", or "session"
}

// SimConfig holds execution simulation parameters
type SimConfig struct {
	InitialBalance float64 `json:"initial_balance"`
	RiskPct        float64 `json:"risk_pct"`
	FixedRisk      float64 `json:"fixed_risk"` // fixed dollar risk when > 0
	MaxHoldMinutes int     `json:"max_hold_minutes"`
}

// OptimizerConfig holds walk-forward settings
type OptimizerConfig struct {
	Splits     int    `json:"splits"`
	Workers    int    `json:"workers"`
	ParamsPath string `json:"params_path"` // persisted best-parameter snapshot
}

// LoadConfig reads the JSON file at path, then applies environment
// overrides. A missing file yields pure defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err == nil {
			if err := json.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config: %w", err)
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Port:          8080,
			RateLimit:     60,
			RateWindowSec: 60,
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "maxtrader",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Address: "localhost:6379",
			TTLSec:  3600,
		},
		LoggingConfig: LoggingConfig{
			Level:      "info",
			JSONFormat: true,
		},
		DataConfig: DataConfig{
			Symbol:   "SPY",
			Timezone: "America/New_York",
		},
		StrategyConfig: StrategyConfig{
			DisplacementThreshold: 1.0,
			ConfluenceWindow:      6,
			ATRMultiple:           5.0,
			MinBricks:             3,
			MaxEntryDistance:      1.5,
			MinConfidence:         0.40,
			RenkoK:                1.0,
			RegimeLookback:        20,
			TargetMode:            "atr",
		},
		SimConfig: SimConfig{
			InitialBalance: 25000,
			RiskPct:        0.05,
			MaxHoldMinutes: 60,
		},
		OptimizerConfig: OptimizerConfig{
			Splits:     4,
			Workers:    4,
			ParamsPath: "data/optimized_params.json",
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	cfg.ServerConfig.Port = getEnvInt("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.DatabaseConfig.Host = getEnv("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvInt("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnv("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnv("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnv("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.RedisConfig.Address = getEnv("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnv("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.LoggingConfig.Level = getEnv("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.DataConfig.Symbol = getEnv("DATA_SYMBOL", cfg.DataConfig.Symbol)
	cfg.DataConfig.CSVPath = getEnv("DATA_CSV_PATH", cfg.DataConfig.CSVPath)
	cfg.DataConfig.ParquetPath = getEnv("DATA_PARQUET_PATH", cfg.DataConfig.ParquetPath)
}

// Validate rejects configurations the pipeline cannot run with.
func (c *Config) Validate() error {
	s := c.StrategyConfig
	if s.DisplacementThreshold <= 0 {
		return fmt.Errorf("config: displacement_threshold must be positive, got %v", s.DisplacementThreshold)
	}
	if s.ConfluenceWindow < 1 {
		return fmt.Errorf("config: confluence_window must be at least 1, got %d", s.ConfluenceWindow)
	}
	if s.ATRMultiple <= 0 {
		return fmt.Errorf("config: atr_multiple must be positive, got %v", s.ATRMultiple)
	}
	if s.MinBricks < 2 {
		return fmt.Errorf("config: min_bricks must be at least 2, got %d", s.MinBricks)
	}
	if s.MaxEntryDistance <= 0 {
		return fmt.Errorf("config: max_entry_distance must be positive, got %v", s.MaxEntryDistance)
	}
	if s.MinConfidence < 0 || s.MinConfidence > 1 {
		return fmt.Errorf("config: min_confidence must be in [0, 1], got %v", s.MinConfidence)
	}
	if s.RenkoK <= 0 && s.FixedBrickSize <= 0 {
		return fmt.Errorf("config: one of renko_k or fixed_brick_size must be positive")
	}
	if s.TargetMode != "atr" && s.TargetMode != "wave" && s.TargetMode != "session" {
		return fmt.Errorf("config: target_mode must be \"atr\", \"wave\", or \"session\", got %q", s.TargetMode)
	}
	sim := c.SimConfig
	if sim.InitialBalance <= 0 {
		return fmt.Errorf("config: initial_balance must be positive, got %v", sim.InitialBalance)
	}
	if sim.RiskPct <= 0 || sim.RiskPct > 1 {
		return fmt.Errorf("config: risk_pct must be in (0, 1], got %v", sim.RiskPct)
	}
	if sim.MaxHoldMinutes < 1 {
		return fmt.Errorf("config: max_hold_minutes must be positive, got %d", sim.MaxHoldMinutes)
	}
	if c.OptimizerConfig.Splits < 1 {
		return fmt.Errorf("config: optimizer splits must be positive, got %d", c.OptimizerConfig.Splits)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
