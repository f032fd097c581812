// Command optimize runs the walk-forward parameter search and persists
// the winning parameter set per regime.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/database"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/pipeline"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.json", "configuration file")
	csvPath := flag.String("csv", "", "CSV bar file (overrides config)")
	parquetPath := flag.String("parquet", "", "parquet bar file (overrides config)")
	splits := flag.Int("splits", 0, "walk-forward splits (overrides config)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	if *verbose {
		logger = logger.Level(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *csvPath != "" {
		cfg.DataConfig.CSVPath = *csvPath
		cfg.DataConfig.ParquetPath = ""
	}
	if *parquetPath != "" {
		cfg.DataConfig.ParquetPath = *parquetPath
	}
	if *splits > 0 {
		cfg.OptimizerConfig.Splits = *splits
	}

	source, err := openSource(cfg.DataConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open bar source")
	}

	ctx := context.Background()
	bars, err := source.Bars(ctx, cfg.DataConfig.Symbol, time.Time{}, time.Now())
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to load bars")
	}
	logger.Info().Int("bars", len(bars)).Msg("History loaded")

	p := pipeline.New(pipeline.ConfigFromApp(cfg), logger)
	wf, err := optimizer.NewWalkForward(optimizer.Config{
		Splits:  cfg.OptimizerConfig.Splits,
		Workers: cfg.OptimizerConfig.Workers,
	}, optimizer.DefaultGrid(), p.Evaluator(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build optimizer")
	}

	report, err := wf.Run(ctx, bars)
	if err != nil {
		logger.Fatal().Err(err).Msg("Optimization failed")
	}

	store, err := optimizer.Open(cfg.OptimizerConfig.ParamsPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open parameter store")
	}
	if err := store.Persist(report.Best); err != nil {
		logger.Fatal().Err(err).Msg("Failed to persist parameters")
	}

	if cfg.DatabaseConfig.Enabled {
		db, err := database.NewDB(database.Config{
			Host:     cfg.DatabaseConfig.Host,
			Port:     cfg.DatabaseConfig.Port,
			User:     cfg.DatabaseConfig.User,
			Password: cfg.DatabaseConfig.Password,
			Database: cfg.DatabaseConfig.Database,
			SSLMode:  cfg.DatabaseConfig.SSLMode,
		}, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Database unavailable, split records not stored")
		} else {
			defer db.Close()
			if err := db.RunMigrations(ctx); err != nil {
				logger.Warn().Err(err).Msg("Migrations failed, split records not stored")
			} else if err := database.NewRepository(db).SaveOptimizerReport(ctx, report); err != nil {
				logger.Warn().Err(err).Msg("Failed to store split records")
			}
		}
	}

	fmt.Printf("\n=== Walk-forward results (%d splits) ===\n", cfg.OptimizerConfig.Splits)
	for _, rec := range report.Records {
		fmt.Printf("split %d  %-8s  train %8.1f  test %8.1f  trades %d\n",
			rec.Split, rec.Regime, rec.TrainScore, rec.TestScore, rec.TestTrades)
	}
	fmt.Println("\nRetained parameters:")
	for _, reg := range []regime.Regime{regime.Bull, regime.Bear, regime.Sideways} {
		p := report.Best[reg]
		fmt.Printf("%-8s  k=%.2f lookback=%d hold=%dm ob_filter=%v atr_mult=%.1f\n",
			reg, p.RenkoK, p.RegimeLookback, p.MaxHoldMinutes, p.OrderBlockFilter, p.ATRMultiple)
	}
}

func openSource(cfg config.DataConfig) (market.BarSource, error) {
	if cfg.ParquetPath != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		return market.NewParquetSource(cfg.ParquetPath, loc), nil
	}
	return market.NewCSVSource(cfg.CSVPath)
}
