// Command backtest runs the full analysis pipeline over a historical
// bar file and prints the resulting report.
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
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/notification"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "config.json", "configuration file")
	csvPath := flag.String("csv", "", "CSV bar file (overrides config)")
	parquetPath := flag.String("parquet", "", "parquet bar file (overrides config)")
	symbol := flag.String("symbol", "", "symbol label (overrides config)")
	saveParquet := flag.String("save-parquet", "", "re-save the loaded history as a parquet bar file")
	webhook := flag.String("webhook", "", "notification webhook URL")
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
	if *symbol != "" {
		cfg.DataConfig.Symbol = *symbol
	}

	source, err := openSource(cfg.DataConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open bar source")
	}

	if *saveParquet != "" {
		bars, err := source.Bars(context.Background(), cfg.DataConfig.Symbol, time.Time{}, time.Now())
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to load bars for conversion")
		}
		loc, err := time.LoadLocation(cfg.DataConfig.Timezone)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid timezone")
		}
		if err := market.NewParquetStore(loc).Write(*saveParquet, bars); err != nil {
			logger.Fatal().Err(err).Msg("Failed to write parquet bars")
		}
		logger.Info().Str("path", *saveParquet).Int("bars", len(bars)).Msg("History converted")
	}

	service := pipeline.NewService(pipeline.ConfigFromApp(cfg), source, logger)
	result, err := service.RunBacktest(context.Background(), cfg.DataConfig.Symbol)
	if err != nil {
		logger.Fatal().Err(err).Msg("Backtest failed")
	}

	fmt.Printf("\n=== Backtest %s (%s to %s) ===\n",
		result.Symbol,
		result.Start.Format("2006-01-02"),
		result.End.Format("2006-01-02"))
	fmt.Printf("Trades:        %d (%d target / %d time exits)\n",
		result.TotalTrades, result.TargetExits, result.TimeExits)
	fmt.Printf("Win rate:      %.1f%%\n", result.WinRate*100)
	fmt.Printf("Avg R:         %.2f\n", result.AvgR)
	fmt.Printf("Profit factor: %.2f\n", result.ProfitFactor)
	fmt.Printf("Max drawdown:  %.2f (%.2f%%)\n", result.MaxDrawdown, result.MaxDrawdownPct)
	fmt.Printf("Balance:       %.2f -> %.2f (net %.2f)\n",
		result.InitialBalance, result.FinalBalance, result.NetProfit)

	if *webhook != "" {
		manager := notification.NewManager()
		manager.AddNotifier(notification.NewWebhookNotifier(notification.WebhookConfig{
			URL:     *webhook,
			Enabled: true,
		}))
		if err := manager.SendBacktestDone(result); err != nil {
			logger.Warn().Err(err).Msg("Notification delivery failed")
		}
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
