package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/api"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/cache"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/database"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/events"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/notification"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/optimizer"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		fallback := zerolog.New(os.Stderr)
		fallback.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger := newLogger(cfg.LoggingConfig)
	logger.Info().Str("config", configPath).Msg("Configuration loaded")

	source, err := newBarSource(cfg.DataConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open bar source")
	}

	var repo *database.Repository
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
			logger.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := db.RunMigrations(ctx); err != nil {
			cancel()
			logger.Fatal().Err(err).Msg("Failed to run migrations")
		}
		cancel()
		repo = database.NewRepository(db)
	}

	var reports *cache.ReportCache
	if cfg.RedisConfig.Enabled {
		reports, err = cache.NewReportCache(cfg.RedisConfig, logger)
		if err != nil {
			logger.Warn().Err(err).Msg("Report cache unavailable, continuing without it")
		} else {
			defer reports.Close()
		}
	}

	params, err := optimizer.Open(cfg.OptimizerConfig.ParamsPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to open parameter store")
	}

	bus := events.NewEventBus()
	if webhook := os.Getenv("NOTIFY_WEBHOOK_URL"); webhook != "" {
		manager := notification.NewManager()
		manager.AddNotifier(notification.NewWebhookNotifier(notification.WebhookConfig{
			URL:     webhook,
			Enabled: true,
		}))
		bus.Subscribe(events.EventBacktestComplete, func(e events.Event) {
			_ = manager.Send(&notification.Notification{
				Type:      notification.NotifyBacktestDone,
				Title:     fmt.Sprintf("Backtest complete: %v", e.Data["symbol"]),
				Message:   fmt.Sprintf("Trades: %v | Net: %v", e.Data["trades"], e.Data["net"]),
				Timestamp: e.Timestamp,
			})
		})
		bus.Subscribe(events.EventError, func(e events.Event) {
			_ = manager.SendError("Pipeline error", fmt.Sprintf("%v", e.Data["error"]))
		})
	}

	service := pipeline.NewService(pipeline.ConfigFromApp(cfg), source, logger).WithEventBus(bus)
	server := api.NewServer(cfg.ServerConfig, service, repo, reports, params, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			logger.Fatal().Err(err).Msg("API server failed")
		}
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			logger.Error().Err(err).Msg("Graceful shutdown failed")
		}
	}
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()
	if !cfg.JSONFormat {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return logger
}

// newBarSource prefers the parquet store when configured, else CSV.
func newBarSource(cfg config.DataConfig) (market.BarSource, error) {
	if cfg.ParquetPath != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, err
		}
		return market.NewParquetSource(cfg.ParquetPath, loc), nil
	}
	return market.NewCSVSource(cfg.CSVPath)
}
