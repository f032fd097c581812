package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sjonesw-lab/Maxtrader-sub000/config"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/confluence"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/events"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/strategy"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/structures"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/wave"
)

// ConfigFromApp maps the application configuration onto the stage
// configs.
func ConfigFromApp(cfg *config.Config) Config {
	s := cfg.StrategyConfig
	return Config{
		Symbol: cfg.DataConfig.Symbol,
		Structures: structures.Config{
			DisplacementThreshold: s.DisplacementThreshold,
		},
		Renko: renko.Config{
			K:              s.RenkoK,
			FixedBrickSize: s.FixedBrickSize,
		},
		Wave: wave.Config{
			MinBricks:        s.MinBricks,
			MaxEntryDistance: s.MaxEntryDistance,
		},
		Regime: regime.Config{
			Lookback: s.RegimeLookback,
		},
		Confluence: confluence.Config{
			MinConfidence: s.MinConfidence,
		},
		Strategy: strategy.Config{
			Symbol:      cfg.DataConfig.Symbol,
			Window:      s.ConfluenceWindow,
			ATRMultiple: s.ATRMultiple,
			TargetMode:  strategy.TargetMode(s.TargetMode),
		},
		Backtest: backtest.Config{
			InitialBalance: cfg.SimConfig.InitialBalance,
			RiskPct:        cfg.SimConfig.RiskPct,
			FixedRisk:      cfg.SimConfig.FixedRisk,
			MaxHoldMinutes: cfg.SimConfig.MaxHoldMinutes,
		},
	}
}

// Service binds a bar source to the pipeline and satisfies the API's
// Backtester interface.
type Service struct {
	pipeline *Pipeline
	source   market.BarSource
	symbol   string
	bus      *events.EventBus
	logger   zerolog.Logger
}

func NewService(cfg Config, source market.BarSource, logger zerolog.Logger) *Service {
	return &Service{
		pipeline: New(cfg, logger),
		source:   source,
		symbol:   cfg.Symbol,
		logger:   logger.With().Str("component", "PipelineService").Logger(),
	}
}

// WithEventBus publishes run lifecycle events on bus.
func (s *Service) WithEventBus(bus *events.EventBus) *Service {
	s.bus = bus
	return s
}

// RunBacktest loads the full bar history for the symbol and runs the
// pipeline over it. An empty symbol uses the configured default.
func (s *Service) RunBacktest(ctx context.Context, symbol string) (*backtest.Result, error) {
	if symbol == "" {
		symbol = s.symbol
	}
	bars, err := s.source.Bars(ctx, symbol, time.Time{}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("pipeline: load bars: %w", err)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("pipeline: no bars available for %s", symbol)
	}

	artifacts, err := s.pipeline.Run(ctx, bars)
	if err != nil {
		if s.bus != nil {
			s.bus.Publish(events.EventError, map[string]interface{}{"error": err.Error()})
		}
		return nil, err
	}
	result := artifacts.Result
	result.Symbol = symbol

	if s.bus != nil {
		for _, sig := range artifacts.Signals {
			s.bus.Publish(events.EventSignalGenerated, map[string]interface{}{
				"symbol":     symbol,
				"time":       sig.Time,
				"direction":  sig.Direction.String(),
				"price":      sig.Price,
				"target":     sig.Target,
				"confidence": sig.Confidence,
			})
		}
		s.bus.Publish(events.EventBacktestComplete, map[string]interface{}{
			"result_id": result.ID.String(),
			"symbol":    symbol,
			"trades":    result.TotalTrades,
			"net":       result.NetProfit,
		})
	}
	return result, nil
}

// Pipeline exposes the underlying pipeline for optimizer wiring.
func (s *Service) Pipeline() *Pipeline {
	return s.pipeline
}
