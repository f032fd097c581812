// Package optimizer searches the strategy parameter grid with
// chronological walk-forward validation: the train window grows, the
// test window slides forward, and test data never precedes its train
// data.
package optimizer

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/backtest"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/regime"
)

// Evaluator runs one full backtest of a parameter set over a bar
// series, considering only signals that fire while the given regime is
// in effect. Implementations must be pure in (bars, params, reg).
type Evaluator func(ctx context.Context, bars []market.Bar, params ParamSet, reg regime.Regime) (*backtest.Result, error)

// SplitRecord is the out-of-sample evaluation of one split's winning
// parameter set for one regime.
type SplitRecord struct {
	Split      int           `json:"split"`
	Regime     regime.Regime `json:"regime"`
	Params     ParamSet      `json:"params"`
	TrainScore float64       `json:"train_score"`
	TestScore  float64       `json:"test_score"`
	TestTrades int           `json:"test_trades"`
	TrainStart time.Time     `json:"train_start"`
	TrainEnd   time.Time     `json:"train_end"`
	TestStart  time.Time     `json:"test_start"`
	TestEnd    time.Time     `json:"test_end"`
}

// Report is the optimizer's final output: the retained parameter set
// per regime plus every out-of-sample record.
type Report struct {
	Best    map[regime.Regime]ParamSet `json:"best"`
	Records []SplitRecord              `json:"records"`
}

// Config tunes the walk-forward run.
type Config struct {
	Splits  int // default 4
	Workers int // parallel grid evaluations per regime, default 4
}

// WalkForward drives the search.
type WalkForward struct {
	cfg      Config
	grid     Grid
	evaluate Evaluator
	logger   zerolog.Logger
}

func NewWalkForward(cfg Config, grid Grid, eval Evaluator, logger zerolog.Logger) (*WalkForward, error) {
	if cfg.Splits == 0 {
		cfg.Splits = 4
	}
	if cfg.Splits < 1 {
		return nil, fmt.Errorf("optimizer: splits must be positive, got %d", cfg.Splits)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 4
	}
	if cfg.Workers < 1 {
		return nil, fmt.Errorf("optimizer: workers must be positive, got %d", cfg.Workers)
	}
	if eval == nil {
		return nil, fmt.Errorf("optimizer: evaluator is required")
	}
	if len(grid.Combinations()) == 0 {
		return nil, fmt.Errorf("optimizer: grid is empty")
	}
	return &WalkForward{
		cfg:      cfg,
		grid:     grid,
		evaluate: eval,
		logger:   logger.With().Str("component", "WalkForwardOptimizer").Logger(),
	}, nil
}

// Run walks the splits in order. For each split and regime it
// grid-searches the train window in parallel, keeps the best set, and
// scores it once on the following test window. The retained parameter
// set per regime comes from the most recent split.
func (w *WalkForward) Run(ctx context.Context, bars []market.Bar) (*Report, error) {
	chunk := len(bars) / (w.cfg.Splits + 1)
	if chunk < 1 {
		return nil, fmt.Errorf("optimizer: %d bars cannot fill %d splits", len(bars), w.cfg.Splits)
	}

	report := &Report{Best: map[regime.Regime]ParamSet{
		regime.Bull:     DefaultParams(),
		regime.Bear:     DefaultParams(),
		regime.Sideways: DefaultParams(),
	}}
	combos := w.grid.Combinations()

	for split := 1; split <= w.cfg.Splits; split++ {
		train := bars[:split*chunk]
		testEnd := (split + 1) * chunk
		if split == w.cfg.Splits {
			testEnd = len(bars)
		}
		test := bars[split*chunk : testEnd]

		for _, reg := range []regime.Regime{regime.Bull, regime.Bear, regime.Sideways} {
			best, bestScore, err := w.searchTrain(ctx, train, combos, reg)
			if err != nil {
				return nil, err
			}

			testResult, err := w.evaluate(ctx, test, best, reg)
			if err != nil {
				return nil, fmt.Errorf("optimizer: test evaluation split %d regime %s: %w", split, reg, err)
			}

			record := SplitRecord{
				Split:      split,
				Regime:     reg,
				Params:     best,
				TrainScore: bestScore,
				TestScore:  Score(testResult),
				TrainStart: train[0].Time,
				TrainEnd:   train[len(train)-1].Time,
				TestStart:  test[0].Time,
				TestEnd:    test[len(test)-1].Time,
			}
			if testResult != nil {
				record.TestTrades = testResult.TotalTrades
			}
			report.Records = append(report.Records, record)
			report.Best[reg] = best

			w.logger.Info().
				Int("split", split).
				Str("regime", string(reg)).
				Float64("train_score", bestScore).
				Float64("test_score", record.TestScore).
				Msg("Split evaluated")
		}
	}
	return report, nil
}

// searchTrain evaluates every grid point on the train window and
// returns the arg-max. Evaluations share nothing, so they fan out
// across workers and merge by comparison under one mutex.
func (w *WalkForward) searchTrain(ctx context.Context, train []market.Bar, combos []ParamSet, reg regime.Regime) (ParamSet, float64, error) {
	var mu sync.Mutex
	best := DefaultParams()
	bestScore := math.Inf(-1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.Workers)
	for _, params := range combos {
		params := params
		g.Go(func() error {
			result, err := w.evaluate(gctx, train, params, reg)
			if err != nil {
				return fmt.Errorf("optimizer: train evaluation regime %s: %w", reg, err)
			}
			score := Score(result)
			mu.Lock()
			if score > bestScore {
				bestScore = score
				best = params
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ParamSet{}, 0, err
	}
	return best, bestScore, nil
}
