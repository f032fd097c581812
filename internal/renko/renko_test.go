package renko

import (
	"math"
	"testing"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

func closeBars(start time.Time, closes ...float64) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		bars[i] = market.Bar{
			Time:  start.Add(time.Duration(i) * time.Minute),
			Open:  c,
			High:  c + 0.1,
			Low:   c - 0.1,
			Close: c,
		}
	}
	return bars
}

func TestBuildFixedSize(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := closeBars(start, 10, 12.2, 9.4)

	chart, err := Build(bars, Config{FixedBrickSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if chart.BrickSize != 1 {
		t.Fatalf("Brick size = %v, want 1", chart.BrickSize)
	}
	if len(chart.Bricks) != 4 {
		t.Fatalf("Expected 4 bricks, got %d", len(chart.Bricks))
	}

	wantCloses := []float64{11, 12, 11, 10}
	wantDirs := []int{1, 1, -1, -1}
	for i, b := range chart.Bricks {
		if b.BrickClose != wantCloses[i] || b.Direction != wantDirs[i] {
			t.Errorf("Brick %d = (%v, %d), want (%v, %d)", i, b.BrickClose, b.Direction, wantCloses[i], wantDirs[i])
		}
	}
	// Both up bricks complete on the 12.2 bar.
	if !chart.Bricks[0].Time.Equal(bars[1].Time) || !chart.Bricks[1].Time.Equal(bars[1].Time) {
		t.Error("Up bricks should carry the timestamp of the bar that completed them")
	}
}

func TestBuildNoMoveNoBricks(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := closeBars(start, 10, 10.5, 9.6)
	chart, err := Build(bars, Config{FixedBrickSize: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(chart.Bricks) != 0 {
		t.Errorf("Expected 0 bricks for sub-threshold moves, got %d", len(chart.Bricks))
	}
}

func TestBuildATRSizedFloor(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	// Very tight ranges so K x median ATR falls below the floor.
	bars := make([]market.Bar, 6)
	for i := range bars {
		bars[i] = market.Bar{Time: start.Add(time.Duration(i) * time.Minute), Open: 10, High: 10.001, Low: 9.999, Close: 10}
	}
	chart, err := Build(bars, Config{K: 1, ATRPeriod: 3})
	if err != nil {
		t.Fatal(err)
	}
	if chart.BrickSize != 0.01 {
		t.Errorf("Brick size = %v, want floor 0.01", chart.BrickSize)
	}
}

func TestBuildRejectsNegativeConfig(t *testing.T) {
	if _, err := Build(nil, Config{FixedBrickSize: -1}); err == nil {
		t.Error("Expected error for negative fixed brick size")
	}
	if _, err := Build(nil, Config{K: -0.5}); err == nil {
		t.Error("Expected error for negative ATR multiple")
	}
}

func TestDirectionSeries(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := closeBars(start, 10, 12.2, 9.4, 9.5)
	chart, err := Build(bars, Config{FixedBrickSize: 1})
	if err != nil {
		t.Fatal(err)
	}

	dirs := chart.DirectionSeries(bars)
	want := []int{0, 1, -1, -1}
	for i, d := range dirs {
		if d != want[i] {
			t.Errorf("directions[%d] = %d, want %d", i, d, want[i])
		}
	}
}

func TestTrendStrengthPartialWindows(t *testing.T) {
	chart := &Chart{
		Bricks: []Brick{
			{Direction: 1}, {Direction: 1}, {Direction: -1}, {Direction: 1},
		},
		BrickSize: 1,
	}
	strength := chart.TrendStrength(2)
	want := []float64{1, 1, 0, 0}
	for i, s := range strength {
		if math.Abs(s-want[i]) > 1e-9 {
			t.Errorf("strength[%d] = %v, want %v", i, s, want[i])
		}
	}
}
