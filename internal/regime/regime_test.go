package regime

import (
	"testing"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
)

func trendFixture(up bool, n int) ([]market.Bar, *renko.Chart) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := make([]market.Bar, n)
	chart := &renko.Chart{BrickSize: 1}
	price := 100.0
	dir := 1
	if !up {
		dir = -1
	}
	for i := 0; i < n; i++ {
		price += float64(dir)
		ts := start.Add(time.Duration(i) * time.Minute)
		bars[i] = market.Bar{Time: ts, Open: price, High: price + 0.2, Low: price - 0.2, Close: price}
		chart.Bricks = append(chart.Bricks, renko.Brick{Time: ts, BrickClose: price, Direction: dir})
	}
	return bars, chart
}

func TestClassifyBullTrend(t *testing.T) {
	bars, chart := trendFixture(true, 10)
	c, err := NewClassifier(Config{Lookback: 3})
	if err != nil {
		t.Fatal(err)
	}
	regimes := c.Classify(bars, chart)

	// Slope window fills at bar 2; from there the steady climb is bull.
	for i := 2; i < len(regimes); i++ {
		if regimes[i] != Bull {
			t.Errorf("regimes[%d] = %s, want bull", i, regimes[i])
		}
	}
	if regimes[0] != Sideways {
		t.Errorf("regimes[0] = %s, want sideways before windows fill", regimes[0])
	}
}

func TestClassifyBearTrend(t *testing.T) {
	bars, chart := trendFixture(false, 10)
	c, err := NewClassifier(Config{Lookback: 3})
	if err != nil {
		t.Fatal(err)
	}
	regimes := c.Classify(bars, chart)
	for i := 2; i < len(regimes); i++ {
		if regimes[i] != Bear {
			t.Errorf("regimes[%d] = %s, want bear", i, regimes[i])
		}
	}
}

func TestClassifyChopIsSideways(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := make([]market.Bar, 8)
	chart := &renko.Chart{BrickSize: 1}
	for i := range bars {
		// Alternating closes and brick directions cancel out.
		price := 100.0
		dir := 1
		if i%2 == 1 {
			price = 101
			dir = -1
		}
		ts := start.Add(time.Duration(i) * time.Minute)
		bars[i] = market.Bar{Time: ts, Open: price, High: price + 0.2, Low: price - 0.2, Close: price}
		chart.Bricks = append(chart.Bricks, renko.Brick{Time: ts, BrickClose: price, Direction: dir})
	}

	c, err := NewClassifier(Config{Lookback: 4})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range c.Classify(bars, chart) {
		if r != Sideways {
			t.Errorf("regimes[%d] = %s, want sideways for chop", i, r)
		}
	}
}

func TestClassifyNilChart(t *testing.T) {
	bars, _ := trendFixture(true, 4)
	c, err := NewClassifier(Config{})
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range c.Classify(bars, nil) {
		if r != Sideways {
			t.Errorf("regimes[%d] = %s, want sideways with no chart", i, r)
		}
	}
}

func TestNewClassifierValidation(t *testing.T) {
	if _, err := NewClassifier(Config{Lookback: 1}); err == nil {
		t.Error("Expected error for lookback below 2")
	}
	if _, err := NewClassifier(Config{StrengthThreshold: 1.5}); err == nil {
		t.Error("Expected error for threshold above 1")
	}
}
