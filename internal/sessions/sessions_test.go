package sessions

import (
	"testing"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/market"
)

func at(day, hour, minute int) time.Time {
	return time.Date(2024, 3, day, hour, minute, 0, 0, time.UTC)
}

func bar(t time.Time, o, h, l, c float64) market.Bar {
	return market.Bar{Time: t, Open: o, High: h, Low: l, Close: c}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		hour, minute int
		want         Label
	}{
		{9, 30, NewYork},
		{15, 59, NewYork},
		{3, 0, London},
		{9, 29, London},
		{18, 0, Asia},
		{2, 59, Asia},
		{16, 0, Other},
		{17, 30, Other},
	}
	for _, tc := range cases {
		got := Classify(at(5, tc.hour, tc.minute))
		if got != tc.want {
			t.Errorf("Classify(%02d:%02d) = %s, want %s", tc.hour, tc.minute, got, tc.want)
		}
	}
}

func TestTradingDayGroupsAsiaWithNextDay(t *testing.T) {
	evening := TradingDay(at(5, 19, 0))
	morning := TradingDay(at(6, 10, 0))
	if !evening.Equal(morning) {
		t.Errorf("Asia evening bar and next-morning bar should share a trading day, got %v and %v", evening, morning)
	}
	if evening.Day() != 6 {
		t.Errorf("Expected trading day 6, got %d", evening.Day())
	}
}

func TestTrackCumulativeLevels(t *testing.T) {
	bars := []market.Bar{
		// Asia session builds the overnight range.
		bar(at(5, 19, 0), 100, 101, 99, 100.5),
		bar(at(5, 20, 0), 100.5, 102, 100, 101),
		// London extends its own range.
		bar(at(6, 4, 0), 101, 103, 100.5, 102),
		// NY bar sees both completed ranges.
		bar(at(6, 9, 30), 102, 102.5, 101.5, 102),
	}

	labels, levels := Track(bars)

	if labels[0] != Asia || labels[2] != London || labels[3] != NewYork {
		t.Fatalf("Unexpected labels: %v", labels)
	}

	// First Asia bar only sees itself.
	if levels[0].AsiaHigh != 101 || levels[0].AsiaLow != 99 {
		t.Errorf("First bar Asia levels = [%v, %v], want [99, 101]", levels[0].AsiaLow, levels[0].AsiaHigh)
	}
	// Second Asia bar extends the high.
	if levels[1].AsiaHigh != 102 {
		t.Errorf("Asia high after second bar = %v, want 102", levels[1].AsiaHigh)
	}
	// NY bar sees the full Asia and London ranges.
	ny := levels[3]
	if ny.AsiaHigh != 102 || ny.AsiaLow != 99 {
		t.Errorf("NY bar Asia levels = [%v, %v], want [99, 102]", ny.AsiaLow, ny.AsiaHigh)
	}
	if ny.LondonHigh != 103 || ny.LondonLow != 100.5 {
		t.Errorf("NY bar London levels = [%v, %v], want [100.5, 103]", ny.LondonLow, ny.LondonHigh)
	}
}

func TestTrackEmptyAsiaStaysNaN(t *testing.T) {
	bars := []market.Bar{
		bar(at(6, 9, 30), 100, 101, 99, 100),
		bar(at(6, 9, 31), 100, 101.5, 99.5, 101),
	}
	_, levels := Track(bars)
	for i, lv := range levels {
		if lv.HasAsia() {
			t.Errorf("Bar %d should have no Asia levels when Asia printed no bars", i)
		}
	}
}

func TestTrackResetsAcrossTradingDays(t *testing.T) {
	bars := []market.Bar{
		bar(at(5, 19, 0), 100, 110, 90, 100),
		// Next trading day starts with the following Asia open.
		bar(at(6, 19, 0), 100, 101, 99, 100),
	}
	_, levels := Track(bars)
	if levels[1].AsiaHigh != 101 || levels[1].AsiaLow != 99 {
		t.Errorf("Second day should not inherit first day's range, got [%v, %v]", levels[1].AsiaLow, levels[1].AsiaHigh)
	}
}
