package market

import (
	"testing"
	"time"
)

func TestResampleBuckets(t *testing.T) {
	start := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	bars := minuteBars(start,
		[4]float64{100, 101, 99, 100.5},
		[4]float64{100.5, 102, 100, 101},
		[4]float64{101, 101.5, 100.5, 101},
	)
	// 15m buckets: 09:30 and 09:31 land in the 09:30 bucket, 09:32 too.
	out := Resample(bars, 15*time.Minute)
	if len(out) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(out))
	}
	b := out[0]
	if b.Open != 100 || b.Close != 101 || b.High != 102 || b.Low != 99 {
		t.Errorf("Bucket OHLC = %v/%v/%v/%v, want 100/102/99/101", b.Open, b.High, b.Low, b.Close)
	}

	// Bars across the 09:45 boundary split into two buckets.
	bars = append(bars, Bar{Time: start.Add(16 * time.Minute), Open: 101, High: 103, Low: 101, Close: 102})
	out = Resample(bars, 15*time.Minute)
	if len(out) != 2 {
		t.Fatalf("Expected 2 buckets, got %d", len(out))
	}
	if out[1].Open != 101 || out[1].Close != 102 {
		t.Errorf("Second bucket = %+v", out[1])
	}
}

func TestResampleDaily(t *testing.T) {
	d1 := time.Date(2024, 3, 5, 9, 30, 0, 0, time.UTC)
	d2 := time.Date(2024, 3, 6, 9, 30, 0, 0, time.UTC)
	bars := []Bar{
		{Time: d1, Open: 100, High: 101, Low: 99, Close: 100},
		{Time: d1.Add(time.Minute), Open: 100, High: 104, Low: 98, Close: 103},
		{Time: d2, Open: 103, High: 105, Low: 102, Close: 104},
	}
	out := ResampleDaily(bars)
	if len(out) != 2 {
		t.Fatalf("Expected 2 daily bars, got %d", len(out))
	}
	if out[0].High != 104 || out[0].Low != 98 || out[0].Close != 103 {
		t.Errorf("First day = %+v", out[0])
	}
	if out[1].Open != 103 || out[1].Close != 104 {
		t.Errorf("Second day = %+v", out[1])
	}
}

func TestResampleEmpty(t *testing.T) {
	if out := Resample(nil, 15*time.Minute); out != nil {
		t.Errorf("Expected nil for empty input, got %v", out)
	}
}
