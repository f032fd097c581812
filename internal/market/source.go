package market

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

// BarSource yields strictly time-ordered OHLCV bars for one symbol over
// an inclusive date range. Implementations must tolerate gaps
// (non-trading hours) without requiring callers to pre-filter.
type BarSource interface {
	Bars(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error)
}

// CSVSource loads bars from a CSV file with header
// timestamp,open,high,low,close,volume. Timestamps are parsed as RFC3339
// (or unix milliseconds) and converted to the source's location, which
// defaults to America/New_York.
type CSVSource struct {
	Path     string
	Location *time.Location
}

// NewCSVSource creates a CSV bar source for the given file.
func NewCSVSource(path string) (*CSVSource, error) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return nil, fmt.Errorf("load market timezone: %w", err)
	}
	return &CSVSource{Path: path, Location: loc}, nil
}

// Bars implements BarSource. The symbol argument is ignored; a CSV file
// holds a single symbol by construction.
func (s *CSVSource) Bars(ctx context.Context, _ string, from, to time.Time) ([]Bar, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open bar file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bar file: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[name] = i
	}
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("bar file missing column %q", required)
		}
	}

	bars := make([]Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ts, err := s.parseTime(rec[col["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("parse bar timestamp %q: %w", rec[col["timestamp"]], err)
		}
		if ts.Before(from) || ts.After(to) {
			continue
		}
		bar := Bar{Time: ts}
		if bar.Open, err = strconv.ParseFloat(rec[col["open"]], 64); err != nil {
			return nil, fmt.Errorf("parse open: %w", err)
		}
		if bar.High, err = strconv.ParseFloat(rec[col["high"]], 64); err != nil {
			return nil, fmt.Errorf("parse high: %w", err)
		}
		if bar.Low, err = strconv.ParseFloat(rec[col["low"]], 64); err != nil {
			return nil, fmt.Errorf("parse low: %w", err)
		}
		if bar.Close, err = strconv.ParseFloat(rec[col["close"]], 64); err != nil {
			return nil, fmt.Errorf("parse close: %w", err)
		}
		vol, err := strconv.ParseFloat(rec[col["volume"]], 64)
		if err != nil {
			return nil, fmt.Errorf("parse volume: %w", err)
		}
		bar.Volume = int64(vol)
		bars = append(bars, bar)
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

func (s *CSVSource) parseTime(raw string) (time.Time, error) {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.UnixMilli(ms).In(loc), nil
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		// Polygon CSV exports drop the T separator.
		ts, err = time.ParseInLocation("2006-01-02 15:04:05", raw, time.UTC)
		if err != nil {
			return time.Time{}, err
		}
	}
	return ts.In(loc), nil
}
