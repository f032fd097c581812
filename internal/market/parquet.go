package market

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
)

// parquetBar is the on-disk row layout for cached bar files. Field tags
// follow the Polygon aggregate short names so files interchange with
// other tooling that reads the same dumps.
type parquetBar struct {
	Timestamp int64   `parquet:"t"` // unix milliseconds
	Open      float64 `parquet:"o"`
	High      float64 `parquet:"h"`
	Low       float64 `parquet:"l"`
	Close     float64 `parquet:"c"`
	Volume    int64   `parquet:"v"`
}

// ParquetStore persists bar series to parquet files, one file per
// symbol/range, so long backtests do not re-download history.
type ParquetStore struct {
	Location *time.Location
}

// NewParquetStore creates a store that reports bar times in loc
// (America/New_York when nil).
func NewParquetStore(loc *time.Location) *ParquetStore {
	if loc == nil {
		loc, _ = time.LoadLocation("America/New_York")
	}
	return &ParquetStore{Location: loc}
}

// Write saves bars to path, replacing any existing file.
func (s *ParquetStore) Write(path string, bars []Bar) error {
	rows := make([]parquetBar, len(bars))
	for i, b := range bars {
		rows[i] = parquetBar{
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open,
			High:      b.High,
			Low:       b.Low,
			Close:     b.Close,
			Volume:    b.Volume,
		}
	}
	if err := parquet.WriteFile(path, rows); err != nil {
		return fmt.Errorf("write parquet bars: %w", err)
	}
	return nil
}

// Read loads a previously written bar file.
func (s *ParquetStore) Read(path string) ([]Bar, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("stat parquet bars: %w", err)
	}
	rows, err := parquet.ReadFile[parquetBar](path)
	if err != nil {
		return nil, fmt.Errorf("read parquet bars: %w", err)
	}
	bars := make([]Bar, len(rows))
	for i, r := range rows {
		bars[i] = Bar{
			Time:   time.UnixMilli(r.Timestamp).In(s.Location),
			Open:   r.Open,
			High:   r.High,
			Low:    r.Low,
			Close:  r.Close,
			Volume: r.Volume,
		}
	}
	if err := ValidateSeries(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// ParquetSource adapts a single parquet bar file to the BarSource
// interface.
type ParquetSource struct {
	path  string
	store *ParquetStore
}

func NewParquetSource(path string, loc *time.Location) *ParquetSource {
	return &ParquetSource{path: path, store: NewParquetStore(loc)}
}

// Bars loads the file and keeps the bars inside [from, to]. Zero
// bounds are open-ended.
func (s *ParquetSource) Bars(_ context.Context, _ string, from, to time.Time) ([]Bar, error) {
	bars, err := s.store.Read(s.path)
	if err != nil {
		return nil, err
	}
	var out []Bar
	for _, b := range bars {
		if !from.IsZero() && b.Time.Before(from) {
			continue
		}
		if !to.IsZero() && b.Time.After(to) {
			continue
		}
		out = append(out, b)
	}
	return out, nil
}
