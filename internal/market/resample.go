package market

import "time"

// Resample aggregates minute bars into fixed-width buckets (e.g. 4h,
// 24h). Buckets are anchored on the bar's local day; empty buckets are
// skipped rather than filled, so gaps in trading hours never produce
// synthetic bars. The returned bar carries the bucket's opening
// timestamp.
func Resample(bars []Bar, width time.Duration) []Bar {
	if len(bars) == 0 || width <= 0 {
		return nil
	}

	var out []Bar
	var current Bar
	var bucket time.Time
	open := false

	for _, b := range bars {
		key := b.Time.Truncate(width)
		if !open || !key.Equal(bucket) {
			if open {
				out = append(out, current)
			}
			bucket = key
			current = Bar{Time: key, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			open = true
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}
	if open {
		out = append(out, current)
	}
	return out
}

// ResampleDaily aggregates bars into calendar days in the bar's own
// location. Used for the daily trend leg of confluence scoring.
func ResampleDaily(bars []Bar) []Bar {
	if len(bars) == 0 {
		return nil
	}

	var out []Bar
	var current Bar
	var y, d int
	var m time.Month
	open := false

	for _, b := range bars {
		by, bm, bd := b.Time.Date()
		if !open || by != y || bm != m || bd != d {
			if open {
				out = append(out, current)
			}
			y, m, d = by, bm, bd
			day := time.Date(by, bm, bd, 0, 0, 0, 0, b.Time.Location())
			current = Bar{Time: day, Open: b.Open, High: b.High, Low: b.Low, Close: b.Close, Volume: b.Volume}
			open = true
			continue
		}
		if b.High > current.High {
			current.High = b.High
		}
		if b.Low < current.Low {
			current.Low = b.Low
		}
		current.Close = b.Close
		current.Volume += b.Volume
	}
	if open {
		out = append(out, current)
	}
	return out
}
