package strategy

import (
	"time"

	"github.com/google/uuid"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/wave"
)

// Direction of a signal.
type Direction int

const (
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	if d == Long {
		return "long"
	}
	return "short"
}

// TargetMode selects how the profit target is derived.
type TargetMode string

const (
	// TargetATR projects the target a fixed ATR multiple from entry.
	TargetATR TargetMode = "atr"
	// TargetWave uses the wave swing projection when one is available,
	// falling back to the ATR target otherwise.
	TargetWave TargetMode = "wave"
	// TargetSession aims at the nearest Asia or London level beyond
	// the entry price, falling back to one percent of price when no
	// level sits on the profit side.
	TargetSession TargetMode = "session"
)

// Signal is a fully qualified trade candidate. Price is the close of
// the signal bar; actual entry happens at the next bar's open in the
// simulator.
type Signal struct {
	ID         uuid.UUID
	Symbol     string
	Time       time.Time
	BarIndex   int
	Direction  Direction
	Price      float64
	Target     float64
	ATR        float64
	Confidence float64
	WaveEntry  *wave.Entry
	Reasons    []string
}
