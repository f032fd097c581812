// Package wave tracks multi-brick impulse waves on a Renko chart and
// turns healthy retracements into entry opportunities with swing-based
// profit targets.
package wave

import (
	"fmt"
	"math"
	"time"

	"github.com/sjonesw-lab/Maxtrader-sub000/internal/renko"
)

// RetraceType classifies how much of a wave price has given back.
type RetraceType string

const (
	RetraceShallow RetraceType = "shallow"
	RetraceHealthy RetraceType = "healthy"
	RetraceDeep    RetraceType = "deep"
)

const (
	shallowLimit = 0.33
	deepLimit    = 0.62
)

// tp2Ratio extends the second target by the golden ratio of the wave
// height.
const tp2Ratio = 1.618

// Wave is a completed impulse run of consecutive same-direction bricks.
// P1 is the turn point before the run, P2 the run extreme.
type Wave struct {
	StartIndex int
	EndIndex   int
	Direction  int
	BrickCount int
	P1         float64
	P2         float64
	Height     float64
}

// Entry is a tradeable retracement into an active wave.
type Entry struct {
	Time        time.Time
	Wave        Wave
	Price       float64
	RetracePct  float64
	RetraceType RetraceType
	TP1         float64
	TP2         float64
}

// Config tunes wave detection.
type Config struct {
	MinBricks        int     // minimum run length, default 3
	MaxEntryDistance float64 // max distance from P2 in brick sizes, default 1.5
}

// Analyzer is the wave state machine. At any moment it tracks at most
// one active wave; a wave emits at most one entry, is invalidated by a
// deep retracement, and goes stale when price extends past its P2.
type Analyzer struct {
	cfg       Config
	brickSize float64

	active *Wave

	runDir   int
	runStart int
	runLen   int
}

func NewAnalyzer(cfg Config, brickSize float64) (*Analyzer, error) {
	if cfg.MinBricks == 0 {
		cfg.MinBricks = 3
	}
	if cfg.MinBricks < 2 {
		return nil, fmt.Errorf("wave: min bricks must be at least 2, got %d", cfg.MinBricks)
	}
	if cfg.MaxEntryDistance == 0 {
		cfg.MaxEntryDistance = 1.5
	}
	if cfg.MaxEntryDistance < 0 {
		return nil, fmt.Errorf("wave: max entry distance must be positive, got %v", cfg.MaxEntryDistance)
	}
	if brickSize <= 0 {
		return nil, fmt.Errorf("wave: brick size must be positive, got %v", brickSize)
	}
	return &Analyzer{cfg: cfg, brickSize: brickSize}, nil
}

// Active returns the wave currently being tracked, nil when none.
func (a *Analyzer) Active() *Wave {
	return a.active
}

// Step feeds one brick through the state machine and returns an entry
// when a valid retracement into the active wave occurs, nil otherwise.
func (a *Analyzer) Step(index int, brick renko.Brick) *Entry {
	if brick.Direction == a.runDir {
		a.runLen++
	} else {
		a.runDir = brick.Direction
		a.runStart = index
		a.runLen = 1
	}

	if a.active != nil && brick.Direction == a.active.Direction {
		dir := float64(a.active.Direction)
		if brick.BrickClose*dir > a.active.P2*dir {
			// Price extended past P2: the wave is stale. The ongoing
			// run immediately re-qualifies below as a new, longer wave.
			a.clear()
		} else {
			// A bounce back toward P2 is not a retracement; the wave
			// stays armed for the next pullback.
			return nil
		}
	}

	if a.active == nil {
		if a.runLen >= a.cfg.MinBricks {
			a.adopt(index, brick)
		}
		return nil
	}

	// Opposite-direction brick while a wave is active: a retracement.
	retrace := math.Abs(a.active.P2-brick.BrickClose) / a.active.Height
	rt := classifyRetrace(retrace)
	if rt == RetraceDeep {
		a.clear()
		return nil
	}
	if math.Abs(brick.BrickClose-a.active.P2) > a.cfg.MaxEntryDistance*a.brickSize {
		return nil
	}

	dir := float64(a.active.Direction)
	entry := &Entry{
		Time:        brick.Time,
		Wave:        *a.active,
		Price:       brick.BrickClose,
		RetracePct:  retrace,
		RetraceType: rt,
		TP1:         a.active.P2 + dir*a.active.Height,
		TP2:         a.active.P2 + dir*tp2Ratio*a.active.Height,
	}
	// One entry per impulse.
	a.clear()
	return entry
}

// Analyze runs the state machine over a whole chart and collects every
// entry it emits.
func Analyze(chart *renko.Chart, cfg Config) ([]Entry, error) {
	if chart == nil || len(chart.Bricks) == 0 {
		return nil, nil
	}
	analyzer, err := NewAnalyzer(cfg, chart.BrickSize)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	for i, brick := range chart.Bricks {
		if entry := analyzer.Step(i, brick); entry != nil {
			entries = append(entries, *entry)
		}
	}
	return entries, nil
}

func (a *Analyzer) adopt(index int, brick renko.Brick) {
	dir := float64(a.runDir)
	p2 := brick.BrickClose
	p1 := p2 - dir*float64(a.runLen)*a.brickSize
	a.active = &Wave{
		StartIndex: a.runStart,
		EndIndex:   index,
		Direction:  a.runDir,
		BrickCount: a.runLen,
		P1:         p1,
		P2:         p2,
		Height:     math.Abs(p2 - p1),
	}
}

func (a *Analyzer) clear() {
	a.active = nil
}

func classifyRetrace(pct float64) RetraceType {
	switch {
	case pct < shallowLimit:
		return RetraceShallow
	case pct <= deepLimit:
		return RetraceHealthy
	default:
		return RetraceDeep
	}
}
