// Package options prices same-day-expiry index options with a
// synthetic model: a moneyness-banded base premium scaled by linear
// intraday time decay and by the underlying's price level. It is a
// backtesting stand-in for live quotes, not a market model.
package options

import (
	"math"
	"time"
)

// Right is the option type.
type Right string

const (
	Call Right = "call"
	Put  Right = "put"
)

// sessionMinutes is the regular cash session length (09:30 to 16:00).
const sessionMinutes = 390.0

// premiumFloor keeps far-OTM premiums from reaching zero so position
// sizing never divides by nothing.
const premiumFloor = 0.05

// strikeStep is the strike spacing used when snapping to the
// at-the-money strike.
const strikeStep = 5.0

// Contract is a single-session option position.
type Contract struct {
	Right  Right
	Strike float64
}

// ATMContract returns the at-the-money contract for a directional
// trade: a call for longs, a put for shorts, struck at the nearest
// listed strike.
func ATMContract(spot float64, long bool) Contract {
	right := Call
	if !long {
		right = Put
	}
	return Contract{Right: right, Strike: math.Round(spot/strikeStep) * strikeStep}
}

// Moneyness is the signed distance of spot from strike as a fraction
// of spot, positive when the option is in the money.
func (c Contract) Moneyness(spot float64) float64 {
	if spot == 0 {
		return 0
	}
	if c.Right == Call {
		return (spot - c.Strike) / spot
	}
	return (c.Strike - spot) / spot
}

// Intrinsic is the exercise value of one contract unit in underlying
// points.
func (c Contract) Intrinsic(spot float64) float64 {
	var v float64
	if c.Right == Call {
		v = spot - c.Strike
	} else {
		v = c.Strike - spot
	}
	return math.Max(v, 0)
}

// Premium prices the contract at the given spot and time. The base
// value interpolates across moneyness bands from deep ITM to far OTM,
// decays linearly from full value at the open to 30% at the close, and
// scales with the underlying's price level.
func (c Contract) Premium(spot float64, at time.Time) float64 {
	base := basePremium(c.Moneyness(spot))
	decay := 0.3 + 0.7*remainingSessionFraction(at)
	scale := spot / 500.0
	return math.Max(base*decay*scale, premiumFloor)
}

func basePremium(m float64) float64 {
	switch {
	case m >= 0.01:
		return 3.0 + m*100
	case m >= 0.005:
		return 2.5
	case m >= -0.005:
		return 2.0
	case m >= -0.01:
		return 1.2
	case m >= -0.02:
		return 0.6
	default:
		return 0.2
	}
}

// remainingSessionFraction maps the timestamp to the unexpired share
// of the cash session, 1 at or before the open and 0 at or after the
// close.
func remainingSessionFraction(at time.Time) float64 {
	minutesFromOpen := float64(at.Hour()*60+at.Minute()) - (9*60 + 30)
	return math.Min(1, math.Max(0, (sessionMinutes-minutesFromOpen)/sessionMinutes))
}
