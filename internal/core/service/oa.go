package service

import (
	"math"
	"time"
)

// OATuning holds the anchor points of the overload acceptance timing curves.
// All durations are minutes.
type OATuning struct {
	DelayAt5    float64
	DelayAt20   float64
	RampAt5     float64
	RampAt20    float64
	RecoverFast float64
	RecoverSlow float64
}

// OAState is the overload acceptance buffer of a single entity (the combined
// circuit or one unit). Percent is the remaining grace in [0, 100]. RampStart
// is set only while a ramp-down is in progress; RampDuration and InitFactor
// are captured at ramp entry and fixed for the whole ramp.
type OAState struct {
	Percent      float64
	RampStart    time.Time
	RampDuration float64
	InitFactor   float64
}

func NewOAState() OAState {
	return OAState{
		Percent:    100,
		InitFactor: 1.0,
	}
}

func (s OAState) Ramping() bool {
	return !s.RampStart.IsZero()
}

// Update advances the buffer by dtMinutes given the measured load and the
// reference limit, and returns the next state plus the allowed limit factor.
// A factor > 1.0 means the overload is still accepted, 1.0 means the entity
// is pinned to its reference limit.
func (t OATuning) Update(s OAState, actualLoad, referenceLimit, dtMinutes float64, now time.Time) (OAState, float64) {
	if referenceLimit <= 0 {
		// no restriction can be derived from a degenerate limit
		return s, 1.0
	}

	overloadRatio := actualLoad / referenceLimit

	if actualLoad <= referenceLimit {
		// recovery: refill the buffer, faster the further under the limit
		s.RampStart = time.Time{}

		loadRatio := math.Max(0.0, math.Min(1.0, overloadRatio))
		recover := t.RecoveryTiming(loadRatio)
		if recover > 0 {
			s.Percent = math.Min(100.0, s.Percent+(100.0/recover)*dtMinutes)
		} else {
			s.Percent = 100.0
		}
		return s, math.Max(1.0, overloadRatio)
	}

	// consumption: drain the buffer while the overload lasts
	delay, ramp := t.ConsumptionTiming(overloadRatio)
	if delay > 0 {
		s.Percent = math.Max(0.0, s.Percent-(100.0/delay)*dtMinutes)
	} else {
		s.Percent = 0.0
	}

	if s.Percent > 0 {
		// accepted overload, no limiting yet
		s.RampStart = time.Time{}
		return s, overloadRatio
	}

	// buffer exhausted: ramp the allowed factor down to 1.0
	if !s.Ramping() {
		s.RampStart = now
		s.RampDuration = ramp
		s.InitFactor = overloadRatio
	}

	progress := 1.0
	if s.RampDuration > 0 {
		elapsed := now.Sub(s.RampStart).Minutes()
		progress = math.Min(1.0, elapsed/s.RampDuration)
	}

	if progress >= 1.0 {
		s.Percent = 0.0
		return s, 1.0
	}
	return s, s.InitFactor - (s.InitFactor-1.0)*progress
}

// ConsumptionTiming derives the delay and ramp durations for the current
// overload ratio, capped at 20% overload.
func (t OATuning) ConsumptionTiming(overloadRatio float64) (delay, ramp float64) {
	ratio := math.Min(1.20, overloadRatio)
	delay = interpolate(ratio, 1.05, t.DelayAt5, 1.20, t.DelayAt20)
	ramp = interpolate(ratio, 1.05, t.RampAt5, 1.20, t.RampAt20)
	return delay, ramp
}

// RecoveryTiming derives how long a full 0 to 100 refill takes, between 20%
// under-load and rated load. Callers clamp loadRatio to [0, 1].
func (t OATuning) RecoveryTiming(loadRatio float64) float64 {
	return interpolate(loadRatio, 0.80, t.RecoverFast, 1.00, t.RecoverSlow)
}

// interpolate is a linear blend between (x1, y1) and (x2, y2), clamped at the
// endpoints.
func interpolate(x, x1, y1, x2, y2 float64) float64 {
	if x1 == x2 || x <= x1 {
		return y1
	}
	if x >= x2 {
		return y2
	}
	return y1 + (y2-y1)*(x-x1)/(x2-x1)
}
