package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultTuning = OATuning{
	DelayAt5:    10,
	DelayAt20:   2,
	RampAt5:     10,
	RampAt20:    5,
	RecoverFast: 20,
	RecoverSlow: 60,
}

var t0 = time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)

func TestInterpolate(t *testing.T) {
	// clamped at both endpoints
	assert.Equal(t, 10.0, interpolate(1.0, 1.05, 10, 1.20, 2))
	assert.Equal(t, 10.0, interpolate(1.05, 1.05, 10, 1.20, 2))
	assert.Equal(t, 2.0, interpolate(1.20, 1.05, 10, 1.20, 2))
	assert.Equal(t, 2.0, interpolate(1.5, 1.05, 10, 1.20, 2))
	// linear blend in between
	assert.InDelta(t, 6.0, interpolate(1.125, 1.05, 10, 1.20, 2), 1e-9)
	// degenerate anchor range
	assert.Equal(t, 10.0, interpolate(1.1, 1.05, 10, 1.05, 2))
}

func TestConsumptionTiming(t *testing.T) {
	delay, ramp := defaultTuning.ConsumptionTiming(1.05)
	assert.Equal(t, 10.0, delay)
	assert.Equal(t, 10.0, ramp)

	delay, ramp = defaultTuning.ConsumptionTiming(1.0625)
	assert.InDelta(t, 9.333333, delay, 1e-5)
	assert.InDelta(t, 9.583333, ramp, 1e-5)

	// ratio is capped at 20% overload
	delay, ramp = defaultTuning.ConsumptionTiming(1.5)
	assert.Equal(t, 2.0, delay)
	assert.Equal(t, 5.0, ramp)
}

func TestRecoveryTiming(t *testing.T) {
	assert.Equal(t, 20.0, defaultTuning.RecoveryTiming(0.80))
	assert.Equal(t, 60.0, defaultTuning.RecoveryTiming(1.00))
	assert.InDelta(t, 40.0, defaultTuning.RecoveryTiming(0.90), 1e-9)
}

func TestDegenerateReferenceLimit(t *testing.T) {
	s := NewOAState()
	next, factor := defaultTuning.Update(s, 10, 0, 1, t0)
	assert.Equal(t, 1.0, factor)
	assert.Equal(t, s, next)

	next, factor = defaultTuning.Update(s, 10, -4, 1, t0)
	assert.Equal(t, 1.0, factor)
	assert.Equal(t, s, next)
}

func TestAcceptedOverloadFactorIsRatio(t *testing.T) {
	s := NewOAState()
	s, factor := defaultTuning.Update(s, 17, 16, 1, t0)
	assert.InDelta(t, 1.0625, factor, 1e-9)
	assert.InDelta(t, 89.285714, s.Percent, 1e-5)
	assert.False(t, s.Ramping())
}

func TestOverloadDecayIsMonotonic(t *testing.T) {
	require := require.New(t)

	s := NewOAState()
	prev := s.Percent
	now := t0
	for i := 0; i < 30; i++ {
		now = now.Add(30 * time.Second)
		s, _ = defaultTuning.Update(s, 19.2, 16, 0.5, now)
		require.LessOrEqual(s.Percent, prev)
		require.GreaterOrEqual(s.Percent, 0.0)
		prev = s.Percent
	}
	require.Equal(0.0, s.Percent)
}

func TestRecoveryIsMonotonicAndBounded(t *testing.T) {
	require := require.New(t)

	s := NewOAState()
	s.Percent = 0

	// at 80% load the buffer refills in RecoverFast minutes
	prev := s.Percent
	now := t0
	var factor float64
	for i := 0; i < 20; i++ {
		now = now.Add(time.Minute)
		s, factor = defaultTuning.Update(s, 12.8, 16, 1, now)
		require.Equal(1.0, factor)
		require.GreaterOrEqual(s.Percent, prev)
		require.LessOrEqual(s.Percent, 100.0)
		prev = s.Percent
	}
	assert.InDelta(t, 100.0, s.Percent, 1e-9)
}

func TestRecoveryClearsRamp(t *testing.T) {
	s := NewOAState()
	s.Percent = 0
	s.RampStart = t0
	s.RampDuration = 5
	s.InitFactor = 1.2

	s, factor := defaultTuning.Update(s, 8, 16, 1, t0.Add(time.Minute))
	assert.Equal(t, 1.0, factor)
	assert.False(t, s.Ramping())
	assert.Greater(t, s.Percent, 0.0)
}

func TestRampLinearity(t *testing.T) {
	require := require.New(t)

	s := NewOAState()
	s.Percent = 0.0001 // nearly exhausted, next overload tick enters the ramp

	// ramp entry: progress 0, factor equals the entry overload ratio
	s, factor := defaultTuning.Update(s, 17, 16, 1, t0)
	require.True(s.Ramping())
	require.InDelta(1.0625, s.InitFactor, 1e-9)
	require.InDelta(9.583333, s.RampDuration, 1e-5)
	require.InDelta(1.0625, factor, 1e-9)

	// halfway: factor has decayed half the distance to 1.0
	half := time.Duration(s.RampDuration * 0.5 * float64(time.Minute))
	s, factor = defaultTuning.Update(s, 17, 16, 0.1, t0.Add(half))
	require.InDelta(1.03125, factor, 1e-6)

	// complete: factor pinned at exactly 1.0
	full := time.Duration(s.RampDuration * float64(time.Minute))
	s, factor = defaultTuning.Update(s, 17, 16, 0.1, t0.Add(full))
	require.Equal(1.0, factor)
	require.Equal(0.0, s.Percent)
}

func TestLimitedHoldsUntilLoadDrops(t *testing.T) {
	require := require.New(t)

	s := NewOAState()
	s.Percent = 0

	s, _ = defaultTuning.Update(s, 17, 16, 1, t0)
	require.True(s.Ramping())

	// long past ramp completion the factor stays pinned at 1.0
	for i := 1; i <= 5; i++ {
		now := t0.Add(time.Duration(i) * time.Hour)
		var factor float64
		s, factor = defaultTuning.Update(s, 17, 16, 1, now)
		require.Equal(1.0, factor)
		require.Equal(0.0, s.Percent)
	}

	// only dropping the load releases the entity back to recovery
	s, factor := defaultTuning.Update(s, 16, 16, 1, t0.Add(6*time.Hour))
	require.Equal(1.0, factor)
	require.False(s.Ramping())
	require.Greater(s.Percent, 0.0)
}

func TestInstantDecayOnZeroDelay(t *testing.T) {
	tuning := defaultTuning
	tuning.DelayAt5 = 0
	tuning.DelayAt20 = 0

	s := NewOAState()
	s, _ = tuning.Update(s, 17, 16, 0.0001, t0)
	assert.Equal(t, 0.0, s.Percent)
}

func TestInstantRiseOnZeroRecovery(t *testing.T) {
	tuning := defaultTuning
	tuning.RecoverFast = 0
	tuning.RecoverSlow = 0

	s := NewOAState()
	s.Percent = 0
	s, _ = tuning.Update(s, 8, 16, 0.0001, t0)
	assert.Equal(t, 100.0, s.Percent)
}

func TestZeroElapsedTimeKeepsState(t *testing.T) {
	s := NewOAState()

	next, _ := defaultTuning.Update(s, 17, 16, 0, t0)
	assert.Equal(t, s.Percent, next.Percent)

	next, _ = defaultTuning.Update(s, 8, 16, 0, t0)
	assert.Equal(t, s.Percent, next.Percent)
}
