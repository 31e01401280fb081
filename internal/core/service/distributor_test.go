package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
)

func newTestDistributor() *OverloadDistributor {
	return NewOverloadDistributor(16, 4, defaultTuning, zap.Must(zap.NewDevelopment()))
}

func TestBalancedAtRatedLoad(t *testing.T) {
	d := newTestDistributor()

	r := d.Tick(16, [domain.NumUnits]float64{4, 4, 4, 4}, 1, t0)

	assert.Equal(t, 100.0, r.CombinedOAPercent)
	assert.Equal(t, 16.0, r.CombinedLimit)
	assert.Equal(t, 16.0, r.AvailableManagedCapacity)
	assert.Equal(t, domain.ControlStatusEnforced, r.CombinedControlStatus)
	for i := range r.Units {
		assert.Equal(t, 100.0, r.Units[i].OAPercent)
		assert.Equal(t, 4.0, r.Units[i].PreCappedDemand)
		assert.Equal(t, 4.0, r.Units[i].FinalLimit)
		assert.Equal(t, domain.ControlStatusEnforced, r.Units[i].ControlStatus)
	}
}

func TestCombinedOverloadFirstTick(t *testing.T) {
	d := newTestDistributor()

	// 17 A on a 16 A circuit with 1 A unmanaged load: the overload is
	// accepted, so the limit tracks the measured load
	r := d.Tick(17, [domain.NumUnits]float64{4, 4, 4, 4}, 1, t0)

	assert.Equal(t, 89.29, r.CombinedOAPercent)
	assert.Equal(t, 17.0, r.CombinedLimit)
	assert.Equal(t, 16.0, r.AvailableManagedCapacity)
	assert.Equal(t, domain.ControlStatusEnforced, r.CombinedControlStatus)
	for i := range r.Units {
		assert.Equal(t, 4.0, r.Units[i].PreCappedDemand)
		assert.Equal(t, 4.0, r.Units[i].FinalLimit)
	}
}

func TestUnmanagedLoadReducesCapacity(t *testing.T) {
	d := newTestDistributor()

	r := d.Tick(16, [domain.NumUnits]float64{3, 3, 3, 3}, 1, t0)

	assert.Equal(t, 16.0, r.CombinedLimit)
	assert.Equal(t, 12.0, r.AvailableManagedCapacity)
	for i := range r.Units {
		assert.Equal(t, 3.0, r.Units[i].FinalLimit)
	}
}

func TestSustainedOverloadRampsToHardLimit(t *testing.T) {
	require := require.New(t)

	d := newTestDistributor()
	units := [domain.NumUnits]float64{4, 4, 4, 4}

	// 25% combined overload, timing capped at the 20% anchors: the buffer
	// drains in 2 minutes, then a 5 minute ramp brings the limit down
	r := d.Tick(20, units, 1, t0)
	require.Equal(50.0, r.CombinedOAPercent)
	require.Equal(20.0, r.CombinedLimit)

	r = d.Tick(20, units, 1, t0.Add(1*time.Minute))
	require.Equal(0.0, r.CombinedOAPercent)
	// ramp entry: factor still above 1.0, limit still tracks the load
	require.Equal(20.0, r.CombinedLimit)

	r = d.Tick(20, units, 6, t0.Add(7*time.Minute))
	require.Equal(16.0, r.CombinedLimit)
	require.Equal(domain.ControlStatusExceeded, r.CombinedControlStatus)

	// 4 A of unmanaged load eats into the enforced 16 A
	require.Equal(12.0, r.AvailableManagedCapacity)
	for i := range r.Units {
		require.Equal(3.0, r.Units[i].FinalLimit)
		require.Equal(domain.ControlStatusExceeded, r.Units[i].ControlStatus)
	}
}

func TestScarcityScalesProportionally(t *testing.T) {
	require := require.New(t)

	d := newTestDistributor()
	units := [domain.NumUnits]float64{4, 3, 2, 1}

	// drive the combined circuit into steady limiting
	d.Tick(20, units, 1, t0)
	d.Tick(20, units, 1, t0.Add(1*time.Minute))
	r := d.Tick(20, units, 6, t0.Add(7*time.Minute))

	require.Equal(16.0, r.CombinedLimit)
	// unmanaged load is 10 A, so 6 A is split over 10 A of demand
	require.Equal(6.0, r.AvailableManagedCapacity)

	expected := []float64{2.4, 1.8, 1.2, 0.6}
	sum := 0.0
	for i := range r.Units {
		require.InDelta(expected[i], r.Units[i].FinalLimit, 1e-9)
		require.InDelta(0.6, r.Units[i].FinalLimit/r.Units[i].PreCappedDemand, 1e-9)
		sum += r.Units[i].FinalLimit
	}
	require.InDelta(r.AvailableManagedCapacity, sum, 1e-9)
}

func TestZeroDemandYieldsZeroLimits(t *testing.T) {
	d := newTestDistributor()

	r := d.Tick(5, [domain.NumUnits]float64{0, 0, 0, 0}, 1, t0)

	assert.Equal(t, 16.0, r.CombinedLimit)
	assert.Equal(t, 11.0, r.AvailableManagedCapacity)
	for i := range r.Units {
		assert.Equal(t, 0.0, r.Units[i].FinalLimit)
	}
}

func TestUnitOverloadIsAcceptedThenCapped(t *testing.T) {
	require := require.New(t)

	d := newTestDistributor()
	// unit 0 draws 5 A against its 4 A limit, 25% overload
	units := [domain.NumUnits]float64{5, 2, 2, 2}

	r := d.Tick(13, units, 1, t0)
	require.Equal(50.0, r.Units[0].OAPercent)
	require.Equal(5.0, r.Units[0].PreCappedDemand)

	d.Tick(13, units, 1, t0.Add(1*time.Minute))
	r = d.Tick(13, units, 6, t0.Add(7*time.Minute))

	// unit ramp complete: the pre-capped demand is pinned to 4 A
	require.Equal(0.0, r.Units[0].OAPercent)
	require.Equal(4.0, r.Units[0].PreCappedDemand)
	require.Equal(4.0, r.Units[0].FinalLimit)
	require.Equal(domain.ControlStatusExceeded, r.Units[0].ControlStatus)
	require.Equal(100.0, r.Units[1].OAPercent)
}

func TestZeroElapsedTimeTickIsIdempotent(t *testing.T) {
	d := newTestDistributor()
	units := [domain.NumUnits]float64{4, 4, 4, 4}

	first := d.Tick(17, units, 1, t0)
	second := d.Tick(17, units, 0, t0)

	assert.Equal(t, first.CombinedOAPercent, second.CombinedOAPercent)
	for i := range second.Units {
		assert.Equal(t, first.Units[i].OAPercent, second.Units[i].OAPercent)
	}
}
