package service

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/core/port"
)

// OverloadDistributor computes per-tick current limits for the managed units
// on a shared circuit. One overload acceptance buffer tracks the combined
// feed and one tracks each unit; whatever capacity the combined buffer grants
// is split proportionally over the units' capped demands.
type OverloadDistributor struct {
	MaxCombinedLoad   float64
	MaxIndividualLoad float64
	Tuning            OATuning
	Logger            *zap.Logger

	combined OAState
	units    [domain.NumUnits]OAState
}

func NewOverloadDistributor(maxCombinedLoad, maxIndividualLoad float64, tuning OATuning, logger *zap.Logger) *OverloadDistributor {
	d := &OverloadDistributor{
		MaxCombinedLoad:   maxCombinedLoad,
		MaxIndividualLoad: maxIndividualLoad,
		Tuning:            tuning,
		Logger:            logger,
		combined:          NewOAState(),
	}
	for i := range d.units {
		d.units[i] = NewOAState()
	}
	return d
}

// Tick advances every buffer by dtMinutes and produces the limits for this
// control period. Not safe for concurrent use; the caller serializes ticks.
func (d *OverloadDistributor) Tick(combinedActual float64, unitActual [domain.NumUnits]float64, dtMinutes float64, now time.Time) domain.DistributionResult {

	unitsTotal := 0.0
	for _, a := range unitActual {
		unitsTotal += a
	}
	// load on the circuit not attributable to the managed units
	unmanagedActual := math.Max(0.0, combinedActual-unitsTotal)

	var combinedFactor float64
	d.combined, combinedFactor = d.Tuning.Update(d.combined, combinedActual, d.MaxCombinedLoad, dtMinutes, now)

	var combinedLimit float64
	if combinedFactor > 1.0 {
		// accepted overload: the limit tracks the measured load
		combinedLimit = combinedActual
	} else {
		combinedLimit = d.MaxCombinedLoad * combinedFactor
	}

	managedCapacity := math.Max(0.0, combinedLimit-unmanagedActual)

	var preCapped [domain.NumUnits]float64
	demandTotal := 0.0
	var result domain.DistributionResult
	for i := range d.units {
		var factor float64
		d.units[i], factor = d.Tuning.Update(d.units[i], unitActual[i], d.MaxIndividualLoad, dtMinutes, now)

		cap := d.MaxIndividualLoad * factor
		preCapped[i] = math.Min(unitActual[i], cap)
		demandTotal += preCapped[i]
		result.Units[i].OAPercent = round2(d.units[i].Percent)
	}

	var final [domain.NumUnits]float64
	if managedCapacity >= demandTotal {
		final = preCapped
	} else if demandTotal > 0 {
		scale := managedCapacity / demandTotal
		for i, p := range preCapped {
			final[i] = p * scale
		}
	}

	d.Logger.Debug("distribution tick",
		zap.Float64("combined_actual", combinedActual),
		zap.Float64("combined_oa", d.combined.Percent),
		zap.Float64("combined_limit", combinedLimit),
		zap.Float64("managed_capacity", managedCapacity),
		zap.Float64("demand_total", demandTotal))

	result.Timestamp = now
	result.CombinedOAPercent = round2(d.combined.Percent)
	result.CombinedLimit = round2(combinedLimit)
	result.AvailableManagedCapacity = round2(managedCapacity)
	result.CombinedControlStatus = domain.ControlStatus(combinedActual, combinedLimit)
	for i := range result.Units {
		result.Units[i].PreCappedDemand = round2(preCapped[i])
		result.Units[i].FinalLimit = round2(final[i])
		result.Units[i].ControlStatus = domain.ControlStatus(unitActual[i], final[i])
	}
	return result
}

// CombinedOAPercent exposes the current combined buffer level at full
// precision, mainly for health reporting.
func (d *OverloadDistributor) CombinedOAPercent() float64 {
	return d.combined.Percent
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ensure interface compliance
var _ port.DistributionEngine = (*OverloadDistributor)(nil)
