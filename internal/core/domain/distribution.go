package domain

import (
	"time"

	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

const NumUnits = currentmeter.NumUnits

// Control status reported next to each limit. A load is "exceeded" when the
// measured current sits above the published limit by more than the tolerance,
// which absorbs meter rounding noise.
const (
	ControlStatusEnforced = "Limit Enforced"
	ControlStatusExceeded = "Limit Exceeded"

	LimitToleranceAmps = 0.01
)

func ControlStatus(actualAmps, limitAmps float64) string {
	if actualAmps > limitAmps+LimitToleranceAmps {
		return ControlStatusExceeded
	}
	return ControlStatusEnforced
}

type UnitResult struct {
	OAPercent       float64 `json:"oa_percent"`
	PreCappedDemand float64 `json:"pre_capped_demand_a"`
	FinalLimit      float64 `json:"final_limit_a"`
	ControlStatus   string  `json:"control_status"`
}

type DistributionResult struct {
	Timestamp                time.Time            `json:"timestamp"`
	CombinedOAPercent        float64              `json:"combined_oa_percent"`
	CombinedLimit            float64              `json:"current_combined_limit_a"`
	AvailableManagedCapacity float64              `json:"available_managed_capacity_a"`
	CombinedControlStatus    string               `json:"combined_control_status"`
	Units                    [NumUnits]UnitResult `json:"units"`
}
