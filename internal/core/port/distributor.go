package port

import (
	"time"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
)

type DistributionEngine interface {
	Tick(combinedActual float64, unitActual [domain.NumUnits]float64, dtMinutes float64, now time.Time) domain.DistributionResult
	CombinedOAPercent() float64
}
