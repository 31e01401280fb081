package events

import (
	. "github.com/Kjelljk/power-distributor/internal/core/domain"
)

// DistributionResultToUpdateEvents fans a distribution result out into one
// update event per published sensor.
func DistributionResultToUpdateEvents(r *DistributionResult) []any {
	var events []any

	// Combined current limit
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_COMBINED_LIMIT,
		},
		Value:    r.CombinedLimit,
		Decimals: 2,
	})
	// Combined overload acceptance
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_COMBINED_OA_PERCENT,
		},
		Value:    r.CombinedOAPercent,
		Decimals: 2,
	})
	// Available managed capacity
	events = append(events, FloatSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_MANAGED_CAPACITY,
		},
		Value:    r.AvailableManagedCapacity,
		Decimals: 2,
	})
	// Combined control status
	events = append(events, TextSensorUpdateEvent{
		SensorUpdateEventMixIn: SensorUpdateEventMixIn{
			Id: SENSOR_ID_COMBINED_CONTROL_STATUS,
		},
		Value: r.CombinedControlStatus,
	})

	for i := range r.Units {
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: UnitLimitSensorId(i),
			},
			Value:    r.Units[i].FinalLimit,
			Decimals: 2,
		})
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: UnitOAPercentSensorId(i),
			},
			Value:    r.Units[i].OAPercent,
			Decimals: 2,
		})
		events = append(events, FloatSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: UnitDemandSensorId(i),
			},
			Value:    r.Units[i].PreCappedDemand,
			Decimals: 2,
		})
		events = append(events, TextSensorUpdateEvent{
			SensorUpdateEventMixIn: SensorUpdateEventMixIn{
				Id: UnitControlStatusSensorId(i),
			},
			Value: r.Units[i].ControlStatus,
		})
	}

	return events
}
