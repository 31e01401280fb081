package events

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"github.com/carlmjohnson/versioninfo"

	. "github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

const (
	SENSOR_ID_BRIDGE_STATE            = "bridge"
	SENSOR_ID_COMBINED_LIMIT          = "combined_current_limit"
	SENSOR_ID_COMBINED_OA_PERCENT     = "combined_oa_percent"
	SENSOR_ID_MANAGED_CAPACITY        = "available_managed_capacity"
	SENSOR_ID_COMBINED_CONTROL_STATUS = "combined_control_status"

	STATE_CLASS_MEASUREMENT   = "measurement"
	DEVICE_CLASS_CURRENT      = "current"
	DEVICE_CLASS_CONNECTIVITY = "connectivity"
	ENTITY_CLASS_DIAGNOSTIC   = "diagnostic"
	SENSOR_TYPE_SENSOR        = "sensor"
	SENSOR_TYPE_BINARY        = "binary_sensor"
)

func UnitLimitSensorId(unit int) string {
	return fmt.Sprintf("unit_%d_current_limit", unit+1)
}

func UnitOAPercentSensorId(unit int) string {
	return fmt.Sprintf("unit_%d_oa_percent", unit+1)
}

func UnitDemandSensorId(unit int) string {
	return fmt.Sprintf("unit_%d_demand", unit+1)
}

func UnitControlStatusSensorId(unit int) string {
	return fmt.Sprintf("unit_%d_control_status", unit+1)
}

func BridgeDevice(baseTopic string) Device {
	return Device{
		Id:           fmt.Sprintf("pdist_bridge_%s", md5HashShort(baseTopic)),
		Manufacturer: "Kjelljk",
		Model:        "Power Distributor",
		Version:      versioninfo.Short(),
		Name:         fmt.Sprintf("Power Distributor %s", md5HashShort(baseTopic)),
	}
}

func CircuitDevice(info *currentmeter.MeterInfo) Device {
	return Device{
		Id:           fmt.Sprintf("pdist_circuit_%s", md5HashShort(info.Serial)),
		Version:      info.Version,
		Manufacturer: info.Manufacturer,
		Model:        info.Model,
		Name:         fmt.Sprintf("%s %s %s", info.Manufacturer, info.Model, md5HashShort(info.Serial)),
	}
}

func IdDevice(device Device) Device {
	return Device{
		Id:   device.Id,
		Name: device.Name,
	}
}

func CombinedCircuitSensors(circuitDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Combined current limit
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                SENSOR_ID_COMBINED_LIMIT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Combined current limit",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(circuitDevice.Id, SENSOR_ID_COMBINED_LIMIT),
	})

	// Combined overload acceptance
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                SENSOR_ID_COMBINED_OA_PERCENT,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Combined overload acceptance",
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		Icon:              "mdi:timer-sand",
		UniqueId:          uniqueId(circuitDevice.Id, SENSOR_ID_COMBINED_OA_PERCENT),
	})

	// Available managed capacity
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                SENSOR_ID_MANAGED_CAPACITY,
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              "Available managed capacity",
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(circuitDevice.Id, SENSOR_ID_MANAGED_CAPACITY),
	})

	// Combined control status
	sensors = append(sensors, GenericSensor{
		Device:     circuitDevice,
		Id:         SENSOR_ID_COMBINED_CONTROL_STATUS,
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       "Combined control status",
		Icon:       "mdi:speedometer",
		UniqueId:   uniqueId(circuitDevice.Id, SENSOR_ID_COMBINED_CONTROL_STATUS),
	})

	return sensors
}

func UnitSensors(circuitDevice Device, unit int) []GenericSensor {

	var sensors []GenericSensor

	// Unit current limit
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                UnitLimitSensorId(unit),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Unit %d current limit", unit+1),
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		UniqueId:          uniqueId(circuitDevice.Id, UnitLimitSensorId(unit)),
	})

	// Unit overload acceptance
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                UnitOAPercentSensorId(unit),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Unit %d overload acceptance", unit+1),
		StateClass:        STATE_CLASS_MEASUREMENT,
		UnitOfMeasurement: "%",
		Icon:              "mdi:timer-sand",
		UniqueId:          uniqueId(circuitDevice.Id, UnitOAPercentSensorId(unit)),
	})

	// Unit capped demand
	sensors = append(sensors, GenericSensor{
		Device:            circuitDevice,
		Id:                UnitDemandSensorId(unit),
		SensorType:        SENSOR_TYPE_SENSOR,
		Name:              fmt.Sprintf("Unit %d capped demand", unit+1),
		StateClass:        STATE_CLASS_MEASUREMENT,
		DeviceClass:       DEVICE_CLASS_CURRENT,
		UnitOfMeasurement: "A",
		EnabledByDefault:  optionalBool(false),
		UniqueId:          uniqueId(circuitDevice.Id, UnitDemandSensorId(unit)),
	})

	// Unit control status
	sensors = append(sensors, GenericSensor{
		Device:     circuitDevice,
		Id:         UnitControlStatusSensorId(unit),
		SensorType: SENSOR_TYPE_SENSOR,
		Name:       fmt.Sprintf("Unit %d control status", unit+1),
		Icon:       "mdi:speedometer",
		UniqueId:   uniqueId(circuitDevice.Id, UnitControlStatusSensorId(unit)),
	})

	return sensors
}

func DistributorSensors(circuitDevice Device) []GenericSensor {
	sensors := CombinedCircuitSensors(circuitDevice)
	for i := 0; i < NumUnits; i++ {
		sensors = append(sensors, UnitSensors(circuitDevice, i)...)
	}
	return sensors
}

func BridgeSensors(bridgeDevice Device) []GenericSensor {

	var sensors []GenericSensor

	// Bridge connection state
	sensors = append(sensors, GenericSensor{
		Device:         bridgeDevice,
		Id:             SENSOR_ID_BRIDGE_STATE,
		SensorType:     SENSOR_TYPE_BINARY,
		Name:           "Connection state",
		DeviceClass:    DEVICE_CLASS_CONNECTIVITY,
		EntityCategory: ENTITY_CLASS_DIAGNOSTIC,
		UniqueId:       uniqueId(bridgeDevice.Id, SENSOR_ID_BRIDGE_STATE),
	})

	return sensors
}

func uniqueId(baseId, id string) string {
	return fmt.Sprintf("uid_%s_%s", baseId, id)
}

func md5Hash(text string) string {
	hash := md5.Sum([]byte(text))
	return hex.EncodeToString(hash[:])
}

func md5HashShort(text string) string {
	hash := md5Hash(text)
	return hash[0:8]
}

func optionalBool(value bool) *bool {
	return &value
}
