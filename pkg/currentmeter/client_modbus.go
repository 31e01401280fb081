package currentmeter

import (
	"fmt"
	"sync"
	"time"

	"github.com/simonvetter/modbus"
	"go.uber.org/zap"
)

// ModbusMeterConfig describes the register layout of the meter. The combined
// channel lives at BaseRegister, followed by one input register per unit.
// Raw register values are divided by Scale to get amperes. A register equal
// to InvalidValue marks the channel as unavailable.
type ModbusMeterConfig struct {
	BaseRegister uint16
	Scale        float64
	InvalidValue uint16
}

func DefaultModbusMeterConfig() ModbusMeterConfig {
	return ModbusMeterConfig{
		BaseRegister: 0,
		Scale:        100,
		InvalidValue: 0xFFFF,
	}
}

type modbusCircuitMeterReader struct {
	client *modbus.ModbusClient
	cfg    ModbusMeterConfig
	serial string
	logger *zap.Logger
	mutex  sync.Mutex
}

func CreateModbusCircuitMeterReader(ip string, port uint, unitID uint8, cfg ModbusMeterConfig, logger *zap.Logger) (CircuitMeterReader, error) {
	if cfg.Scale <= 0 {
		return nil, fmt.Errorf("register scale must be > 0, got %f", cfg.Scale)
	}
	client, err := modbus.NewClient(&modbus.ClientConfiguration{
		URL:     fmt.Sprintf("tcp://%s:%d", ip, port),
		Timeout: 2 * time.Second,
	})
	if err != nil {
		return nil, err
	}
	err = client.SetUnitId(unitID)
	if err != nil {
		return nil, err
	}
	return &modbusCircuitMeterReader{
		client: client,
		cfg:    cfg,
		serial: fmt.Sprintf("%s:%d#%d", ip, port, unitID),
		logger: logger,
	}, nil
}

func (r *modbusCircuitMeterReader) Open() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.client.Open()
}

func (r *modbusCircuitMeterReader) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.client.Close()
}

func (r *modbusCircuitMeterReader) GetInfo() (*MeterInfo, error) {
	return &MeterInfo{
		Manufacturer: "Generic",
		Model:        "Modbus CT Meter",
		Version:      "1",
		Serial:       r.serial,
	}, nil
}

func (r *modbusCircuitMeterReader) GetReadings() (*CircuitReadings, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	regs, err := r.client.ReadRegisters(r.cfg.BaseRegister, NumUnits+1, modbus.INPUT_REGISTER)
	if err != nil {
		return nil, err
	}
	readings := &CircuitReadings{
		Combined: r.cfg.decode(regs[0]),
	}
	for i := 0; i < NumUnits; i++ {
		readings.Units[i] = r.cfg.decode(regs[i+1])
	}
	if r.logger != nil {
		r.logger.Debug("meter readings", zap.Any("readings", readings))
	}
	return readings, nil
}

func (c ModbusMeterConfig) decode(raw uint16) Reading {
	if raw == c.InvalidValue {
		return Reading{}
	}
	return Reading{
		Value: float64(raw) / c.Scale,
		Valid: true,
	}
}
