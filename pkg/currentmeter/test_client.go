package currentmeter

type TestCircuitMeterReader struct {
	Readings CircuitReadings
	Err      error
}

func CreateTestCircuitMeterReader() *TestCircuitMeterReader {
	return &TestCircuitMeterReader{
		Readings: CircuitReadings{
			Combined: Reading{Value: 16, Valid: true},
			Units: [NumUnits]Reading{
				{Value: 4, Valid: true},
				{Value: 4, Valid: true},
				{Value: 4, Valid: true},
				{Value: 4, Valid: true},
			},
		},
	}
}

func (r *TestCircuitMeterReader) Open() error {
	return nil
}

func (r *TestCircuitMeterReader) Close() error {
	return nil
}

func (r *TestCircuitMeterReader) GetInfo() (*MeterInfo, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	return &MeterInfo{
		Manufacturer: "Test",
		Model:        "Test CT Meter",
		Version:      "1",
		Serial:       "test-meter-1",
	}, nil
}

func (r *TestCircuitMeterReader) GetReadings() (*CircuitReadings, error) {
	if r.Err != nil {
		return nil, r.Err
	}
	readings := r.Readings
	return &readings, nil
}
