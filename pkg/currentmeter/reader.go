// Package currentmeter reads per-channel RMS current from a multi-channel
// CT meter. Channel 0 measures the combined circuit feed, channels 1..4 the
// managed consumer units.
package currentmeter

const NumUnits = 4

// Reading is a single channel sample. Valid is false when the meter reports
// the channel as unavailable (open CT input, sensor fault).
type Reading struct {
	Value float64
	Valid bool
}

type CircuitReadings struct {
	Combined Reading
	Units    [NumUnits]Reading
}

type MeterInfo struct {
	Manufacturer string
	Model        string
	Version      string
	Serial       string
}

type CircuitMeterReader interface {
	Open() error
	Close() error
	GetInfo() (*MeterInfo, error)
	GetReadings() (*CircuitReadings, error)
}
