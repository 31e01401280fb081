package util

import (
	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/config"
)

func LoadTestConfig() config.Config {
	return config.Config{
		LogLevel: zap.DebugLevel,
		MeterModbusTcp: config.MeterModbusTCPConfig{
			Host:          "-.-.-.-",
			Port:          502,
			MeterId:       1,
			BaseRegister:  0,
			RegisterScale: 100,
		},
		MQTT: config.MQTTConfig{
			Host: "localhost",
			Port: 1883,
		},
		CircuitConfig: config.CircuitConfig{
			MaxCombinedLoad:   16,
			MaxIndividualLoad: 4,
		},
		OATimingConfig: config.OATimingConfig{
			Delay5:      10,
			Delay20:     2,
			Ramp5:       10,
			Ramp20:      5,
			RecoverFast: 20,
			RecoverSlow: 60,
		},
		DistributorConfig: config.DistributorConfig{
			TickIntervalMillis: 5000,
		},
		Port: 8080,
	}
}
