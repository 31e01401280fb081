package config

import (
	"errors"
	"regexp"
	"strings"

	"go.uber.org/zap/zapcore"
)

type Config struct {
	LogLevel       zapcore.Level
	MeterModbusTcp MeterModbusTCPConfig `mapstructure:"meter_modbus_tcp"`
	MQTT           MQTTConfig           `mapstructure:"mqtt"`

	CircuitConfig     CircuitConfig     `mapstructure:"circuit"`
	OATimingConfig    OATimingConfig    `mapstructure:"oa_timing"`
	DistributorConfig DistributorConfig `mapstructure:"distributor"`
	Port              uint              `mapstructure:"port"`
	HttpLog           bool              `mapstructure:"http_log"`
}

type MeterModbusTCPConfig struct {
	Host          string
	Port          uint
	MeterId       uint    `mapstructure:"meter_id"`
	BaseRegister  uint    `mapstructure:"base_register"`
	RegisterScale float64 `mapstructure:"register_scale"`
}

type CircuitConfig struct {
	MaxCombinedLoad   float64 `mapstructure:"max_combined_load"`
	MaxIndividualLoad float64 `mapstructure:"max_individual_load"`
}

// OATimingConfig holds the overload acceptance timing anchors, minutes.
// Delay/ramp pairs anchor the consumption curve at 5% and 20% overload,
// recover pair anchors the refill curve at 20% under-load and rated load.
type OATimingConfig struct {
	Delay5      float64 `mapstructure:"delay_5"`
	Delay20     float64 `mapstructure:"delay_20"`
	Ramp5       float64 `mapstructure:"ramp_5"`
	Ramp20      float64 `mapstructure:"ramp_20"`
	RecoverFast float64 `mapstructure:"recover_fast"`
	RecoverSlow float64 `mapstructure:"recover_slow"`
}

type DistributorConfig struct {
	TickIntervalMillis uint32 `mapstructure:"tick_interval_millis"`
}

type MQTTConfig struct {
	Host              string
	Port              int
	Username          string
	Password          string
	BaseTopic         string `mapstructure:"base_topic"`
	HADiscoveryEnable bool   `mapstructure:"ha_discovery_enable"`
	HADiscoveryTopic  string `mapstructure:"ha_discovery_topic"`
}

func CheckMQTTTopic(baseTopic string) (string, error) {
	// check and fix base topic
	lowerBaseTopic := strings.ToLower(baseTopic)
	baseTopicRegexp := regexp.MustCompile("^[a-z0-9_]+$")
	matches := baseTopicRegexp.FindAllStringSubmatch(lowerBaseTopic, 1)
	if len(matches) <= 0 {
		return "", errors.New("invalid topic. can only contain letters, numbers and underscores")
	}
	return lowerBaseTopic, nil
}
