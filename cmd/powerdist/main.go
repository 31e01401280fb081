package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pactor "github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	adactor "github.com/Kjelljk/power-distributor/internal/adapter/actor"
	"github.com/Kjelljk/power-distributor/internal/config"
	"github.com/Kjelljk/power-distributor/internal/core/actor"
	"github.com/Kjelljk/power-distributor/internal/server"
	"github.com/Kjelljk/power-distributor/internal/util/actorutil"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

func gracefulShutdown(apiServer *http.Server, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Listen for the interrupt signal.
	<-ctx.Done()

	log.Println("shutting down gracefully, press Ctrl+C again to force")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown with error: %v", err)
	}

	log.Println("Server exiting")

	// Notify the main goroutine that the shutdown is complete
	done <- true
}

func main() {

	// load and print config
	cfg, err := initConfig()
	if err != nil {
		slog.Error("config errors", "error", err)
		return
	}
	safePrintConfig(*cfg)

	// zap logger
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)

	logger := zap.Must(zapCfg.Build())

	// init actor system
	as := actorutil.NewActorSystemWithZapLogger(logger)
	ctx := as.Root

	defer logger.Sync()

	// init meter actor provider
	meterProv, err := meterActorProvider(cfg, logger)
	if err != nil {
		panic(err)
	}

	props := pactor.PropsFromProducer(func() pactor.Actor {
		return actor.NewMasterOfPuppetsActor(*cfg, meterProv, mqttActorProvider(cfg, logger), logger)
	})
	pid, err := ctx.SpawnNamed(props, "master")
	if err != nil {
		return
	}

	server := server.NewServer(*cfg, ctx, pid)
	// Create a done channel to signal when the shutdown is complete
	done := make(chan bool, 1)

	// Run graceful shutdown in a separate goroutine
	go gracefulShutdown(server, done)

	err = server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		panic(fmt.Sprintf("http server error: %s", err))
	}

	// Wait for the graceful shutdown to complete
	<-done
	log.Println("Graceful shutdown complete.")

	ctx.Stop(pid)
	as.Shutdown()
}

func initConfig() (*config.Config, error) {

	// alias PORT => POWERDIST_PORT
	if port := os.Getenv("PORT"); port != "" {
		os.Setenv("POWERDIST_PORT", port)
	}

	setConfigDefaults()

	viper.SetEnvPrefix("powerdist")
	viper.AutomaticEnv()

	// if defined, try to load config from yaml file
	if cfgFile := os.Getenv("CONFIG_FILE"); cfgFile != "" {
		if _, err := os.Stat(cfgFile); err == nil {
			slog.Info("Using config", "file", cfgFile)
			viper.SetConfigFile(cfgFile)

			err = viper.ReadInConfig()
			if err != nil {
				slog.Error("Error reading config file", "error", err)
			}
		}
	}

	var cfg config.Config

	err := viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	// parse log level
	switch viper.GetString("log_level") {
	case "trace":
		cfg.LogLevel = zap.DebugLevel
	case "debug":
		cfg.LogLevel = zap.DebugLevel
	case "info":
		cfg.LogLevel = zap.InfoLevel
	case "error":
		cfg.LogLevel = zap.ErrorLevel
	case "warn":
		cfg.LogLevel = zap.WarnLevel
	case "fatal":
		cfg.LogLevel = zap.FatalLevel
	default:
		cfg.LogLevel = zap.InfoLevel
	}

	// check and fix base topic
	baseTopic, err := config.CheckMQTTTopic(cfg.MQTT.BaseTopic)
	if err != nil {
		return nil, errors.New("invalid base topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.BaseTopic = baseTopic

	// check and fix homeassistant discovery topic
	hadBaseTopic, err := config.CheckMQTTTopic(cfg.MQTT.HADiscoveryTopic)
	if err != nil {
		return nil, errors.New("invalid homeassistant discovery topic. can only contain letters, numbers and underscores")
	}
	cfg.MQTT.HADiscoveryTopic = hadBaseTopic

	// check bounds
	if cfg.CircuitConfig.MaxCombinedLoad <= 0 {
		return nil, errors.New("config param circuit.max_combined_load should be > 0")
	}
	if cfg.CircuitConfig.MaxIndividualLoad <= 0 {
		return nil, errors.New("config param circuit.max_individual_load should be > 0")
	}
	if cfg.OATimingConfig.Delay5 < cfg.OATimingConfig.Delay20 {
		return nil, errors.New("config param oa_timing.delay_5 should be >= oa_timing.delay_20")
	}
	if cfg.OATimingConfig.Ramp5 < cfg.OATimingConfig.Ramp20 {
		return nil, errors.New("config param oa_timing.ramp_5 should be >= oa_timing.ramp_20")
	}
	if cfg.DistributorConfig.TickIntervalMillis < 1000 {
		return nil, errors.New("config param distributor.tick_interval_millis should be >= 1000")
	}

	return &cfg, nil
}

func meterActorProvider(cfg *config.Config, logger *zap.Logger) (actor.MeterActorProvider, error) {

	meterCfg := currentmeter.DefaultModbusMeterConfig()
	meterCfg.BaseRegister = uint16(cfg.MeterModbusTcp.BaseRegister)
	if cfg.MeterModbusTcp.RegisterScale > 0 {
		meterCfg.Scale = cfg.MeterModbusTcp.RegisterScale
	}

	meter, err := currentmeter.CreateModbusCircuitMeterReader(cfg.MeterModbusTcp.Host,
		cfg.MeterModbusTcp.Port, uint8(cfg.MeterModbusTcp.MeterId), meterCfg, logger)

	if err != nil {
		return nil, err
	}

	return func() *adactor.MeterActor {
		return adactor.NewMeterActor(meter, logger)
	}, nil
}

func mqttActorProvider(cfg *config.Config, logger *zap.Logger) actor.MQTTActorProvider {
	return func(es *eventstream.EventStream) *adactor.MQTTActor {
		return adactor.NewMQTTActor(cfg, es, logger)
	}
}

func setConfigDefaults() {
	viper.SetDefault("log_level", "warn")
	viper.SetDefault("mqtt.ha_discovery_enable", false)
	viper.SetDefault("mqtt.base_topic", "powerdist")
	viper.SetDefault("mqtt.ha_discovery_topic", "homeassistant")
	viper.SetDefault("meter_modbus_tcp.base_register", 0)
	viper.SetDefault("meter_modbus_tcp.register_scale", 100)
	viper.SetDefault("circuit.max_combined_load", 16)
	viper.SetDefault("circuit.max_individual_load", 4)
	viper.SetDefault("oa_timing.delay_5", 10)
	viper.SetDefault("oa_timing.delay_20", 2)
	viper.SetDefault("oa_timing.ramp_5", 10)
	viper.SetDefault("oa_timing.ramp_20", 5)
	viper.SetDefault("oa_timing.recover_fast", 20)
	viper.SetDefault("oa_timing.recover_slow", 60)
	viper.SetDefault("distributor.tick_interval_millis", 5000)
	viper.SetDefault("port", 8080)
}

func safePrintConfig(cfg config.Config) {
	cfg.MQTT.Username = "*redacted*"
	cfg.MQTT.Password = "*redacted*"
	slog.Info("Using", "config", cfg)
}
