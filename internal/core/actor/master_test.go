package actor

import (
	"fmt"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	adactor "github.com/Kjelljk/power-distributor/internal/adapter/actor"
	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/util"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

func TestMasterActor(t *testing.T) {

	as := actor.NewActorSystem()
	context := as.Root

	cfg := util.LoadTestConfig()
	cfg.DistributorConfig.TickIntervalMillis = 500
	logCfg := zap.NewDevelopmentConfig()
	logCfg.Level = zap.NewAtomicLevelAt(cfg.LogLevel)
	logger := zap.Must(logCfg.Build())

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewMasterOfPuppetsActor(cfg, func() *adactor.MeterActor {
			return adactor.NewMeterActor(currentmeter.CreateTestCircuitMeterReader(), logger)
		}, func(es *eventstream.EventStream) *adactor.MQTTActor {
			return adactor.NewTestMQTTActor(&cfg, es, logger)
		}, logger)
	})
	pid, err := context.SpawnNamed(props, "master")
	if err != nil {
		t.Error(err)
		return
	}

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		//return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	fmt.Printf("Health response: %+v\n", healthResp)
	assert.NotNil(t, healthResp)

	assert.True(t, healthResp.Healthy, "healthy is true")

	res, err = context.RequestFuture(pid, domain.GetDistributionSnapshotRequest{}, 10*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapResp, ok := res.(domain.GetDistributionSnapshotResponse)
	assert.True(t, ok)
	if assert.NotNil(t, snapResp.Result) {
		assert.InDelta(t, 16.0, snapResp.Result.CombinedLimit, 0.001)
		assert.InDelta(t, 100.0, snapResp.Result.CombinedOAPercent, 0.001)
		for i := range snapResp.Result.Units {
			assert.InDelta(t, 4.0, snapResp.Result.Units[i].FinalLimit, 0.001)
		}
	}

	context.Stop(pid)

	as.Shutdown()
}
