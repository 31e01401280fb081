package actor

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	adactor "github.com/Kjelljk/power-distributor/internal/adapter/actor"
	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/core/service"
	"github.com/Kjelljk/power-distributor/internal/util"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

func TestDistributionActor(t *testing.T) {

	cfg := util.LoadTestConfig()
	cfg.DistributorConfig.TickIntervalMillis = 250

	logger := zap.Must(zap.NewDevelopment())

	as := actor.NewActorSystem()
	context := as.Root

	meterProps := actor.PropsFromProducer(func() actor.Actor {
		return adactor.NewMeterActor(currentmeter.CreateTestCircuitMeterReader(), logger)
	})
	meterPID := context.Spawn(meterProps)

	var es eventstream.EventStream
	var published atomic.Int32
	sub := es.Subscribe(func(value any) {
		if _, ok := value.(domain.SensorUpdateEvent); ok {
			published.Add(1)
		}
	})
	defer es.Unsubscribe(sub)

	engine := service.NewOverloadDistributor(cfg.CircuitConfig.MaxCombinedLoad, cfg.CircuitConfig.MaxIndividualLoad, service.OATuning{
		DelayAt5:    cfg.OATimingConfig.Delay5,
		DelayAt20:   cfg.OATimingConfig.Delay20,
		RampAt5:     cfg.OATimingConfig.Ramp5,
		RampAt20:    cfg.OATimingConfig.Ramp20,
		RecoverFast: cfg.OATimingConfig.RecoverFast,
		RecoverSlow: cfg.OATimingConfig.RecoverSlow,
	}, logger)

	props := actor.PropsFromProducer(func() actor.Actor {
		return NewDistributionActor(&cfg, engine, meterPID, &es, logger)
	})
	pid := context.Spawn(props)

	time.Sleep(2 * time.Second)

	res, err := context.RequestFuture(pid, domain.ActorHealthRequest{}, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	healthResp, ok := res.(domain.ActorHealthResponse)
	assert.True(t, ok)
	assert.True(t, healthResp.Healthy)
	assert.Equal(t, "oa=100.00", healthResp.State)

	res, err = context.RequestFuture(pid, domain.GetDistributionSnapshotRequest{}, 2*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	snapResp, ok := res.(domain.GetDistributionSnapshotResponse)
	assert.True(t, ok)
	if assert.NotNil(t, snapResp.Result) {
		assert.InDelta(t, 16.0, snapResp.Result.CombinedLimit, 0.001)
		assert.InDelta(t, 100.0, snapResp.Result.CombinedOAPercent, 0.001)
		assert.Equal(t, domain.ControlStatusEnforced, snapResp.Result.CombinedControlStatus)
		for i := range snapResp.Result.Units {
			assert.InDelta(t, 4.0, snapResp.Result.Units[i].FinalLimit, 0.001)
		}
	}

	// a full batch of sensor events per tick
	assert.GreaterOrEqual(t, published.Load(), int32(domain.NumUnits*3+4))

	context.Stop(pid)
	context.Stop(meterPID)

	as.Shutdown()
}
