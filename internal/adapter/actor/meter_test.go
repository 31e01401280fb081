package actor

import (
	"testing"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/util/actorutil"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

func TestGetMeterInfoMeterActor(t *testing.T) {

	assert := assert.New(t)

	meter := currentmeter.CreateTestCircuitMeterReader()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)

	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewMeterActor(meter, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetMeterInfoRequest{}
	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetMeterInfoResponse)

	assert.Equal(resp.Info.Manufacturer, "Test", "meter manufacturer")
	assert.Equal(resp.Info.Model, "Test CT Meter", "meter model")
	assert.Equal(resp.Info.Serial, "test-meter-1", "meter serial")

	context.Stop(pid)

	as.Shutdown()
}

func TestGetCircuitReadingsMeterActor(t *testing.T) {

	assert := assert.New(t)

	meter := currentmeter.CreateTestCircuitMeterReader()

	logger := zap.Must(zap.NewDevelopment())

	as := actorutil.NewActorSystemWithZapLogger(logger)
	context := as.Root

	props := actor.PropsFromProducer(func() actor.Actor { return NewMeterActor(meter, logger) })
	pid := context.Spawn(props)

	time.Sleep(1 * time.Second)

	msg := domain.GetCircuitReadingsRequest{}

	result, err := context.RequestFuture(pid, msg, 15*time.Second).Result()
	if err != nil {
		t.Error(err)
		return
	}
	resp := result.(domain.GetCircuitReadingsResponse)

	assert.True(resp.Readings.Combined.Valid, "combined reading valid")
	assert.Equal(resp.Readings.Combined.Value, 16.0, "combined reading value")
	for i := range resp.Readings.Units {
		assert.True(resp.Readings.Units[i].Valid, "unit reading valid")
		assert.Equal(resp.Readings.Units[i].Value, 4.0, "unit reading value")
	}

	context.Stop(pid)

	as.Shutdown()
}
