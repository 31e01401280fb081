package actor

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"github.com/asynkron/protoactor-go/scheduler"
	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/config"
	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/core/events"
	"github.com/Kjelljk/power-distributor/internal/core/port"
	. "github.com/Kjelljk/power-distributor/internal/util/actorutil"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

// DistributionActor drives the control loop: every tick it requests fresh
// circuit readings, advances the distribution engine and publishes the
// resulting limits on the event stream. Ticks are strictly serialized; while
// a readings request is in flight everything else is stashed.
type DistributionActor struct {
	behavior  actor.Behavior
	stash     *Stash
	scheduler *scheduler.TimerScheduler

	meterActor  *actor.PID
	config      *config.Config
	eventStream *eventstream.EventStream
	engine      port.DistributionEngine

	lastTick     time.Time
	latestResult *domain.DistributionResult

	logger *zap.Logger
}

type distributionTick struct {
}

func NewDistributionActor(config *config.Config, engine port.DistributionEngine, meterActor *actor.PID,
	eventStream *eventstream.EventStream, logger *zap.Logger) *DistributionActor {
	act := &DistributionActor{
		config:      config,
		engine:      engine,
		meterActor:  meterActor,
		behavior:    actor.NewBehavior(),
		stash:       &Stash{},
		logger:      ActorLogger("distribution", logger),
		eventStream: eventStream,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *DistributionActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *DistributionActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("distribution@starting started")

		state.lastTick = time.Now()

		if state.config.DistributorConfig.TickIntervalMillis > 0 {
			state.scheduler = scheduler.NewTimerScheduler(ctx)
			state.scheduler.RequestOnce(time.Duration(state.config.DistributorConfig.TickIntervalMillis)*time.Millisecond, ctx.Self(), distributionTick{})
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
	default:
		state.logger.Debug("distribution@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DistributionActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("distribution@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      domain.ACTOR_ID_DISTRIBUTION,
			Healthy: true,
			State:   fmt.Sprintf("oa=%.2f", state.engine.CombinedOAPercent()),
		})
	case domain.GetDistributionSnapshotRequest:
		state.logger.Debug("distribution@default: GetDistributionSnapshotRequest")
		ForRequest(msg).Respond(ctx, domain.GetDistributionSnapshotResponse{
			Result: state.latestResult,
		})
	case distributionTick:
		state.logger.Debug("distribution@default tick")
		// get circuit readings
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.GetCircuitReadingsRequest{}, 1*time.Second), func(err error) any {
			return domain.GetCircuitReadingsResponse{
				ActorResponseMixIn: domain.ActorResponseMixIn{
					ResponseError: err,
				},
			}
		})

		// schedule next tick
		state.scheduler.RequestOnce(time.Duration(state.config.DistributorConfig.TickIntervalMillis)*time.Millisecond, ctx.Self(), distributionTick{})
		state.behavior.BecomeStacked(state.WaitingReadingsReceive)
	default:
		state.logger.Debug("distribution@default: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *DistributionActor) WaitingReadingsReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.GetCircuitReadingsResponse:
		if msg.HasResponseError() {
			state.logger.Warn("distribution@waiting GetCircuitReadingsResponse error, tick skipped", zap.Error(msg.GetResponseError()))
			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
			return
		}
		state.logger.Debug("distribution@waiting GetCircuitReadingsResponse")
		state.runTick(msg.Readings.Combined.Valid, msg.Readings.Combined.Value, unitLoads(msg.Readings))

		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("distribution@waiting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

// runTick advances the engine once. Without a combined reading the tick is a
// no-op and the previous result stands; elapsed time keeps accumulating so
// the buffers are stepped by the true interval on the next good reading.
func (state *DistributionActor) runTick(combinedValid bool, combinedActual float64, unitActual [domain.NumUnits]float64) {
	if !combinedValid {
		state.logger.Warn("distribution: combined reading unavailable, tick skipped")
		return
	}

	now := time.Now()
	dtMinutes := now.Sub(state.lastTick).Minutes()
	state.lastTick = now

	result := state.engine.Tick(combinedActual, unitActual, dtMinutes, now)
	state.latestResult = &result

	evs := events.DistributionResultToUpdateEvents(&result)
	for _, ev := range evs {
		state.eventStream.Publish(ev)
	}
}

// unitLoads maps per-unit readings to loads, an unavailable unit counts as
// zero demand.
func unitLoads(readings *currentmeter.CircuitReadings) [domain.NumUnits]float64 {
	var loads [domain.NumUnits]float64
	for i := range readings.Units {
		if readings.Units[i].Valid {
			loads[i] = readings.Units[i].Value
		}
	}
	return loads
}
