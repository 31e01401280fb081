package actor

import (
	"fmt"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/reugn/go-quartz/logger"
	"go.uber.org/zap"

	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/util/actorutil"
	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

const (
	METER_ACTOR_ID = "meter"
)

// MeterActor owns the circuit meter connection. Reads run as background
// tasks so a slow meter never blocks the mailbox; while a read is in flight
// the actor stashes everything else.
type MeterActor struct {
	behavior actor.Behavior
	stash    *actorutil.Stash
	meter    currentmeter.CircuitMeterReader
	logger   *zap.Logger
}

type backgroundTaskResult struct {
	message any
	replyTo *actor.PID
}

func NewMeterActor(meter currentmeter.CircuitMeterReader, logger *zap.Logger) *MeterActor {
	act := &MeterActor{
		meter:    meter,
		behavior: actor.NewBehavior(),
		stash:    &actorutil.Stash{},
		logger:   actorutil.ActorLogger("meter", logger),
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MeterActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MeterActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("meter@starting started")
		err := state.meter.Open()
		if err != nil {
			panic(err)
		}
		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	case *actor.Restarting:
		state.meter.Close()
	default:
		state.logger.Debug("meter@starting: stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MeterActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("meter@default: ActorHealthRequest")
		ctx.Respond(domain.ActorHealthResponse{
			Id:      METER_ACTOR_ID,
			Healthy: true,
			State:   "idle",
		})
	case domain.GetMeterInfoRequest:
		state.logger.Debug("meter@default: GetMeterInfoRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getMeterInfo),
			mapTaskResult[domain.GetMeterInfoResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetMeterInfoResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeter)
	case domain.GetCircuitReadingsRequest:
		state.logger.Debug("meter@default: GetCircuitReadingsRequest")
		sender := actorutil.ForRequest(msg).ReplyTo(ctx)

		actorutil.MapBackgroundTask(actorutil.NewBackgroundTask(ctx, state.getCircuitReadings),
			mapTaskResult[domain.GetCircuitReadingsResponse](sender)).Recover(func(err error) backgroundTaskResult {
			return backgroundTaskResult{
				message: domain.GetCircuitReadingsResponse{
					ActorResponseMixIn: domain.ActorResponseMixIn{
						ResponseError: err,
					},
				},
				replyTo: sender,
			}
		}).WithTimeout(2 * time.Second).PipeTo(ctx.Self())
		state.behavior.BecomeStacked(state.WaitingMeter)
	case *actor.Stopping:
		state.meter.Close()
	default:
		state.logger.Debug("meter@default default recv", zap.String("type", fmt.Sprintf("%T", msg)))
	}
}

func (state *MeterActor) WaitingMeter(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case backgroundTaskResult:
		state.logger.Debug("meter@waitingMeter backgroundTaskResult", zap.String("type", fmt.Sprintf("%T", msg.message)))
		ctx.Send(msg.replyTo, msg.message)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case *actor.Stopping:
		state.meter.Close()
	default:
		state.logger.Debug("meter@waitingMeter stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (a *MeterActor) getMeterInfo() (*domain.GetMeterInfoResponse, error) {
	info, err := a.meter.GetInfo()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetMeterInfoResponse{
		Info: info,
	}, nil
}

func (a *MeterActor) getCircuitReadings() (*domain.GetCircuitReadingsResponse, error) {
	readings, err := a.meter.GetReadings()
	if err != nil {
		logger.Error(err)
		return nil, err
	}
	return &domain.GetCircuitReadingsResponse{
		Readings: readings,
	}, nil
}

func mapTaskResult[T any](sender *actor.PID) func(t *T) *backgroundTaskResult {
	return func(t *T) *backgroundTaskResult {
		return &backgroundTaskResult{
			message: *t,
			replyTo: sender,
		}
	}
}
