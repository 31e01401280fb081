package actor

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/asynkron/protoactor-go/eventstream"
	"go.uber.org/zap"

	adactor "github.com/Kjelljk/power-distributor/internal/adapter/actor"
	"github.com/Kjelljk/power-distributor/internal/config"
	"github.com/Kjelljk/power-distributor/internal/core/domain"
	"github.com/Kjelljk/power-distributor/internal/core/service"
	. "github.com/Kjelljk/power-distributor/internal/util/actorutil"
)

type MQTTActorProvider func(*eventstream.EventStream) *adactor.MQTTActor

type MeterActorProvider func() *adactor.MeterActor

// MasterOfPuppetsActor is the root of the actor tree. It spawns and
// supervises the meter, MQTT, distribution and discovery children,
// aggregates their health checks and routes snapshot requests.
type MasterOfPuppetsActor struct {
	config   config.Config
	behavior actor.Behavior
	stash    *Stash

	currentHealthCheck healthCheckResult
	eventStream        *eventstream.EventStream
	meterActor         *actor.PID
	mqttActor          *actor.PID
	distributionActor  *actor.PID
	meterActorProvider MeterActorProvider
	mqttActorProvider  MQTTActorProvider
	logger             *zap.Logger
}

type healthCheckResult struct {
	meterActorHealthy        bool
	mqttActorHealthy         bool
	distributionActorHealthy bool
	distributionActorState   string
	checksReceived           int
	respondTo                *actor.PID
}

func NewMasterOfPuppetsActor(config config.Config, meterActorProvider MeterActorProvider, mqttActorProvider MQTTActorProvider, logger *zap.Logger) *MasterOfPuppetsActor {
	act := &MasterOfPuppetsActor{
		config:             config,
		behavior:           actor.NewBehavior(),
		stash:              &Stash{},
		logger:             ActorLogger(domain.ACTOR_ID_MASTER, logger),
		eventStream:        &eventstream.EventStream{},
		meterActorProvider: meterActorProvider,
		mqttActorProvider:  mqttActorProvider,
	}
	act.behavior.Become(act.StartingReceive)
	return act
}

func (state *MasterOfPuppetsActor) Receive(context actor.Context) {
	state.behavior.Receive(context)
}

func (state *MasterOfPuppetsActor) StartingReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.Started:
		state.logger.Debug("master@starting started")

		state.currentHealthCheck = healthCheckResult{}
		state.currentHealthCheck.reset()

		// start meter child
		meterActorPID, err := state.startMeterActor(ctx)
		if err != nil {
			panic(err)
		}
		state.meterActor = meterActorPID

		// start MQTT child
		mqttActorPID, err := state.startMQTTActor(ctx)
		if err != nil {
			panic(err)
		}
		state.mqttActor = mqttActorPID

		// start distribution child
		distributionActorPID, err := state.startDistributionActor(ctx)
		if err != nil {
			panic(err)
		}
		state.distributionActor = distributionActorPID

		// start HA Discovery
		if state.config.MQTT.HADiscoveryEnable {
			_, err := state.startHADiscoveryActor(ctx)
			if err != nil {
				panic(err)
			}
		}

		state.behavior.Become(state.DefaultReceive)
		state.stash.UnstashAll(ctx)
	default:
		state.logger.Debug("master@starting stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) DefaultReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case domain.ActorHealthRequest:
		state.logger.Debug("master@default ActorHealthRequest")
		state.currentHealthCheck.reset()
		state.currentHealthCheck.respondTo = ctx.Sender()
		// Meter Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.meterActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_METER,
				Healthy: false,
			}
		})
		// MQTT Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.mqttActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_MQTT,
				Healthy: false,
			}
		})
		// Distribution Actor Request
		PipeToSelfWithRecover(ctx, ctx.RequestFuture(state.distributionActor, domain.ActorHealthRequest{}, 500*time.Millisecond), func(err error) any {
			return domain.ActorHealthResponse{
				Id:      domain.ACTOR_ID_DISTRIBUTION,
				Healthy: false,
			}
		})

		ctx.SetReceiveTimeout(1 * time.Second)

		state.behavior.BecomeStacked(state.HealthCheckReceive)
	case domain.GetDistributionSnapshotRequest:
		// route snapshot request to the distribution actor, reply goes
		// straight back to the original sender
		state.logger.Debug("master@default GetDistributionSnapshotRequest")
		ctx.RequestWithCustomSender(state.distributionActor, msg, ctx.Sender())
	case *actor.Terminated:
		// if the meter actor fails on boot, terminate
		if msg.Who.Id == fmt.Sprintf("%s/%s", domain.ACTOR_ID_MASTER, domain.ACTOR_ID_METER) {
			state.logger.Error("master@default meter error")
			panic(errors.New("meter terminated"))
		}
	default:
		state.logger.Debug("master@default stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) HealthCheckReceive(ctx actor.Context) {
	switch msg := ctx.Message().(type) {
	case *actor.ReceiveTimeout:
		// if some actor does not respond to healthCheck, assume not healthy
		state.currentHealthCheck.respond(ctx)
		state.behavior.UnbecomeStacked()
		state.stash.UnstashAll(ctx)
	case domain.ActorHealthResponse:
		state.logger.Debug("master@healthcheck ActorHealthResponse", zap.String("sender", msg.Id), zap.Bool("healthy", msg.Healthy))
		state.currentHealthCheck.checksReceived++
		if msg.Healthy {
			if msg.Id == domain.ACTOR_ID_METER {
				state.currentHealthCheck.meterActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_MQTT {
				state.currentHealthCheck.mqttActorHealthy = true
			} else if msg.Id == domain.ACTOR_ID_DISTRIBUTION {
				state.currentHealthCheck.distributionActorHealthy = true
				state.currentHealthCheck.distributionActorState = msg.State
			}
		}
		if state.currentHealthCheck.allReceived() {

			state.currentHealthCheck.respond(ctx)

			state.behavior.UnbecomeStacked()
			state.stash.UnstashAll(ctx)
		} else {
			ctx.SetReceiveTimeout(1 * time.Second)
		}
	default:
		state.logger.Debug("master@healthcheck stash", zap.String("type", fmt.Sprintf("%T", msg)))
		state.stash.Stash(ctx, msg)
	}
}

func (state *MasterOfPuppetsActor) startMeterActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	meterProps := actor.PropsFromProducer(func() actor.Actor {
		return state.meterActorProvider()
	}, actor.WithSupervisor(supervisor))
	meterActorPID, err := ctx.SpawnNamed(meterProps, domain.ACTOR_ID_METER)
	if err != nil {
		return nil, err
	}

	return meterActorPID, nil
}

func (state *MasterOfPuppetsActor) startDistributionActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewAllForOneStrategy(1, 10*time.Second, decider)

	// the engine lives outside the producer so the acceptance buffers
	// survive actor restarts
	engine := service.NewOverloadDistributor(
		state.config.CircuitConfig.MaxCombinedLoad,
		state.config.CircuitConfig.MaxIndividualLoad,
		service.OATuning{
			DelayAt5:    state.config.OATimingConfig.Delay5,
			DelayAt20:   state.config.OATimingConfig.Delay20,
			RampAt5:     state.config.OATimingConfig.Ramp5,
			RampAt20:    state.config.OATimingConfig.Ramp20,
			RecoverFast: state.config.OATimingConfig.RecoverFast,
			RecoverSlow: state.config.OATimingConfig.RecoverSlow,
		}, state.logger)

	distributionProps := actor.PropsFromProducer(func() actor.Actor {
		return NewDistributionActor(&state.config, engine, state.meterActor, state.eventStream, state.logger)
	}, actor.WithSupervisor(supervisor))
	distributionActorPID, err := ctx.SpawnNamed(distributionProps, domain.ACTOR_ID_DISTRIBUTION)
	if err != nil {
		return nil, err
	}

	return distributionActorPID, nil
}

func (state *MasterOfPuppetsActor) startHADiscoveryActor(ctx actor.Context) (*actor.PID, error) {

	decider := func(reason interface{}) actor.Directive {
		log.Printf("handling failure for child. reason: %v", reason)
		return actor.RestartDirective
	}
	supervisor := actor.NewOneForOneStrategy(1, 10*time.Second, decider)

	haDiscProps := actor.PropsFromProducer(func() actor.Actor {
		return NewHADiscoveryActor(&state.config, state.meterActor, state.mqttActor, state.logger)
	}, actor.WithSupervisor(supervisor))
	haDiscPID, err := ctx.SpawnNamed(haDiscProps, domain.ACTOR_ID_HA_DISCOVERY)
	if err != nil {
		return nil, err
	}

	return haDiscPID, nil
}

func (state *MasterOfPuppetsActor) startMQTTActor(ctx actor.Context) (*actor.PID, error) {

	supervisor := actor.NewExponentialBackoffStrategy(10*time.Second, 1*time.Second)

	mqttProps := actor.PropsFromProducer(func() actor.Actor {
		return state.mqttActorProvider(state.eventStream)
	}, actor.WithSupervisor(supervisor))
	mqttActorPID, err := ctx.SpawnNamed(mqttProps, domain.ACTOR_ID_MQTT)
	if err != nil {
		return nil, err
	}

	return mqttActorPID, nil
}

func (state *healthCheckResult) reset() {
	state.meterActorHealthy = false
	state.mqttActorHealthy = false
	state.distributionActorHealthy = false
	state.distributionActorState = ""
	state.checksReceived = 0
}

func (state *healthCheckResult) allReceived() bool {
	return state.checksReceived == 3
}

func (state *healthCheckResult) allHealthy() bool {
	return state.meterActorHealthy && state.mqttActorHealthy && state.distributionActorHealthy
}

func (state *healthCheckResult) respond(ctx actor.Context) {
	resp := domain.ActorHealthResponse{
		Id:      domain.ACTOR_ID_MASTER,
		Healthy: state.allHealthy(),
		State:   state.distributionActorState,
	}
	if state.respondTo != nil {
		ctx.Send(state.respondTo, resp)
	}
}
