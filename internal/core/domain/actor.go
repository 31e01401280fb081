package domain

import (
	"github.com/asynkron/protoactor-go/actor"

	"github.com/Kjelljk/power-distributor/pkg/currentmeter"
)

const (
	ACTOR_ID_MASTER       = "master"
	ACTOR_ID_METER        = "meter"
	ACTOR_ID_DISTRIBUTION = "distribution"
	ACTOR_ID_MQTT         = "mqtt"
	ACTOR_ID_HA_DISCOVERY = "hadiscovery"
)

type ActorRef actor.PID

type ActorRequestMixIn struct {
	ReplyToRef *ActorRef
}

type ActorRequest interface {
	ReplyTo() *ActorRef
}

func (r ActorRequestMixIn) ReplyTo() *ActorRef {
	return r.ReplyToRef
}

type ActorResponseMixIn struct {
	ResponseError error
}

func (r ActorResponseMixIn) GetResponseError() error {
	return r.ResponseError
}

func (r ActorResponseMixIn) HasResponseError() bool {
	return r.ResponseError != nil
}

type ActorResponse interface {
	GetResponseError() error
	HasResponseError() bool
}

// Meter actor messages

type GetMeterInfoRequest struct {
	ActorRequestMixIn
}

type GetMeterInfoResponse struct {
	ActorResponseMixIn
	Info *currentmeter.MeterInfo
}

type GetCircuitReadingsRequest struct {
	ActorRequestMixIn
}

type GetCircuitReadingsResponse struct {
	ActorResponseMixIn
	Readings *currentmeter.CircuitReadings
}

// Distribution actor messages

type GetDistributionSnapshotRequest struct {
	ActorRequestMixIn
}

type GetDistributionSnapshotResponse struct {
	ActorResponseMixIn
	Result *DistributionResult
}

// MQTT actor messages

type PublishMessageRequest struct {
	ActorRequestMixIn
	Topic   string
	Payload string
	Retain  bool
}

type PublishMessageResponse struct {
	ActorResponseMixIn
}

type PublishSensorUpdateRequest struct {
	ActorRequestMixIn
	Retain bool
	Event  SensorUpdateEvent
}

type PublishSensorUpdateResponse struct {
	ActorResponseMixIn
}

type PublishDiscoveryRequest struct {
	ActorRequestMixIn
	Sensors []GenericSensor
}

type PublishDiscoveryResponse struct {
	ActorResponseMixIn
}

// Health check

type ActorHealthRequest struct {
	ActorRequestMixIn
}

type ActorHealthResponse struct {
	ActorResponseMixIn
	Id      string
	Healthy bool
	State   string
}
