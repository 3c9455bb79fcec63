// Package registry maps outbox event types to their broker destination and
// typed payload.
package registry

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/payloads"
)

// EventDescriptor says where an event type goes. Topic names the Pub/Sub
// topic; RoutingKey is used on the AMQP topic exchange.
type EventDescriptor struct {
	EventType     enums.OutboxEventType
	AggregateType enums.OutboxAggregateType
	Topic         string
	RoutingKey    string

	decode func(json.RawMessage) (any, error)
}

// ResolvedEvent is an outbox row after validation, with Payload holding a
// pointer to the event's payload struct.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError marks a failure that retrying cannot fix; the publisher
// dead-letters the row instead.
type NonRetryableError struct {
	Err error
}

func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

func (e NonRetryableError) Unwrap() error { return e.Err }

func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

func permanent(format string, args ...any) error {
	return NewNonRetryableError(fmt.Errorf(format, args...))
}

// decodeAs builds a decoder that rejects absent or null data before
// unmarshalling into a fresh T.
func decodeAs[T any]() func(json.RawMessage) (any, error) {
	return func(data json.RawMessage) (any, error) {
		trimmed := bytes.TrimSpace(data)
		if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
			return nil, errors.New("payload missing")
		}
		v := new(T)
		if err := json.Unmarshal(trimmed, v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// NewEventRegistry routes order events to the orders topic and catalogue
// events to the domain topic.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	orders, domain := strings.TrimSpace(cfg.OrdersTopic), strings.TrimSpace(cfg.DomainTopic)
	switch {
	case orders == "":
		return nil, errors.New("orders topic is required")
	case domain == "":
		return nil, errors.New("domain topic is required")
	}

	descriptors := []EventDescriptor{
		{enums.EventOrderCreated, enums.AggregateOrder, orders, "order.created", decodeAs[payloads.OrderCreatedEvent]()},
		{enums.EventProductChanged, enums.AggregateProduct, domain, "product.changed", decodeAs[payloads.ProductChangedEvent]()},
		{enums.EventProductDeleted, enums.AggregateProduct, domain, "product.deleted", decodeAs[payloads.ProductDeletedEvent]()},
	}
	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor, len(descriptors))}
	for _, d := range descriptors {
		reg.entries[d.EventType] = d
	}
	return reg, nil
}

func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	d, ok := r.entries[eventType]
	return d, ok
}

// Resolve validates the row against its descriptor and decodes the payload.
// Every error it returns is a NonRetryableError.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	switch {
	case !ok:
		return nil, permanent("unsupported event type %s", event.EventType)
	case desc.AggregateType != event.AggregateType:
		return nil, permanent("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType)
	case event.AggregateID == uuid.Nil:
		return nil, permanent("missing aggregate_id")
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(err)
	}
	payload, err := desc.decode(envelope.Data)
	if err != nil {
		return nil, permanent("decode %s: %w", event.EventType, err)
	}
	return &ResolvedEvent{Descriptor: desc, Envelope: envelope, Payload: payload}, nil
}
