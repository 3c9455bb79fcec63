package registry

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/payloads"
)

func newTestEventRegistry(t *testing.T) *EventRegistry {
	t.Helper()
	reg, err := NewEventRegistry(config.PubSubConfig{OrdersTopic: "orders-topic", DomainTopic: "domain-topic"})
	require.NoError(t, err)
	return reg
}

func envelopeOf(t *testing.T, data string) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(outbox.PayloadEnvelope{
		Version:    outbox.EnvelopeVersion,
		EventID:    uuid.NewString(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(data),
	})
	require.NoError(t, err)
	return raw
}

func requireNonRetryable(t *testing.T, err error) {
	t.Helper()
	var nonRetry NonRetryableError
	require.Error(t, err)
	assert.True(t, errors.As(err, &nonRetry), "got %T: %v", err, err)
}

func TestResolveOrderCreated(t *testing.T) {
	reg := newTestEventRegistry(t)
	orderID := uuid.New()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:     orderID,
		OrderNumber: "ORD-12345678ABCD",
		TotalAmount: "129.58",
		ItemCount:   2,
	})
	require.NoError(t, err)

	resolved, err := reg.Resolve(models.OutboxEvent{
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Payload:       envelopeOf(t, string(data)),
	})
	require.NoError(t, err)

	assert.Equal(t, "orders-topic", resolved.Descriptor.Topic)
	assert.Equal(t, "order.created", resolved.Descriptor.RoutingKey)
	assert.NotEmpty(t, resolved.Envelope.EventID)
	payload, ok := resolved.Payload.(*payloads.OrderCreatedEvent)
	require.True(t, ok, "payload type %T", resolved.Payload)
	assert.Equal(t, orderID, payload.OrderID)
	assert.Equal(t, "129.58", payload.TotalAmount)
}

func TestProductEventsUseDomainTopic(t *testing.T) {
	reg := newTestEventRegistry(t)
	for _, eventType := range []enums.OutboxEventType{enums.EventProductChanged, enums.EventProductDeleted} {
		desc, ok := reg.Descriptor(eventType)
		require.True(t, ok, eventType)
		assert.Equal(t, "domain-topic", desc.Topic)
		assert.Equal(t, enums.AggregateProduct, desc.AggregateType)
	}
	_, ok := reg.Descriptor("inventory_reserved")
	assert.False(t, ok)
}

func TestResolveRejectsBadRows(t *testing.T) {
	reg := newTestEventRegistry(t)
	tests := []struct {
		name  string
		event models.OutboxEvent
	}{
		{"unknown type", models.OutboxEvent{EventType: "inventory_reserved", AggregateType: enums.AggregateProduct, AggregateID: uuid.New(), Payload: envelopeOf(t, `{}`)}},
		{"aggregate mismatch", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateProduct, AggregateID: uuid.New(), Payload: envelopeOf(t, `{}`)}},
		{"nil aggregate", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, Payload: envelopeOf(t, `{}`)}},
		{"null data", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: envelopeOf(t, `null`)}},
		{"wrong shape", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: envelopeOf(t, `[1,2]`)}},
		{"future envelope", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`{"version":99,"eventId":"e","data":{"orderId":"x"}}`)}},
		{"garbage envelope", models.OutboxEvent{EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder, AggregateID: uuid.New(), Payload: json.RawMessage(`not json`)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Resolve(tt.event)
			requireNonRetryable(t, err)
		})
	}
}

func TestNewEventRegistryRequiresTopics(t *testing.T) {
	_, err := NewEventRegistry(config.PubSubConfig{DomainTopic: "d"})
	assert.EqualError(t, err, "orders topic is required")
	_, err = NewEventRegistry(config.PubSubConfig{OrdersTopic: "o", DomainTopic: "  "})
	assert.EqualError(t, err, "domain topic is required")
}
