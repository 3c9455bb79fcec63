package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/enums"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/payloads"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/registry"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/rabbitmq"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{
		orderEvent(t, 0),
		orderEvent(t, 0),
	}}
	target := &fakeSink{errs: []error{errors.New("transient"), nil}}
	h := newTestHarness(t, repo, target, &fakeRegistry{resolved: orderResolved()}, nil)

	processed, err := h.service.processBatch(context.Background())

	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []uuid.UUID{repo.events[0].ID}, repo.failed)
	assert.Equal(t, []uuid.UUID{repo.events[1].ID}, repo.published)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "storefront_outbox_published_total", nil))
	assert.Equal(t, 1.0, counterValue(t, h.reg, "storefront_outbox_publish_failures_total", nil))
}

func TestProcessBatchCarriesRoutingMetadata(t *testing.T) {
	event := orderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	target := &fakeSink{}
	h := newTestHarness(t, repo, target, &fakeRegistry{resolved: orderResolved()}, nil)

	_, err := h.service.processBatch(context.Background())
	require.NoError(t, err)

	require.Len(t, target.sent, 1)
	msg := target.sent[0]
	assert.Equal(t, "storefront-orders", msg.Topic)
	assert.Equal(t, "order.created", msg.RoutingKey)
	assert.Equal(t, event.ID.String(), msg.MessageID)
	assert.Equal(t, string(enums.EventOrderCreated), msg.Attributes["event_type"])
	assert.Equal(t, event.AggregateID.String(), msg.Attributes["aggregate_id"])
	assert.JSONEq(t, string(event.Payload), string(msg.Body))
}

func TestProcessBatchDeadLettersUnresolvableEvent(t *testing.T) {
	event := orderEvent(t, 0)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	resolver := &fakeRegistry{err: registry.NewNonRetryableError(errors.New("invalid payload"))}
	target := &fakeSink{}
	h := newTestHarness(t, repo, target, resolver, nil)
	h.service.dlq = dlq

	processed, err := h.service.processBatch(context.Background())

	require.NoError(t, err)
	assert.True(t, processed)
	assert.Empty(t, target.sent)
	require.Len(t, dlq.entries, 1)
	entry := dlq.entries[0]
	assert.Equal(t, event.ID, entry.EventID)
	assert.JSONEq(t, string(event.Payload), string(entry.Payload))
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, entry.ErrorReason)
	assert.Equal(t, []uuid.UUID{event.ID}, repo.terminal)
}

func TestProcessBatchDeadLettersNonRetryablePublishError(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{orderEvent(t, 0)}}
	dlq := &fakeDLQRepo{}
	target := &fakeSink{errs: []error{registry.NewNonRetryableError(errors.New("topic missing"))}}
	h := newTestHarness(t, repo, target, &fakeRegistry{resolved: orderResolved()}, nil)
	h.service.dlq = dlq

	_, err := h.service.processBatch(context.Background())

	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, enums.OutboxDLQReasonNonRetryable, dlq.entries[0].ErrorReason)
	assert.Empty(t, repo.failed)
}

func TestProcessBatchDeadLettersOnMaxAttempts(t *testing.T) {
	event := orderEvent(t, 1)
	repo := &fakeRepo{events: []models.OutboxEvent{event}}
	dlq := &fakeDLQRepo{}
	target := &fakeSink{errs: []error{errors.New("transient")}}
	h := newTestHarness(t, repo, target, &fakeRegistry{resolved: orderResolved()}, &config.OutboxConfig{
		BatchSize:      1,
		PollIntervalMS: 100,
		MaxAttempts:    2,
	})
	h.service.dlq = dlq

	_, err := h.service.processBatch(context.Background())

	require.NoError(t, err)
	require.Len(t, dlq.entries, 1)
	assert.Equal(t, event.ID, dlq.entries[0].EventID)
	assert.Equal(t, enums.OutboxDLQReasonMaxAttempts, dlq.entries[0].ErrorReason)
	require.NotNil(t, dlq.entries[0].ErrorMessage)
	assert.Contains(t, *dlq.entries[0].ErrorMessage, "max publish attempts reached")
	assert.Equal(t, 1.0, counterValue(t, h.reg, "storefront_outbox_dead_lettered_total", map[string]string{
		"event_type": string(enums.EventOrderCreated),
		"reason":     string(enums.OutboxDLQReasonMaxAttempts),
	}))
}

func TestProcessBatchReportsIdleWhenEmpty(t *testing.T) {
	h := newTestHarness(t, &fakeRepo{}, &fakeSink{}, &fakeRegistry{resolved: orderResolved()}, nil)

	processed, err := h.service.processBatch(context.Background())

	require.NoError(t, err)
	assert.False(t, processed)
}

func TestRunStopsWhenSinkUnreachable(t *testing.T) {
	target := &fakeSink{pingErr: errors.New("connection refused")}
	h := newTestHarness(t, &fakeRepo{}, target, &fakeRegistry{resolved: orderResolved()}, nil)

	err := h.service.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fake ping failed")
}

func TestAMQPSinkMapsMessage(t *testing.T) {
	pub := &fakeAMQPPublisher{}
	occurred := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err := newAMQPSink(pub).Publish(context.Background(), outboundMessage{
		RoutingKey: "product.changed",
		MessageID:  "evt-1",
		Body:       []byte(`{"version":1}`),
		Attributes: map[string]string{"event_type": "product_changed"},
		Timestamp:  occurred,
	})

	require.NoError(t, err)
	require.Len(t, pub.sent, 1)
	assert.Equal(t, "product.changed", pub.sent[0].RoutingKey)
	assert.Equal(t, "evt-1", pub.sent[0].MessageID)
	assert.Equal(t, occurred, pub.sent[0].Timestamp)
	assert.Equal(t, "product_changed", pub.sent[0].Headers["event_type"])
}

func TestAMQPSinkRejectsMissingRoutingKey(t *testing.T) {
	err := newAMQPSink(&fakeAMQPPublisher{}).Publish(context.Background(), outboundMessage{MessageID: "evt-1"})

	var nonRetry registry.NonRetryableError
	assert.ErrorAs(t, err, &nonRetry)
}

func TestNextBackoffCapsAtLimit(t *testing.T) {
	assert.Equal(t, time.Second, nextBackoff(0, 500*time.Millisecond, maxBackoff))
	assert.Equal(t, 4*time.Second, nextBackoff(2*time.Second, time.Second, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, time.Second, maxBackoff))
}

func TestWithJitterStaysInWindow(t *testing.T) {
	assert.Zero(t, withJitter(0))
	for range 50 {
		got := withJitter(time.Second)
		assert.GreaterOrEqual(t, got, time.Second)
		assert.Less(t, got, time.Second+jitterWindow)
	}
}

type testHarness struct {
	service *Service
	reg     *prometheus.Registry
}

func newTestHarness(t *testing.T, repo outboxRepository, target sink, resolver registryResolver, outboxCfg *config.OutboxConfig) *testHarness {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 100,
		MaxAttempts:    5,
	}}
	if outboxCfg != nil {
		cfg.Outbox = *outboxCfg
	}
	reg := prometheus.NewRegistry()

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logger.New(logger.Options{ServiceName: "outbox-publisher-test", Output: io.Discard}),
		DB:            fakeDB{},
		Sink:          target,
		Repository:    repo,
		Registry:      resolver,
		DLQRepository: &fakeDLQRepo{},
		Metrics:       metrics.NewOutboxMetrics(reg),
	})
	require.NoError(t, err)
	return &testHarness{service: service, reg: reg}
}

func orderEvent(tb testing.TB, attempts int) models.OutboxEvent {
	tb.Helper()
	id := uuid.New()
	env := outbox.PayloadEnvelope{
		Version:    1,
		EventID:    id.String(),
		OccurredAt: time.Now().UTC(),
		Data:       json.RawMessage(`{"orderNumber":"ORD-20260301-0001"}`),
	}
	payload, err := json.Marshal(env)
	require.NoError(tb, err)
	return models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
		AttemptCount:  attempts,
		CreatedAt:     time.Now().UTC(),
	}
}

func orderResolved() *registry.ResolvedEvent {
	return &registry.ResolvedEvent{
		Descriptor: registry.EventDescriptor{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			Topic:         "storefront-orders",
			RoutingKey:    "order.created",
		},
		Payload: &payloads.OrderCreatedEvent{},
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, m := range family.GetMetric() {
			if labelsMatch(m.GetLabel(), labels) {
				return m.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func labelsMatch(pairs []*dto.LabelPair, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, pair := range pairs {
			if pair.GetName() == k && pair.GetValue() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	terminal  []uuid.UUID
}

func (f *fakeRepo) FetchUnpublishedForPublish(*gorm.DB, int, int) ([]models.OutboxEvent, error) {
	return f.events, nil
}

func (f *fakeRepo) MarkPublishedTx(_ *gorm.DB, id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeRepo) MarkFailedTx(_ *gorm.DB, id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

func (f *fakeRepo) MarkTerminalTx(_ *gorm.DB, id uuid.UUID, _ error, _ int) error {
	f.terminal = append(f.terminal, id)
	return nil
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(*gorm.DB) error) error { return fn(nil) }

type fakeSink struct {
	errs    []error
	sent    []outboundMessage
	pingErr error
}

func (f *fakeSink) Name() string { return "fake" }

func (f *fakeSink) Ping(context.Context) error { return f.pingErr }

func (f *fakeSink) Publish(_ context.Context, msg outboundMessage) error {
	var err error
	if len(f.errs) > 0 {
		err = f.errs[0]
		f.errs = f.errs[1:]
	}
	if err == nil {
		f.sent = append(f.sent, msg)
	}
	return err
}

type fakeAMQPPublisher struct {
	sent []rabbitmq.Message
}

func (f *fakeAMQPPublisher) Ping(context.Context) error { return nil }

func (f *fakeAMQPPublisher) Publish(_ context.Context, msg rabbitmq.Message) error {
	f.sent = append(f.sent, msg)
	return nil
}

type fakeRegistry struct {
	resolved *registry.ResolvedEvent
	err      error
}

func (f *fakeRegistry) Resolve(event models.OutboxEvent) (*registry.ResolvedEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	resolved := *f.resolved
	resolved.Envelope = outbox.PayloadEnvelope{
		Version:    1,
		EventID:    event.ID.String(),
		OccurredAt: event.CreatedAt,
	}
	return &resolved, nil
}

type fakeDLQRepo struct {
	entries []models.OutboxDLQ
}

func (f *fakeDLQRepo) InsertTx(_ *gorm.DB, entry models.OutboxDLQ) error {
	f.entries = append(f.entries, entry)
	return nil
}
