package main

import (
	"context"
	"errors"
	"fmt"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/registry"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pubsub"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/rabbitmq"
)

type pubsubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type pubsubSink struct {
	client pubsubClient
}

func newPubSubSink(client pubsubClient) *pubsubSink {
	return &pubsubSink{client: client}
}

func (s *pubsubSink) Name() string { return "pubsub" }

func (s *pubsubSink) Ping(ctx context.Context) error { return s.client.Ping(ctx) }

func (s *pubsubSink) Publish(ctx context.Context, msg outboundMessage) error {
	pub := s.client.Publisher(msg.Topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher not configured for topic %q", msg.Topic))
	}
	result := pub.Publish(ctx, &gcppubsub.Message{
		Data:       msg.Body,
		Attributes: msg.Attributes,
	})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned nil for topic %q", msg.Topic))
	}
	if _, err := result.Get(ctx); err != nil {
		if !pubsub.IsRetryable(err) {
			return registry.NewNonRetryableError(err)
		}
		return err
	}
	return nil
}

type amqpPublisher interface {
	Ping(context.Context) error
	Publish(context.Context, rabbitmq.Message) error
}

type amqpSink struct {
	publisher amqpPublisher
}

func newAMQPSink(publisher amqpPublisher) *amqpSink {
	return &amqpSink{publisher: publisher}
}

func (s *amqpSink) Name() string { return "rabbitmq" }

func (s *amqpSink) Ping(ctx context.Context) error { return s.publisher.Ping(ctx) }

func (s *amqpSink) Publish(ctx context.Context, msg outboundMessage) error {
	if msg.RoutingKey == "" {
		return registry.NewNonRetryableError(errors.New("routing key missing for event"))
	}
	return s.publisher.Publish(ctx, rabbitmq.Message{
		RoutingKey: msg.RoutingKey,
		MessageID:  msg.MessageID,
		Body:       msg.Body,
		Headers:    msg.Attributes,
		Timestamp:  msg.Timestamp,
	})
}
