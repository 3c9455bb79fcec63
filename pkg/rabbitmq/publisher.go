// Package rabbitmq publishes storefront domain events to a durable topic exchange.
package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/multierr"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

const (
	exchangeType = "topic"
	dialAttempts = 5
	dialBackoff  = 2 * time.Second
)

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclarePassive(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	Close() error
}

// Publisher owns one connection and channel. Publish calls are serialized
// because amqp channels are not safe for concurrent use.
type Publisher struct {
	conn     *amqp.Connection
	ch       channel
	exchange string

	mu sync.Mutex
}

// Message is one event ready for the exchange.
type Message struct {
	RoutingKey string
	MessageID  string
	Body       []byte
	Headers    map[string]string
	Timestamp  time.Time
}

// New dials the broker, retrying while it starts up, and declares the exchange.
func New(ctx context.Context, cfg config.AMQPConfig, logg *logger.Logger) (*Publisher, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("amqp url is required")
	}
	if strings.TrimSpace(cfg.Exchange) == "" {
		return nil, errors.New("amqp exchange is required")
	}

	var (
		conn *amqp.Connection
		err  error
	)
	for attempt := 1; attempt <= dialAttempts; attempt++ {
		conn, err = amqp.Dial(cfg.URL)
		if err == nil {
			break
		}
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "attempt", attempt), "rabbitmq dial failed")
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(dialBackoff):
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("opening channel: %w", err)
	}
	if err := ch.ExchangeDeclare(cfg.Exchange, exchangeType, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declaring exchange %q: %w", cfg.Exchange, err)
	}

	if logg != nil {
		logg.Info(logg.WithField(ctx, "exchange", cfg.Exchange), "rabbitmq publisher initialized")
	}
	return &Publisher{conn: conn, ch: ch, exchange: cfg.Exchange}, nil
}

// Publish sends a persistent JSON message with the given routing key.
func (p *Publisher) Publish(ctx context.Context, msg Message) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher not initialized")
	}
	if strings.TrimSpace(msg.RoutingKey) == "" {
		return errors.New("routing key is required")
	}

	headers := amqp.Table{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx,
		p.exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.MessageID,
			Timestamp:    ts,
			Headers:      headers,
			Body:         msg.Body,
		},
	)
}

// Ping checks the connection is open and the exchange still exists.
func (p *Publisher) Ping(context.Context) error {
	if p == nil || p.ch == nil {
		return errors.New("rabbitmq publisher not initialized")
	}
	if p.conn != nil && p.conn.IsClosed() {
		return errors.New("rabbitmq connection closed")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.ExchangeDeclarePassive(p.exchange, exchangeType, true, false, false, false, nil)
}

func (p *Publisher) Close() error {
	if p == nil {
		return nil
	}
	var err error
	if p.ch != nil {
		err = multierr.Append(err, p.ch.Close())
	}
	if p.conn != nil && !p.conn.IsClosed() {
		err = multierr.Append(err, p.conn.Close())
	}
	return err
}
