package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/config"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/metrics"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/migrate"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/outbox/registry"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/pubsub"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/rabbitmq"
)

const serviceKind = "outbox-publisher"

func main() {
	requeue := flag.String("requeue", "", "move a dead-lettered event back into the outbox and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: serviceKind})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceKind

	logg = logger.New(logger.Options{
		ServiceName: serviceKind,
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      logger.ParseFormat(cfg.App.LogFormat),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"broker":      cfg.Broker.Kind,
	})

	if *requeue != "" {
		if err := requeueEvent(ctx, cfg, logg, *requeue); err != nil {
			logg.Error(ctx, "requeue failed", err)
			os.Exit(1)
		}
		return
	}

	if err := run(ctx, cfg, logg); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		os.Exit(1)
	}
	logg.Info(ctx, "outbox publisher shutting down gracefully")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger) (err error) {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	var target sink
	if cfg.Broker.IsPubSub() {
		client, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, client.Close()) }()
		target = newPubSubSink(client)
	} else {
		publisher, err := rabbitmq.New(ctx, cfg.AMQP, logg)
		if err != nil {
			return err
		}
		defer func() { err = multierr.Append(err, publisher.Close()) }()
		target = newAMQPSink(publisher)
	}

	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		return err
	}

	service, err := NewService(ServiceParams{
		Config:        cfg,
		Logger:        logg,
		DB:            dbClient,
		Sink:          target,
		Repository:    outbox.NewRepository(dbClient.DB()),
		Registry:      eventRegistry,
		DLQRepository: outbox.NewDLQRepository(dbClient.DB()),
		Metrics:       metrics.NewOutboxMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		return err
	}

	logg.Info(ctx, "starting outbox publisher")
	return service.Run(ctx)
}

func requeueEvent(ctx context.Context, cfg *config.Config, logg *logger.Logger, rawID string) (err error) {
	eventID, err := uuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid event id %q: %w", rawID, err)
	}

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := outbox.NewDLQRepository(dbClient.DB()).Requeue(ctx, eventID); err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "event_id", eventID.String()), "event requeued for publishing")
	return nil
}
