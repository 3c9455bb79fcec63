package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

const (
	outboxRetentionDays = 30
	dlqRetentionDays    = 90
)

// OutboxRetentionJobParams configures the cleanup. DLQ is optional; when
// set, parked rows older than DLQRetention days are purged as well.
type OutboxRetentionJobParams struct {
	Logger       *logger.Logger
	Repository   outboxRetentionRepo
	DLQ          dlqRetentionRepo
	Retention    int
	DLQRetention int
}

type outboxRetentionRepo interface {
	DeletePublishedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type dlqRetentionRepo interface {
	PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NewOutboxRetentionJob deletes published outbox rows older than Retention days.
func NewOutboxRetentionJob(params OutboxRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Repository == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	job := &outboxRetentionJob{
		logg:         params.Logger,
		repo:         params.Repository,
		dlq:          params.DLQ,
		retention:    params.Retention,
		dlqRetention: params.DLQRetention,
		now:          time.Now,
	}
	if job.retention <= 0 {
		job.retention = outboxRetentionDays
	}
	if job.dlqRetention <= 0 {
		job.dlqRetention = dlqRetentionDays
	}
	return job, nil
}

type outboxRetentionJob struct {
	logg         *logger.Logger
	repo         outboxRetentionRepo
	dlq          dlqRetentionRepo
	retention    int
	dlqRetention int
	now          func() time.Time
}

func (j *outboxRetentionJob) Name() string { return "outbox_retention" }

func (j *outboxRetentionJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	cutoff := now.AddDate(0, 0, -j.retention)
	deleted, err := j.repo.DeletePublishedBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("outbox retention: %w", err)
	}
	fields := map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	}

	if j.dlq != nil {
		dlqCutoff := now.AddDate(0, 0, -j.dlqRetention)
		purged, err := j.dlq.PurgeBefore(ctx, dlqCutoff)
		if err != nil {
			return fmt.Errorf("dlq retention: %w", err)
		}
		fields["dlq_cutoff"] = dlqCutoff
		fields["dlq_rows_deleted"] = purged
	}

	j.logg.Info(j.logg.WithFields(ctx, fields), "outbox retention cleanup complete")
	return nil
}
