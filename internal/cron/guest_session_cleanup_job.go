package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/abhishekwt3/e-commerce-mobile/pkg/logger"
)

type guestSessionPurger interface {
	PurgeExpiredGuestSessions(ctx context.Context, cutoff time.Time) (sessions int64, lines int64, err error)
}

type GuestSessionCleanupJobParams struct {
	Logger *logger.Logger
	Carts  guestSessionPurger
	// Grace keeps sessions around for a while after they expire.
	Grace time.Duration
}

// NewGuestSessionCleanupJob removes expired guest sessions and their cart lines.
func NewGuestSessionCleanupJob(params GuestSessionCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Grace < 0 {
		return nil, fmt.Errorf("grace must not be negative")
	}
	return &guestSessionCleanupJob{
		logg:  params.Logger,
		carts: params.Carts,
		grace: params.Grace,
		now:   time.Now,
	}, nil
}

type guestSessionCleanupJob struct {
	logg  *logger.Logger
	carts guestSessionPurger
	grace time.Duration
	now   func() time.Time
}

func (j *guestSessionCleanupJob) Name() string { return "guest_session_cleanup" }

func (j *guestSessionCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.grace)
	sessions, lines, err := j.carts.PurgeExpiredGuestSessions(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("purge guest sessions: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":           cutoff,
		"sessions_deleted": sessions,
		"lines_deleted":    lines,
	}), "guest session cleanup complete")
	return nil
}
