package cron

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhishekwt3/e-commerce-mobile/internal/cart"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/dbtest"
	"github.com/abhishekwt3/e-commerce-mobile/pkg/db/models"
)

type fakeOutboxRetentionRepo struct {
	cutoff time.Time
	err    error
}

func (f *fakeOutboxRetentionRepo) DeletePublishedBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 7, f.err
}

func TestOutboxRetentionJobCutoff(t *testing.T) {
	now := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)
	repo := &fakeOutboxRetentionRepo{}
	var buf bytes.Buffer
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{Logger: newTestLogger(&buf), Repository: repo})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -outboxRetentionDays), repo.cutoff)
	assert.Contains(t, buf.String(), `"rows_deleted":7`)

	repo.err = errors.New("boom")
	assert.Error(t, job.Run(context.Background()))
}

type fakeDLQRetentionRepo struct {
	cutoff time.Time
}

func (f *fakeDLQRetentionRepo) PurgeBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return 2, nil
}

func TestOutboxRetentionJobPurgesDLQ(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	dlq := &fakeDLQRetentionRepo{}
	var buf bytes.Buffer
	job, err := NewOutboxRetentionJob(OutboxRetentionJobParams{
		Logger:       newTestLogger(&buf),
		Repository:   &fakeOutboxRetentionRepo{},
		DLQ:          dlq,
		Retention:    7,
		DLQRetention: 30,
	})
	require.NoError(t, err)
	job.(*outboxRetentionJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, now.AddDate(0, 0, -30), dlq.cutoff)
	assert.Contains(t, buf.String(), `"dlq_rows_deleted":2`)
	assert.Contains(t, buf.String(), `"retention_days":7`)
}

func TestGuestSessionCleanupJobPurgesExpiredCarts(t *testing.T) {
	conn := dbtest.Open(t)
	category := dbtest.Category(t, conn, "toys")
	product := dbtest.Product(t, conn, category.ID, "yo-yo", 499, 20)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	expired := "guest-expired"
	live := "guest-live"
	dbtest.Create(t, conn, &models.GuestSession{SessionID: expired, ExpiresAt: now.Add(-2 * time.Hour)})
	dbtest.Create(t, conn, &models.GuestSession{SessionID: live, ExpiresAt: now.Add(24 * time.Hour)})
	dbtest.Create(t, conn, &models.CartItem{GuestSessionID: &expired, ProductID: product.ID, Quantity: 1})
	dbtest.Create(t, conn, &models.CartItem{GuestSessionID: &live, ProductID: product.ID, Quantity: 2})

	var buf bytes.Buffer
	job, err := NewGuestSessionCleanupJob(GuestSessionCleanupJobParams{
		Logger: newTestLogger(&buf),
		Carts:  cart.NewRepository(conn),
		Grace:  time.Hour,
	})
	require.NoError(t, err)
	job.(*guestSessionCleanupJob).now = func() time.Time { return now }

	require.NoError(t, job.Run(context.Background()))
	assert.Contains(t, buf.String(), `"sessions_deleted":1`)
	assert.Contains(t, buf.String(), `"lines_deleted":1`)

	var remaining []models.CartItem
	require.NoError(t, conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	assert.Equal(t, live, *remaining[0].GuestSessionID)
}

func TestGuestSessionCleanupJobValidation(t *testing.T) {
	_, err := NewGuestSessionCleanupJob(GuestSessionCleanupJobParams{Logger: newTestLogger(&bytes.Buffer{})})
	assert.Error(t, err)
	_, err = NewGuestSessionCleanupJob(GuestSessionCleanupJobParams{
		Logger: newTestLogger(&bytes.Buffer{}),
		Carts:  cart.NewRepository(nil),
		Grace:  -time.Second,
	})
	assert.Error(t, err)
}
