package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/selfydev/selfy-backend/pkg/logger"
)

type fakePurger struct {
	lastCutoff time.Time
	deleted    int64
	err        error
	called     int
}

func (f *fakePurger) PurgeRead(ctx context.Context, cutoff time.Time) (int64, error) {
	f.called++
	f.lastCutoff = cutoff
	if f.err != nil {
		return 0, f.err
	}
	return f.deleted, nil
}

func newRetentionJob(t *testing.T, purger *fakePurger, retention int) *notificationRetentionJob {
	t.Helper()
	jobIface, err := NewNotificationRetentionJob(NotificationRetentionJobParams{
		Logger:        logger.New(logger.Options{ServiceName: "test"}),
		Notifications: purger,
		RetentionDays: retention,
	})
	if err != nil {
		t.Fatalf("NewNotificationRetentionJob: %v", err)
	}
	job, ok := jobIface.(*notificationRetentionJob)
	if !ok {
		t.Fatalf("expected notificationRetentionJob, got %T", jobIface)
	}
	return job
}

func TestNotificationRetentionJobPurgesOldRows(t *testing.T) {
	now := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	purger := &fakePurger{deleted: 42}
	job := newRetentionJob(t, purger, 30)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	expectedCutoff := now.Add(-30 * 24 * time.Hour)
	if !purger.lastCutoff.Equal(expectedCutoff) {
		t.Fatalf("expected cutoff %s, got %s", expectedCutoff, purger.lastCutoff)
	}
	if purger.called != 1 {
		t.Fatalf("expected purger called once, got %d", purger.called)
	}
}

func TestNotificationRetentionJobDefaultsRetention(t *testing.T) {
	job := newRetentionJob(t, &fakePurger{}, 0)
	if job.retention != defaultNotificationRetentionDays {
		t.Fatalf("expected default retention, got %d", job.retention)
	}
}

func TestNotificationRetentionJobPropagatesErrors(t *testing.T) {
	purger := &fakePurger{err: errors.New("boom")}
	job := newRetentionJob(t, purger, 30)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}
