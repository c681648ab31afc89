package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/selfydev/selfy-backend/pkg/logger"
)

const defaultNotificationRetentionDays = 90

type NotificationRetentionJobParams struct {
	Logger        *logger.Logger
	Notifications notificationsPurger
	RetentionDays int
}

type notificationsPurger interface {
	PurgeRead(ctx context.Context, cutoff time.Time) (int64, error)
}

func NewNotificationRetentionJob(params NotificationRetentionJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Notifications == nil {
		return nil, fmt.Errorf("notifications service required")
	}
	retention := params.RetentionDays
	if retention <= 0 {
		retention = defaultNotificationRetentionDays
	}
	return &notificationRetentionJob{
		logg:          params.Logger,
		notifications: params.Notifications,
		retention:     retention,
		now:           time.Now,
	}, nil
}

type notificationRetentionJob struct {
	logg          *logger.Logger
	notifications notificationsPurger
	retention     int
	now           func() time.Time
}

func (j *notificationRetentionJob) Name() string { return "notification-retention" }

func (j *notificationRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retention) * 24 * time.Hour)
	deleted, err := j.notifications.PurgeRead(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("notification retention: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":         cutoff,
		"retention_days": j.retention,
		"rows_deleted":   deleted,
	})
	j.logg.Info(logCtx, "notification retention complete")
	return nil
}
