package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
)

const packageExpiryActor = "cron-worker"

// PackageExpiryJobParams configures the scheduled package expiry work.
type PackageExpiryJobParams struct {
	Logger      *logger.Logger
	DB          txRunner
	CreditsRepo creditsRepository
	Outbox      outboxEmitter
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type creditsRepository interface {
	FindExpired(ctx context.Context, now time.Time) ([]models.CorporatePackage, error)
	DeactivateTx(tx *gorm.DB, packageID uuid.UUID) (bool, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// NewPackageExpiryJob constructs the corporate package expiry cron job.
func NewPackageExpiryJob(params PackageExpiryJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.DB == nil {
		return nil, fmt.Errorf("db runner required")
	}
	if params.CreditsRepo == nil {
		return nil, fmt.Errorf("credits repository required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox service required")
	}
	return &packageExpiryJob{
		logg:    params.Logger,
		db:      params.DB,
		credits: params.CreditsRepo,
		outbox:  params.Outbox,
		now:     time.Now,
	}, nil
}

type packageExpiryJob struct {
	logg    *logger.Logger
	db      txRunner
	credits creditsRepository
	outbox  outboxEmitter
	now     func() time.Time
}

func (j *packageExpiryJob) Name() string { return "package-expiry" }

func (j *packageExpiryJob) Run(ctx context.Context) error {
	now := j.now().UTC()
	expired, err := j.credits.FindExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("query expired packages: %w", err)
	}

	var errs []error
	count := 0
	for _, pkg := range expired {
		if err := j.expirePackage(ctx, pkg, now); err != nil {
			errs = append(errs, fmt.Errorf("expire package %s: %w", pkg.ID, err))
			continue
		}
		count++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{"count": count, "candidates": len(expired)})
	j.logg.Info(logCtx, "package expiry loop complete")
	return multierr.Combine(errs...)
}

// expirePackage runs per package so one bad row cannot block the rest of the
// batch. The deactivation and its outbox event commit together.
func (j *packageExpiryJob) expirePackage(ctx context.Context, pkg models.CorporatePackage, now time.Time) error {
	return j.db.WithTx(ctx, func(tx *gorm.DB) error {
		deactivated, err := j.credits.DeactivateTx(tx, pkg.ID)
		if err != nil {
			return err
		}
		if !deactivated {
			// Another worker already took this one.
			return nil
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventPackageExpired,
			AggregateType: enums.AggregateCorporatePackage,
			AggregateID:   pkg.ID,
			Data: payloads.PackageExpiredEvent{
				PackageID:      pkg.ID,
				OrganizationID: pkg.OrganizationID,
				ExpiredAt:      now,
				UnusedCredits:  pkg.RemainingCredits(),
				DeactivatedBy:  packageExpiryActor,
			},
			Version:    1,
			OccurredAt: now,
		}
		return j.outbox.Emit(ctx, tx, event)
	})
}
