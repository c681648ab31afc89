package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/selfydev/selfy-backend/pkg/db/models"
	"github.com/selfydev/selfy-backend/pkg/enums"
	"github.com/selfydev/selfy-backend/pkg/logger"
	"github.com/selfydev/selfy-backend/pkg/outbox"
	"github.com/selfydev/selfy-backend/pkg/outbox/payloads"
)

type fakeCreditsRepo struct {
	expired       []models.CorporatePackage
	findErr       error
	deactivated   []uuid.UUID
	deactivateErr map[uuid.UUID]error
}

func (f *fakeCreditsRepo) FindExpired(ctx context.Context, now time.Time) ([]models.CorporatePackage, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.expired, nil
}

func (f *fakeCreditsRepo) DeactivateTx(tx *gorm.DB, packageID uuid.UUID) (bool, error) {
	if err := f.deactivateErr[packageID]; err != nil {
		return false, err
	}
	f.deactivated = append(f.deactivated, packageID)
	return true, nil
}

type fakeEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type cronFakeTxRunner struct{}

func (cronFakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newPackageExpiryJob(t *testing.T, repo *fakeCreditsRepo, emitter *fakeEmitter) *packageExpiryJob {
	t.Helper()
	jobIface, err := NewPackageExpiryJob(PackageExpiryJobParams{
		Logger:      logger.New(logger.Options{ServiceName: "test"}),
		DB:          cronFakeTxRunner{},
		CreditsRepo: repo,
		Outbox:      emitter,
	})
	if err != nil {
		t.Fatalf("NewPackageExpiryJob: %v", err)
	}
	job, ok := jobIface.(*packageExpiryJob)
	if !ok {
		t.Fatalf("expected packageExpiryJob, got %T", jobIface)
	}
	return job
}

func expiredPackage(total, used int) models.CorporatePackage {
	expires := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	return models.CorporatePackage{
		ID:             uuid.New(),
		OrganizationID: uuid.New(),
		TotalCredits:   total,
		UsedCredits:    used,
		ExpiresAt:      &expires,
		Active:         true,
	}
}

func TestPackageExpiryJobDeactivatesAndEmits(t *testing.T) {
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	pkg := expiredPackage(10, 4)
	repo := &fakeCreditsRepo{expired: []models.CorporatePackage{pkg}}
	emitter := &fakeEmitter{}

	job := newPackageExpiryJob(t, repo, emitter)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != pkg.ID {
		t.Fatalf("expected package %s deactivated, got %v", pkg.ID, repo.deactivated)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventPackageExpired {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.PackageExpiredEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.UnusedCredits != 6 {
		t.Fatalf("expected 6 unused credits, got %d", payload.UnusedCredits)
	}
	if !payload.ExpiredAt.Equal(now) {
		t.Fatalf("expected expiredAt %s, got %s", now, payload.ExpiredAt)
	}
}

func TestPackageExpiryJobContinuesPastFailures(t *testing.T) {
	bad := expiredPackage(5, 5)
	good := expiredPackage(5, 1)
	repo := &fakeCreditsRepo{
		expired:       []models.CorporatePackage{bad, good},
		deactivateErr: map[uuid.UUID]error{bad.ID: errors.New("boom")},
	}
	emitter := &fakeEmitter{}

	job := newPackageExpiryJob(t, repo, emitter)

	if err := job.Run(context.Background()); err == nil {
		t.Fatal("expected combined error")
	}
	if len(repo.deactivated) != 1 || repo.deactivated[0] != good.ID {
		t.Fatalf("expected good package still processed, got %v", repo.deactivated)
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(emitter.events))
	}
}

func TestPackageExpiryJobNothingExpired(t *testing.T) {
	repo := &fakeCreditsRepo{}
	emitter := &fakeEmitter{}
	job := newPackageExpiryJob(t, repo, emitter)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}
